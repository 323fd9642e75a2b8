package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/krupt/go-jsonrpc/client"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

const (
	timeoutF = "timeout"
	retriesF = "retries"

	defaultTimeout = 30 * time.Second
	defaultRetries = uint64(0)

	timeoutUsage = "Maximum duration of the whole command, dialing included."
	retriesUsage = "How many times a failed dial is retried."
)

func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().Duration(timeoutF, defaultTimeout, timeoutUsage)
	cmd.Flags().Uint64(retriesF, defaultRetries, retriesUsage)
}

func dial(cmd *cobra.Command, endpoint string) (*client.Client, func(), error) {
	timeout, err := cmd.Flags().GetDuration(timeoutF)
	if err != nil {
		return nil, nil, err
	}
	retries, err := cmd.Flags().GetUint64(retriesF)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	c, err := client.Dial(ctx, endpoint, client.WithMaxRetries(retries))
	if err != nil {
		cancel()
		return nil, nil, err
	}
	cmd.SetContext(ctx)
	return c, func() {
		c.Close()
		cancel()
	}, nil
}

// CallCmd calls a single method and prints its result.
func CallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <endpoint> <method> [params]",
		Short: "Call a method and print its result as JSON.",
		Long: "Call a method on a jsonrpcd server and print its result as JSON.\n" +
			"The endpoint is a ws:// URL, an ipc:// URL or a socket path. Params are given as JSON.",
		Args: cobra.RangeArgs(2, 3), //nolint:mnd
		RunE: runCall,
	}
	addClientFlags(cmd)
	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	var params any
	if len(args) == 3 { //nolint:mnd
		if !json.Valid([]byte(args[2])) {
			return errors.New("params must be valid JSON")
		}
		params = json.RawMessage(args[2])
	}

	c, done, err := dial(cmd, args[0])
	if err != nil {
		return err
	}
	defer done()

	var result json.RawMessage
	if err = c.Call(cmd.Context(), args[1], params, &result); err != nil {
		return err
	}

	var out bytes.Buffer
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	if err = json.Indent(&out, result, "", "  "); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out.String())
	return err
}

// MethodsCmd lists the methods a server describes through rpc.discover.
func MethodsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "methods <endpoint>",
		Short: "List the methods of a jsonrpcd server.",
		Args:  cobra.ExactArgs(1),
		RunE:  runMethods,
	}
	addClientFlags(cmd)
	return cmd
}

func runMethods(cmd *cobra.Command, args []string) error {
	c, done, err := dial(cmd, args[0])
	if err != nil {
		return err
	}
	defer done()

	methods, err := c.Methods(cmd.Context())
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Method", "Params", "Result"})
	for _, m := range methods {
		params := make([]string, 0, len(m.Params))
		for _, p := range m.Params {
			name := p.Name
			if !p.Required {
				name += "?"
			}
			params = append(params, name)
		}
		result := "-"
		if m.Result != nil {
			result = schemaType(m.Result.Schema)
		}
		table.Append([]string{m.Name, strings.Join(params, ", "), result})
	}
	table.SetFooter([]string{"Total", fmt.Sprintf("%d", len(methods)), ""})
	table.Render()
	return nil
}

// schemaType names the JSON type a schema describes, refs and compound schemas read as objects.
func schemaType(schema map[string]any) string {
	switch t := schema["type"].(type) {
	case string:
		return t
	case []any:
		names := make([]string, 0, len(t))
		for _, name := range t {
			names = append(names, fmt.Sprint(name))
		}
		return strings.Join(names, " | ")
	default:
		return "object"
	}
}
