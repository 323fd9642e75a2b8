package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/krupt/go-jsonrpc/node"
	"github.com/krupt/go-jsonrpc/pageable"
	"github.com/krupt/go-jsonrpc/utils"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

var Version string

const greeting = `
   _                                   _
  (_)___  ___  _ __  _ __ _ __   ___ __| |
  | / __|/ _ \| '_ \| '__| '_ \ / __/ _' |
  | \__ \ (_) | | | | |  | |_) | (_| (_| |
 _/ |___/\___/|_| |_|_|  | .__/ \___\__,_|
|__/                     |_|

jsonrpcd %s serves JSON-RPC 2.0 methods over HTTP, WebSocket and IPC.

`

const (
	configF          = "config"
	envFileF         = "env-file"
	logLevelF        = "log-level"
	colourF          = "colour"
	httpF            = "http"
	httpHostF        = "http-host"
	httpPortF        = "http-port"
	httpPathF        = "http-path"
	wsF              = "ws"
	wsHostF          = "ws-host"
	wsPortF          = "ws-port"
	ipcF             = "ipc"
	ipcPathF         = "ipc-path"
	metricsF         = "metrics"
	metricsHostF     = "metrics-host"
	metricsPortF     = "metrics-port"
	pprofF           = "pprof"
	pprofHostF       = "pprof-host"
	pprofPortF       = "pprof-port"
	maxGoroutinesF   = "max-goroutines"
	rateLimitF       = "rate-limit"
	rateBurstF       = "rate-burst"
	requestTimeoutF  = "request-timeout"
	pageDefaultSizeF = "page-default-size"
	pageMaxSizeF     = "page-max-size"
	corsOriginsF     = "cors-origins"
	etcdEndpointsF   = "etcd-endpoints"
	etcdTTLF         = "etcd-ttl"
	advertiseAddrF   = "advertise-addr"
	demoF            = "demo"

	defaultConfig          = ""
	defaultEnvFile         = ""
	defaultColour          = true
	defaultHTTP            = true
	defaultHost            = "localhost"
	defaultHTTPPort        = uint16(6060)
	defaultHTTPPath        = "/"
	defaultWS              = false
	defaultWSPort          = uint16(6061)
	defaultIPC             = false
	defaultIPCPath         = "jsonrpcd.ipc"
	defaultMetrics         = false
	defaultMetricsPort     = uint16(9090)
	defaultPprof           = false
	defaultPprofPort       = uint16(6062)
	defaultMaxGoroutines   = 0
	defaultRateLimit       = 0.0
	defaultRateBurst       = 0
	defaultRequestTimeout  = time.Duration(0)
	defaultPageDefaultSize = 0
	defaultPageMaxSize     = pageable.MaxSize
	defaultEtcdTTL         = 10 * time.Second
	defaultAdvertiseAddr   = ""
	defaultDemo            = false

	configFlagUsage   = "The YAML configuration file."
	envFileUsage      = "A .env file to load JSONRPCD_* variables from. Defaults to ./.env when it exists."
	logLevelFlagUsage = "Options: trace, debug, info, warn, error."
	colourUsage       = "Use `--colour=false` command to disable colourized outputs (ANSI Escape Codes)."
	httpUsage         = "Enables the JSON-RPC server over HTTP."
	httpHostUsage     = "The interface on which the HTTP server will listen for requests."
	httpPortUsage     = "The port on which the HTTP server will listen for requests."
	httpPathUsage     = "The path under which JSON-RPC requests are accepted over HTTP."
	wsUsage           = "Enables the JSON-RPC server over WebSocket."
	wsHostUsage       = "The interface on which the WebSocket server will listen for connections."
	wsPortUsage       = "The port on which the WebSocket server will listen for connections."
	ipcUsage          = "Enables the JSON-RPC server over a Unix domain socket."
	ipcPathUsage      = "The path of the IPC socket."
	metricsUsage      = "Enables the Prometheus metrics endpoint."
	metricsHostUsage  = "The interface on which the Prometheus endpoint will listen for requests."
	metricsPortUsage  = "The port on which the Prometheus endpoint will listen for requests."
	pprofUsage        = "Enables the pprof endpoint."
	pprofHostUsage    = "The interface on which the pprof HTTP server will listen for requests."
	pprofPortUsage    = "The port on which the pprof HTTP server will listen for requests."
	maxGoroutinesUsage = "Maximum number of goroutines serving the requests of one batch. " +
		"0 means twice the number of CPUs."
	rateLimitUsage       = "Requests per second allowed across the server. 0 disables rate limiting."
	rateBurstUsage       = "Requests allowed to exceed the rate limit at once."
	requestTimeoutUsage  = "Maximum duration of a single method call. 0 disables the timeout."
	pageDefaultSizeUsage = "Page size used when a pageable request omits it. " +
		"Unset means 20, lowered to page-max-size when that is smaller."
	pageMaxSizeUsage     = "Page sizes above this value are clamped to it."
	corsOriginsUsage     = "Origins allowed to make cross-origin HTTP and WebSocket calls."
	etcdEndpointsUsage   = "etcd endpoints to announce this server on. Empty disables registration."
	etcdTTLUsage         = "Lease TTL of the etcd registration."
	advertiseAddrUsage   = "Address announced in etcd. Defaults to the WebSocket listener address."
	demoUsage            = "Registers the sample methods and the testService service."
)

// Node is the part of *node.Node the command drives.
type Node interface {
	Run(ctx context.Context)
	Config() node.Config
}

type NewNodeFn func(cfg *node.Config, version string) (Node, error)

func newNode(cfg *node.Config, version string) (Node, error) {
	return node.New(cfg, version)
}

// JsonrpcdNode is the node started by the last execution of the root command.
var JsonrpcdNode Node

func NewCmd(newNodeFn NewNodeFn) *cobra.Command {
	jsonrpcdCmd := &cobra.Command{
		Use:     "jsonrpcd [flags]",
		Short:   "JSON-RPC 2.0 server.",
		Version: Version,
		Args:    cobra.NoArgs,
	}

	var cfgFile, envFile string
	defaultLogLevel := utils.NewLogLevel(utils.INFO)

	jsonrpcdCmd.Flags().StringVar(&cfgFile, configF, defaultConfig, configFlagUsage)
	jsonrpcdCmd.Flags().StringVar(&envFile, envFileF, defaultEnvFile, envFileUsage)
	jsonrpcdCmd.Flags().Var(defaultLogLevel, logLevelF, logLevelFlagUsage)
	jsonrpcdCmd.Flags().Bool(colourF, defaultColour, colourUsage)
	jsonrpcdCmd.Flags().Bool(httpF, defaultHTTP, httpUsage)
	jsonrpcdCmd.Flags().String(httpHostF, defaultHost, httpHostUsage)
	jsonrpcdCmd.Flags().Uint16(httpPortF, defaultHTTPPort, httpPortUsage)
	jsonrpcdCmd.Flags().String(httpPathF, defaultHTTPPath, httpPathUsage)
	jsonrpcdCmd.Flags().Bool(wsF, defaultWS, wsUsage)
	jsonrpcdCmd.Flags().String(wsHostF, defaultHost, wsHostUsage)
	jsonrpcdCmd.Flags().Uint16(wsPortF, defaultWSPort, wsPortUsage)
	jsonrpcdCmd.Flags().Bool(ipcF, defaultIPC, ipcUsage)
	jsonrpcdCmd.Flags().String(ipcPathF, defaultIPCPath, ipcPathUsage)
	jsonrpcdCmd.Flags().Bool(metricsF, defaultMetrics, metricsUsage)
	jsonrpcdCmd.Flags().String(metricsHostF, defaultHost, metricsHostUsage)
	jsonrpcdCmd.Flags().Uint16(metricsPortF, defaultMetricsPort, metricsPortUsage)
	jsonrpcdCmd.Flags().Bool(pprofF, defaultPprof, pprofUsage)
	jsonrpcdCmd.Flags().String(pprofHostF, defaultHost, pprofHostUsage)
	jsonrpcdCmd.Flags().Uint16(pprofPortF, defaultPprofPort, pprofPortUsage)
	jsonrpcdCmd.Flags().Int(maxGoroutinesF, defaultMaxGoroutines, maxGoroutinesUsage)
	jsonrpcdCmd.Flags().Float64(rateLimitF, defaultRateLimit, rateLimitUsage)
	jsonrpcdCmd.Flags().Int(rateBurstF, defaultRateBurst, rateBurstUsage)
	jsonrpcdCmd.Flags().Duration(requestTimeoutF, defaultRequestTimeout, requestTimeoutUsage)
	jsonrpcdCmd.Flags().Int(pageDefaultSizeF, defaultPageDefaultSize, pageDefaultSizeUsage)
	jsonrpcdCmd.Flags().Int(pageMaxSizeF, defaultPageMaxSize, pageMaxSizeUsage)
	jsonrpcdCmd.Flags().StringSlice(corsOriginsF, nil, corsOriginsUsage)
	jsonrpcdCmd.Flags().StringSlice(etcdEndpointsF, nil, etcdEndpointsUsage)
	jsonrpcdCmd.Flags().Duration(etcdTTLF, defaultEtcdTTL, etcdTTLUsage)
	jsonrpcdCmd.Flags().String(advertiseAddrF, defaultAdvertiseAddr, advertiseAddrUsage)
	jsonrpcdCmd.Flags().Bool(demoF, defaultDemo, demoUsage)

	jsonrpcdCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd, cfgFile, envFile)
		if err != nil {
			return err
		}

		if _, err = fmt.Fprintf(cmd.OutOrStdout(), greeting, Version); err != nil {
			return err
		}

		JsonrpcdNode, err = newNodeFn(cfg, Version)
		if err != nil {
			return err
		}

		JsonrpcdNode.Run(cmd.Context())
		return nil
	}

	jsonrpcdCmd.AddCommand(CallCmd(), MethodsCmd())
	return jsonrpcdCmd
}

// loadConfig merges, from lowest to highest precedence, flag defaults, the config file,
// JSONRPCD_* environment variables (including those in the env file) and explicitly set flags.
func loadConfig(cmd *cobra.Command, cfgFile, envFile string) (*node.Config, error) {
	if envFile != "" {
		if err := gotenv.Load(envFile); err != nil {
			return nil, err
		}
	} else {
		// ./.env is optional.
		_ = gotenv.Load()
	}

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix("JSONRPCD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	cfg := new(node.Config)
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
