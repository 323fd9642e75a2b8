// Package client calls methods on a jsonrpc server over WebSocket or IPC.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	"github.com/krupt/go-jsonrpc/jsonrpc"
	"github.com/krupt/go-jsonrpc/registry"
	"github.com/krupt/go-jsonrpc/utils"
	"github.com/sourcegraph/jsonrpc2"
	wsstream "github.com/sourcegraph/jsonrpc2/websocket"
)

const (
	defaultMaxRetries  = 5
	defaultDialTimeout = 10 * time.Second
)

var ErrUnsupportedScheme = errors.New("unsupported endpoint scheme (known: ws, wss, ipc)")

type options struct {
	maxRetries  uint64
	dialTimeout time.Duration
	log         utils.SimpleLogger
}

type Option func(*options)

// WithMaxRetries sets how many times a failed dial is retried with exponential backoff.
func WithMaxRetries(n uint64) Option {
	return func(o *options) { o.maxRetries = n }
}

// WithDialTimeout bounds every single dial attempt.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) { o.dialTimeout = d }
}

func WithLogger(log utils.SimpleLogger) Option {
	return func(o *options) { o.log = log }
}

// Client is a connection to a single server. It is safe for concurrent use.
type Client struct {
	conn     *jsonrpc2.Conn
	endpoint string
}

// Dial connects to endpoint, which is a ws:// or wss:// URL, an ipc:// URL, or a bare socket path.
func Dial(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	o := options{
		maxRetries:  defaultMaxRetries,
		dialTimeout: defaultDialTimeout,
		log:         utils.NewNopZapLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	var stream jsonrpc2.ObjectStream
	attempt := 0
	dial := func() error {
		attempt++
		dialCtx, cancel := context.WithTimeout(ctx, o.dialTimeout)
		defer cancel()

		var err error
		stream, err = dialStream(dialCtx, endpoint)
		if errors.Is(err, ErrUnsupportedScheme) {
			return backoff.Permanent(err)
		}
		if err != nil {
			o.log.Debugw("Dial failed", "endpoint", endpoint, "attempt", attempt, "err", err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), o.maxRetries), ctx)
	if err := backoff.Retry(dial, policy); err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	return &Client{
		conn:     jsonrpc2.NewConn(context.Background(), stream, ignoreRequests{}),
		endpoint: endpoint,
	}, nil
}

// DialService picks one of the instances registered under name and dials it.
func DialService(ctx context.Context, reg registry.Registry, name string, picker *registry.RoundRobin,
	opts ...Option,
) (*Client, error) {
	instances, err := reg.Discover(ctx, name)
	if err != nil {
		return nil, err
	}
	instance, err := picker.Pick(instances)
	if err != nil {
		return nil, fmt.Errorf("service %s: %w", name, err)
	}
	return Dial(ctx, instance.Addr, opts...)
}

func dialStream(ctx context.Context, endpoint string) (jsonrpc2.ObjectStream, error) {
	scheme, rest, found := strings.Cut(endpoint, "://")
	if !found {
		scheme, rest = "ipc", endpoint
	}

	switch scheme {
	case "ws", "wss":
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			return nil, err
		}
		return wsstream.NewObjectStream(conn), nil
	case "ipc", "unix":
		conn, err := jsonrpc.IpcDial(ctx, rest)
		if err != nil {
			return nil, err
		}
		return jsonrpc2.NewBufferedStream(conn, jsonrpc2.PlainObjectCodec{}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

// Call invokes method and decodes its result into result, which may be nil to discard it.
// Every request carries a fresh UUID as its id.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	err = c.conn.Call(ctx, method, params, result, jsonrpc2.PickID(jsonrpc2.ID{Str: id.String(), IsString: true}))
	return convertError(err)
}

// Notify invokes method without waiting for, or receiving, a response.
func (c *Client) Notify(ctx context.Context, method string, params any) error {
	return convertError(c.conn.Notify(ctx, method, params))
}

// Methods lists the methods the server describes through rpc.discover.
func (c *Client) Methods(ctx context.Context) ([]MethodSummary, error) {
	var doc struct {
		Methods []MethodSummary `json:"methods"`
	}
	if err := c.Call(ctx, "rpc.discover", nil, &doc); err != nil {
		return nil, err
	}
	return doc.Methods, nil
}

// MethodSummary is the part of a rpc.discover entry the client cares about.
type MethodSummary struct {
	Name           string `json:"name"`
	ParamStructure string `json:"paramStructure"`
	Params         []struct {
		Name     string `json:"name"`
		Required bool   `json:"required"`
	} `json:"params"`
	Result *struct {
		Name   string         `json:"name"`
		Schema map[string]any `json:"schema"`
	} `json:"result"`
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Done is closed when the connection is lost or closed.
func (c *Client) Done() <-chan struct{} {
	return c.conn.DisconnectNotify()
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// convertError turns protocol errors sent by the server into *jsonrpc.Error.
func convertError(err error) error {
	var rpcErr *jsonrpc2.Error
	if !errors.As(err, &rpcErr) {
		return err
	}
	converted := &jsonrpc.Error{Code: int(rpcErr.Code), Message: rpcErr.Message}
	if rpcErr.Data != nil {
		var data any
		if json.Unmarshal(*rpcErr.Data, &data) == nil {
			converted.Data = data
		}
	}
	return converted
}

// ignoreRequests drops server-initiated requests, the server never sends any.
type ignoreRequests struct{}

func (ignoreRequests) Handle(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) {}
