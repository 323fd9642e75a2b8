package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"reflect"
	"runtime"
	"strconv"
	"time"

	"github.com/krupt/go-jsonrpc/internal/testmethods"
	"github.com/krupt/go-jsonrpc/jsonrpc"
	"github.com/krupt/go-jsonrpc/middleware"
	"github.com/krupt/go-jsonrpc/pageable"
	"github.com/krupt/go-jsonrpc/registry"
	"github.com/krupt/go-jsonrpc/service"
	"github.com/krupt/go-jsonrpc/utils"
	"github.com/krupt/go-jsonrpc/validator"
	"github.com/sourcegraph/conc"
)

const ServiceName = "jsonrpcd"

// Config is the top-level jsonrpcd configuration.
type Config struct {
	LogLevel utils.LogLevel `mapstructure:"log-level"`
	Colour   bool           `mapstructure:"colour"`

	HTTP     bool   `mapstructure:"http"`
	HTTPHost string `mapstructure:"http-host"`
	HTTPPort uint16 `mapstructure:"http-port"`
	HTTPPath string `mapstructure:"http-path"`

	Websocket     bool   `mapstructure:"ws"`
	WebsocketHost string `mapstructure:"ws-host"`
	WebsocketPort uint16 `mapstructure:"ws-port"`

	IPC     bool   `mapstructure:"ipc"`
	IPCPath string `mapstructure:"ipc-path"`

	Metrics     bool   `mapstructure:"metrics"`
	MetricsHost string `mapstructure:"metrics-host"`
	MetricsPort uint16 `mapstructure:"metrics-port"`

	Pprof     bool   `mapstructure:"pprof"`
	PprofHost string `mapstructure:"pprof-host"`
	PprofPort uint16 `mapstructure:"pprof-port"`

	// MaxGoroutines bounds the goroutines serving the items of one batch. Zero means twice GOMAXPROCS.
	MaxGoroutines  int           `mapstructure:"max-goroutines"`
	RateLimit      float64       `mapstructure:"rate-limit"`
	RateBurst      int           `mapstructure:"rate-burst"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`

	PageDefaultSize int `mapstructure:"page-default-size"`
	PageMaxSize     int `mapstructure:"page-max-size"`

	CORSOrigins []string `mapstructure:"cors-origins"`

	EtcdEndpoints []string      `mapstructure:"etcd-endpoints"`
	EtcdTTL       time.Duration `mapstructure:"etcd-ttl"`
	AdvertiseAddr string        `mapstructure:"advertise-addr"`

	// Demo registers the built-in sample methods and services.
	Demo bool `mapstructure:"demo"`
}

// Node is a jsonrpc server together with the services exposing it.
type Node struct {
	cfg      *Config
	log      utils.SimpleLogger
	server   *jsonrpc.Server
	services []service.Service
	version  string
	closers  []func() error
}

// New sets up the server and every service enabled in cfg. Listeners are bound here, so a port
// conflict is reported before Run.
func New(cfg *Config, version string) (*Node, error) {
	log, err := utils.NewZapLogger(&cfg.LogLevel, cfg.Colour)
	if err != nil {
		return nil, err
	}
	return NewWithLogger(cfg, version, log)
}

func NewWithLogger(cfg *Config, version string, log utils.SimpleLogger) (*Node, error) { //nolint:gocyclo,funlen
	if cfg.PageDefaultSize != 0 || cfg.PageMaxSize != 0 {
		defSize, maxSize := pageable.Limits()
		if cfg.PageDefaultSize != 0 {
			defSize = cfg.PageDefaultSize
		}
		if cfg.PageMaxSize != 0 {
			maxSize = cfg.PageMaxSize
			if cfg.PageDefaultSize == 0 {
				defSize = min(defSize, maxSize)
			}
		}
		if err := pageable.SetLimits(defSize, maxSize); err != nil {
			return nil, err
		}
	}

	maxGoroutines := cfg.MaxGoroutines
	if maxGoroutines <= 0 {
		// to improve RPC throughput we double GOMAXPROCS
		maxGoroutines = 2 * runtime.GOMAXPROCS(0)
	}
	server := jsonrpc.NewServer(maxGoroutines, log).WithValidator(validator.Validator())
	server.WithListener(makeRPCMetrics(cfg.Metrics))

	var middlewares []jsonrpc.Middleware
	middlewares = append(middlewares, middleware.Logging(log))
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		middlewares = append(middlewares, middleware.RateLimit(cfg.RateLimit, burst))
	}
	if cfg.RequestTimeout > 0 {
		middlewares = append(middlewares, middleware.Timeout(cfg.RequestTimeout))
	}
	server.Use(middlewares...)

	if err := registerBuiltins(server, version, log); err != nil {
		return nil, err
	}
	if cfg.Demo {
		if err := server.RegisterMethods(testmethods.Methods()...); err != nil {
			return nil, err
		}
		if err := server.RegisterService("testService", new(testmethods.Service)); err != nil {
			return nil, err
		}
	}

	n := &Node{
		cfg:     cfg,
		log:     log,
		server:  server,
		version: version,
	}
	if err := n.makeServices(); err != nil {
		n.close()
		return nil, err
	}
	return n, nil
}

func (n *Node) makeServices() (err error) { //nolint:gocyclo,funlen
	cfg := n.cfg
	if len(cfg.EtcdEndpoints) > 0 && cfg.AdvertiseAddr == "" && !cfg.Websocket {
		return errors.New("etcd registration needs advertise-addr or the websocket server")
	}

	// Listeners bound so far are released if a later step fails.
	var listeners []net.Listener
	defer func() {
		if err != nil {
			for _, l := range listeners {
				l.Close()
			}
		}
	}()
	listen := func(kind, host string, port uint16) (net.Listener, error) {
		l, lErr := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(int(port))))
		if lErr != nil {
			return nil, fmt.Errorf("listen on %s port %d: %w", kind, port, lErr)
		}
		listeners = append(listeners, l)
		return l, nil
	}

	if cfg.HTTP {
		listener, lErr := listen("http", cfg.HTTPHost, cfg.HTTPPort)
		if lErr != nil {
			return lErr
		}
		n.services = append(n.services, makeRPCOverHTTP(listener, cfg.HTTPPath, n.server, &cfg.LogLevel,
			cfg.CORSOrigins, makeHTTPMetrics(cfg.Metrics), n.log))
		n.log.Infow("Serving JSON-RPC over HTTP", "addr", listener.Addr().String(), "path", cfg.HTTPPath,
			"maxBody", utils.DataSize(jsonrpc.MaxRequestBodySize))
	}
	var wsAddr string
	if cfg.Websocket {
		listener, lErr := listen("websocket", cfg.WebsocketHost, cfg.WebsocketPort)
		if lErr != nil {
			return lErr
		}
		wsAddr = "ws://" + listener.Addr().String()
		n.services = append(n.services, makeRPCOverWebsocket(listener, n.server, cfg.CORSOrigins,
			makeWSMetrics(cfg.Metrics), n.log))
		n.log.Infow("Serving JSON-RPC over websocket", "addr", listener.Addr().String())
	}
	if cfg.Metrics {
		listener, lErr := listen("metrics", cfg.MetricsHost, cfg.MetricsPort)
		if lErr != nil {
			return lErr
		}
		makeBuildMetrics(n.version)
		n.services = append(n.services, makeMetrics(listener))
	}
	if cfg.Pprof {
		listener, lErr := listen("pprof", cfg.PprofHost, cfg.PprofPort)
		if lErr != nil {
			return lErr
		}
		n.services = append(n.services, makePPROF(listener))
	}

	if len(cfg.EtcdEndpoints) > 0 {
		addr := cfg.AdvertiseAddr
		if addr == "" {
			addr = wsAddr
		}
		reg, rErr := registry.NewEtcdRegistry(cfg.EtcdEndpoints, n.log)
		if rErr != nil {
			return rErr
		}
		n.closers = append(n.closers, reg.Close)
		instance := registry.Instance{
			Name:    ServiceName,
			Addr:    addr,
			Version: n.version,
			Methods: utils.Map(n.server.Methods(), func(m jsonrpc.MethodInfo) string { return m.Name }),
		}
		n.services = append(n.services, registry.NewAnnouncer(reg, instance, cfg.EtcdTTL, n.log))
	}

	// The IPC socket is created last, nothing can fail after it.
	if cfg.IPC {
		ipc, iErr := jsonrpc.NewIpc(n.server, n.log, cfg.IPCPath)
		if iErr != nil {
			return fmt.Errorf("listen on ipc endpoint %s: %w", cfg.IPCPath, iErr)
		}
		n.services = append(n.services, ipc.WithListener(makeIPCMetrics(cfg.Metrics)))
		n.log.Infow("Serving JSON-RPC over IPC", "path", cfg.IPCPath)
	}
	return nil
}

// Run starts every service and blocks until ctx is cancelled or a service fails.
// Run will wait for all services to return before exiting.
func (n *Node) Run(ctx context.Context) {
	defer n.close()

	ctx, cancel := context.WithCancel(ctx)
	wg := conc.NewWaitGroup()
	for _, s := range n.services {
		wg.Go(func() {
			if err := s.Run(ctx); err != nil {
				n.log.Errorw("Service error", "name", reflect.TypeOf(s), "err", err)
				cancel()
			}
		})
	}
	defer wg.Wait()

	<-ctx.Done()
	cancel()
	n.log.Infow("Shutting down jsonrpcd...")
}

func (n *Node) close() {
	for _, closer := range n.closers {
		if err := closer(); err != nil {
			n.log.Errorw("Error while closing", "err", err)
		}
	}
	n.closers = nil
}

func (n *Node) Config() Config {
	return *n.cfg
}

func (n *Node) Server() *jsonrpc.Server {
	return n.server
}
