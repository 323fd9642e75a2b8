package node

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"net/url"
	"strings"
	"time"

	"github.com/krupt/go-jsonrpc/jsonrpc"
	"github.com/krupt/go-jsonrpc/service"
	"github.com/krupt/go-jsonrpc/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sourcegraph/conc"
)

type httpService struct {
	srv      *http.Server
	listener net.Listener
}

var _ service.Service = (*httpService)(nil)

func (h *httpService) Run(ctx context.Context) error {
	errCh := make(chan error)
	defer close(errCh)

	var wg conc.WaitGroup
	defer wg.Wait()
	wg.Go(func() {
		if err := h.srv.Serve(h.listener); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	})

	select {
	case <-ctx.Done():
		return h.srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

func newHTTPService(listener net.Listener, handler http.Handler) *httpService {
	return &httpService{
		srv: &http.Server{
			Addr:    listener.Addr().String(),
			Handler: handler,
			// ReadTimeout also sets ReadHeaderTimeout and IdleTimeout.
			ReadTimeout: 30 * time.Second,
		},
		listener: listener,
	}
}

// withCORS allows cross-origin calls from origins. No origins means no CORS headers at all.
func withCORS(handler http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return handler
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(handler)
}

func makeRPCOverHTTP(listener net.Listener, path string, jsonrpcServer *jsonrpc.Server, logLevel *utils.LogLevel,
	origins []string, reqListener jsonrpc.NewRequestListener, log utils.SimpleLogger,
) *httpService {
	prefix := strings.TrimSuffix(path, "/")
	httpHandler := http.StripPrefix(prefix, jsonrpc.NewHTTP(jsonrpcServer, log).WithListener(reqListener))
	mux := http.NewServeMux()
	// Both /rpc and /rpc/ are served, the mux would otherwise redirect one to the other.
	mux.Handle(prefix+"/", httpHandler)
	if prefix != "" {
		mux.Handle(prefix, httpHandler)
	}
	mux.HandleFunc("/log/level", func(w http.ResponseWriter, r *http.Request) {
		utils.HTTPLogSettings(w, r, logLevel)
	})
	return newHTTPService(listener, withCORS(mux, origins))
}

func makeRPCOverWebsocket(listener net.Listener, jsonrpcServer *jsonrpc.Server, origins []string,
	reqListener jsonrpc.NewRequestListener, log utils.SimpleLogger,
) *httpService {
	wsHandler := jsonrpc.NewWebsocket(jsonrpcServer, log).
		WithListener(reqListener).
		WithOriginPatterns(originPatterns(origins)...)
	mux := http.NewServeMux()
	mux.Handle("/", wsHandler)
	return newHTTPService(listener, mux)
}

// originPatterns turns CORS origins such as https://app.example.com into the host patterns the
// websocket handshake matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, origin)
	}
	return patterns
}

func makeMetrics(listener net.Listener) *httpService {
	return newHTTPService(listener,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{Registry: prometheus.DefaultRegisterer}))
}

func makePPROF(listener net.Listener) *httpService {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return newHTTPService(listener, mux)
}
