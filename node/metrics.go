package node

import (
	"strconv"
	"time"

	"github.com/krupt/go-jsonrpc/jsonrpc"
	"github.com/prometheus/client_golang/prometheus"
)

// Every make*Metrics returns a listener that records nothing when metrics are disabled, so the
// collectors are only registered once per enabled node.

func makeTransportMetrics(enabled bool, subsystem string) jsonrpc.NewRequestListener {
	if !enabled {
		return &jsonrpc.SelectiveListener{}
	}
	reqCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rpc",
		Subsystem: subsystem,
		Name:      "requests",
	})
	prometheus.MustRegister(reqCounter)

	return &jsonrpc.SelectiveListener{
		OnNewRequestCb: func(method string) {
			reqCounter.Inc()
		},
	}
}

func makeHTTPMetrics(enabled bool) jsonrpc.NewRequestListener {
	return makeTransportMetrics(enabled, "http")
}

func makeWSMetrics(enabled bool) jsonrpc.NewRequestListener {
	return makeTransportMetrics(enabled, "ws")
}

func makeIPCMetrics(enabled bool) jsonrpc.NewRequestListener {
	return makeTransportMetrics(enabled, "ipc")
}

func makeRPCMetrics(enabled bool) jsonrpc.EventListener {
	if !enabled {
		return &jsonrpc.SelectiveListener{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rpc",
		Subsystem: "server",
		Name:      "requests",
	}, []string{"method"})
	failedRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rpc",
		Subsystem: "server",
		Name:      "failed_requests",
	}, []string{"method", "error_code"})
	requestLatencies := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rpc",
		Subsystem: "server",
		Name:      "requests_latency",
	}, []string{"method"})
	prometheus.MustRegister(requests, failedRequests, requestLatencies)

	return &jsonrpc.SelectiveListener{
		OnNewRequestCb: func(method string) {
			requests.WithLabelValues(method).Inc()
		},
		OnRequestHandledCb: func(method string, took time.Duration) {
			requestLatencies.WithLabelValues(method).Observe(took.Seconds())
		},
		OnRequestFailedCb: func(method string, err *jsonrpc.Error) {
			failedRequests.WithLabelValues(method, strconv.Itoa(err.Code)).Inc()
		},
	}
}

func makeBuildMetrics(version string) {
	info := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "jsonrpcd",
		Name:        "info",
		Help:        "Information about the jsonrpcd binary",
		ConstLabels: prometheus.Labels{"version": version},
	})
	info.Set(1)
	prometheus.MustRegister(info)
}
