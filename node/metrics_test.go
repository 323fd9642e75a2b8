package node

import (
	"testing"
	"time"

	"github.com/krupt/go-jsonrpc/jsonrpc"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swapRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	registerer, gatherer := prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer, prometheus.DefaultGatherer = reg, reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer, prometheus.DefaultGatherer = registerer, gatherer
	})
	return reg
}

func findFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	require.Failf(t, "metric not found", "metric %q not found", name)
	return nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, pair := range m.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}

func TestRPCMetrics(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		reg := swapRegistry(t)
		listener := makeRPCMetrics(false)
		listener.OnNewRequest("rpc.ping")
		listener.OnRequestFailed("rpc.ping", &jsonrpc.Error{Code: jsonrpc.InternalError})

		families, err := reg.Gather()
		require.NoError(t, err)
		assert.Empty(t, families)
	})

	t.Run("enabled", func(t *testing.T) {
		reg := swapRegistry(t)
		listener := makeRPCMetrics(true)
		listener.OnNewRequest("rpc.ping")
		listener.OnNewRequest("rpc.ping")
		listener.OnRequestHandled("rpc.ping", 10*time.Millisecond)
		listener.OnRequestFailed("rpc.ping", &jsonrpc.Error{Code: jsonrpc.MethodNotFound})

		requests := findFamily(t, reg, "rpc_server_requests")
		require.Len(t, requests.GetMetric(), 1)
		assert.Equal(t, "rpc.ping", labelValue(requests.GetMetric()[0], "method"))
		assert.Equal(t, 2.0, requests.GetMetric()[0].GetCounter().GetValue())

		failed := findFamily(t, reg, "rpc_server_failed_requests")
		require.Len(t, failed.GetMetric(), 1)
		assert.Equal(t, "-32601", labelValue(failed.GetMetric()[0], "error_code"))
		assert.Equal(t, 1.0, failed.GetMetric()[0].GetCounter().GetValue())

		latency := findFamily(t, reg, "rpc_server_requests_latency")
		require.Len(t, latency.GetMetric(), 1)
		assert.Equal(t, uint64(1), latency.GetMetric()[0].GetHistogram().GetSampleCount())
	})
}

func TestTransportMetrics(t *testing.T) {
	reg := swapRegistry(t)
	http := makeHTTPMetrics(true)
	ipc := makeIPCMetrics(true)
	http.OnNewRequest("any")
	http.OnNewRequest("any")
	ipc.OnNewRequest("any")

	assert.Equal(t, 2.0, findFamily(t, reg, "rpc_http_requests").GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 1.0, findFamily(t, reg, "rpc_ipc_requests").GetMetric()[0].GetCounter().GetValue())
}

func TestBuildMetrics(t *testing.T) {
	reg := swapRegistry(t)
	makeBuildMetrics("v1.2.3")

	info := findFamily(t, reg, "jsonrpcd_info")
	require.Len(t, info.GetMetric(), 1)
	assert.Equal(t, "v1.2.3", labelValue(info.GetMetric()[0], "version"))
	assert.Equal(t, 1.0, info.GetMetric()[0].GetGauge().GetValue())
}
