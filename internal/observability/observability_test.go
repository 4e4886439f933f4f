package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/endpoint-authz/authz"
	"github.com/upb/endpoint-authz/config"
	"github.com/upb/endpoint-authz/models"
)

func TestMetricsRegistered(t *testing.T) {
	HTTPRequestsTotal.WithLabelValues("GET", "/seed", "2xx").Inc()
	HTTPRequestDuration.WithLabelValues("GET", "/seed").Observe(0.1)
	EndpointCallsTotal.WithLabelValues("seed.Op", "anonymous").Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	assert.True(t, found["endpoint_authz_http_requests_total"])
	assert.True(t, found["endpoint_authz_http_request_duration_seconds"])
	assert.True(t, found["endpoint_authz_endpoint_calls_total"])
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := counterValue(t, HTTPRequestsTotal, "GET", "/items/{id}", "4xx")
	beforeObs := histogramCount(t, HTTPRequestDuration, "GET", "/items/{id}")

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/12", nil))

	assert.Equal(t, 1.0, counterValue(t, HTTPRequestsTotal, "GET", "/items/{id}", "4xx")-before)
	assert.Equal(t, uint64(1), histogramCount(t, HTTPRequestDuration, "GET", "/items/{id}")-beforeObs)
}

func TestMetricsMiddleware_Unmatched(t *testing.T) {
	before := counterValue(t, HTTPRequestsTotal, "POST", "unmatched", "2xx")

	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/anything", nil))

	assert.Equal(t, 1.0, counterValue(t, HTTPRequestsTotal, "POST", "unmatched", "2xx")-before)
}

func TestCallback_CountsByPrincipalKind(t *testing.T) {
	cb := Callback()
	info := authz.NewEndpointInfo("items", "GetItems", nil)

	anonBefore := counterValue(t, EndpointCallsTotal, "items.GetItems", "anonymous")
	authBefore := counterValue(t, EndpointCallsTotal, "items.GetItems", "authenticated")

	require.NoError(t, cb(context.Background(), info, models.Anonymous()))
	require.NoError(t, cb(context.Background(), info, models.Authenticated("alice", "")))
	require.NoError(t, cb(context.Background(), info, models.Authenticated("bob", "")))

	assert.Equal(t, 1.0, counterValue(t, EndpointCallsTotal, "items.GetItems", "anonymous")-anonBefore)
	assert.Equal(t, 2.0, counterValue(t, EndpointCallsTotal, "items.GetItems", "authenticated")-authBefore)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.ObservabilityConfig{LogLevel: "debug", LogFormat: "text"}, "development")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = NewLogger(config.ObservabilityConfig{LogLevel: "warn", LogFormat: "json"}, "production")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(0))

	_, err = NewLogger(config.ObservabilityConfig{LogLevel: "loud"}, "development")
	assert.Error(t, err)
}

func counterValue(t *testing.T, cv *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	c, err := cv.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, hv *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	obs, err := hv.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)
	require.NoError(t, obs.(prometheus.Metric).Write(m))
	return m.GetHistogram().GetSampleCount()
}
