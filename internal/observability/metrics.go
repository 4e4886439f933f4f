package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/upb/endpoint-authz/authz"
	"github.com/upb/endpoint-authz/models"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, route and status class.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "endpoint_authz_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration records HTTP request duration in seconds.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "endpoint_authz_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// EndpointCallsTotal counts operation calls that reached a terminal
	// authorization state, by operation id and caller kind.
	EndpointCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "endpoint_authz_endpoint_calls_total",
			Help: "Operation calls seen by the authorization callback",
		},
		[]string{"operation", "principal"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		EndpointCallsTotal,
	)
}

// Callback counts each call. The principal label is "anonymous" or
// "authenticated" so user ids never become label values.
func Callback() authz.Callback[models.Session] {
	return func(_ context.Context, info authz.EndpointInfo, session models.Session) error {
		EndpointCallsTotal.WithLabelValues(info.OperationID(), principalKind(session)).Inc()
		return nil
	}
}

func principalKind(s models.Session) string {
	if s.IsAnonymous() {
		return "anonymous"
	}
	return "authenticated"
}
