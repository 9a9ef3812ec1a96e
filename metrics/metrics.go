// Package metrics exposes Prometheus instrumentation for the token
// service: an outcome-labeled counter per signature operation and a
// request duration histogram for the HTTP surface.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	token "github.com/simpcl/generic-erc20-token"
)

// Registry holds the service metrics, registered on a private Prometheus
// registry so tests can create registries independently.
type Registry struct {
	reg *prometheus.Registry

	// Operations counts signature-authorized operations by operation name
	// and outcome (an error code, or "ok").
	Operations *prometheus.CounterVec

	// RequestDuration observes HTTP handler latency by route.
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates and registers the service metrics.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "token",
		Name:      "operations_total",
		Help:      "Signature-authorized operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "token",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	reg.MustRegister(operations, duration)
	return &Registry{
		reg:             reg,
		Operations:      operations,
		RequestDuration: duration,
	}
}

// ObserveOperation records one operation outcome. A nil err counts as
// "ok"; a token error counts under its stable code, anything else under
// "error".
func (r *Registry) ObserveOperation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		var te *token.Error
		if errors.As(err, &te) {
			outcome = te.Code
		}
	}
	r.Operations.WithLabelValues(operation, outcome).Inc()
}

// Handler returns the /metrics endpoint handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
