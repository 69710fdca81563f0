// Package metrics exposes application metrics collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "btctx"

var (
	resolverRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "prevout_resolver",
		Name:      "requests_total",
		Help:      "Count of prevout lookups.",
	}, []string{"backend", "network", "operation", "status"})
	resolverRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "prevout_resolver",
		Name:      "request_duration_seconds",
		Help:      "Duration of prevout lookups.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "network", "operation", "status"})

	signedInputsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "txbuilder",
		Name:      "signed_inputs_total",
		Help:      "Count of input signing attempts by script type.",
	}, []string{"script_type", "sighash", "status"})
	signDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "txbuilder",
		Name:      "sign_duration_seconds",
		Help:      "Duration of input signing including prevout resolution.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"script_type", "sighash", "status"})
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Resolver tracks metrics for prevout lookups against one backend.
type Resolver struct {
	backend string
	network string
}

// NewResolver constructs a metrics collector for a resolver backend.
func NewResolver(backend, network string) *Resolver {
	return &Resolver{backend: orUnknown(backend), network: orUnknown(network)}
}

// Observe records a single lookup outcome and duration.
func (m Resolver) Observe(operation string, err error, started time.Time) {
	s := status(err)
	resolverRequestsTotal.WithLabelValues(m.backend, m.network, operation, s).Inc()
	resolverRequestDuration.WithLabelValues(m.backend, m.network, operation, s).
		Observe(time.Since(started).Seconds())
}

// Signer tracks input signing.
type Signer struct{}

// NewSigner constructs a metrics collector for input signing.
func NewSigner() *Signer {
	return &Signer{}
}

// ObserveSign records a signing attempt of an input locked by scriptType.
func (Signer) ObserveSign(scriptType, sighash string, err error, started time.Time) {
	s := status(err)
	scriptType = orUnknown(scriptType)
	signedInputsTotal.WithLabelValues(scriptType, sighash, s).Inc()
	signDuration.WithLabelValues(scriptType, sighash, s).Observe(time.Since(started).Seconds())
}
