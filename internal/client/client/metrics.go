package client

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

const metricsNamespace = "parkclient"

// Metrics counts request outcomes. A nil *Metrics records nothing.
type Metrics struct {
	requests      *prometheus.CounterVec
	invalidations prometheus.Counter
	breakerState  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "Backend requests by outcome (ok, unauthorized, network, server, client).",
			},
			[]string{"kind"},
		),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "session_invalidations_total",
			Help:      "Sessions cleared because the backend answered 401.",
		}),
		breakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.invalidations, m.breakerState)
	}
	return m
}

func (m *Metrics) observe(err error) {
	if m == nil {
		return
	}
	kind := "ok"
	if err != nil {
		var ae *APIError
		if !errors.As(err, &ae) {
			// failed before or after the exchange itself
			return
		}
		kind = ae.Kind.String()
	}
	m.requests.WithLabelValues(kind).Inc()
}

func (m *Metrics) invalidated() {
	if m == nil {
		return
	}
	m.invalidations.Inc()
}

func (m *Metrics) setBreakerState(s gobreaker.State) {
	if m == nil {
		return
	}
	m.breakerState.Set(stateToFloat(s))
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
