// Package metrics exposes Prometheus counters for the authentication flows.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trustkeeper"

type Metrics struct {
	Registrations    *prometheus.CounterVec
	Logins           *prometheus.CounterVec
	TokensIssued     *prometheus.CounterVec
	Revocations      *prometheus.CounterVec
	Verifications    *prometheus.CounterVec
	EphemeralDegrade *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the counters and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"result"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"result"}),
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Credentials issued by flow and kind.",
		}, []string{"flow", "kind"}),
		Revocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revocations_total",
			Help:      "Credential revocations by outcome.",
		}, []string{"result"}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Verification code confirmations by purpose and outcome.",
		}, []string{"purpose", "result"}),
		EphemeralDegrade: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ephemeral_degraded_total",
			Help:      "Operations that continued or failed closed because the ephemeral store was unreachable.",
		}, []string{"operation"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.Registrations,
		m.Logins,
		m.TokensIssued,
		m.Revocations,
		m.Verifications,
		m.EphemeralDegrade,
	)
	return m
}

// NewDefault registers on a fresh registry that also carries the Go and
// process collectors.
func NewDefault() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return New(reg)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
