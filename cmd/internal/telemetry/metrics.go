// Package telemetry holds warden's Prometheus collectors.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "warden"

// Metrics groups the counters exported by warden.
type Metrics struct {
	registry *prometheus.Registry

	logins         *prometheus.CounterVec
	registrations  *prometheus.CounterVec
	lockouts       prometheus.Counter
	sessionChecks  *prometheus.CounterVec
	codesIssued    *prometheus.CounterVec
	codesValidated *prometheus.CounterVec
	stampRotations *prometheus.CounterVec
}

// New builds a Metrics with its own registry. Go runtime and process
// collectors are registered alongside warden's counters.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Credential login attempts by outcome.",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Account registrations by outcome.",
		}, []string{"outcome"}),
		lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lockouts_total",
			Help:      "Login attempts rejected because the identifier is locked out.",
		}),
		sessionChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_checks_total",
			Help:      "Session authentications by result.",
		}, []string{"result"}),
		codesIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_codes_issued_total",
			Help:      "Verification codes issued by purpose.",
		}, []string{"purpose"}),
		codesValidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_codes_validated_total",
			Help:      "Verification code checks by purpose and result.",
		}, []string{"purpose", "result"}),
		stampRotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "security_stamp_rotations_total",
			Help:      "Security stamp rotations by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.logins,
		m.registrations,
		m.lockouts,
		m.sessionChecks,
		m.codesIssued,
		m.codesValidated,
		m.stampRotations,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LockedOut() {
	if m == nil {
		return
	}
	m.lockouts.Inc()
}

func (m *Metrics) SessionCheck(result string) {
	if m == nil {
		return
	}
	m.sessionChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) CodeIssued(purpose string) {
	if m == nil {
		return
	}
	m.codesIssued.WithLabelValues(purpose).Inc()
}

func (m *Metrics) CodeValidated(purpose string, ok bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if ok {
		result = "accepted"
	}
	m.codesValidated.WithLabelValues(purpose, result).Inc()
}

func (m *Metrics) StampRotated(reason string) {
	if m == nil {
		return
	}
	m.stampRotations.WithLabelValues(reason).Inc()
}
