package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hr_console"

// Metrics holds the collectors shared by the client and the stub API. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	RequestFailures *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	ServerRequests  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "request_failures_total",
			Help:      "Failed API requests by classified error code.",
		}, []string{"code"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		ServerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stubapi",
			Name:      "requests_total",
			Help:      "Requests served by the stub HR API.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.RequestFailures, m.Logins, m.ServerRequests)
	return m
}

// NewRegistry creates a new Prometheus registry with metrics
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	return reg, NewMetrics(reg)
}

// HandlerFor returns an HTTP handler for a specific registry
func HandlerFor(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (m *Metrics) RequestFailed(code string) {
	if m == nil {
		return
	}
	m.RequestFailures.WithLabelValues(code).Inc()
}

// Login outcomes
const (
	LoginSucceeded   = "succeeded"
	LoginFailed      = "failed"
	LoginRejected    = "rejected"
	LoginInvalidated = "invalidated"
)

func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ServerRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.ServerRequests.WithLabelValues(method, route, status).Inc()
}
