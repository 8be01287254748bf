package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Renewal outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics for the API client
type Metrics struct {
	Requests      *prometheus.CounterVec
	Unauthorized  prometheus.Counter
	Replays       prometheus.Counter
	Renewals      *prometheus.CounterVec
	RenewalShares prometheus.Counter
	ForcedLogouts prometheus.Counter
}

// New creates the metrics and registers them with reg. A nil reg falls back to
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_console_api_requests_total",
			Help: "Requests dispatched to the remote API by status class",
		}, []string{"class"}),
		Unauthorized: factory.NewCounter(prometheus.CounterOpts{
			Name: "agent_console_api_unauthorized_total",
			Help: "401 responses observed on authenticated requests",
		}),
		Replays: factory.NewCounter(prometheus.CounterOpts{
			Name: "agent_console_api_replays_total",
			Help: "Requests replayed after a credential renewal",
		}),
		Renewals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_console_credential_renewals_total",
			Help: "Credential renewal calls issued to the remote API by outcome",
		}, []string{"outcome"}),
		RenewalShares: factory.NewCounter(prometheus.CounterOpts{
			Name: "agent_console_credential_renewal_shared_total",
			Help: "Callers that received the result of a renewal started by another caller",
		}),
		ForcedLogouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "agent_console_forced_logouts_total",
			Help: "Sessions torn down after a failed credential renewal",
		}),
	}
}

// ObserveRequest counts a dispatched request under its status class ("2xx", "4xx", "error").
func (m *Metrics) ObserveRequest(status int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(statusClass(status)).Inc()
}

func (m *Metrics) IncUnauthorized() {
	if m == nil {
		return
	}
	m.Unauthorized.Inc()
}

func (m *Metrics) IncReplays() {
	if m == nil {
		return
	}
	m.Replays.Inc()
}

func (m *Metrics) IncRenewals(outcome string) {
	if m == nil {
		return
	}
	m.Renewals.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncRenewalShares() {
	if m == nil {
		return
	}
	m.RenewalShares.Inc()
}

func (m *Metrics) IncForcedLogouts() {
	if m == nil {
		return
	}
	m.ForcedLogouts.Inc()
}

func statusClass(status int) string {
	switch {
	case status <= 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
