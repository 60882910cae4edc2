package application

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts auth outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	authEvents *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Authentication and account events by outcome.",
		}, []string{"event", "outcome"}),
	}
	reg.MustRegister(m.authEvents)
	return m
}

// Observe records event as success when err is nil, failure otherwise.
func (m *Metrics) Observe(event string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.authEvents.WithLabelValues(event, outcome).Inc()
}
