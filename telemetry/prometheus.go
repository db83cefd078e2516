// Package telemetry provides a Prometheus-backed implementation of
// coursegate.TelemetrySink for deployments that want to watch usage of
// deprecated code paths.
package telemetry

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink counts deprecation events by event name and call-site
// location.
type PrometheusSink struct {
	events *prometheus.CounterVec
}

// NewPrometheusSink registers the counter on reg (e.g.
// prometheus.DefaultRegisterer).
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coursegate_deprecated_feature_uses_total",
		Help: "Access checks evaluated under a deprecated feature flag.",
	}, []string{"event", "location"})
	reg.MustRegister(events)
	return &PrometheusSink{events: events}
}

// Increment implements coursegate.TelemetrySink. The first "location:" tag
// becomes the location label; other tags are dropped to keep cardinality
// bounded.
func (s *PrometheusSink) Increment(event string, tags ...string) {
	location := ""
	for _, tag := range tags {
		if rest, ok := strings.CutPrefix(tag, "location:"); ok {
			location = rest
			break
		}
	}
	s.events.WithLabelValues(event, location).Inc()
}
