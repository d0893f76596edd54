package metrics

import (
	"context"
	"net/http"

	account "github.com/appquarium/go-account"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sink counts account activity events. It implements account.ActivitySink.
type Sink struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
}

var _ account.ActivitySink = (*Sink)(nil)

// NewSink registers the account collectors on a fresh registry
func NewSink() *Sink {
	registry := prometheus.NewRegistry()

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "account",
		Name:      "activity_events_total",
		Help:      "Account activity events by type.",
	}, []string{"event"})

	registry.MustRegister(events)

	return &Sink{
		registry: registry,
		events:   events,
	}
}

// Record implements account.ActivitySink
func (s *Sink) Record(_ context.Context, event account.ActivityEvent) error {
	s.events.WithLabelValues(string(event.EventType)).Inc()
	return nil
}

// Events exposes the counter vector, mostly for tests
func (s *Sink) Events() *prometheus.CounterVec {
	return s.events
}

// Handler serves the registry in the Prometheus text format
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
