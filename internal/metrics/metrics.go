// Package metrics records event outcomes and anomalies.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives processing observations.
type Recorder interface {
	// Observe records one processed event.
	Observe(kind, status, reason string, duration time.Duration)
	// Anomaly records a detected anomaly by error code.
	Anomaly(code string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Observe(string, string, string, time.Duration) {}
func (Nop) Anomaly(string)                                {}

// Prometheus exports observations as Prometheus collectors:
//
//	cauldron_events_total{kind,status,reason}
//	cauldron_anomalies_total{code}
//	cauldron_event_duration_seconds{kind}
type Prometheus struct {
	events    *prometheus.CounterVec
	anomalies *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cauldron",
			Name:      "events_total",
			Help:      "World events processed, by kind and outcome.",
		}, []string{"kind", "status", "reason"}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cauldron",
			Name:      "anomalies_total",
			Help:      "Detected brew anomalies, by error code.",
		}, []string{"code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cauldron",
			Name:      "event_duration_seconds",
			Help:      "Time to process one world event.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"kind"}),
	}

	for _, c := range []prometheus.Collector{p.events, p.anomalies, p.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Observe implements Recorder.
func (p *Prometheus) Observe(kind, status, reason string, duration time.Duration) {
	p.events.WithLabelValues(kind, status, reason).Inc()
	p.duration.WithLabelValues(kind).Observe(duration.Seconds())
}

// Anomaly implements Recorder.
func (p *Prometheus) Anomaly(code string) {
	p.anomalies.WithLabelValues(code).Inc()
}
