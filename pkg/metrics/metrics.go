// Package metrics exposes run activity as Prometheus metrics through
// lifecycle hooks.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several teams can live in one process.
type Collector struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// New creates and registers the foreman metrics.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foreman_transitions_total",
				Help: "Total number of state transitions, by target node",
			},
			[]string{"node"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foreman_runs_total",
				Help: "Total number of finished runs, by status",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "foreman_capability_duration_seconds",
				Help:    "Duration of worker capability calls",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"node"},
		),
	}
	c.registry.MustRegister(c.transitions, c.runs, c.duration)
	return c
}

// Hooks returns lifecycle hooks that feed the collector.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			c.transitions.WithLabelValues(string(e.To)).Inc()
		},
		OnWorkerReturn: func(_ context.Context, e *domain.WorkerEvent) {
			c.duration.WithLabelValues(e.Worker).Observe(e.Duration.Seconds())
		},
		OnRunEnd: func(_ context.Context, r *domain.RunResult) {
			c.runs.WithLabelValues(string(r.Status)).Inc()
		},
	}
}

// Handler serves the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, e.g. to add Go runtime collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
