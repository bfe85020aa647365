// Package metrics exposes execution lifecycle counters in Prometheus format.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/waabox/testdeck/internal/events"
)

// Metrics holds the collectors, registered on a private registry.
type Metrics struct {
	registry  *prometheus.Registry
	pipelines prometheus.Gauge
	started   prometheus.Counter
	completed *prometheus.CounterVec
	running   prometheus.Gauge
	duration  prometheus.Histogram
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pipelines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "testdeck",
			Name:      "pipelines",
			Help:      "Number of defined pipelines.",
		}),
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "testdeck",
			Name:      "executions_started_total",
			Help:      "Executions started.",
		}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "testdeck",
			Name:      "executions_completed_total",
			Help:      "Executions that reached a terminal status.",
		}, []string{"status"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "testdeck",
			Name:      "executions_running",
			Help:      "Executions currently in flight.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "testdeck",
			Name:      "execution_duration_seconds",
			Help:      "Duration of completed executions.",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1800, 3600},
		}),
	}
	m.registry.MustRegister(m.pipelines, m.started, m.completed, m.running, m.duration)
	return m
}

// Observe updates the collectors for one event.
func (m *Metrics) Observe(ev events.Event) {
	switch ev.Type {
	case events.PipelineCreated:
		m.pipelines.Inc()
	case events.PipelineDeleted:
		m.pipelines.Dec()
	case events.ExecutionStarted:
		m.started.Inc()
		m.running.Inc()
	case events.ExecutionCompleted:
		if ev.Execution == nil {
			return
		}
		m.running.Dec()
		m.completed.WithLabelValues(string(ev.Execution.Status)).Inc()
		if ev.Execution.Duration != nil {
			m.duration.Observe(float64(*ev.Execution.Duration))
		}
	}
}

// Run consumes events until ctx is done or the channel is closed.
func (m *Metrics) Run(ctx context.Context, in <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			m.Observe(ev)
		}
	}
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
