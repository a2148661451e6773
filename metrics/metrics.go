// Package metrics exposes Prometheus collectors for the by-name engines.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "byname"

// Tick outcomes.
const (
	OutcomeMerged  = "merged"
	OutcomeSkipped = "skipped"
)

// Engine collects per-tick statistics. A nil *Engine records nothing, so
// engines can call it unconditionally.
type Engine struct {
	ticks            *prometheus.CounterVec
	mediansEmitted   prometheus.Counter
	deletionsApplied prometheus.Counter
	deletionsIgnored prometheus.Counter
	aggregateSize    prometheus.Gauge
	tickDuration     prometheus.Histogram
}

// NewEngine creates the engine collectors and registers them with reg. A nil
// reg leaves them unregistered, which is convenient in benchmarks.
func NewEngine(reg prometheus.Registerer) *Engine {
	m := &Engine{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of ticks processed, by outcome.",
		}, []string{"outcome"}),
		mediansEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "medians_emitted_total",
			Help:      "Total number of medians handed to the sink.",
		}),
		deletionsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletions_applied_total",
			Help:      "Total number of retained customers removed by deletions.",
		}),
		deletionsIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletions_unmatched_total",
			Help:      "Total number of deletions that matched no retained customer.",
		}),
		aggregateSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "aggregate_size",
			Help:      "Number of customers in the retained sorted aggregate.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent processing one tick.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ticks,
			m.mediansEmitted,
			m.deletionsApplied,
			m.deletionsIgnored,
			m.aggregateSize,
			m.tickDuration,
		)
	}

	return m
}

// ObserveTick records the outcome of one tick.
func (m *Engine) ObserveTick(outcome string, aggregateSize int, duration time.Duration) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(outcome).Inc()
	m.aggregateSize.Set(float64(aggregateSize))
	m.tickDuration.Observe(duration.Seconds())
}

// MedianEmitted counts a median handed to the sink.
func (m *Engine) MedianEmitted() {
	if m == nil {
		return
	}
	m.mediansEmitted.Inc()
}

// Deletions records how many deletions removed a customer and how many were ignored.
func (m *Engine) Deletions(applied, unmatched int) {
	if m == nil {
		return
	}
	m.deletionsApplied.Add(float64(applied))
	m.deletionsIgnored.Add(float64(unmatched))
}
