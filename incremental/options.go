package incremental

import (
	"github.com/davidvella/byname/metrics"
	"github.com/go-logr/logr"
)

// Variant selects how an engine treats deletions.
type Variant int

const (
	// WithoutDeletions ignores deletion batches entirely.
	WithoutDeletions Variant = iota
	// WithDeletions removes deleted customers from the retained aggregate one
	// tick after the deletions were handed to Step.
	WithDeletions
)

func (v Variant) String() string {
	switch v {
	case WithoutDeletions:
		return "WithoutDeletions"
	case WithDeletions:
		return "WithDeletions"
	default:
		return "Unknown"
	}
}

// options defines all configuration options for the engines.
type options struct {
	variant Variant
	sink    Sink
	log     logr.Logger
	metrics *metrics.Engine
}

// Option is a function that configures an engine.
type Option func(*options)

// WithVariant sets the deletion variant.
func WithVariant(v Variant) Option {
	return func(o *options) {
		o.variant = v
	}
}

// WithSink sets where medians are delivered.
func WithSink(s Sink) Option {
	return func(o *options) {
		if s != nil {
			o.sink = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Engine) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		variant: WithoutDeletions,
		sink:    Discard,
		log:     logr.Discard(),
	}
}

func newOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
