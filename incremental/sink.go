package incremental

import (
	"context"

	"github.com/davidvella/byname/customer"
)

// Sink receives the median of every tick that produced one.
type Sink interface {
	// Emit handles the median of a single tick.
	Emit(ctx context.Context, tick int, median customer.Customer) error
}

// SinkFunc is a function type that implements Sink.
type SinkFunc func(ctx context.Context, tick int, median customer.Customer) error

// Emit calls the function.
func (f SinkFunc) Emit(ctx context.Context, tick int, median customer.Customer) error {
	return f(ctx, tick, median)
}

// Discard drops every median.
var Discard Sink = SinkFunc(func(context.Context, int, customer.Customer) error { return nil })

// Median is a median together with the tick that produced it.
type Median struct {
	Tick     int
	Customer customer.Customer
}

// Recorder is a Sink that keeps every median it receives.
type Recorder struct {
	Medians []Median
}

// Emit records the median.
func (r *Recorder) Emit(_ context.Context, tick int, median customer.Customer) error {
	r.Medians = append(r.Medians, Median{Tick: tick, Customer: median})
	return nil
}

// Last returns the most recent median.
func (r *Recorder) Last() (Median, bool) {
	if len(r.Medians) == 0 {
		return Median{}, false
	}
	return r.Medians[len(r.Medians)-1], true
}
