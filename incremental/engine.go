package incremental

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/davidvella/byname/customer"
	"github.com/davidvella/byname/merge"
	"github.com/davidvella/byname/metrics"
)

// Stepper advances a by-name aggregate by one tick.
type Stepper interface {
	// Step folds one tick of inserts into the aggregate and returns the
	// tick's median, if any. Deletions passed in take effect one tick later.
	Step(ctx context.Context, inserts, deletions []customer.Customer) (customer.Customer, bool, error)
	// Aggregate returns a copy of the retained sorted aggregate.
	Aggregate() []customer.Tagged
	// Reset drops all state.
	Reset()
}

// Stage names an intermediate sequence of a tick.
type Stage string

const (
	StageBatch    Stage = "batch"    // Filtered and sorted inserts.
	StageRetained Stage = "retained" // Previous aggregate after deletions.
	StageMerged   Stage = "merged"   // New aggregate.
)

// Engine maintains the first-name ordered aggregate of one customer group
// across ticks. Each tick sorts only the new inserts and merges them into the
// retained aggregate, so the full set is never resorted.
//
// An Engine is not safe for concurrent use; a single driver owns it.
type Engine struct {
	params   customer.Params
	opts     options
	previous []customer.Tagged
	pending  []customer.Tagged
	tick     int

	// observe, when set, sees every intermediate sequence of a tick.
	observe func(Stage, []customer.Tagged)
}

var _ Stepper = (*Engine)(nil)

// New creates an engine for the group selected by params.
func New(params customer.Params, opts ...Option) *Engine {
	return &Engine{
		params: params,
		opts:   newOptions(opts),
	}
}

// Step runs one tick: tag, filter and sort inserts, apply the deletions staged
// by the previous tick, merge into the retained aggregate and emit the median.
// A tick whose filtered inserts are empty leaves the aggregate untouched,
// keeps staged deletions for the next merging tick and emits nothing.
func (e *Engine) Step(ctx context.Context, inserts, deletions []customer.Customer) (customer.Customer, bool, error) {
	start := time.Now()
	e.tick++
	log := e.opts.log.WithValues("tick", e.tick)

	batch := collect(e.params, inserts)
	slices.SortStableFunc(batch, customer.CompareTagged)
	e.see(StageBatch, batch)

	due := e.stage(deletions)

	if len(batch) == 0 {
		e.pending = append(due, e.pending...)
		e.opts.metrics.ObserveTick(metrics.OutcomeSkipped, len(e.previous), time.Since(start))
		log.V(1).Info("empty batch, carrying aggregate forward", "size", len(e.previous))
		return customer.Customer{}, false, nil
	}

	previous, applied := e.previous, 0
	if len(due) > 0 {
		previous, applied = removeOnce(previous, due)
		e.opts.metrics.Deletions(applied, len(due)-applied)
		if unmatched := len(due) - applied; unmatched > 0 {
			log.V(2).Info("ignored unmatched deletions", "count", unmatched)
		}
		e.see(StageRetained, previous)
	}

	merged := merge.Sorted(previous, batch, customer.CompareTagged)
	e.see(StageMerged, merged)
	e.previous = merged

	e.opts.metrics.ObserveTick(metrics.OutcomeMerged, len(merged), time.Since(start))
	log.V(1).Info("merged batch", "batch", len(batch), "deleted", applied, "size", len(merged))

	median, ok := customer.Median(merged)
	if !ok {
		return customer.Customer{}, false, nil
	}
	return emit(ctx, e.opts, e.tick, median)
}

// Aggregate returns a copy of the retained sorted aggregate.
func (e *Engine) Aggregate() []customer.Tagged {
	return slices.Clone(e.previous)
}

// Tick returns the number of ticks run since creation or the last Reset.
func (e *Engine) Tick() int {
	return e.tick
}

// Pending returns the number of staged deletions.
func (e *Engine) Pending() int {
	return len(e.pending)
}

// Reset drops the aggregate, staged deletions and tick count.
func (e *Engine) Reset() {
	e.previous = nil
	e.pending = nil
	e.tick = 0
}

// stage swaps in the deletions staged by the previous tick and stages the
// given ones for the next tick.
func (e *Engine) stage(deletions []customer.Customer) []customer.Tagged {
	if e.opts.variant != WithDeletions {
		return nil
	}
	due := e.pending
	e.pending = collect(e.params, deletions)
	return due
}

func (e *Engine) see(stage Stage, s []customer.Tagged) {
	if e.observe != nil {
		e.observe(stage, s)
	}
}

// collect tags the customers of the selected group.
func collect(params customer.Params, in []customer.Customer) []customer.Tagged {
	out := make([]customer.Tagged, 0, len(in))
	for _, c := range in {
		t := customer.Tag(c)
		if params.Matches(t.Customer) {
			out = append(out, t)
		}
	}
	return out
}

// removeOnce drops from s, in order, at most one element per occurrence of a
// sum key in deletions. Deletions without a match are ignored. s is filtered
// in place.
func removeOnce(s, deletions []customer.Tagged) ([]customer.Tagged, int) {
	remaining := make(map[int64]int, len(deletions))
	for _, d := range deletions {
		remaining[d.SumKey]++
	}

	applied := 0
	out := s[:0]
	for _, t := range s {
		if remaining[t.SumKey] > 0 {
			remaining[t.SumKey]--
			applied++
			continue
		}
		out = append(out, t)
	}
	clear(s[len(out):])
	return out, applied
}

// emit hands the median of a tick to the sink.
func emit(ctx context.Context, o options, tick int, median customer.Customer) (customer.Customer, bool, error) {
	if err := o.sink.Emit(ctx, tick, median); err != nil {
		return median, true, fmt.Errorf("failed to emit median of tick %d: %w", tick, err)
	}
	o.metrics.MedianEmitted()
	return median, true, nil
}
