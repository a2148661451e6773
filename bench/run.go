package bench

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/beorn7/perks/quantile"
	"github.com/davidvella/byname/baseline"
	"github.com/davidvella/byname/customer"
	"github.com/davidvella/byname/generate"
	"github.com/davidvella/byname/incremental"
	"github.com/davidvella/byname/metrics"
	"github.com/davidvella/byname/store"
	"github.com/go-logr/logr"
)

// Result summarises the iterations of one experiment.
type Result struct {
	Experiment Experiment
	Iterations int
	// Median is the by-name median after the last tick of the last iteration.
	Median customer.Customer
	// Found is false when the group was empty.
	Found bool
	// Throughput is the number of elements each iteration processes beyond
	// the base load: the updates plus as many deletions.
	Throughput int
	P50        time.Duration
	P90        time.Duration
	P99        time.Duration
}

// LoadFunc produces the input batches of an experiment.
type LoadFunc func(ctx context.Context, e Experiment) (generate.Batches, error)

// Generated builds the batches of an experiment in memory.
func Generated(_ context.Context, e Experiment) (generate.Batches, error) {
	return generate.Customers(e.BaseSize, e.UpdateSize, e.DeleteSize), nil
}

// FromStore generates the batches of an experiment, writes the base load to
// s and reads it back through a by-name scan. The scan returns rows in id
// order, which is already first-name order, so the rows are put back into
// generated arrival order and the first tick still has to sort. The group is
// cleared first.
func FromStore(s *store.Store) LoadFunc {
	return func(ctx context.Context, e Experiment) (generate.Batches, error) {
		b := generate.Customers(e.BaseSize, e.UpdateSize, e.DeleteSize)

		existing, err := s.ByName(ctx, b.Params)
		if err != nil {
			return b, err
		}
		if err := s.Delete(ctx, existing...); err != nil {
			return b, fmt.Errorf("failed to clear group: %w", err)
		}
		if err := s.Put(ctx, b.Base...); err != nil {
			return b, fmt.Errorf("failed to load base: %w", err)
		}
		rows, err := s.ByName(ctx, b.Params)
		if err != nil {
			return b, fmt.Errorf("failed to read base: %w", err)
		}
		if len(rows) != len(b.Base) {
			return b, fmt.Errorf("read %d base rows back, wrote %d", len(rows), len(b.Base))
		}

		arrival := make(map[int32]int, len(b.Base))
		for i, c := range b.Base {
			arrival[c.ID] = i
		}
		slices.SortFunc(rows, func(x, y customer.Customer) int {
			return cmp.Compare(arrival[x.ID], arrival[y.ID])
		})
		b.Base = rows
		return b, nil
	}
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// WithMetrics passes engine collectors to every incremental engine the runner builds.
func WithMetrics(m *metrics.Engine) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithLoader sets where experiment input comes from. Defaults to Generated.
func WithLoader(load LoadFunc) Option {
	return func(r *Runner) {
		if load != nil {
			r.load = load
		}
	}
}

// Runner executes experiments.
type Runner struct {
	log     logr.Logger
	metrics *metrics.Engine
	load    LoadFunc
}

// NewRunner creates a runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		log:  logr.Discard(),
		load: Generated,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes e iterations times with generated input.
func Run(ctx context.Context, e Experiment, iterations int, log logr.Logger) (Result, error) {
	return NewRunner(WithLogger(log)).Run(ctx, e, iterations)
}

// RunAll executes every experiment of cfg with generated input.
func RunAll(ctx context.Context, cfg Config, log logr.Logger) ([]Result, error) {
	return NewRunner(WithLogger(log)).RunAll(ctx, cfg)
}

// RunAll validates cfg and executes its experiments in order.
func (r *Runner) RunAll(ctx context.Context, cfg Config) ([]Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	experiments := cfg.Experiments()
	results := make([]Result, 0, len(experiments))
	for _, e := range experiments {
		res, err := r.run(ctx, e, cfg.Iterations, cfg.Params)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Run executes e iterations times. Input is loaded once; every iteration
// starts from fresh engine state and only the ticks are timed.
func (r *Runner) Run(ctx context.Context, e Experiment, iterations int) (Result, error) {
	return r.run(ctx, e, iterations, customer.Params{})
}

func (r *Runner) run(ctx context.Context, e Experiment, iterations int, params customer.Params) (Result, error) {
	if iterations <= 0 {
		return Result{}, fmt.Errorf("bench: iterations must be positive, got %d", iterations)
	}
	log := r.log.WithValues("experiment", e.String())

	b, err := r.load(ctx, e)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load input for %s: %w", e, err)
	}
	if params.Last != "" {
		b.Params = params
	}

	run, err := r.measure(e.Implementation, b)
	if err != nil {
		return Result{}, err
	}

	q := quantile.NewTargeted(map[float64]float64{
		0.5: 0.05, 0.9: 0.01, 0.99: 0.001,
	})
	res := Result{
		Experiment: e,
		Iterations: iterations,
		Throughput: e.UpdateSize * 2,
	}
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		start := time.Now()
		median, ok, err := run(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("failed to run %s: %w", e, err)
		}
		q.Insert(float64(time.Since(start)))
		res.Median, res.Found = median, ok
	}

	res.P50 = time.Duration(q.Query(0.5))
	res.P90 = time.Duration(q.Query(0.9))
	res.P99 = time.Duration(q.Query(0.99))
	log.V(1).Info("experiment done", "iterations", iterations, "p50", res.P50, "p99", res.P99)
	return res, nil
}

type iteration func(ctx context.Context) (customer.Customer, bool, error)

// measure returns the timed section of one iteration of impl. Baselines
// ignore deletions, like IncrementalSort.
func (r *Runner) measure(impl Implementation, b generate.Batches) (iteration, error) {
	var fn baseline.Func
	switch impl {
	case SortFold:
		fn = baseline.SortFold
	case Inlined:
		fn = baseline.Inlined
	case MergeRuns:
		fn = baseline.MergeRuns
	case IncrementalSort:
		return r.incremental(b, func(opts ...incremental.Option) incremental.Stepper {
			return incremental.New(b.Params, append(opts, incremental.WithVariant(incremental.WithoutDeletions))...)
		}), nil
	case IncrementalSortWithDelete:
		return r.incremental(b, func(opts ...incremental.Option) incremental.Stepper {
			return incremental.New(b.Params, append(opts, incremental.WithVariant(incremental.WithDeletions))...)
		}), nil
	case IncrementalIndexed:
		return r.incremental(b, func(opts ...incremental.Option) incremental.Stepper {
			return incremental.NewIndexed(b.Params, append(opts, incremental.WithVariant(incremental.WithDeletions))...)
		}), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownImplementation, int(impl))
	}

	return recompute(fn, b), nil
}

// recompute times a baseline the way the engines are timed: one pass over the
// base load, then, when there are updates, a second pass over base and
// updates. The last pass's median wins.
func recompute(fn baseline.Func, b generate.Batches) iteration {
	return func(context.Context) (customer.Customer, bool, error) {
		median, ok := fn(b.Params, b.Base)
		if len(b.Updates) > 0 {
			median, ok = fn(b.Params, b.Base, b.Updates)
		}
		return median, ok, nil
	}
}

func (r *Runner) incremental(b generate.Batches, newStepper func(...incremental.Option) incremental.Stepper) iteration {
	return func(ctx context.Context) (customer.Customer, bool, error) {
		rec := &incremental.Recorder{}
		s := newStepper(
			incremental.WithSink(rec),
			incremental.WithLogger(r.log),
			incremental.WithMetrics(r.metrics),
		)
		if err := incremental.NewPipeline(s, b.Base, b.Updates, b.Deletions).RunToCompletion(ctx); err != nil {
			return customer.Customer{}, false, err
		}
		last, ok := rec.Last()
		return last.Customer, ok, nil
	}
}
