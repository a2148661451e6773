package incremental

import (
	"context"
	"fmt"

	"github.com/davidvella/byname/customer"
)

// Round is the input of one scheduled tick.
type Round struct {
	Inserts   []customer.Customer
	Deletions []customer.Customer
}

// Pipeline drives a Stepper through a fixed schedule of rounds, one tick per
// round, in order.
type Pipeline struct {
	stepper Stepper
	rounds  []Round
	next    int
}

// NewPipeline schedules the by-name benchmark: tick 1 loads base and
// introduces deletions, tick 2 merges updates (and applies the deletions for
// variants that honour them). There are no further ticks.
func NewPipeline(s Stepper, base, updates, deletions []customer.Customer) *Pipeline {
	return NewPipelineRounds(s,
		Round{Inserts: base, Deletions: deletions},
		Round{Inserts: updates},
	)
}

// NewPipelineRounds schedules an arbitrary sequence of rounds.
func NewPipelineRounds(s Stepper, rounds ...Round) *Pipeline {
	return &Pipeline{stepper: s, rounds: rounds}
}

// Run advances exactly one tick. It reports false once every round has run.
func (p *Pipeline) Run(ctx context.Context) (bool, error) {
	if p.next >= len(p.rounds) {
		return false, nil
	}
	r := p.rounds[p.next]
	p.next++

	if _, _, err := p.stepper.Step(ctx, r.Inserts, r.Deletions); err != nil {
		return true, fmt.Errorf("failed to run tick %d: %w", p.next, err)
	}
	return true, nil
}

// RunToCompletion runs all remaining ticks. The context is checked between ticks.
func (p *Pipeline) RunToCompletion(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := p.Run(ctx)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Remaining returns the number of ticks still to run.
func (p *Pipeline) Remaining() int {
	return len(p.rounds) - p.next
}

// Stepper returns the driven stepper.
func (p *Pipeline) Stepper() Stepper {
	return p.stepper
}
