package bench

import (
	"errors"
	"fmt"

	"github.com/davidvella/byname/customer"
	"github.com/davidvella/byname/generate"
)

// Experiment is one cell of the benchmark matrix.
type Experiment struct {
	BaseSize       int
	UpdateSize     int
	DeleteSize     int
	Implementation Implementation
}

func (e Experiment) String() string {
	return fmt.Sprintf("%s/base=%d/update=%d/delete=%d", e.Implementation, e.BaseSize, e.UpdateSize, e.DeleteSize)
}

// Config describes a benchmark matrix.
type Config struct {
	BaseSize    int
	UpdateSizes []int
	// DeleteSizes pairs with UpdateSizes by index. Empty means one deletion
	// per update.
	DeleteSizes     []int
	Implementations []Implementation
	Iterations      int
	Params          customer.Params
}

// DefaultConfig returns the standard matrix: a base of 3000 customers,
// update sizes from 0 to 16 with as many deletions, for both incremental
// sort variants.
func DefaultConfig() Config {
	return Config{
		BaseSize:        3000,
		UpdateSizes:     []int{0, 1, 2, 4, 8, 16},
		Implementations: []Implementation{IncrementalSort, IncrementalSortWithDelete},
		Iterations:      100,
		Params:          generate.Params(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.BaseSize < 0 {
		errs = append(errs, fmt.Errorf("base size must not be negative, got %d", c.BaseSize))
	}
	if len(c.UpdateSizes) == 0 {
		errs = append(errs, errors.New("at least one update size is required"))
	}
	for _, n := range c.UpdateSizes {
		if n < 0 {
			errs = append(errs, fmt.Errorf("update size must not be negative, got %d", n))
		}
	}
	if len(c.DeleteSizes) > 0 && len(c.DeleteSizes) != len(c.UpdateSizes) {
		errs = append(errs, fmt.Errorf("got %d delete sizes for %d update sizes", len(c.DeleteSizes), len(c.UpdateSizes)))
	}
	for _, n := range c.DeleteSizes {
		if n < 0 {
			errs = append(errs, fmt.Errorf("delete size must not be negative, got %d", n))
		}
	}
	if len(c.Implementations) == 0 {
		errs = append(errs, errors.New("at least one implementation is required"))
	}
	for _, i := range c.Implementations {
		if _, ok := implementationNames[i]; !ok {
			errs = append(errs, fmt.Errorf("%w: %d", ErrUnknownImplementation, int(i)))
		}
	}
	if c.Params.Last == "" {
		errs = append(errs, errors.New("params must name a last name"))
	}
	if c.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("iterations must be positive, got %d", c.Iterations))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("bench: invalid config: %w", err)
	}
	return nil
}

// Experiments expands the matrix, implementation by implementation.
func (c Config) Experiments() []Experiment {
	out := make([]Experiment, 0, len(c.Implementations)*len(c.UpdateSizes))
	for _, impl := range c.Implementations {
		for i, update := range c.UpdateSizes {
			deletes := update
			if len(c.DeleteSizes) > 0 {
				deletes = c.DeleteSizes[i]
			}
			out = append(out, Experiment{
				BaseSize:       c.BaseSize,
				UpdateSize:     update,
				DeleteSize:     deletes,
				Implementation: impl,
			})
		}
	}
	return out
}
