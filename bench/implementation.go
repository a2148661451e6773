package bench

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownImplementation is returned when an implementation name is not recognised.
var ErrUnknownImplementation = errors.New("bench: unknown implementation")

// Implementation selects the strategy an experiment measures.
type Implementation int

const (
	// SortFold recomputes from scratch: filter, sort, fold.
	SortFold Implementation = iota
	// Inlined recomputes from scratch: filter, fold, sort.
	Inlined
	// IncrementalSort is the merge based engine ignoring deletions.
	IncrementalSort
	// IncrementalSortWithDelete is the merge based engine applying deletions.
	IncrementalSortWithDelete
	// IncrementalIndexed is the B-tree engine applying deletions.
	IncrementalIndexed
	// MergeRuns recomputes from scratch by merging per-batch sorted runs.
	MergeRuns
)

var implementationNames = map[Implementation]string{
	SortFold:                  "medianSortFold",
	Inlined:                   "medianInlined",
	IncrementalSort:           "incremental_sort",
	IncrementalSortWithDelete: "incremental_sort_with_delete",
	IncrementalIndexed:        "incremental_indexed",
	MergeRuns:                 "medianMergeRuns",
}

// Implementations returns every implementation in declaration order.
func Implementations() []Implementation {
	return []Implementation{SortFold, Inlined, IncrementalSort, IncrementalSortWithDelete, IncrementalIndexed, MergeRuns}
}

func (i Implementation) String() string {
	if name, ok := implementationNames[i]; ok {
		return name
	}
	return fmt.Sprintf("Implementation(%d)", int(i))
}

// Incremental reports whether i keeps state across ticks.
func (i Implementation) Incremental() bool {
	switch i {
	case IncrementalSort, IncrementalSortWithDelete, IncrementalIndexed:
		return true
	default:
		return false
	}
}

// ParseImplementation returns the implementation with the given name. Names
// are matched case insensitively.
func ParseImplementation(name string) (Implementation, error) {
	for _, i := range Implementations() {
		if strings.EqualFold(i.String(), name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownImplementation, name)
}

// MarshalText implements encoding.TextMarshaler.
func (i Implementation) MarshalText() ([]byte, error) {
	if _, ok := implementationNames[i]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownImplementation, int(i))
	}
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Implementation) UnmarshalText(text []byte) error {
	parsed, err := ParseImplementation(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
