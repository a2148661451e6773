// Package baseline implements the non-incremental by-name strategies. Each
// call recomputes the median from the full cumulative input; nothing is
// retained between calls. They exist to cross-check and to time against the
// incremental engines.
package baseline

import (
	"iter"
	"slices"

	"github.com/davidvella/byname/customer"
	"github.com/davidvella/byname/merge"
)

// Func computes the by-name median over the concatenation of batches.
type Func func(params customer.Params, batches ...[]customer.Customer) (customer.Customer, bool)

// SortFold filters the input, sorts it by first name and then folds the
// sorted stream into a slice before taking the median.
func SortFold(params customer.Params, batches ...[]customer.Customer) (customer.Customer, bool) {
	filtered := slices.Collect(filter(params, batches))
	slices.SortStableFunc(filtered, customer.CompareFirst)

	acc := slices.AppendSeq(make([]customer.Customer, 0, len(filtered)), slices.Values(filtered))
	return median(acc)
}

// Inlined folds the filtered input into a slice first and sorts that slice
// in place before taking the median.
func Inlined(params customer.Params, batches ...[]customer.Customer) (customer.Customer, bool) {
	var acc []customer.Customer
	for c := range filter(params, batches) {
		acc = append(acc, c)
	}
	slices.SortStableFunc(acc, customer.CompareFirst)
	return median(acc)
}

// MergeRuns sorts every batch on its own and merges the sorted runs with a
// loser tree. Ties keep batch order, so the result equals SortFold.
func MergeRuns(params customer.Params, batches ...[]customer.Customer) (customer.Customer, bool) {
	runs := make([]iter.Seq[customer.Customer], 0, len(batches))
	for _, b := range batches {
		run := slices.Collect(filter(params, [][]customer.Customer{b}))
		slices.SortStableFunc(run, customer.CompareFirst)
		runs = append(runs, slices.Values(run))
	}
	return median(slices.Collect(merge.Runs(customer.CompareFirst, runs...)))
}

// ByName maps strategy names to their functions.
var ByName = map[string]Func{
	"SortFold":  SortFold,
	"Inlined":   Inlined,
	"MergeRuns": MergeRuns,
}

func filter(params customer.Params, batches [][]customer.Customer) iter.Seq[customer.Customer] {
	return func(yield func(customer.Customer) bool) {
		for _, b := range batches {
			for _, c := range b {
				if params.Matches(c) && !yield(c) {
					return
				}
			}
		}
	}
}

func median(sorted []customer.Customer) (customer.Customer, bool) {
	if len(sorted) == 0 {
		return customer.Customer{}, false
	}
	return sorted[len(sorted)/2], true
}
