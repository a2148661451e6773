// Package merge implements the sorted-merge primitives used by the by-name
// strategies.
//
// Sorted is the two-way linear merge the incremental engine runs every tick:
// the retained aggregate on the left, the freshly sorted batch on the right.
// Ties favour the left argument so older elements stay ahead of newer ones.
//
// Tree is a tournament tree (also known as a loser tree), based on the work by
// Bryan Boreham (https://github.com/bboreham/go-loser), for merging any number
// of sorted runs with O(log k) comparisons per element. Unlike go-loser it
// needs no sentinel maximum value and breaks ties by run position, which makes
// it stable: merging two runs with Runs gives the same result as Sorted.
//
// Basic usage:
//
//	merged := merge.SortedOrdered([]int{1, 3, 5}, []int{2, 4, 6})
//
//	for v := range merge.Runs(cmp.Compare[int],
//	    slices.Values([]int{1, 4, 7}),
//	    slices.Values([]int{2, 5, 8}),
//	    slices.Values([]int{3, 6, 9}),
//	) {
//	    fmt.Println(v) // 1 2 3 4 5 6 7 8 9
//	}
//
// Both inputs must already be sorted by the comparison function; neither
// function checks this, and unsorted input silently produces unsorted output.
package merge
