package merge

import "cmp"

// Sorted merges two slices that are each sorted by cmp into a new sorted
// slice of length len(a)+len(b). When elements compare equal, the element
// from a comes first, so merging the previous state (a) with a new batch (b)
// keeps older elements ahead of newer ones.
//
// Sorted makes a single forward pass over both inputs. Ownership of their
// elements moves to the result; callers should drop their references to a and b.
func Sorted[T any](a, b []T, cmp func(T, T) int) []T {
	out := make([]T, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if cmp(b[j], a[i]) < 0 {
			out = append(out, b[j])
			j++
		} else {
			out = append(out, a[i])
			i++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// SortedOrdered is Sorted for ordered element types.
func SortedOrdered[T cmp.Ordered](a, b []T) []T {
	return Sorted(a, b, cmp.Compare[T])
}
