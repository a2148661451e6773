package incremental

import (
	"context"
	"slices"
	"time"

	"github.com/davidvella/byname/customer"
	"github.com/davidvella/byname/metrics"
	"github.com/google/btree"
)

const indexDegree = 32

// entry is a retained customer keyed by first name and arrival sequence, so
// equal names keep their arrival order.
type entry struct {
	seq    uint64
	tagged customer.Tagged
}

func lessEntry(a, b entry) bool {
	if c := customer.CompareTagged(a.tagged, b.tagged); c != 0 {
		return c < 0
	}
	return a.seq < b.seq
}

// Indexed keeps the aggregate in an ordered B-tree instead of a sorted slice.
// Inserts and deletions cost O(log n) each; finding the median walks half the
// tree. It follows the same tick, filter, staging and median rules as Engine,
// which makes it a cross-check for the merge based engine.
//
// Indexed is not safe for concurrent use.
type Indexed struct {
	params  customer.Params
	opts    options
	tree    *btree.BTreeG[entry]
	byKey   map[int64][]entry
	pending []customer.Tagged
	seq     uint64
	tick    int
}

var _ Stepper = (*Indexed)(nil)

// NewIndexed creates an ordered-index engine for the group selected by params.
func NewIndexed(params customer.Params, opts ...Option) *Indexed {
	return &Indexed{
		params: params,
		opts:   newOptions(opts),
		tree:   btree.NewG(indexDegree, lessEntry),
		byKey:  make(map[int64][]entry),
	}
}

// Step runs one tick. See Engine.Step.
func (x *Indexed) Step(ctx context.Context, inserts, deletions []customer.Customer) (customer.Customer, bool, error) {
	start := time.Now()
	x.tick++
	log := x.opts.log.WithValues("tick", x.tick)

	batch := collect(x.params, inserts)

	var due []customer.Tagged
	if x.opts.variant == WithDeletions {
		due = x.pending
		x.pending = collect(x.params, deletions)
	}

	if len(batch) == 0 {
		x.pending = append(due, x.pending...)
		x.opts.metrics.ObserveTick(metrics.OutcomeSkipped, x.tree.Len(), time.Since(start))
		log.V(1).Info("empty batch, carrying aggregate forward", "size", x.tree.Len())
		return customer.Customer{}, false, nil
	}

	applied := 0
	for _, d := range due {
		if x.remove(d.SumKey) {
			applied++
		}
	}
	if len(due) > 0 {
		x.opts.metrics.Deletions(applied, len(due)-applied)
	}

	for _, t := range batch {
		x.seq++
		e := entry{seq: x.seq, tagged: t}
		x.tree.ReplaceOrInsert(e)
		x.byKey[t.SumKey] = append(x.byKey[t.SumKey], e)
	}

	x.opts.metrics.ObserveTick(metrics.OutcomeMerged, x.tree.Len(), time.Since(start))
	log.V(1).Info("indexed batch", "batch", len(batch), "deleted", applied, "size", x.tree.Len())

	median, ok := x.median()
	if !ok {
		return customer.Customer{}, false, nil
	}
	return emit(ctx, x.opts, x.tick, median.Customer)
}

// remove deletes the first retained entry, in aggregate order, with the given key.
func (x *Indexed) remove(key int64) bool {
	entries := x.byKey[key]
	if len(entries) == 0 {
		return false
	}
	first := 0
	for i := 1; i < len(entries); i++ {
		if lessEntry(entries[i], entries[first]) {
			first = i
		}
	}
	x.tree.Delete(entries[first])

	entries = slices.Delete(entries, first, first+1)
	if len(entries) == 0 {
		delete(x.byKey, key)
	} else {
		x.byKey[key] = entries
	}
	return true
}

func (x *Indexed) median() (customer.Tagged, bool) {
	n := x.tree.Len()
	if n == 0 {
		return customer.Tagged{}, false
	}
	var (
		found customer.Tagged
		i     int
	)
	x.tree.Ascend(func(e entry) bool {
		if i == n/2 {
			found = e.tagged
			return false
		}
		i++
		return true
	})
	return found, true
}

// Aggregate returns the retained customers in aggregate order.
func (x *Indexed) Aggregate() []customer.Tagged {
	out := make([]customer.Tagged, 0, x.tree.Len())
	x.tree.Ascend(func(e entry) bool {
		out = append(out, e.tagged)
		return true
	})
	return out
}

// Tick returns the number of ticks run since creation or the last Reset.
func (x *Indexed) Tick() int {
	return x.tick
}

// Pending returns the number of staged deletions.
func (x *Indexed) Pending() int {
	return len(x.pending)
}

// Reset drops the aggregate, staged deletions and tick count.
func (x *Indexed) Reset() {
	x.tree.Clear(false)
	x.byKey = make(map[int64][]entry)
	x.pending = nil
	x.seq = 0
	x.tick = 0
}
