package merge

import "iter"

// Tree is a tournament (loser) tree over a fixed set of sorted runs. It
// yields the smallest head among the runs until all are exhausted. Ties go
// to the run that was passed first, so the merge is stable across runs.
//
// Layout follows the usual array encoding: with M runs, leaves live at
// positions M..2M-1, internal nodes at 1..M-1 and node 0 holds the winner.
// Nodes N and N+1 share the parent N/2.
type Tree[E any] struct {
	nodes []node[E]
	runs  []iter.Seq[E]
	cmp   func(E, E) int
}

type node[E any] struct {
	index     int              // Leaf position of the loser; the winner for node 0.
	value     E                // Current head. Only set on leaves.
	exhausted bool             // Only set on leaves.
	next      func() (E, bool) // Only set on leaves.
}

// New builds a tree over runs, each sorted by cmp.
func New[E any](cmp func(E, E) int, runs ...iter.Seq[E]) *Tree[E] {
	return &Tree[E]{
		nodes: make([]node[E], len(runs)*2),
		runs:  runs,
		cmp:   cmp,
	}
}

// Runs merges sorted runs into one sorted sequence.
func Runs[E any](cmp func(E, E) int, runs ...iter.Seq[E]) iter.Seq[E] {
	return New(cmp, runs...).All()
}

// All yields the merged sequence. A tree can be drained once.
func (t *Tree[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		m := len(t.runs)
		if m == 0 {
			return
		}
		for i, run := range t.runs {
			next, stop := iter.Pull(run)
			//nolint:gocritic // stopped when All returns.
			defer stop()
			t.nodes[i+m].next = next
			t.advance(i + m)
		}
		t.nodes[0].index = t.playGame(1)
		for {
			w := t.nodes[0].index
			if t.nodes[w].exhausted || !yield(t.nodes[w].value) {
				return
			}
			t.advance(w)
			t.replayGames(w)
		}
	}
}

func (t *Tree[E]) advance(leaf int) {
	n := &t.nodes[leaf]
	v, ok := n.next()
	n.value = v
	n.exhausted = !ok
}

// beats reports whether leaf a wins against leaf b.
func (t *Tree[E]) beats(a, b int) bool {
	la, lb := &t.nodes[a], &t.nodes[b]
	switch {
	case la.exhausted:
		return false
	case lb.exhausted:
		return true
	}
	if c := t.cmp(la.value, lb.value); c != 0 {
		return c < 0
	}
	return a < b
}

// playGame returns the winning leaf below pos and records losers on the way up.
func (t *Tree[E]) playGame(pos int) int {
	if pos >= len(t.nodes)/2 {
		return pos
	}
	left := t.playGame(pos * 2)
	right := t.playGame(pos*2 + 1)
	winner, loser := right, left
	if t.beats(left, right) {
		winner, loser = left, right
	}
	t.nodes[pos].index = loser
	return winner
}

// replayGames re-runs the matches from leaf pos, the previous winner, to the root.
func (t *Tree[E]) replayGames(pos int) {
	for n := parent(pos); n != 0; n = parent(n) {
		if t.beats(t.nodes[n].index, pos) {
			t.nodes[n].index, pos = pos, t.nodes[n].index
		}
	}
	t.nodes[0].index = pos
}

func parent(i int) int { return i >> 1 }
