// Package incremental maintains the running by-name median of one customer
// group across discrete processing rounds (ticks).
//
// Every tick the engine tags and filters the new customers, sorts only that
// batch by first name and merges it into the sorted aggregate retained from
// the previous tick. The median is the element at len/2 of the merged
// aggregate and is handed to a Sink. The merged aggregate becomes the state
// for the next tick, so the full set is never resorted.
//
// Two variants exist. WithoutDeletions ignores deletion batches. WithDeletions
// stages the deletions handed to a tick and, at the start of the next tick
// that merges inserts, removes at most one retained customer per deletion
// (matched by sum key). Deletions that match nothing are ignored.
//
// A tick whose filtered batch is empty is a no-op: the aggregate is carried
// forward unchanged and no median is emitted.
//
// Key components:
//   - Engine: the sorted-slice engine.
//   - Indexed: the same contract over a B-tree, used as a cross-check.
//   - Pipeline: drives a Stepper through the base tick and the update tick.
//   - Sink, SinkFunc, Recorder: median consumers.
//
// Basic usage:
//
//	rec := &incremental.Recorder{}
//	engine := incremental.New(params,
//	    incremental.WithVariant(incremental.WithDeletions),
//	    incremental.WithSink(rec),
//	)
//	p := incremental.NewPipeline(engine, base, updates, deletions)
//	if err := p.RunToCompletion(ctx); err != nil {
//	    return err
//	}
//	last, _ := rec.Last()
//
// Engines are single threaded: a tick runs to completion before the next one
// starts, and an engine must not be driven from more than one goroutine.
package incremental
