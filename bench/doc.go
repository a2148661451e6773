// Package bench times the by-name strategies over a matrix of base, update
// and deletion sizes.
//
// An Experiment names one implementation and one set of sizes. Run loads the
// input once and then executes the experiment repeatedly; every iteration
// starts from a fresh engine, runs the base tick and the update tick, and is
// timed on its own. Baselines mirror the two ticks with one recompute over
// the base load and one over base and updates. Latency percentiles are estimated with a targeted
// quantile stream.
//
// The non-incremental baselines and IncrementalSort ignore deletions.
// IncrementalSortWithDelete and IncrementalIndexed apply them on the update
// tick. Throughput is reported as twice the update size, counting the updates
// and the matching deletions.
package bench
