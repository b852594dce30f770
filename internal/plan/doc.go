// Package plan computes an executable calendar schedule for a set of
// interdependent tasks.
//
// It is intentionally split into three pure stages composed by Compute:
//   - registry: validate raw descriptors into a title->Task set
//   - sequencer: deterministic, priority-ordered topological order
//   - allocator: greedy hour allocation over a simulated work calendar
//
// Each invocation owns all of its state; nothing is shared across calls, so
// the package is safe to use from concurrent callers without locking.
package plan
