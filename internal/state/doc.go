// Package state holds the grid's single authoritative state tree.
//
// State is replaced, never mutated: an updater passed to Store.SetState
// returns either the state it was given (a no-op) or a new *State built from
// a shallow copy. Partitions that feed derived views carry a Rev counter that
// the updater bumps when it replaces the partition; memoised selectors key on
// those counters.
//
// Partitions that a caller may own (sort, filter, selection, edit and
// pagination models) are reconciled by a table of ControlItem bindings, see
// Store.UpdateControlState.
package state
