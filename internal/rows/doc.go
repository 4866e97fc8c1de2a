// Package rows owns the grid's row collection.
//
// SetRows replaces the collection, UpdateRows patches it. Both validate row
// ids and install the result with a single state update. Downstream engines
// (sorting, filtering, selection) recompute when the rows.set, rows.cleared
// and rows.updated notifications reach them.
//
// Notifications can be coalesced by a Batcher so that a burst of UpdateRows
// calls produces one rows.updated event. With the default zero window every
// notification is emitted immediately.
package rows
