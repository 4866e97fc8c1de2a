// Package events defines the grid's event topics and their payloads.
//
// Topics fall into two groups. Input topics (clicks, key presses, header drag)
// are emitted by a host UI and consumed by the engines. Notification topics
// (rows.set, sort.model.changed, cell.edit.committed) are emitted by the
// engines after they have updated state.
//
// The state.changed payload is defined by package state.
package events
