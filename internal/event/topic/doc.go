// Package topic names grid events with dotted, hierarchical topics and matches
// them against subscription patterns.
//
//	rows.set
//	column.header.clicked
//	cell.edit.committed
//
// Patterns may use wildcards:
//
//   - "*" matches exactly one segment (cell.* matches cell.clicked)
//   - "**" matches zero or more segments (cell.** matches cell.edit.started)
package topic
