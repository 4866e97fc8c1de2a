// Package event provides the synchronous publish/subscribe bus that mediates
// every interaction inside a grid.
//
// Engines subscribe to dotted topics and react by updating the state store;
// hosts emit input events (clicks, key presses, scroll) onto the same bus.
//
// # Topics
//
// Events use hierarchical topics with dot notation:
//
//	rows.set                - rows were replaced wholesale
//	column.header.clicked   - a column header was clicked
//	cell.edit.committed     - a staged cell value was written to its row
//
// Subscriptions may use wildcard patterns:
//
//	cell.*     - matches cell.clicked, cell.key.down is not matched
//	cell.**    - matches every topic under cell
//	*.changed  - matches state.changed, columns.changed
//
// # Delivery
//
// Emit runs on the caller's goroutine. The matching listeners are captured
// before the first handler runs, so a handler that subscribes or unsubscribes
// does not change who receives the current emission. Within one emission,
// listeners run in subscription order.
//
// Handlers return errors. Every matching handler runs even when an earlier one
// fails, and Emit returns the joined errors. A handler panic is recovered and
// reported as a *PanicError.
//
// # Basic Usage
//
//	bus := event.NewBus()
//	sub := bus.On(events.TopicRowsSet, func(ev event.Event) error {
//		payload := ev.Payload.(events.RowsSet)
//		log.Printf("%d rows", len(payload.IDs))
//		return nil
//	})
//	defer bus.RemoveListener(sub)
//
//	_ = bus.Emit(events.TopicRowsSet, events.RowsSet{IDs: ids})
//
// Typed handlers skip payloads of other types:
//
//	event.Subscribe(bus, events.TopicSelectionChanged, func(p events.SelectionChanged) error {
//		return nil
//	})
package event
