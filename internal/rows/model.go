package rows

import (
	"time"

	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/event/topic"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/state"
)

// Options configures the row model.
type Options struct {
	// GetRowID extracts row ids. Defaults to the "id" field.
	GetRowID model.RowIDGetter

	// RowCount is a server-declared total. The effective total is
	// max(RowCount, number of rows).
	RowCount int

	// Throttle is the notification coalescing window.
	Throttle time.Duration

	// Clock drives the coalescing window.
	Clock Clock
}

// Model owns the row collection.
type Model struct {
	store   *state.Store
	bus     *event.Bus
	logger  *logging.Logger
	opts    Options
	batcher *Batcher
}

// New creates a row model.
func New(store *state.Store, bus *event.Bus, logger *logging.Logger, opts Options) *Model {
	if opts.GetRowID == nil {
		opts.GetRowID = model.DefaultRowIDGetter
	}
	m := &Model{
		store:  store,
		bus:    bus,
		logger: logger,
		opts:   opts,
	}
	m.batcher = NewBatcher(opts.Throttle, opts.Clock, m.emit)
	return m
}

// SetOptions replaces the options. The id getter only applies to rows set
// afterwards.
func (m *Model) SetOptions(opts Options) {
	if opts.GetRowID == nil {
		opts.GetRowID = model.DefaultRowIDGetter
	}
	if opts.Clock == nil {
		opts.Clock = m.opts.Clock
	}
	m.opts = opts
	m.batcher.clock = opts.Clock
	if m.batcher.clock == nil {
		m.batcher.clock = SystemClock{}
	}
	m.batcher.SetWindow(opts.Throttle)

	m.store.SetState(func(s *state.State) *state.State {
		total := totalRowCount(opts.RowCount, len(s.Rows.AllRows))
		if total == s.Rows.TotalRowCount {
			return s
		}
		next := s.Clone()
		next.Rows.TotalRowCount = total
		next.Rows.Rev++
		return next
	})
}

// SetRows replaces every row. It fails without touching state when an id is
// missing or duplicated.
func (m *Model) SetRows(rows []model.Row) error {
	lookup := make(map[model.RowID]model.Row, len(rows))
	order := make([]model.RowID, 0, len(rows))
	for i, row := range rows {
		id, err := m.rowID(i, row, "")
		if err != nil {
			return err
		}
		if _, dup := lookup[id]; dup {
			return &model.RowIDError{Index: i, Row: row, Err: model.ErrDuplicateRowID}
		}
		lookup[id] = row
		order = append(order, id)
	}

	m.logger.Debug("updating all rows, new length %d", len(order))

	if previous := len(m.store.State().Rows.AllRows); previous > 0 {
		m.emit(events.TopicRowsCleared, events.RowsCleared{Count: previous})
	}

	total := totalRowCount(m.opts.RowCount, len(order))
	m.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		next.Rows = state.RowsState{
			Rev:           s.Rows.Rev + 1,
			Lookup:        lookup,
			AllRows:       order,
			TotalRowCount: total,
		}
		return next
	})

	m.batcher.Schedule(events.TopicRowsSet, events.RowsSet{IDs: order, TotalRowCount: total}, nil)
	return nil
}

// UpdateRows applies patches. Patches for the same id are merged in input
// order; a patch carrying the delete marker removes its row, a patch for an
// unknown id inserts a row, any other patch is merged over the existing row.
func (m *Model) UpdateRows(patches []model.Row) error {
	type update struct {
		id    model.RowID
		patch model.Row
	}
	var ordered []*update
	byID := make(map[model.RowID]*update, len(patches))

	for i, patch := range patches {
		id, err := m.rowID(i, patch, "A row was provided without id when calling UpdateRows:")
		if err != nil {
			return err
		}
		if u, ok := byID[id]; ok {
			u.patch = u.patch.Merge(patch)
			continue
		}
		u := &update{id: id, patch: patch}
		byID[id] = u
		ordered = append(ordered, u)
	}
	if len(ordered) == 0 {
		return nil
	}

	current := m.store.State().Rows
	lookup := make(map[model.RowID]model.Row, len(current.Lookup)+len(ordered))
	for id, row := range current.Lookup {
		lookup[id] = row
	}

	var notice events.RowsUpdated
	deleted := make(map[model.RowID]bool)
	var added []model.RowID

	for _, u := range ordered {
		old, exists := lookup[u.id]
		switch {
		case u.patch.IsDelete():
			if exists {
				delete(lookup, u.id)
				deleted[u.id] = true
				notice.Deleted = append(notice.Deleted, u.id)
			}
		case !exists:
			lookup[u.id] = u.patch
			added = append(added, u.id)
			notice.Added = append(notice.Added, u.id)
		default:
			lookup[u.id] = old.Merge(u.patch)
			notice.Updated = append(notice.Updated, u.id)
		}
	}

	order := current.AllRows
	if len(deleted) > 0 || len(added) > 0 {
		order = make([]model.RowID, 0, len(current.AllRows)+len(added))
		for _, id := range current.AllRows {
			if !deleted[id] {
				order = append(order, id)
			}
		}
		order = append(order, added...)
	}

	m.logger.Debug("updating %d rows: %d added, %d deleted", len(ordered), len(notice.Added), len(notice.Deleted))

	m.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		next.Rows = state.RowsState{
			Rev:           s.Rows.Rev + 1,
			Lookup:        lookup,
			AllRows:       order,
			TotalRowCount: totalRowCount(m.opts.RowCount, len(order)),
		}
		return next
	})

	m.batcher.Schedule(events.TopicRowsUpdated, notice, func(pending, next any) any {
		return pending.(events.RowsUpdated).Merge(next.(events.RowsUpdated))
	})
	return nil
}

// GetRow returns the row with the given id.
func (m *Model) GetRow(id any) (model.Row, bool) {
	key, err := model.NormalizeID(id)
	if err != nil {
		return nil, false
	}
	row, ok := m.store.State().Rows.Lookup[key]
	return row, ok
}

// GetRowIndex returns the position of id in the sorted order, or -1.
func (m *Model) GetRowIndex(id any) int {
	key, err := model.NormalizeID(id)
	if err != nil {
		return -1
	}
	for i, candidate := range m.sortedOrAll() {
		if candidate == key {
			return i
		}
	}
	return -1
}

// GetRowIDFromIndex returns the id at index in the sorted order.
func (m *Model) GetRowIDFromIndex(index int) (model.RowID, bool) {
	ids := m.sortedOrAll()
	if index < 0 || index >= len(ids) {
		return nil, false
	}
	return ids[index], true
}

// GetAllRowIDs returns the row ids in insertion order.
func (m *Model) GetAllRowIDs() []model.RowID {
	return m.store.State().Rows.AllRows
}

// GetRowsCount returns the total row count, including server-declared rows
// that are not loaded.
func (m *Model) GetRowsCount() int {
	return m.store.State().Rows.TotalRowCount
}

// GetRowModels returns every row in insertion order.
func (m *Model) GetRowModels() []model.RowEntry {
	rs := m.store.State().Rows
	out := make([]model.RowEntry, 0, len(rs.AllRows))
	for _, id := range rs.AllRows {
		out = append(out, model.RowEntry{ID: id, Row: rs.Lookup[id]})
	}
	return out
}

// Flush delivers pending notifications.
func (m *Model) Flush() {
	m.batcher.Flush()
}

// Poll delivers pending notifications whose window elapsed.
func (m *Model) Poll() bool {
	return m.batcher.Poll()
}

// Pending returns the number of queued notifications.
func (m *Model) Pending() int {
	return m.batcher.Pending()
}

func (m *Model) rowID(index int, row model.Row, detail string) (model.RowID, error) {
	id, err := model.NormalizeID(m.opts.GetRowID(row))
	if err != nil {
		return nil, &model.RowIDError{Index: index, Row: row, Detail: detail, Err: model.ErrInvalidRowID}
	}
	return id, nil
}

func (m *Model) sortedOrAll() []model.RowID {
	s := m.store.State()
	if len(s.Sorting.SortedRows) > 0 || len(s.Rows.AllRows) == 0 {
		return s.Sorting.SortedRows
	}
	return s.Rows.AllRows
}

func (m *Model) emit(t topic.Topic, payload any) {
	if err := m.bus.Emit(t, payload); err != nil {
		m.logger.Error("%s handler failed: %v", t, err)
	}
}

func totalRowCount(declared, loaded int) int {
	if declared > loaded {
		return declared
	}
	return loaded
}
