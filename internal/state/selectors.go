package state

import "github.com/dshills/gridstorm/internal/model"

// VisibleSortedRowIDs returns the sorted row ids that pass the filter. The
// result is cached until the sort order or the filter result changes.
func (s *Store) VisibleSortedRowIDs() []model.RowID {
	st := s.state
	return s.visibleSorted.Get([2]uint64{st.Sorting.Rev, st.VisibleRows.Rev}, func() []model.RowID {
		out := make([]model.RowID, 0, len(st.Sorting.SortedRows))
		for _, id := range st.Sorting.SortedRows {
			if st.VisibleRows.IsVisible(id) {
				out = append(out, id)
			}
		}
		return out
	})
}

// VisibleColumns returns the columns that are not hidden, in display order.
// The result is cached until the columns change.
func (s *Store) VisibleColumns() []*model.Column {
	st := s.state
	return s.visibleCols.Get(st.Columns.Rev, func() []*model.Column {
		out := make([]*model.Column, 0, len(st.Columns.All))
		for _, col := range st.Columns.Ordered() {
			if !col.Hide {
				out = append(out, col)
			}
		}
		return out
	})
}

// SortedRowIDs returns every row id in sorted order, filtered or not.
func (s *Store) SortedRowIDs() []model.RowID {
	return s.state.Sorting.SortedRows
}
