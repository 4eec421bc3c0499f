package merge

import (
	"fmt"

	"sjsage522/pricesheet/internal/period"
	"sjsage522/pricesheet/internal/sheet"
	"sjsage522/pricesheet/pkg/errors"
)

// State is the row and column index read back from a workbook.
type State struct {
	Grid   *sheet.Grid
	Layout *Layout

	rows    map[string]int
	order   []string
	groups  map[string]string
	columns map[period.Key]int
	lastRow int
	lastCol int
}

// Inspect reads the key row and key column of g. An empty grid yields a fresh
// header-only state. A grid that cannot be safely extended is reported as a
// schema mismatch and left untouched.
func Inspect(g *sheet.Grid, l *Layout) (*State, error) {
	s := &State{
		Grid:    g,
		Layout:  l,
		rows:    make(map[string]int),
		groups:  make(map[string]string),
		columns: make(map[period.Key]int),
		lastRow: l.HeaderRows,
		lastCol: l.FirstPeriodCol() - 1,
	}
	if g.IsEmpty() {
		writeSkeleton(g, l)
		return s, nil
	}

	if marker := g.Get(1, ColRowKey).Text(); marker != SchemaMarker {
		return nil, mismatch(g, "cell A1 is %q, want %q", marker, SchemaMarker)
	}
	for i, lc := range l.LabelColumns {
		col := l.FirstLabelCol() + i
		if got := g.Get(l.HeaderRows, col).Text(); got != lc.Title {
			return nil, mismatch(g, "label column %d is titled %q, want %q", col, got, lc.Title)
		}
	}

	for col := l.FirstPeriodCol(); col <= g.MaxCol(); col++ {
		raw := g.Get(1, col)
		if raw.IsEmpty() {
			continue
		}
		k, err := l.Resolver.Parse(raw.Text())
		if err != nil {
			return nil, mismatch(g, "column %d: %v", col, err)
		}
		if prev, dup := s.columns[k]; dup {
			return nil, mismatch(g, "period %s appears in columns %d and %d", k, prev, col)
		}
		s.columns[k] = col
		s.lastCol = col
	}

	for row := l.FirstDataRow(); row <= g.MaxRow(); row++ {
		key := g.Get(row, ColRowKey).Text()
		if key == "" {
			continue
		}
		if prev, dup := s.rows[key]; dup {
			return nil, mismatch(g, "row key %q appears in rows %d and %d", key, prev, row)
		}
		s.rows[key] = row
		s.order = append(s.order, key)
		if grp := g.Get(row, ColGroup).Text(); grp != "" {
			s.groups[key] = grp
		}
		s.lastRow = row
	}
	return s, nil
}

func mismatch(g *sheet.Grid, format string, args ...interface{}) error {
	return errors.NewSchemaMismatch(g.Name, fmt.Sprintf(format, args...))
}

// writeSkeleton lays down the key row markers and label titles of a fresh grid.
func writeSkeleton(g *sheet.Grid, l *Layout) {
	g.Name = l.Sheet
	g.SetText(1, ColRowKey, SchemaMarker)
	g.SetText(1, ColGroup, GroupMarker)
	for i, lc := range l.LabelColumns {
		g.SetText(l.HeaderRows, l.FirstLabelCol()+i, lc.Title)
	}
}

// Row returns the row index of key.
func (s *State) Row(key string) (int, bool) {
	r, ok := s.rows[key]
	return r, ok
}

// Column returns the column index of a period.
func (s *State) Column(k period.Key) (int, bool) {
	c, ok := s.columns[k]
	return c, ok
}

// RowKeys returns every known row key in row order.
func (s *State) RowKeys() []string {
	return append([]string(nil), s.order...)
}

// Columns returns the number of period columns.
func (s *State) Columns() int {
	return len(s.columns)
}

// LastColumn is the right-most allocated column.
func (s *State) LastColumn() int {
	return s.lastCol
}

// GroupOf returns the recorded group of a row key.
func (s *State) GroupOf(key string) string {
	return s.groups[key]
}

// ensureRow returns the row for r, appending one after the last used row if
// r is new. Labels and group are filled only where empty.
func (s *State) ensureRow(r Row) (int, bool) {
	row, ok := s.rows[r.Key]
	isNew := !ok
	if isNew {
		s.lastRow++
		row = s.lastRow
		s.rows[r.Key] = row
		s.order = append(s.order, r.Key)
		s.Grid.SetText(row, ColRowKey, r.Key)
	}
	if r.Group != "" && s.groups[r.Key] == "" {
		s.groups[r.Key] = r.Group
		s.Grid.SetText(row, ColGroup, r.Group)
	}
	for i, label := range r.Labels {
		if i >= len(s.Layout.LabelColumns) {
			break
		}
		col := s.Layout.FirstLabelCol() + i
		if s.Grid.Get(row, col).IsEmpty() {
			s.Grid.SetText(row, col, label)
		}
	}
	return row, isNew
}

// ensureColumn returns the column for k, allocating the next one to the right
// of the last existing column if k is new.
func (s *State) ensureColumn(k period.Key) (int, bool) {
	if col, ok := s.columns[k]; ok {
		return col, false
	}
	s.lastCol++
	s.columns[k] = s.lastCol
	s.Grid.SetText(1, s.lastCol, k.String())
	return s.lastCol, true
}

// Plan is the placement decided for one run.
type Plan struct {
	Key       period.Key
	Rows      map[string]int
	Column    int
	NewColumn bool
	NewRows   []string
}

// Reconcile assigns a row to every row key and a column to the period.
// Existing assignments are reused; new rows are appended in arrival order.
func Reconcile(s *State, rows []Row, k period.Key) *Plan {
	p := &Plan{Key: k, Rows: make(map[string]int, len(rows))}
	for _, r := range rows {
		row, isNew := s.ensureRow(r)
		p.Rows[r.Key] = row
		if isNew {
			p.NewRows = append(p.NewRows, r.Key)
		}
	}
	p.Column, p.NewColumn = s.ensureColumn(k)
	return p
}
