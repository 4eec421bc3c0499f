// Package sheet is an in-memory spreadsheet grid. It knows nothing about any
// file format; internal/workbook maps it to and from .xlsx.
package sheet

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Kind is the type of a cell value.
type Kind int

const (
	Empty Kind = iota
	Text
	Number
)

// Value is a cell value.
type Value struct {
	Kind Kind
	Str  string
	Num  decimal.Decimal
}

// String builds a text value. An empty string is an empty value.
func String(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{Kind: Text, Str: s}
}

// Decimal builds a numeric value.
func Decimal(d decimal.Decimal) Value {
	return Value{Kind: Number, Num: d}
}

// IsEmpty reports whether the value is blank.
func (v Value) IsEmpty() bool {
	return v.Kind == Empty
}

// Text returns the value as display text.
func (v Value) Text() string {
	switch v.Kind {
	case Text:
		return v.Str
	case Number:
		return v.Num.String()
	default:
		return ""
	}
}

// Equal compares two values, numbers by magnitude.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Number:
		return v.Num.Equal(o.Num)
	case Text:
		return v.Str == o.Str
	default:
		return true
	}
}

// Role is the presentational role of a cell.
type Role int

const (
	RoleNone Role = iota
	RoleHeader
	RoleLabel
	RoleLabelAlert
	RoleValue
	RoleAverage
)

// Style describes how a cell is painted. It is comparable so adapters can
// cache one file-format style per distinct Style.
type Style struct {
	Role Role
	// NumFmt is a spreadsheet number format such as "0.00".
	NumFmt string
	// Align is "center", "right" or "" for the default.
	Align string
}

// Pos is a 1-based cell position.
type Pos struct {
	Row, Col int
}

// Grid is a sparse single-sheet grid with 1-based coordinates.
type Grid struct {
	Name string
	RTL  bool

	values map[Pos]Value
	styles map[Pos]Style
	widths map[int]float64
	hidden map[int]bool
	maxRow int
	maxCol int
}

// New returns an empty grid.
func New(name string) *Grid {
	return &Grid{
		Name:   name,
		values: make(map[Pos]Value),
		styles: make(map[Pos]Style),
		widths: make(map[int]float64),
		hidden: make(map[int]bool),
	}
}

// Get returns the value at (row, col).
func (g *Grid) Get(row, col int) Value {
	return g.values[Pos{row, col}]
}

// Set stores v at (row, col). Setting an empty value clears the cell.
func (g *Grid) Set(row, col int, v Value) {
	if row < 1 || col < 1 {
		panic("sheet: coordinates are 1-based")
	}
	p := Pos{row, col}
	if v.IsEmpty() {
		delete(g.values, p)
		return
	}
	g.values[p] = v
	g.grow(row, col)
}

// SetText is shorthand for Set(row, col, String(s)).
func (g *Grid) SetText(row, col int, s string) {
	g.Set(row, col, String(s))
}

// Style returns the style at (row, col).
func (g *Grid) Style(row, col int) Style {
	return g.styles[Pos{row, col}]
}

// SetStyle paints (row, col).
func (g *Grid) SetStyle(row, col int, s Style) {
	if s == (Style{}) {
		delete(g.styles, Pos{row, col})
		return
	}
	g.styles[Pos{row, col}] = s
	g.grow(row, col)
}

func (g *Grid) grow(row, col int) {
	if row > g.maxRow {
		g.maxRow = row
	}
	if col > g.maxCol {
		g.maxCol = col
	}
}

// MaxRow is the largest row index ever written.
func (g *Grid) MaxRow() int { return g.maxRow }

// MaxCol is the largest column index ever written.
func (g *Grid) MaxCol() int { return g.maxCol }

// IsEmpty reports whether the grid holds no values.
func (g *Grid) IsEmpty() bool {
	return len(g.values) == 0
}

// SetWidth sets the width of a column.
func (g *Grid) SetWidth(col int, w float64) {
	g.widths[col] = w
}

// Width returns a column width, 0 when unset.
func (g *Grid) Width(col int) float64 {
	return g.widths[col]
}

// SetHidden hides or shows a column.
func (g *Grid) SetHidden(col int, hidden bool) {
	if hidden {
		g.hidden[col] = true
		return
	}
	delete(g.hidden, col)
}

// Hidden reports whether a column is hidden.
func (g *Grid) Hidden(col int) bool {
	return g.hidden[col]
}

// Columns returns every column index that carries a width or hidden flag.
func (g *Grid) Columns() []int {
	seen := make(map[int]bool)
	for c := range g.widths {
		seen[c] = true
	}
	for c := range g.hidden {
		seen[c] = true
	}
	cols := make([]int, 0, len(seen))
	for c := range seen {
		cols = append(cols, c)
	}
	sort.Ints(cols)
	return cols
}

// Cells returns the positions of every non-empty or styled cell in row-major order.
func (g *Grid) Cells() []Pos {
	seen := make(map[Pos]bool, len(g.values)+len(g.styles))
	for p := range g.values {
		seen[p] = true
	}
	for p := range g.styles {
		seen[p] = true
	}
	out := make([]Pos, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// Values returns a copy of all non-empty values keyed by position.
func (g *Grid) Values() map[Pos]Value {
	out := make(map[Pos]Value, len(g.values))
	for p, v := range g.values {
		out[p] = v
	}
	return out
}
