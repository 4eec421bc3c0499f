// Package merge folds a batch of scraped prices into a dated, append-only
// price table without touching any history already recorded there.
package merge

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sjsage522/pricesheet/internal/period"
	"sjsage522/pricesheet/internal/price"
)

// Fixed columns of every workbook.
const (
	ColRowKey = 1
	ColGroup  = 2

	// SchemaMarker is stored in A1 so a foreign workbook is never mistaken for ours.
	SchemaMarker = "row_key"
	GroupMarker  = "group_key"

	// AverageSuffix is the sub-key of a derived per-group average row.
	AverageSuffix = "avg"
)

// LabelColumn is one visible descriptive column left of the period columns.
type LabelColumn struct {
	Title string
	Width float64
}

// Row describes one workbook row a point writes into.
type Row struct {
	// Key is the hidden row key, identity#sub.
	Key    string
	Group  string
	Labels []string
}

// Entry is one value to write in the current period column.
type Entry struct {
	Row      Row
	Identity string
	Amount   decimal.Decimal
}

// Layout holds everything domain-specific about a workbook: its header rows,
// label columns, how a point spreads over rows and how groups average.
type Layout struct {
	Sheet    string
	RTL      bool
	Resolver period.Resolver

	LabelColumns []LabelColumn
	PeriodWidth  float64

	// LabelAlign overrides the centered alignment of label cells.
	LabelAlign string

	// HeaderRows counts the key row plus the display header rows.
	HeaderRows int
	// PeriodHeaders returns the display header cells (rows 2..HeaderRows)
	// for a period column.
	PeriodHeaders func(k period.Key, runAt time.Time) []string

	NumberFormat string

	// Rows spreads a point over the rows it writes, one per amount unit.
	Rows func(p price.PricePoint) []Row
	// AverageRow describes the derived row for a group. nil disables averages.
	AverageRow   func(group string) Row
	AverageScale int32

	// Alert marks rows whose label cells are painted as an alert.
	Alert func(rowKey string) bool
}

// RowKey joins an identity and a sub-key.
func RowKey(identity, sub string) string {
	return identity + "#" + sub
}

// SplitRowKey returns the identity and sub-key of a row key.
func SplitRowKey(key string) (identity, sub string) {
	i := strings.LastIndex(key, "#")
	if i < 0 {
		return key, ""
	}
	return key[:i], key[i+1:]
}

// IsAverageKey reports whether key names a derived average row.
func IsAverageKey(key string) bool {
	_, sub := SplitRowKey(key)
	return sub == AverageSuffix
}

// FirstLabelCol is the column of the first label.
func (l *Layout) FirstLabelCol() int {
	return ColGroup + 1
}

// FirstPeriodCol is the column of the first period.
func (l *Layout) FirstPeriodCol() int {
	return l.FirstLabelCol() + len(l.LabelColumns)
}

// FirstDataRow is the row right below the headers.
func (l *Layout) FirstDataRow() int {
	return l.HeaderRows + 1
}

// Entries expands a point into the cells it writes.
func (l *Layout) Entries(p price.PricePoint) []Entry {
	rows := l.Rows(p)
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		_, unit := SplitRowKey(r.Key)
		amount, ok := p.Amounts[unit]
		if !ok {
			continue
		}
		out = append(out, Entry{Row: r, Identity: p.Identity, Amount: amount})
	}
	return out
}

func (l *Layout) alert(key string) bool {
	return l.Alert != nil && l.Alert(key)
}
