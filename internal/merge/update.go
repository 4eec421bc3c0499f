package merge

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"sjsage522/pricesheet/internal/sheet"
)

// Update writes every entry into the plan's column, then refreshes the period
// header cells and the derived group averages. Nothing is persisted.
func Update(s *State, p *Plan, entries []Entry, runAt time.Time) {
	for _, e := range entries {
		row, ok := p.Rows[e.Row.Key]
		if !ok {
			continue
		}
		s.Grid.Set(row, p.Column, sheet.Decimal(e.Amount))
	}
	writePeriodHeaders(s, p, runAt)
	if s.Layout.AverageRow != nil {
		updateAverages(s, p)
	}
}

func writePeriodHeaders(s *State, p *Plan, runAt time.Time) {
	if s.Layout.PeriodHeaders == nil {
		return
	}
	for i, text := range s.Layout.PeriodHeaders(p.Key, runAt) {
		row := 2 + i
		if row > s.Layout.HeaderRows {
			break
		}
		s.Grid.SetText(row, p.Column, text)
	}
}

// updateAverages recomputes the mean of every group from the individual values
// currently present in the column. A group with fewer than two values has no
// average, and any stale one is cleared.
func updateAverages(s *State, p *Plan) {
	members := make(map[string][]string)
	for _, key := range s.order {
		if IsAverageKey(key) {
			continue
		}
		if g := s.groups[key]; g != "" {
			members[g] = append(members[g], key)
		}
	}
	groups := make([]string, 0, len(members))
	for g := range members {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, g := range groups {
		var values []decimal.Decimal
		for _, key := range members[g] {
			v := s.Grid.Get(s.rows[key], p.Column)
			if v.Kind == sheet.Number {
				values = append(values, v.Num)
			}
		}

		avg := s.Layout.AverageRow(g)
		if len(values) < 2 {
			if row, ok := s.rows[avg.Key]; ok {
				s.Grid.Set(row, p.Column, sheet.Value{})
			}
			continue
		}

		row, isNew := s.ensureRow(avg)
		if isNew {
			p.NewRows = append(p.NewRows, avg.Key)
		}
		p.Rows[avg.Key] = row
		mean := decimal.Avg(values[0], values[1:]...).Round(s.Layout.AverageScale)
		s.Grid.Set(row, p.Column, sheet.Decimal(mean))
	}
}
