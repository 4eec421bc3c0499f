package merge

import "sjsage522/pricesheet/internal/sheet"

const (
	keyColumnWidth = 14
	alignCenter    = "center"
)

// Paint re-applies every style rule to the whole table, so rows and columns
// added in this run look exactly like the ones before them.
func Paint(s *State) {
	g, l := s.Grid, s.Layout
	g.Name = l.Sheet
	g.RTL = l.RTL

	g.SetHidden(ColRowKey, true)
	g.SetHidden(ColGroup, true)
	g.SetWidth(ColRowKey, keyColumnWidth)
	g.SetWidth(ColGroup, keyColumnWidth)
	for i, lc := range l.LabelColumns {
		g.SetWidth(l.FirstLabelCol()+i, lc.Width)
	}
	for col := l.FirstPeriodCol(); col <= s.lastCol; col++ {
		g.SetWidth(col, l.PeriodWidth)
	}

	header := sheet.Style{Role: sheet.RoleHeader, Align: alignCenter}
	for row := 1; row <= l.HeaderRows; row++ {
		for col := 1; col <= s.lastCol; col++ {
			g.SetStyle(row, col, header)
		}
	}

	labelAlign := alignCenter
	if l.LabelAlign != "" {
		labelAlign = l.LabelAlign
	}
	label := sheet.Style{Role: sheet.RoleLabel, Align: labelAlign}
	alert := sheet.Style{Role: sheet.RoleLabelAlert, Align: labelAlign}
	value := sheet.Style{Role: sheet.RoleValue, NumFmt: l.NumberFormat, Align: alignCenter}
	averageLabel := sheet.Style{Role: sheet.RoleAverage, Align: alignCenter}
	average := sheet.Style{Role: sheet.RoleAverage, NumFmt: l.NumberFormat, Align: alignCenter}

	for _, key := range s.order {
		row := s.rows[key]
		labelStyle, valueStyle := label, value
		switch {
		case IsAverageKey(key):
			labelStyle, valueStyle = averageLabel, average
		case l.alert(key):
			labelStyle = alert
		}
		for col := l.FirstLabelCol(); col < l.FirstPeriodCol(); col++ {
			g.SetStyle(row, col, labelStyle)
		}
		for col := l.FirstPeriodCol(); col <= s.lastCol; col++ {
			g.SetStyle(row, col, valueStyle)
		}
	}
}
