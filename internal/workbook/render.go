package workbook

import (
	"github.com/xuri/excelize/v2"

	"sjsage522/pricesheet/internal/sheet"
)

const (
	headerFill = "FFFF00"
	labelFill  = "FFE4B5"
	alertFont  = "FF0000"
	borderRGB  = "000000"
	defaultTab = "Sheet1"
)

func thinBorders() []excelize.Border {
	var out []excelize.Border
	for _, side := range []string{"left", "right", "top", "bottom"} {
		out = append(out, excelize.Border{Type: side, Color: borderRGB, Style: 1})
	}
	return out
}

// excelStyle translates a grid style into an excelize style.
func excelStyle(s sheet.Style) *excelize.Style {
	st := &excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: s.Align, Vertical: "center"},
	}
	if s.NumFmt != "" {
		numFmt := s.NumFmt
		st.CustomNumFmt = &numFmt
	}
	switch s.Role {
	case sheet.RoleHeader:
		st.Font = &excelize.Font{Bold: true}
		st.Fill = excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1}
		st.Border = thinBorders()
	case sheet.RoleLabel:
		st.Font = &excelize.Font{Bold: true}
		st.Fill = excelize.Fill{Type: "pattern", Color: []string{labelFill}, Pattern: 1}
	case sheet.RoleLabelAlert:
		st.Font = &excelize.Font{Bold: true, Color: alertFont}
		st.Fill = excelize.Fill{Type: "pattern", Color: []string{labelFill}, Pattern: 1}
	case sheet.RoleAverage:
		st.Font = &excelize.Font{Bold: true}
	}
	return st
}

// sheetName is the tab a grid is written to.
func sheetName(g *sheet.Grid) string {
	if g.Name == "" {
		return defaultTab
	}
	return g.Name
}

// newFile returns an empty workbook whose only sheet is called name.
func newFile(name string) (*excelize.File, error) {
	f := excelize.NewFile()
	if name != defaultTab {
		if err := f.SetSheetName(defaultTab, name); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// resetSheet leaves an empty sheet called name in f. An existing sheet of that
// name is replaced; every other sheet is kept as it is.
func resetSheet(f *excelize.File, name string) error {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	if idx < 0 {
		_, err := f.NewSheet(name)
		return err
	}

	scratch := []rune("~" + name)
	if len(scratch) > excelize.MaxSheetNameLength {
		scratch = scratch[:excelize.MaxSheetNameLength]
	}
	if _, err := f.NewSheet(string(scratch)); err != nil {
		return err
	}
	if err := f.DeleteSheet(name); err != nil {
		return err
	}
	return f.SetSheetName(string(scratch), name)
}

// render writes g into the empty sheet of f named after it. One excelize
// style is created per distinct grid style.
func render(f *excelize.File, g *sheet.Grid) error {
	name := sheetName(g)

	styles := make(map[sheet.Style]int)
	styleID := func(s sheet.Style) (int, error) {
		if id, ok := styles[s]; ok {
			return id, nil
		}
		id, err := f.NewStyle(excelStyle(s))
		if err != nil {
			return 0, err
		}
		styles[s] = id
		return id, nil
	}

	for _, p := range g.Cells() {
		ref, err := excelize.CoordinatesToCellName(p.Col, p.Row)
		if err != nil {
			return err
		}
		v := g.Get(p.Row, p.Col)
		switch v.Kind {
		case sheet.Text:
			err = f.SetCellStr(name, ref, v.Str)
		case sheet.Number:
			err = f.SetCellFloat(name, ref, v.Num.InexactFloat64(), -1, 64)
		}
		if err != nil {
			return err
		}

		if s := g.Style(p.Row, p.Col); s != (sheet.Style{}) {
			id, err := styleID(s)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(name, ref, ref, id); err != nil {
				return err
			}
		}
	}

	for _, c := range g.Columns() {
		col, err := excelize.ColumnNumberToName(c)
		if err != nil {
			return err
		}
		if w := g.Width(c); w > 0 {
			if err := f.SetColWidth(name, col, col, w); err != nil {
				return err
			}
		}
		if g.Hidden(c) {
			if err := f.SetColVisible(name, col, false); err != nil {
				return err
			}
		}
	}

	rtl := g.RTL
	if err := f.SetSheetView(name, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return err
	}
	if idx, err := f.GetSheetIndex(name); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	return nil
}
