package layout

import (
	"time"

	"sjsage522/pricesheet/internal/merge"
	"sjsage522/pricesheet/internal/period"
	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/internal/targets"
)

// HotelCurrency is the unit hotel rates are recorded in.
const HotelCurrency = "QAR"

// Hotel is the weekly per-hotel table.
func Hotel(s Settings) *merge.Layout {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return &merge.Layout{
		Sheet: "Hotel Prices",
		RTL:   true,
		Resolver: period.Resolver{
			Granularity: period.Weekly,
			Location:    s.Location,
			WeekStart:   s.WeekStart,
		},
		LabelColumns: []merge.LabelColumn{
			{Title: "الفندق", Width: 30},
		},
		LabelAlign:  "right",
		PeriodWidth: 18,
		HeaderRows:  3,
		PeriodHeaders: func(k period.Key, runAt time.Time) []string {
			// The second row carries the date the column was last refreshed.
			return []string{period.WeekLabel(k), runAt.In(loc).Format("2006-01-02")}
		},
		NumberFormat: "0.00",
		Rows: singleUnitRows(func(p price.PricePoint, _ string) []string {
			return []string{p.Label}
		}),
	}
}

// HotelSeeds pre-allocates one row per hotel in list order.
func HotelSeeds(hotels []targets.Hotel) []merge.Row {
	rows := make([]merge.Row, 0, len(hotels))
	for _, h := range hotels {
		rows = append(rows, merge.Row{
			Key:    merge.RowKey(h.ID, HotelCurrency),
			Labels: []string{h.Name},
		})
	}
	return rows
}
