package layout

import (
	"fmt"
	"strings"
	"time"

	"sjsage522/pricesheet/internal/merge"
	"sjsage522/pricesheet/internal/period"
	"sjsage522/pricesheet/internal/price"
)

// Gold amount units in row order.
var GoldUnits = []string{"QAR", "USD"}

// AlertKarat is the karat whose label is painted red.
const AlertKarat = 22

// KaratID is the identity of a karat, e.g. "22K".
func KaratID(karat int) string {
	return fmt.Sprintf("%dK", karat)
}

// Gold is the daily per-karat table.
func Gold(s Settings) *merge.Layout {
	alertID := KaratID(AlertKarat)
	return &merge.Layout{
		Sheet: "Gold Prices",
		RTL:   true,
		Resolver: period.Resolver{
			Granularity: period.Daily,
			Location:    s.Location,
		},
		LabelColumns: []merge.LabelColumn{
			{Title: "نوع العيار", Width: 12},
			{Title: "العملة", Width: 10},
		},
		PeriodWidth: 18,
		HeaderRows:  3,
		PeriodHeaders: func(k period.Key, _ time.Time) []string {
			return []string{period.ArabicDay(k.Date.Weekday()), period.ArabicMonthDay(k.Date)}
		},
		NumberFormat: "0.00",
		Rows: singleUnitRows(func(p price.PricePoint, unit string) []string {
			return []string{strings.TrimSuffix(p.Identity, "K"), unit}
		}),
		Alert: func(rowKey string) bool {
			id, _ := merge.SplitRowKey(rowKey)
			return id == alertID
		},
	}
}

// GoldSeeds pre-allocates one row per karat and unit.
func GoldSeeds(karats []int) []merge.Row {
	var rows []merge.Row
	for _, k := range karats {
		for _, u := range GoldUnits {
			rows = append(rows, merge.Row{
				Key:    merge.RowKey(KaratID(k), u),
				Labels: []string{fmt.Sprint(k), u},
			})
		}
	}
	return rows
}
