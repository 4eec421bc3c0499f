// Package layout describes the workbook of each price domain: its header
// rows, label columns and how points map onto rows.
package layout

import (
	"fmt"
	"time"

	"sjsage522/pricesheet/internal/merge"
	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/internal/targets"
)

// Settings are the calendar settings shared by every layout.
type Settings struct {
	Location  *time.Location
	WeekStart time.Weekday
}

// For returns the layout of a domain.
func For(d price.Domain, s Settings, t *targets.Targets) (*merge.Layout, error) {
	switch d {
	case price.DomainGold:
		return Gold(s), nil
	case price.DomainHotel:
		return Hotel(s), nil
	case price.DomainFlight:
		return Flight(s, t.Routes), nil
	default:
		return nil, fmt.Errorf("no layout for domain %q", d)
	}
}

// Seeds returns the rows a fresh workbook of the domain is created with.
func Seeds(d price.Domain, t *targets.Targets) ([]merge.Row, error) {
	switch d {
	case price.DomainGold:
		return GoldSeeds(t.Karats), nil
	case price.DomainHotel:
		return HotelSeeds(t.Hotels), nil
	case price.DomainFlight:
		return FlightSeeds(t.Routes, t.Sources), nil
	default:
		return nil, fmt.Errorf("no layout for domain %q", d)
	}
}

// singleUnitRows is the row mapping of a point with one row per amount unit,
// every row carrying the same labels.
func singleUnitRows(labels func(p price.PricePoint, unit string) []string) func(price.PricePoint) []merge.Row {
	return func(p price.PricePoint) []merge.Row {
		units := p.Units()
		rows := make([]merge.Row, 0, len(units))
		for _, u := range units {
			rows = append(rows, merge.Row{
				Key:    merge.RowKey(p.Identity, u),
				Group:  p.Group,
				Labels: labels(p, u),
			})
		}
		return rows
	}
}
