package layout

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sjsage522/pricesheet/internal/merge"
	"sjsage522/pricesheet/internal/period"
	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/internal/targets"
)

// Flight point attributes.
const (
	AttrRoute      = "route"
	AttrSourceCode = "source_code"
	AttrAgency     = "agency"
	AttrAirline    = "airline"
)

const (
	FlightCurrency = "QAR"

	flagIndividual = "Y"
	flagAverage    = "N-averages"
	// unfilteredAirline groups aggregator fares that are not tied to a carrier.
	unfilteredAirline = "Various"
)

// FlightIdentity is the row identity of one route priced by one source.
func FlightIdentity(routeCode, sourceID string) string {
	return routeCode + "/" + sourceID
}

// FlightGroup is the averaging group of a route and airline.
func FlightGroup(routeCode, airline string) string {
	if airline == "" {
		airline = unfilteredAirline
	}
	return routeCode + "|" + airline
}

func splitGroup(group string) (routeCode, airline string) {
	i := strings.Index(group, "|")
	if i < 0 {
		return group, ""
	}
	return group[:i], group[i+1:]
}

// AgencyLabel is the agencies-column text of an individual source row.
func AgencyLabel(agency, airline string) string {
	if airline != "" && airline != unfilteredAirline {
		return "عبر " + airline + " " + agency
	}
	return agency
}

func averageLabel(airline string) string {
	if airline != "" && airline != unfilteredAirline {
		return "متوسط المصادر للخطوط " + airline
	}
	return "متوسط المصادر"
}

// Flight is the weekly route × source table with per-airline averages.
func Flight(s Settings, routes []targets.Route) *merge.Layout {
	byCode := make(map[string]targets.Route, len(routes))
	for _, r := range routes {
		byCode[r.Code] = r
	}

	return &merge.Layout{
		Sheet: "Flight Prices",
		RTL:   true,
		Resolver: period.Resolver{
			Granularity: period.Weekly,
			Location:    s.Location,
			WeekStart:   s.WeekStart,
		},
		LabelColumns: []merge.LabelColumn{
			{Title: "Code", Width: 12},
			{Title: "Commodity", Width: 60},
			{Title: "الدرجة المقابلة لها في الخطوط (Class equivalent in airlines)", Width: 25},
			{Title: "CPI-Flag", Width: 12},
			{Title: "رمز المصدر (Source Code)", Width: 15},
			{Title: "وكالات الخطوط (Flight Agencies)", Width: 30},
		},
		PeriodWidth: 15,
		HeaderRows:  2,
		// Row 1 keeps the week key; the visible header is the latest run date.
		PeriodHeaders: func(k period.Key, runAt time.Time) []string {
			if runAt.IsZero() {
				return []string{period.ShortDate(k.Date)}
			}
			if s.Location != nil {
				runAt = runAt.In(s.Location)
			}
			return []string{period.ShortDate(runAt)}
		},
		NumberFormat: "0",
		Rows: func(p price.PricePoint) []merge.Row {
			r := byCode[p.Attr(AttrRoute)]
			return []merge.Row{{
				Key:   merge.RowKey(p.Identity, FlightCurrency),
				Group: p.Group,
				Labels: []string{
					p.Attr(AttrRoute),
					r.Commodity,
					routeClass(r),
					flagIndividual,
					p.Attr(AttrSourceCode),
					AgencyLabel(p.Attr(AttrAgency), p.Attr(AttrAirline)),
				},
			}}
		},
		AverageRow: func(group string) merge.Row {
			code, airline := splitGroup(group)
			r := byCode[code]
			return merge.Row{
				Key:    merge.RowKey(group, merge.AverageSuffix),
				Group:  group,
				Labels: []string{code, r.Commodity, routeClass(r), flagAverage, "", averageLabel(airline)},
			}
		},
		AverageScale: 0,
	}
}

func routeClass(r targets.Route) string {
	if r.Class == "" {
		return "Economy"
	}
	return r.Class
}

// FlightSeeds pre-allocates, per route, one row per source followed by the
// average row of every airline group with at least two sources.
func FlightSeeds(routes []targets.Route, sources []targets.FlightSource) []merge.Row {
	l := Flight(Settings{}, routes)

	var rows []merge.Row
	for _, r := range routes {
		members := make(map[string]int)
		var groups []string
		for _, src := range sources {
			p := FlightPoint(r, src, nil)
			rows = append(rows, l.Rows(p)...)
			if members[p.Group] == 0 {
				groups = append(groups, p.Group)
			}
			members[p.Group]++
		}
		for _, g := range groups {
			if members[g] >= 2 {
				rows = append(rows, l.AverageRow(g))
			}
		}
	}
	return rows
}

// FlightPoint builds the point of a route priced by a source. amounts may be
// nil when only the row shape is needed.
func FlightPoint(r targets.Route, src targets.FlightSource, amounts map[string]decimal.Decimal) price.PricePoint {
	p := price.PricePoint{
		Identity: FlightIdentity(r.Code, src.ID),
		Label:    src.Name,
		Group:    FlightGroup(r.Code, src.Airline),
		Attrs: map[string]string{
			AttrRoute:      r.Code,
			AttrSourceCode: src.Code,
			AttrAgency:     src.Agency,
			AttrAirline:    src.Airline,
		},
	}
	p.Amounts = amounts
	return p
}
