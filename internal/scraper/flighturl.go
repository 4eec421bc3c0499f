package scraper

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"sjsage522/pricesheet/internal/targets"
)

const (
	departureLeadDays = 30
	monthDays         = 30
	defaultStayMonths = 6
)

// TravelDates returns the departure and return dates searched on runAt:
// departure 30 days out, return DurationMonths × 30 days after that.
func TravelDates(runAt time.Time, months int) (depart, ret time.Time) {
	if months <= 0 {
		months = defaultStayMonths
	}
	depart = dayStart(runAt).AddDate(0, 0, departureLeadDays)
	ret = depart.AddDate(0, 0, months*monthDays)
	return depart, ret
}

// FlightURL fills a source URL template. Placeholders:
//
//	{from} {to}               origin and destination airport codes
//	{depart} {return}         dates as 2006-01-02
//	{depart_us} {return_us}   dates as 01/02/2006
//	{ita_search}              ITA Matrix round-trip search, base64 JSON
func FlightURL(template string, r targets.Route, depart, ret time.Time) string {
	replacements := []string{
		"{from}", r.OriginCode,
		"{to}", r.DestinationCode,
		"{depart}", depart.Format("2006-01-02"),
		"{return}", ret.Format("2006-01-02"),
		"{depart_us}", depart.Format("01/02/2006"),
		"{return_us}", ret.Format("01/02/2006"),
	}
	if strings.Contains(template, "{ita_search}") {
		replacements = append(replacements, "{ita_search}", url.QueryEscape(ITASearch(r, depart, ret)))
	}
	return strings.NewReplacer(replacements...).Replace(template)
}

type itaDates struct {
	SearchDateType             string   `json:"searchDateType"`
	DepartureDate              string   `json:"departureDate"`
	DepartureDateType          string   `json:"departureDateType"`
	DepartureDateModifier      string   `json:"departureDateModifier"`
	DepartureDatePreferredTime []string `json:"departureDatePreferredTimes"`
	ReturnDate                 string   `json:"returnDate"`
	ReturnDateType             string   `json:"returnDateType"`
	ReturnDateModifier         string   `json:"returnDateModifier"`
	ReturnDatePreferredTimes   []string `json:"returnDatePreferredTimes"`
}

type itaSlice struct {
	Origin []string `json:"origin"`
	Dest   []string `json:"dest"`
	Dates  itaDates `json:"dates"`
}

type itaSearch struct {
	Type    string            `json:"type"`
	Slices  []itaSlice        `json:"slices"`
	Options map[string]string `json:"options"`
	Pax     map[string]string `json:"pax"`
}

// ITASearch encodes an economy round trip for one adult the way the ITA
// Matrix search page expects it.
func ITASearch(r targets.Route, depart, ret time.Time) string {
	s := itaSearch{
		Type: "round-trip",
		Slices: []itaSlice{{
			Origin: []string{r.OriginCode},
			Dest:   []string{r.DestinationCode},
			Dates: itaDates{
				SearchDateType:             "specific",
				DepartureDate:              depart.Format("2006-01-02"),
				DepartureDateType:          "depart",
				DepartureDateModifier:      "0",
				DepartureDatePreferredTime: []string{},
				ReturnDate:                 ret.Format("2006-01-02"),
				ReturnDateType:             "depart",
				ReturnDateModifier:         "0",
				ReturnDatePreferredTimes:   []string{},
			},
		}},
		Options: map[string]string{
			"cabin":               "COACH",
			"stops":               "-1",
			"extraStops":          "1",
			"allowAirportChanges": "true",
			"showOnlyAvailable":   "true",
		},
		Pax: map[string]string{"adults": "1"},
	}
	data, _ := json.Marshal(s)
	return base64.StdEncoding.EncodeToString(data)
}
