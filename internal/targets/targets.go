// Package targets lists what is tracked: karats, hotels, flight routes and
// the sites that price them. The defaults can be overridden from a YAML file.
package targets

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Hotel is one tracked hotel. ID is the stable row identity.
type Hotel struct {
	ID string `yaml:"id" json:"id"`
	// Name is the display name written in the workbook.
	Name string `yaml:"name" json:"name"`
	// SearchName is the English name typed into the booking search.
	SearchName string `yaml:"search_name" json:"search_name"`
}

// Query returns the name to search for.
func (h Hotel) Query() string {
	if h.SearchName != "" {
		return h.SearchName
	}
	return h.Name
}

// Route is one round-trip fare tracked from several sources.
type Route struct {
	Code            string `yaml:"code" json:"code"`
	Commodity       string `yaml:"commodity" json:"commodity"`
	Origin          string `yaml:"origin" json:"origin"`
	OriginCode      string `yaml:"origin_code" json:"origin_code"`
	Destination     string `yaml:"destination" json:"destination"`
	DestinationCode string `yaml:"destination_code" json:"destination_code"`
	Class           string `yaml:"class" json:"class"`
	DurationMonths  int    `yaml:"duration_months" json:"duration_months"`
}

// SourceKind tells an airline's own site from an aggregator.
type SourceKind string

const (
	KindAirline    SourceKind = "airline"
	KindAggregator SourceKind = "aggregator"
)

// FlightSource is one site a fare is read from.
type FlightSource struct {
	ID   string     `yaml:"id" json:"id"`
	Name string     `yaml:"name" json:"name"`
	// Agency is the display name in the agencies column.
	Agency string     `yaml:"agency" json:"agency"`
	Code   string     `yaml:"code" json:"code"`
	Kind   SourceKind `yaml:"kind" json:"kind"`
	// Airline groups the source's fares for averaging. Aggregators that do
	// not filter by carrier leave it empty.
	Airline string `yaml:"airline" json:"airline"`
	// URL is a search URL template. See scraper.FlightURL for placeholders.
	URL       string   `yaml:"url" json:"url"`
	Selectors []string `yaml:"selectors" json:"selectors"`
}

// Targets is the full tracking list.
type Targets struct {
	Karats  []int          `yaml:"karats"`
	Hotels  []Hotel        `yaml:"hotels"`
	Routes  []Route        `yaml:"routes"`
	Sources []FlightSource `yaml:"sources"`
}

// Load returns the defaults, overridden section by section by the YAML file
// at path when path is not empty. ${VAR} references are expanded first.
func Load(path string) (*Targets, error) {
	t := Defaults()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	var file Targets
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, fmt.Errorf("parse targets file: %w", err)
	}
	if len(file.Karats) > 0 {
		t.Karats = file.Karats
	}
	if len(file.Hotels) > 0 {
		t.Hotels = file.Hotels
	}
	if len(file.Routes) > 0 {
		t.Routes = file.Routes
	}
	if len(file.Sources) > 0 {
		t.Sources = file.Sources
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks identities are present and unique.
func (t *Targets) Validate() error {
	seen := make(map[string]bool)
	for _, h := range t.Hotels {
		if h.ID == "" || h.Name == "" {
			return fmt.Errorf("hotel %q needs an id and a name", h.ID)
		}
		if seen["hotel:"+h.ID] {
			return fmt.Errorf("duplicate hotel id %q", h.ID)
		}
		seen["hotel:"+h.ID] = true
	}
	for _, r := range t.Routes {
		if r.Code == "" || r.OriginCode == "" || r.DestinationCode == "" {
			return fmt.Errorf("route %q needs a code, origin_code and destination_code", r.Code)
		}
		if seen["route:"+r.Code] {
			return fmt.Errorf("duplicate route code %q", r.Code)
		}
		seen["route:"+r.Code] = true
	}
	for _, s := range t.Sources {
		if s.ID == "" || s.URL == "" {
			return fmt.Errorf("flight source %q needs an id and a url", s.Name)
		}
		if seen["source:"+s.ID] {
			return fmt.Errorf("duplicate flight source id %q", s.ID)
		}
		seen["source:"+s.ID] = true
	}
	for _, k := range t.Karats {
		if k <= 0 || k > 24 {
			return fmt.Errorf("karat %d out of range", k)
		}
	}
	return nil
}
