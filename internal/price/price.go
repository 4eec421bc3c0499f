package price

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Domain names a family of tracked prices that share one workbook.
type Domain string

const (
	DomainGold   Domain = "gold"
	DomainHotel  Domain = "hotel"
	DomainFlight Domain = "flight"
)

// Domains lists every known domain in a stable order.
var Domains = []Domain{DomainGold, DomainHotel, DomainFlight}

// ParseDomain returns the domain named s and whether it is known.
func ParseDomain(s string) (Domain, bool) {
	for _, d := range Domains {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// PricePoint is one observed value for one identity at one point in time.
type PricePoint struct {
	// Identity is the stable key for the priced subject. It decides the
	// workbook row and must not change between runs.
	Identity string `json:"identity"`
	// Label is the display name. It may change; it is never used for matching.
	Label string `json:"label"`
	// Amounts maps a currency or unit code to its value.
	Amounts    map[string]decimal.Decimal `json:"amounts"`
	ObservedAt time.Time                  `json:"observed_at"`
	// Group is an optional secondary classification used for averages.
	Group string `json:"group,omitempty"`
	// Attrs carries per-domain display fields.
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Units returns the amount codes in sorted order.
func (p PricePoint) Units() []string {
	units := make([]string, 0, len(p.Amounts))
	for u := range p.Amounts {
		units = append(units, u)
	}
	sort.Strings(units)
	return units
}

// Attr returns the named attribute or "".
func (p PricePoint) Attr(name string) string {
	if p.Attrs == nil {
		return ""
	}
	return p.Attrs[name]
}

// Failure records an identity whose fetch or extraction failed in a run.
type Failure struct {
	Identity string `json:"identity"`
	Label    string `json:"label"`
	Err      error  `json:"-"`
	Reason   string `json:"reason"`
}

// NewFailure builds a Failure, keeping the error text for serialization.
func NewFailure(identity, label string, err error) Failure {
	f := Failure{Identity: identity, Label: label, Err: err}
	if err != nil {
		f.Reason = err.Error()
	}
	return f
}

// Batch is the set of PricePoints produced by one full run over a domain.
type Batch struct {
	ID       uuid.UUID    `json:"id"`
	Domain   Domain       `json:"domain"`
	Source   string       `json:"source"`
	RunAt    time.Time    `json:"run_at"`
	Points   []PricePoint `json:"points"`
	Failures []Failure    `json:"failures,omitempty"`
}

// NewBatch creates an empty batch for a domain.
func NewBatch(domain Domain, source string, runAt time.Time) *Batch {
	return &Batch{
		ID:     uuid.New(),
		Domain: domain,
		Source: source,
		RunAt:  runAt,
	}
}

// Add appends a successfully scraped point.
func (b *Batch) Add(p PricePoint) {
	b.Points = append(b.Points, p)
}

// Fail appends a failed identity.
func (b *Batch) Fail(identity, label string, err error) {
	b.Failures = append(b.Failures, NewFailure(identity, label, err))
}

// Empty reports whether the batch holds no values at all.
func (b *Batch) Empty() bool {
	return len(b.Points) == 0
}
