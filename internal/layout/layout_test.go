package layout

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/pricesheet/internal/merge"
	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/internal/targets"
)

var settings = Settings{Location: time.UTC, WeekStart: time.Monday}

func TestGoldRowsAndAlert(t *testing.T) {
	l := Gold(settings)
	p := price.PricePoint{
		Identity: "22K",
		Label:    "22K",
		Amounts: map[string]decimal.Decimal{
			"USD": decimal.RequireFromString("135.76"),
			"QAR": decimal.RequireFromString("494.18"),
		},
	}

	entries := l.Entries(p)
	require.Len(t, entries, 2)
	assert.Equal(t, "22K#QAR", entries[0].Row.Key)
	assert.Equal(t, []string{"22", "QAR"}, entries[0].Row.Labels)
	assert.Equal(t, "22K#USD", entries[1].Row.Key)
	assert.True(t, l.Alert("22K#USD"))
	assert.False(t, l.Alert("21K#USD"))
}

func TestGoldPeriodHeaders(t *testing.T) {
	l := Gold(settings)
	k := l.Resolver.Resolve(time.Date(2026, 1, 16, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, []string{"الجمعة", "يناير 16"}, l.PeriodHeaders(k, time.Time{}))
}

func TestGoldSeeds(t *testing.T) {
	rows := GoldSeeds([]int{14, 22})
	keys := make([]string, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"14K#QAR", "14K#USD", "22K#QAR", "22K#USD"}, keys)
}

func TestHotelHeadersAndLabels(t *testing.T) {
	l := Hotel(settings)
	runAt := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC) // Thursday
	k := l.Resolver.Resolve(runAt)

	assert.Equal(t, "2026-01-12", k.String())
	assert.Equal(t, []string{"أسبوع 2026-01-12", "2026-01-15"}, l.PeriodHeaders(k, runAt))

	p := price.PricePoint{
		Identity: "grand-hyatt-doha",
		Label:    "فندق جراند حياة الدوحة",
		Amounts:  map[string]decimal.Decimal{"QAR": decimal.NewFromInt(780)},
	}
	rows := l.Rows(p)
	require.Len(t, rows, 1)
	assert.Equal(t, "grand-hyatt-doha#QAR", rows[0].Key)
	assert.Equal(t, []string{"فندق جراند حياة الدوحة"}, rows[0].Labels)
	assert.Equal(t, "right", l.LabelAlign)
}

func TestFlightRowLabels(t *testing.T) {
	d := targets.Defaults()
	l := Flight(settings, d.Routes)
	london := d.Routes[0]

	qr := FlightPoint(london, d.Sources[0], map[string]decimal.Decimal{"QAR": decimal.NewFromInt(4200)})
	rows := l.Rows(qr)
	require.Len(t, rows, 1)
	assert.Equal(t, "007331101/qatar-airways#QAR", rows[0].Key)
	assert.Equal(t, "007331101|Qatar Airways", rows[0].Group)
	assert.Equal(t, []string{
		"007331101", london.Commodity, "Economy", "Y", "AIRL001", "عبر Qatar Airways الخطوط القطرية",
	}, rows[0].Labels)

	kayak := FlightPoint(london, d.Sources[8], nil)
	assert.Equal(t, "007331101|Various", kayak.Group)
	assert.Equal(t, "Kayak", l.Rows(kayak)[0].Labels[5])

	avg := l.AverageRow(kayak.Group)
	assert.Equal(t, "007331101|Various#avg", avg.Key)
	assert.True(t, merge.IsAverageKey(avg.Key))
	assert.Equal(t, []string{"007331101", london.Commodity, "Economy", "N-averages", "", "متوسط المصادر"}, avg.Labels)
	assert.Equal(t, "متوسط المصادر للخطوط Qatar Airways", l.AverageRow("007331101|Qatar Airways").Labels[5])
}

func TestFlightPeriodHeader(t *testing.T) {
	l := Flight(settings, nil)
	k := l.Resolver.Resolve(time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC)) // Wednesday
	assert.Equal(t, "2026-02-02", k.String())
	assert.Equal(t, []string{"04-Feb"}, l.PeriodHeaders(k, time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"02-Feb"}, l.PeriodHeaders(k, time.Time{}))
	assert.Equal(t, 2, l.HeaderRows)
}

func TestFlightSeedsOrder(t *testing.T) {
	d := targets.Defaults()
	rows := FlightSeeds(d.Routes[:1], d.Sources)

	// Ten sources, then one average row for the four unfiltered aggregators.
	require.Len(t, rows, 11)
	assert.Equal(t, "007331101/qatar-airways#QAR", rows[0].Key)
	assert.Equal(t, "007331101/ita-matrix#QAR", rows[9].Key)
	assert.Equal(t, "007331101|Various#avg", rows[10].Key)
}

func TestForAndSeedsDispatch(t *testing.T) {
	d := targets.Defaults()
	for _, dom := range price.Domains {
		l, err := For(dom, settings, d)
		require.NoError(t, err)
		assert.NotEmpty(t, l.Sheet)

		seeds, err := Seeds(dom, d)
		require.NoError(t, err)
		assert.NotEmpty(t, seeds)
	}

	_, err := For("silver", settings, d)
	assert.Error(t, err)
}
