package merge

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/pricesheet/internal/period"
	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/internal/sheet"
	"sjsage522/pricesheet/pkg/errors"
)

// memStore keeps grids in memory keyed by path.
type memStore struct {
	mu       sync.Mutex
	files    map[string]*sheet.Grid
	broken   map[string]bool
	saveErr  error
	backups  []string
	saveHook func()
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{files: make(map[string]*sheet.Grid), broken: make(map[string]bool)}
}

func (m *memStore) Load(path, _ string) (*sheet.Grid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken[path] {
		return nil, fmt.Errorf("zip: not a valid zip file")
	}
	g, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	return clone(g), nil
}

func (m *memStore) Save(path string, g *sheet.Grid) error {
	if m.saveHook != nil {
		m.saveHook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.files[path] = clone(g)
	delete(m.broken, path)
	return nil
}

func (m *memStore) Backup(path, tag string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := path + "." + tag
	m.backups = append(m.backups, name)
	return name, nil
}

func clone(g *sheet.Grid) *sheet.Grid {
	out := sheet.New(g.Name)
	out.RTL = g.RTL
	for p, v := range g.Values() {
		out.Set(p.Row, p.Col, v)
	}
	for _, p := range g.Cells() {
		if s := g.Style(p.Row, p.Col); s != (sheet.Style{}) {
			out.SetStyle(p.Row, p.Col, s)
		}
	}
	for _, c := range g.Columns() {
		if w := g.Width(c); w > 0 {
			out.SetWidth(c, w)
		}
		out.SetHidden(c, g.Hidden(c))
	}
	return out
}

func testLayout() *Layout {
	return &Layout{
		Sheet:    "Gold Prices",
		RTL:      true,
		Resolver: period.Resolver{Granularity: period.Daily},
		LabelColumns: []LabelColumn{
			{Title: "نوع العيار", Width: 12},
			{Title: "العملة", Width: 10},
		},
		PeriodWidth: 18,
		HeaderRows:  3,
		PeriodHeaders: func(k period.Key, _ time.Time) []string {
			return []string{period.ArabicDay(k.Date.Weekday()), period.ArabicMonthDay(k.Date)}
		},
		NumberFormat: "0.00",
		Rows: func(p price.PricePoint) []Row {
			var rows []Row
			for _, u := range p.Units() {
				rows = append(rows, Row{Key: RowKey(p.Identity, u), Group: p.Group, Labels: []string{p.Label, u}})
			}
			return rows
		},
		Alert: func(key string) bool {
			id, _ := SplitRowKey(key)
			return id == "22K"
		},
	}
}

func groupedLayout() *Layout {
	l := testLayout()
	l.AverageScale = 0
	l.AverageRow = func(group string) Row {
		return Row{Key: RowKey(group, AverageSuffix), Group: group, Labels: []string{"avg " + group, ""}}
	}
	return l
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func gold(karat, qar, usd string) price.PricePoint {
	return price.PricePoint{
		Identity: karat,
		Label:    karat,
		Amounts:  map[string]decimal.Decimal{"QAR": d(qar), "USD": d(usd)},
	}
}

func batchOf(points ...price.PricePoint) *price.Batch {
	b := price.NewBatch(price.DomainGold, "test", time.Time{})
	for _, p := range points {
		b.Add(p)
	}
	return b
}

func newTestMerger(l *Layout) (*Merger, *memStore) {
	store := newMemStore()
	return NewMerger(l, store), store
}

func workbookPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "gold_prices.xlsx")
}

func cell(t *testing.T, g *sheet.Grid, key string, k period.Key) sheet.Value {
	t.Helper()
	s, err := Inspect(g, testLayout())
	require.NoError(t, err)
	row, ok := s.Row(key)
	require.True(t, ok, "row %s", key)
	col, ok := s.Column(k)
	require.True(t, ok, "column %s", k)
	return g.Get(row, col)
}

func key(s string) period.Key {
	k, err := period.Resolver{Granularity: period.Daily}.Parse(s)
	if err != nil {
		panic(err)
	}
	return k
}

func TestExampleScenario(t *testing.T) {
	m, store := newTestMerger(testLayout())
	path := workbookPath(t)

	res, err := m.RunOnce(batchOf(gold("14K", "314.48", "86.40")), day("2026-01-16 09:00"), path)
	require.NoError(t, err)
	assert.True(t, res.NewColumn)
	assert.Equal(t, []string{"14K#QAR", "14K#USD"}, res.NewRows)

	g := store.files[path]
	assert.Equal(t, "314.48", cell(t, g, "14K#QAR", key("2026-01-16")).Text())
	assert.Equal(t, "86.4", cell(t, g, "14K#USD", key("2026-01-16")).Text())

	// Same day re-run overwrites in place.
	res, err = m.RunOnce(batchOf(gold("14K", "315.00", "86.50")), day("2026-01-16 17:30"), path)
	require.NoError(t, err)
	assert.False(t, res.NewColumn)
	assert.Empty(t, res.NewRows)

	g = store.files[path]
	s, err := Inspect(g, testLayout())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Columns())
	assert.True(t, cell(t, g, "14K#QAR", key("2026-01-16")).Num.Equal(d("315")))
	assert.True(t, cell(t, g, "14K#USD", key("2026-01-16")).Num.Equal(d("86.5")))

	// Next day adds one column and the new identity's rows.
	res, err = m.RunOnce(batchOf(gold("14K", "316.10", "86.80"), gold("18K", "404.32", "111.08")), day("2026-01-17 09:00"), path)
	require.NoError(t, err)
	assert.True(t, res.NewColumn)
	assert.Equal(t, []string{"18K#QAR", "18K#USD"}, res.NewRows)

	g = store.files[path]
	s, err = Inspect(g, testLayout())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Columns())
	assert.True(t, cell(t, g, "14K#QAR", key("2026-01-16")).Num.Equal(d("315")))
	assert.True(t, cell(t, g, "18K#QAR", key("2026-01-16")).IsEmpty())
	assert.True(t, cell(t, g, "18K#QAR", key("2026-01-17")).Num.Equal(d("404.32")))
}

func TestRowStabilityAcrossArrivalOrder(t *testing.T) {
	m, store := newTestMerger(testLayout())
	path := workbookPath(t)

	_, err := m.RunOnce(batchOf(gold("14K", "1", "1"), gold("18K", "2", "2"), gold("21K", "3", "3")), day("2026-01-16 09:00"), path)
	require.NoError(t, err)
	before, err := Inspect(store.files[path], testLayout())
	require.NoError(t, err)

	_, err = m.RunOnce(batchOf(gold("21K", "4", "4"), gold("14K", "5", "5"), gold("24K", "6", "6"), gold("18K", "7", "7")), day("2026-01-17 09:00"), path)
	require.NoError(t, err)
	after, err := Inspect(store.files[path], testLayout())
	require.NoError(t, err)

	for _, k := range before.RowKeys() {
		r1, _ := before.Row(k)
		r2, _ := after.Row(k)
		assert.Equal(t, r1, r2, "row of %s moved", k)
	}
	r24, _ := after.Row("24K#QAR")
	assert.Greater(t, r24, before.lastRow)
}

func TestColumnReuseAndHistory(t *testing.T) {
	m, store := newTestMerger(testLayout())
	path := workbookPath(t)

	days := []string{"2026-01-30", "2026-01-31", "2026-02-01"}
	for i, ds := range days {
		amount := fmt.Sprintf("%d", 300+i)
		_, err := m.RunOnce(batchOf(gold("14K", amount, "80")), day(ds+" 09:00"), path)
		require.NoError(t, err)
		_, err = m.RunOnce(batchOf(gold("14K", amount, "80")), day(ds+" 21:00"), path)
		require.NoError(t, err)
	}

	g := store.files[path]
	s, err := Inspect(g, testLayout())
	require.NoError(t, err)
	assert.Equal(t, len(days), s.Columns())
	for i, ds := range days {
		col, ok := s.Column(key(ds))
		require.True(t, ok)
		assert.Equal(t, s.Layout.FirstPeriodCol()+i, col)
		assert.True(t, cell(t, g, "14K#QAR", key(ds)).Num.Equal(decimal.NewFromInt(int64(300+i))))
	}
}

func TestIdempotentRun(t *testing.T) {
	m, store := newTestMerger(testLayout())
	path := workbookPath(t)
	b := batchOf(gold("14K", "314.48", "86.40"), gold("22K", "494.18", "135.76"))

	_, err := m.RunOnce(b, day("2026-01-16 09:00"), path)
	require.NoError(t, err)
	once := store.files[path].Values()

	_, err = m.RunOnce(b, day("2026-01-16 09:00"), path)
	require.NoError(t, err)
	twice := store.files[path].Values()

	assert.Empty(t, cmp.Diff(once, twice, cmp.Comparer(func(a, b sheet.Value) bool { return a.Equal(b) })))
}

func TestPartialBatchLeavesCellBlank(t *testing.T) {
	m, store := newTestMerger(testLayout())
	path := workbookPath(t)

	_, err := m.RunOnce(batchOf(gold("14K", "1", "1"), gold("18K", "2", "2")), day("2026-01-16 09:00"), path)
	require.NoError(t, err)

	b := batchOf(gold("14K", "3", "3"))
	b.Fail("18K", "18K", errors.NewFieldNotFound("gold", "18K"))
	res, err := m.RunOnce(b, day("2026-01-17 09:00"), path)
	require.NoError(t, err)

	g := store.files[path]
	assert.True(t, cell(t, g, "18K#QAR", key("2026-01-17")).IsEmpty())
	assert.True(t, cell(t, g, "18K#QAR", key("2026-01-16")).Num.Equal(d("2")))
	assert.True(t, cell(t, g, "14K#QAR", key("2026-01-17")).Num.Equal(d("3")))

	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, StatusSuccess, res.Outcomes[0].Status)
	assert.Equal(t, StatusError, res.Outcomes[1].Status)
	assert.Contains(t, res.Outcomes[1].Reason, "field not found")
	assert.True(t, res.Committed)
}

func TestKnownIdentityWithoutDataIsSkipped(t *testing.T) {
	m, _ := newTestMerger(testLayout())
	path := workbookPath(t)

	_, err := m.RunOnce(batchOf(gold("14K", "1", "1"), gold("18K", "2", "2")), day("2026-01-16 09:00"), path)
	require.NoError(t, err)
	res, err := m.RunOnce(batchOf(gold("14K", "3", "3")), day("2026-01-17 09:00"), path)
	require.NoError(t, err)

	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, Outcome{Identity: "18K", Status: StatusSkipped, Reason: "no data this period"}, res.Outcomes[1])
}

func TestEmptyBatchStillAllocatesColumn(t *testing.T) {
	m, store := newTestMerger(testLayout())
	path := workbookPath(t)

	res, err := m.RunOnce(batchOf(), day("2026-01-16 09:00"), path)
	require.NoError(t, err)
	assert.True(t, res.Committed)

	s, err := Inspect(store.files[path], testLayout())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Columns())
}

func TestLabelsFilledOnlyWhenEmpty(t *testing.T) {
	m, store := newTestMerger(testLayout())
	path := workbookPath(t)

	p := gold("14K", "1", "1")
	p.Label = "14"
	_, err := m.RunOnce(batchOf(p), day("2026-01-16 09:00"), path)
	require.NoError(t, err)

	p.Label = "عيار 14"
	_, err = m.RunOnce(batchOf(p), day("2026-01-17 09:00"), path)
	require.NoError(t, err)

	g := store.files[path]
	s, err := Inspect(g, testLayout())
	require.NoError(t, err)
	row, _ := s.Row("14K#QAR")
	assert.Equal(t, "14", g.Get(row, s.Layout.FirstLabelCol()).Text())
	assert.Len(t, s.RowKeys(), 2)
}

func TestSchemaMismatchLeavesFileUntouched(t *testing.T) {
	cases := []struct {
		name  string
		setup func(g *sheet.Grid)
	}{
		{"foreign marker", func(g *sheet.Grid) { g.SetText(1, 1, "Name") }},
		{"label header", func(g *sheet.Grid) { g.SetText(3, 3, "Hotel") }},
		{"bad period key", func(g *sheet.Grid) { g.SetText(1, 6, "16 January") }},
		{"duplicate period", func(g *sheet.Grid) { g.SetText(1, 6, "2026-01-16") }},
		{"duplicate row", func(g *sheet.Grid) { g.SetText(6, 1, "14K#QAR") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, store := newTestMerger(testLayout())
			path := workbookPath(t)
			_, err := m.RunOnce(batchOf(gold("14K", "1", "1")), day("2026-01-16 09:00"), path)
			require.NoError(t, err)

			tc.setup(store.files[path])
			before := store.files[path].Values()

			_, err = m.RunOnce(batchOf(gold("14K", "2", "2")), day("2026-01-17 09:00"), path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrorTypeSchemaMismatch))
			assert.Equal(t, before, store.files[path].Values())
		})
	}
}

func TestUnreadableWorkbookIsReinitialized(t *testing.T) {
	m, store := newTestMerger(testLayout())
	path := workbookPath(t)
	store.broken[path] = true

	res, err := m.RunOnce(batchOf(gold("14K", "1", "1")), day("2026-01-16 09:00"), path)
	require.NoError(t, err)
	assert.True(t, res.Reinitialized)
	require.Len(t, store.backups, 1)
	assert.Contains(t, store.backups[0], "unreadable-")
	assert.Equal(t, store.backups[0], res.Backup)
}

func TestConcurrentRunDetected(t *testing.T) {
	m, store := newTestMerger(testLayout())
	path := workbookPath(t)

	var inner error
	store.saveHook = func() {
		store.saveHook = nil
		_, inner = m.RunOnce(batchOf(gold("14K", "2", "2")), day("2026-01-16 09:00"), path)
	}
	_, err := m.RunOnce(batchOf(gold("14K", "1", "1")), day("2026-01-16 09:00"), path)
	require.NoError(t, err)

	require.Error(t, inner)
	assert.True(t, errors.Is(inner, errors.ErrorTypeConcurrentRun))

	// The lock is released afterwards.
	_, err = m.RunOnce(batchOf(gold("14K", "3", "3")), day("2026-01-16 09:00"), path)
	assert.NoError(t, err)
}

func TestWriteFailureIsReported(t *testing.T) {
	m, store := newTestMerger(testLayout())
	path := workbookPath(t)
	store.saveErr = errors.NewWrite(path, "disk full", nil)

	res, err := m.RunOnce(batchOf(gold("14K", "1", "1")), day("2026-01-16 09:00"), path)
	require.Error(t, err)
	assert.False(t, res.Committed)
	assert.Equal(t, err, res.CommitErr)
	_, saved := store.files[path]
	assert.False(t, saved)

	// The lock is released after a failed commit.
	store.saveErr = nil
	_, err = m.RunOnce(batchOf(gold("14K", "1", "1")), day("2026-01-16 09:00"), path)
	assert.NoError(t, err)
}

func flightPoint(route, source, airline, amount string) price.PricePoint {
	p := price.PricePoint{
		Identity: route + "/" + source,
		Label:    source,
		Group:    route + "|" + airline,
	}
	if amount != "" {
		p.Amounts = map[string]decimal.Decimal{"QAR": d(amount)}
	}
	return p
}

func TestAveragesPerGroup(t *testing.T) {
	m, store := newTestMerger(groupedLayout())
	path := workbookPath(t)

	b := batchOf(
		flightPoint("R1", "kayak", "Various", "3000"),
		flightPoint("R1", "edreams", "Various", "3101"),
		flightPoint("R1", "qatar", "Qatar Airways", "3500"),
	)
	_, err := m.RunOnce(b, day("2026-01-16 09:00"), path)
	require.NoError(t, err)

	g := store.files[path]
	assert.True(t, cell(t, g, "R1|Various#avg", key("2026-01-16")).Num.Equal(d("3051")))
	s, _ := Inspect(g, groupedLayout())
	_, single := s.Row("R1|Qatar Airways#avg")
	assert.False(t, single, "a group with one value gets no average row")

	row, _ := s.Row("R1|Various#avg")
	assert.Equal(t, sheet.RoleAverage, g.Style(row, s.Layout.FirstPeriodCol()).Role)
}

func TestAverageRecomputedAndStaleCleared(t *testing.T) {
	m, store := newTestMerger(groupedLayout())
	path := workbookPath(t)

	_, err := m.RunOnce(batchOf(
		flightPoint("R1", "kayak", "Various", "3000"),
		flightPoint("R1", "edreams", "Various", "3200"),
	), day("2026-01-16 09:00"), path)
	require.NoError(t, err)
	assert.True(t, cell(t, store.files[path], "R1|Various#avg", key("2026-01-16")).Num.Equal(d("3100")))

	// A re-run in the same period that only reaches one source keeps the
	// other source's earlier value, so the average still covers both.
	_, err = m.RunOnce(batchOf(flightPoint("R1", "kayak", "Various", "3400")), day("2026-01-16 12:00"), path)
	require.NoError(t, err)
	assert.True(t, cell(t, store.files[path], "R1|Various#avg", key("2026-01-16")).Num.Equal(d("3300")))

	// Next period with one value only: no average, nothing stale.
	_, err = m.RunOnce(batchOf(flightPoint("R1", "kayak", "Various", "3500")), day("2026-01-17 09:00"), path)
	require.NoError(t, err)
	assert.True(t, cell(t, store.files[path], "R1|Various#avg", key("2026-01-17")).IsEmpty())

	// Simulate a stale average left by an interrupted earlier write.
	g := store.files[path]
	s, _ := Inspect(g, groupedLayout())
	row, _ := s.Row("R1|Various#avg")
	col, _ := s.Column(key("2026-01-17"))
	g.Set(row, col, sheet.Decimal(d("9999")))

	_, err = m.RunOnce(batchOf(flightPoint("R1", "kayak", "Various", "3500")), day("2026-01-17 10:00"), path)
	require.NoError(t, err)
	assert.True(t, cell(t, store.files[path], "R1|Various#avg", key("2026-01-17")).IsEmpty())
}

func TestPaintStylesNewRowsLikeOld(t *testing.T) {
	m, store := newTestMerger(testLayout())
	path := workbookPath(t)

	_, err := m.RunOnce(batchOf(gold("14K", "1", "1")), day("2026-01-16 09:00"), path)
	require.NoError(t, err)
	_, err = m.RunOnce(batchOf(gold("22K", "2", "2")), day("2026-01-17 09:00"), path)
	require.NoError(t, err)

	g := store.files[path]
	s, err := Inspect(g, testLayout())
	require.NoError(t, err)
	r14, _ := s.Row("14K#QAR")
	r22, _ := s.Row("22K#QAR")
	c1, _ := s.Column(key("2026-01-16"))
	c2, _ := s.Column(key("2026-01-17"))
	label := s.Layout.FirstLabelCol()

	assert.Equal(t, g.Style(r14, c1), g.Style(r22, c1))
	assert.Equal(t, g.Style(r14, c1), g.Style(r14, c2))
	assert.Equal(t, sheet.RoleLabel, g.Style(r14, label).Role)
	assert.Equal(t, sheet.RoleLabelAlert, g.Style(r22, label).Role)
	assert.Equal(t, sheet.RoleHeader, g.Style(1, c2).Role)
	assert.Equal(t, "0.00", g.Style(r22, c2).NumFmt)
	assert.True(t, g.Hidden(ColRowKey))
	assert.True(t, g.Hidden(ColGroup))
	assert.Equal(t, 18.0, g.Width(c2))
	assert.True(t, g.RTL)

	// Display headers carry the localized labels; the key row carries the date.
	assert.Equal(t, "2026-01-17", g.Get(1, c2).Text())
	assert.Equal(t, "السبت", g.Get(2, c2).Text())
	assert.Equal(t, "يناير 17", g.Get(3, c2).Text())
}

func TestInitializeSeedsRowsAndColumns(t *testing.T) {
	m, store := newTestMerger(groupedLayout())
	path := workbookPath(t)

	seeds := []Row{
		{Key: "R1/kayak#QAR", Group: "R1|Various", Labels: []string{"kayak", "QAR"}},
		{Key: "R1/edreams#QAR", Group: "R1|Various", Labels: []string{"edreams", "QAR"}},
		{Key: "R1|Various#avg", Group: "R1|Various", Labels: []string{"avg", ""}},
	}
	runs := []time.Time{day("2026-02-04 09:00"), day("2026-02-10 09:00")}

	res, err := m.Initialize(path, seeds, runs)
	require.NoError(t, err)
	assert.True(t, res.Committed)
	assert.Len(t, res.NewRows, 3)

	s, err := Inspect(store.files[path], groupedLayout())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Columns())
	assert.Equal(t, []string{"R1/kayak#QAR", "R1/edreams#QAR", "R1|Various#avg"}, s.RowKeys())

	// A later run lands in the pre-allocated column.
	out, err := m.RunOnce(batchOf(flightPoint("R1", "kayak", "Various", "100")), day("2026-02-10 09:00"), path)
	require.NoError(t, err)
	assert.False(t, out.NewColumn)
	assert.Empty(t, out.NewRows)
}

func TestSplitRowKey(t *testing.T) {
	id, sub := SplitRowKey("007331101/kayak#QAR")
	assert.Equal(t, "007331101/kayak", id)
	assert.Equal(t, "QAR", sub)

	assert.True(t, IsAverageKey("007331101|Various#avg"))
	assert.False(t, IsAverageKey("22K#USD"))
}
