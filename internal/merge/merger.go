package merge

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"sjsage522/pricesheet/internal/period"
	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/internal/sheet"
	"sjsage522/pricesheet/logger"
	"sjsage522/pricesheet/pkg/errors"
)

// Store loads and saves grids. Load must wrap fs.ErrNotExist for a missing
// file; any other error means the file exists but cannot be read.
type Store interface {
	Load(path, sheetName string) (*sheet.Grid, error)
	Save(path string, g *sheet.Grid) error
	// Backup copies path aside under a name carrying tag and returns the copy's path.
	Backup(path, tag string) (string, error)
}

// Status is the outcome of one identity in a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Outcome is the per-identity result of a run.
type Outcome struct {
	Identity string
	Label    string
	Status   Status
	Amounts  map[string]string
	Reason   string
}

// RunResult reports what one merge did.
type RunResult struct {
	BatchID       uuid.UUID
	Workbook      string
	PeriodKey     period.Key
	Column        int
	NewColumn     bool
	NewRows       []string
	Reinitialized bool
	Backup        string
	Outcomes      []Outcome
	Committed     bool
	CommitErr     error
}

// Merger runs the read-modify-write pass over one workbook per call.
type Merger struct {
	layout *Layout
	store  Store
	now    func() time.Time
}

// NewMerger creates a merger for a layout.
func NewMerger(layout *Layout, store Store) *Merger {
	return &Merger{layout: layout, store: store, now: time.Now}
}

// Layout returns the merger's layout.
func (m *Merger) Layout() *Layout {
	return m.layout
}

// RunOnce merges batch into the workbook at path under the period of runAt.
// The workbook lock is held for the whole pass and released on every path.
func (m *Merger) RunOnce(batch *price.Batch, runAt time.Time, path string) (*RunResult, error) {
	log := logger.ForMerger(path)

	unlock, err := m.lock(path)
	if err != nil {
		return nil, err
	}
	defer unlock()

	result := &RunResult{BatchID: batch.ID, Workbook: path}
	grid := m.load(path, result)

	state, err := Inspect(grid, m.layout)
	if err != nil {
		log.Error().Err(err).Msg("workbook cannot be extended, leaving it untouched")
		return nil, err
	}
	known := state.RowKeys()

	var entries []Entry
	var rows []Row
	for _, p := range batch.Points {
		for _, e := range m.layout.Entries(p) {
			entries = append(entries, e)
			rows = append(rows, e.Row)
		}
	}

	key := m.layout.Resolver.Resolve(runAt)
	plan := Reconcile(state, rows, key)
	Update(state, plan, entries, runAt)
	Paint(state)

	result.PeriodKey = plan.Key
	result.Column = plan.Column
	result.NewColumn = plan.NewColumn
	result.NewRows = plan.NewRows
	result.Outcomes = Outcomes(batch, known)

	if result.Reinitialized {
		backup, err := m.store.Backup(path, "unreadable-"+m.now().Format("20060102-150405"))
		if err != nil {
			log.Warn().Err(err).Msg("could not back up unreadable workbook")
		} else {
			result.Backup = backup
		}
	}

	if err := m.store.Save(path, grid); err != nil {
		result.CommitErr = err
		log.Error().Err(err).Msg("workbook commit failed")
		return result, err
	}
	result.Committed = true

	log.Info().
		Str("period", plan.Key.String()).
		Int("column", plan.Column).
		Bool("new_column", plan.NewColumn).
		Int("new_rows", len(plan.NewRows)).
		Int("points", len(batch.Points)).
		Int("failures", len(batch.Failures)).
		Msg("workbook merged")
	return result, nil
}

// Initialize replaces the workbook at path with a fresh one holding the seed
// rows and one pre-allocated column per period of runs, headed as if each run
// had happened. An existing file is backed up first.
func (m *Merger) Initialize(path string, seeds []Row, runs []time.Time) (*RunResult, error) {
	log := logger.ForMerger(path)

	unlock, err := m.lock(path)
	if err != nil {
		return nil, err
	}
	defer unlock()

	result := &RunResult{Workbook: path, Reinitialized: true}
	if _, err := os.Stat(path); err == nil {
		backup, err := m.store.Backup(path, "backup-"+m.now().Format("20060102-150405"))
		if err != nil {
			return nil, errors.NewWrite(path, "backing up existing workbook", err)
		}
		result.Backup = backup
		log.Info().Str("backup", backup).Msg("existing workbook backed up")
	}

	state, err := Inspect(sheet.New(m.layout.Sheet), m.layout)
	if err != nil {
		return nil, err
	}
	for _, runAt := range runs {
		plan := Reconcile(state, seeds, m.layout.Resolver.Resolve(runAt))
		writePeriodHeaders(state, plan, runAt)
		result.NewRows = append(result.NewRows, plan.NewRows...)
	}
	if len(runs) == 0 {
		for _, r := range seeds {
			if _, isNew := state.ensureRow(r); isNew {
				result.NewRows = append(result.NewRows, r.Key)
			}
		}
	}
	Paint(state)

	if err := m.store.Save(path, state.Grid); err != nil {
		result.CommitErr = err
		return result, err
	}
	result.Committed = true
	log.Info().Int("rows", len(result.NewRows)).Int("columns", state.Columns()).Msg("workbook initialized")
	return result, nil
}

func (m *Merger) lock(path string) (func(), error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.NewWrite(path, "creating workbook directory", err)
		}
	}
	fl := flock.New(path + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.NewWrite(path, "acquiring workbook lock", err)
	}
	if !ok {
		return nil, errors.NewConcurrentRun(path, nil)
	}
	return func() { _ = fl.Unlock() }, nil
}

// load returns the workbook grid, or a fresh one when the file is missing or
// unreadable. The unreadable case is flagged on result and logged.
func (m *Merger) load(path string, result *RunResult) *sheet.Grid {
	log := logger.ForMerger(path)

	grid, err := m.store.Load(path, m.layout.Sheet)
	switch {
	case err == nil:
		return grid
	case stderrors.Is(err, fs.ErrNotExist):
		log.Info().Msg("workbook not found, starting a new one")
	default:
		log.Warn().Err(err).Msg("workbook unreadable, reinitializing from an empty table")
		result.Reinitialized = true
	}
	return sheet.New(m.layout.Sheet)
}

// Outcomes reports every identity of the batch plus every known identity the
// batch did not mention, in that order.
func Outcomes(batch *price.Batch, known []string) []Outcome {
	var out []Outcome
	seen := make(map[string]bool)

	for _, p := range batch.Points {
		if seen[p.Identity] {
			continue
		}
		seen[p.Identity] = true
		if len(p.Amounts) == 0 {
			out = append(out, Outcome{Identity: p.Identity, Label: p.Label, Status: StatusSkipped, Reason: "no amounts"})
			continue
		}
		amounts := make(map[string]string, len(p.Amounts))
		for unit, v := range p.Amounts {
			amounts[unit] = v.String()
		}
		out = append(out, Outcome{Identity: p.Identity, Label: p.Label, Status: StatusSuccess, Amounts: amounts})
	}
	for _, f := range batch.Failures {
		if seen[f.Identity] {
			continue
		}
		seen[f.Identity] = true
		out = append(out, Outcome{Identity: f.Identity, Label: f.Label, Status: StatusError, Reason: f.Reason})
	}
	for _, key := range known {
		if IsAverageKey(key) {
			continue
		}
		identity, _ := SplitRowKey(key)
		if seen[identity] {
			continue
		}
		seen[identity] = true
		out = append(out, Outcome{Identity: identity, Status: StatusSkipped, Reason: "no data this period"})
	}
	return out
}
