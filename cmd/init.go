package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sjsage522/pricesheet/internal/layout"
	"sjsage522/pricesheet/internal/period"
	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/internal/report"
	"sjsage522/pricesheet/internal/schedule"
)

var initMonth string

func init() {
	initCmd.Flags().StringVar(&initMonth, "month", "", "month whose scheduled flight columns are pre-allocated, as YYYY-MM (default: current month)")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init <domain>...",
	Short: "Creates fresh workbooks with every tracked row pre-seeded.",
	Long: `Creates fresh workbooks with every tracked row pre-seeded. Flight workbooks
also get the columns of the month's scheduled run days. An existing workbook
is copied aside before it is replaced.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		domains, err := parseDomains(args)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		now := time.Now().In(a.location)
		if initMonth != "" {
			now, err = time.ParseInLocation("2006-01", initMonth, a.location)
			if err != nil {
				return fmt.Errorf("--month: %w", err)
			}
		}

		t := report.NewTable(os.Stdout)
		t.AppendHeader(table.Row{"Domain", "Workbook", "Rows", "Columns", "Backup"})
		for _, d := range domains {
			m, err := a.merger(d)
			if err != nil {
				return err
			}
			seeds, err := layout.Seeds(d, a.targets)
			if err != nil {
				return err
			}
			runs, err := a.scheduledRuns(d, now)
			if err != nil {
				return err
			}

			path := a.cfg.Workbooks[d]
			res, err := m.Initialize(path, seeds, runs)
			if err != nil {
				return err
			}
			t.AppendRow(table.Row{d, path, len(res.NewRows), countPeriods(m.Layout().Resolver, runs), res.Backup})
		}
		t.Render()
		return nil
	},
}

// scheduledRuns returns the runs whose columns are pre-allocated in a fresh
// workbook: the run days of the month of t for flights, none otherwise.
func (a *app) scheduledRuns(d price.Domain, t time.Time) ([]time.Time, error) {
	if d != price.DomainFlight {
		return nil, nil
	}
	sch, err := schedule.For(d, a.schedule)
	if err != nil {
		return nil, err
	}
	return sch.RunDays(t), nil
}

// countPeriods counts the distinct columns runs fall into.
func countPeriods(r period.Resolver, runs []time.Time) int {
	seen := make(map[period.Key]bool)
	for _, run := range runs {
		seen[r.Resolve(run)] = true
	}
	return len(seen)
}
