package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <domain>...",
	Short: "Scrapes the given domains once and merges the results into their workbooks.",
	Long: `Scrapes the given domains once and merges the results into their workbooks.
Meant for cron, systemd timers or Task Scheduler. The run is not subject to
the domain's schedule.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		domains, err := parseDomains(args)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, needsBrowser(domains))
		if err != nil {
			return err
		}
		defer a.Close()

		w, jobs, err := a.worker(ctx, domains)
		if err != nil {
			return err
		}

		failed := 0
		for _, job := range jobs {
			if _, err := w.RunOnce(job); err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d runs failed, see %s", failed, len(jobs), a.cfg.ErrorLog)
		}
		return nil
	},
}
