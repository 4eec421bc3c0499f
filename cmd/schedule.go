package cmd

import (
	"github.com/spf13/cobra"

	"sjsage522/pricesheet/logger"
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <domain>...",
	Short: "Runs the given domains on their schedules until interrupted.",
	Long: `Runs the given domains on their schedules until interrupted: gold every day,
hotels on the first day of the week and flights on FLIGHT_DAYS, all at RUN_AT.
A domain that already ran on a day is not run again that day. With
RUN_ON_START a domain whose run time has passed today runs immediately.`,
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

		log := logger.ForWorker()
		log.Info().
			Str("environment", a.cfg.Environment).
			Int("jobs", len(jobs)).
			Str("run_at", a.cfg.RunAt).
			Str("timezone", a.cfg.Timezone).
			Msg("Starting price worker")

		err = w.Start()
		log.Info().Msg("Shutting down gracefully...")
		return err
	},
}
