// Package cmd is the pricesheet command line.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"sjsage522/pricesheet/logger"
)

var rootCmd = &cobra.Command{
	Use:   "pricesheet",
	Short: "pricesheet scrapes gold, hotel and flight prices into period-column workbooks.",
	Long: `pricesheet scrapes gold, hotel and flight prices and merges each run into
an Excel workbook with one row per tracked item and one column per period.

Domains are gold (daily), hotel (weekly) and flight (fixed days of the
month). Use "all" to select every domain.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Commands stop when ctx is cancelled.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Fatal("%s: %v", rootCmd.Name(), err)
	}
}
