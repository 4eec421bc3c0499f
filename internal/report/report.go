// Package report prints the console summary of a run.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"sjsage522/pricesheet/internal/merge"
	"sjsage522/pricesheet/internal/price"
)

// NewTable returns a table writing to out in the house style.
func NewTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

// Run prints one line per identity of a merge and a footer with the totals.
func Run(out io.Writer, batch *price.Batch, result *merge.RunResult) {
	t := NewTable(out)
	t.SetTitle(fmt.Sprintf("%s prices %s (%s)", batch.Domain, periodOf(result), batch.Source))
	t.AppendHeader(table.Row{"Identity", "Label", "Status", "Amounts", "Reason"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, WidthMax: 60},
	})

	counts := map[merge.Status]int{}
	for _, o := range outcomesOf(batch, result) {
		counts[o.Status]++
		t.AppendRow(table.Row{o.Identity, o.Label, colour(o.Status), amounts(o.Amounts), o.Reason})
	}

	t.AppendFooter(table.Row{
		"",
		"",
		fmt.Sprintf("%d ok", counts[merge.StatusSuccess]),
		fmt.Sprintf("%d skipped", counts[merge.StatusSkipped]),
		fmt.Sprintf("%d failed", counts[merge.StatusError]),
	})
	t.Render()

	if result == nil {
		return
	}
	switch {
	case result.Committed:
		fmt.Fprintf(out, "saved %s (column %d", result.Workbook, result.Column)
		if result.NewColumn {
			fmt.Fprint(out, ", new")
		}
		fmt.Fprintln(out, ")")
	case result.CommitErr != nil:
		fmt.Fprintf(out, "workbook %s was not saved: %v\n", result.Workbook, result.CommitErr)
	}
	if result.Backup != "" {
		fmt.Fprintf(out, "previous workbook kept as %s\n", result.Backup)
	}
}

func periodOf(result *merge.RunResult) string {
	if result == nil || result.PeriodKey.IsZero() {
		return "not merged"
	}
	return result.PeriodKey.String()
}

// outcomesOf falls back to the batch itself when the merge did not run.
func outcomesOf(batch *price.Batch, result *merge.RunResult) []merge.Outcome {
	if result != nil && len(result.Outcomes) > 0 {
		return result.Outcomes
	}
	return merge.Outcomes(batch, nil)
}

func colour(s merge.Status) string {
	switch s {
	case merge.StatusSuccess:
		return text.FgGreen.Sprint(s)
	case merge.StatusError:
		return text.FgRed.Sprint(s)
	default:
		return text.FgYellow.Sprint(s)
	}
}

func amounts(a map[string]string) string {
	units := make([]string, 0, len(a))
	for u := range a {
		units = append(units, u)
	}
	sort.Strings(units)

	parts := make([]string, 0, len(units))
	for _, u := range units {
		parts = append(parts, u+" "+a[u])
	}
	return strings.Join(parts, ", ")
}
