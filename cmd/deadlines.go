package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"edefter/internal/compliance"
	"edefter/internal/ledger"
	"edefter/internal/logger"
)

var deadlinesCmd = &cobra.Command{
	Use:   "deadlines",
	Short: "List upcoming and recently missed submission deadlines",
	Long: `List, for every active customer, the deadlines of the last twelve periods
that fall between 30 days overdue and 90 days ahead, nearest first.

With --scan the source folder is scanned as well and periods whose four
files are present are marked as completed.`,
	Example: `  edefter deadlines
  edefter deadlines --scan --pending
  edefter deadlines --json`,
	RunE: runDeadlines,
}

func init() {
	rootCmd.AddCommand(deadlinesCmd)

	deadlinesCmd.Flags().Bool("scan", false, "Scan the source folder to mark completed periods")
	deadlinesCmd.Flags().Bool("pending", false, "Hide completed periods (implies --scan)")
	deadlinesCmd.Flags().Bool("json", false, "Print as JSON")
}

func runDeadlines(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("deadlines")

	withScan, _ := cmd.Flags().GetBool("scan")
	pending, _ := cmd.Flags().GetBool("pending")
	asJSON, _ := cmd.Flags().GetBool("json")
	withScan = withScan || pending

	ctx, cancel := signalContext()
	defer cancel()

	customers, err := loadRoster(ctx, appConfig)
	if err != nil {
		return fmt.Errorf("failed to load customer list: %w", err)
	}

	agg := compliance.NewAggregator(nil)
	deadlines := agg.UpcomingDeadlines(customers.Customers())

	if withScan {
		source, err := sourceFolder(cmd)
		if err != nil {
			return err
		}
		scan, err := ledger.NewChecker(nil).ScanAll(ctx, source, customers)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		compliance.MarkCompleted(deadlines, scan)
	}

	if pending {
		open := deadlines[:0]
		for _, d := range deadlines {
			if !d.IsCompleted {
				open = append(open, d)
			}
		}
		deadlines = open
	}

	log.Info().Int("deadlines", len(deadlines)).Msg("Deadlines computed")

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), deadlines, "", log)
	}
	printDeadlines(cmd.OutOrStdout(), deadlines)
	return nil
}

func printDeadlines(w io.Writer, deadlines []compliance.UpcomingDeadline) {
	if len(deadlines) == 0 {
		fmt.Fprintln(w, "Yaklaşan son tarih yok.")
		return
	}
	for _, d := range deadlines {
		state := ""
		if d.IsCompleted {
			state = "TAMAM"
		}
		fmt.Fprintf(w, "%s  %-30s %-12s %-14s %-28s %s\n",
			d.Deadline.Turkish(), d.Customer.CompanyName, d.Customer.Identifier(),
			d.PeriodDisplay, compliance.FormatDeadlineInfo(d), state)
	}
}
