package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"edefter/internal/compliance"
	"edefter/internal/ledger"
	"edefter/internal/logger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show completed, incomplete and overdue periods per customer",
	Long: `Scan the source folder and classify every period of every active customer
as completed, incomplete (deadline not yet passed) or overdue.

Ended periods of the year to date that have no month folder at all are
listed separately. Quarterly filers are only judged on quarter-end months.`,
	Example: `  edefter status
  edefter status --json -o status.json`,
	RunE: runStatus,
}

type statusOutput struct {
	Summary   compliance.Summary            `json:"summary"`
	Customers []compliance.CompletionStatus `json:"customers"`
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().Bool("json", false, "Print as JSON")
	statusCmd.Flags().StringP("output", "o", "", "JSON output file (default: stdout)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("status")

	source, err := sourceFolder(cmd)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	outputPath, _ := cmd.Flags().GetString("output")

	ctx, cancel := signalContext()
	defer cancel()

	customers, err := loadRoster(ctx, appConfig)
	if err != nil {
		return fmt.Errorf("failed to load customer list: %w", err)
	}

	scan, err := ledger.NewChecker(nil).ScanAll(ctx, source, customers)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	statuses := compliance.NewAggregator(nil).CompletionStatus(scan, customers.Customers())
	out := statusOutput{Summary: compliance.Summarize(statuses), Customers: statuses}

	log.Info().
		Int("customers", out.Summary.TotalCustomers).
		Int("overdue", out.Summary.TotalOverdue).
		Msg("Completion status computed")

	if asJSON || outputPath != "" {
		return writeJSON(cmd.OutOrStdout(), out, outputPath, log)
	}
	printStatus(cmd.OutOrStdout(), out)
	return nil
}

func printStatus(w io.Writer, out statusOutput) {
	s := out.Summary
	fmt.Fprintf(w, "Müşteri: %d  Tamam: %d  Eksik: %d  Gecikmiş: %d\n",
		s.TotalCustomers, s.TotalCompleted, s.TotalIncomplete, s.TotalOverdue)
	if len(s.OverdueCustomers) > 0 {
		fmt.Fprintf(w, "Gecikmiş: %s\n", strings.Join(s.OverdueCustomers, ", "))
	}
	if len(s.UpcomingDeadlineCustomers) > 0 {
		fmt.Fprintf(w, "Son tarihi yaklaşan: %s\n", strings.Join(s.UpcomingDeadlineCustomers, ", "))
	}

	for _, st := range out.Customers {
		next := "-"
		if st.NextDeadline != nil {
			next = fmt.Sprintf("%s (%d gün)", st.NextDeadline.Turkish(), *st.DaysToNextDeadline)
		}
		fmt.Fprintf(w, "\n%s [%s]  sonraki: %s\n", st.Customer.CompanyName, st.Customer.Identifier(), next)
		if len(st.OverduePeriods) > 0 {
			fmt.Fprintf(w, "  gecikmiş: %s\n", strings.Join(st.OverduePeriods, ", "))
		}
		if len(st.IncompletePeriods) > 0 {
			fmt.Fprintf(w, "  eksik:    %s\n", strings.Join(st.IncompletePeriods, ", "))
		}
		if len(st.MissingPeriods) > 0 {
			fmt.Fprintf(w, "  klasörsüz: %s\n", strings.Join(st.MissingPeriods, ", "))
		}
		fmt.Fprintf(w, "  tamam:    %d dönem\n", len(st.CompletedPeriods))
	}
}
