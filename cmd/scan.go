package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"edefter/internal/ledger"
	"edefter/internal/logger"
	"edefter/internal/report"
	"edefter/internal/sheets"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the e-defter folder and report incomplete periods",
	Long: `Walk <source>/<taxNo>/<fiscal-year>/<MM> and check every period folder for
the four ledger artifacts (Kebir XML/ZIP, Yevmiye XML/ZIP).

Company names and e-mails are taken from the customer list when one is
configured. The result can be written as an Excel report, mirrored to a
Google Sheet (REPORT_SHEET_URL) or printed as JSON.`,
	Example: `  # Print a summary of the configured source folder
  edefter scan

  # Write the Excel report and publish it to the report sheet
  edefter scan --report --publish

  # Dump the full scan result as JSON
  edefter scan --source /data/e-defter --json -o scan.json`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Bool("report", false, "Write the Excel report to REPORT_OUTPUT_FOLDER")
	scanCmd.Flags().String("report-dir", "", "Report folder (default: REPORT_OUTPUT_FOLDER)")
	scanCmd.Flags().Bool("publish", false, "Mirror the report tables to REPORT_SHEET_URL")
	scanCmd.Flags().Bool("json", false, "Print the scan result as JSON")
	scanCmd.Flags().StringP("output", "o", "", "JSON output file (default: stdout)")
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("scan")

	source, err := sourceFolder(cmd)
	if err != nil {
		return err
	}
	writeReport, _ := cmd.Flags().GetBool("report")
	reportDir, _ := cmd.Flags().GetString("report-dir")
	publish, _ := cmd.Flags().GetBool("publish")
	asJSON, _ := cmd.Flags().GetBool("json")
	outputPath, _ := cmd.Flags().GetString("output")

	if reportDir == "" {
		reportDir = appConfig.ReportOutputFolder
	}
	if writeReport && reportDir == "" {
		return fmt.Errorf("no report folder: set REPORT_OUTPUT_FOLDER or pass --report-dir")
	}
	if publish && appConfig.ReportSheetURL == "" {
		return fmt.Errorf("REPORT_SHEET_URL environment variable is required for --publish")
	}

	ctx, cancel := signalContext()
	defer cancel()

	customers, err := loadRoster(ctx, appConfig)
	if err != nil {
		return fmt.Errorf("failed to load customer list: %w", err)
	}

	log.Info().
		Str("source", source).
		Int("customers", customers.Len()).
		Msg("Starting scan")

	scan, err := ledger.NewChecker(nil).ScanAll(ctx, source, customers)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if writeReport {
		path, err := report.WriteExcel(scan, reportDir, scan.ScanDate)
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rapor: %s\n", path)
	}

	if publish {
		svc, err := sheets.NewSheetsService(ctx, appConfig.ReportSheetURL)
		if err != nil {
			return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
		if err := report.PublishSheet(ctx, svc, scan); err != nil {
			return fmt.Errorf("failed to publish report: %w", err)
		}
		log.Info().Msg("Report published to Google Sheet")
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), scan, outputPath, log)
	}
	printScan(cmd.OutOrStdout(), scan)
	return nil
}

func printScan(w io.Writer, scan *ledger.ScanResult) {
	fmt.Fprintf(w, "Kaynak: %s\n", scan.SourceFolder)
	fmt.Fprintf(w, "Şirket: %d  Dönem: %d  Tamam: %d  Eksik: %d  (%%%.1f)\n",
		scan.TotalCompanies, scan.TotalPeriods, scan.CompletePeriods, scan.IncompletePeriods,
		scan.CompletionRate())

	for _, c := range scan.Companies {
		for _, p := range c.Periods {
			if p.IsComplete {
				continue
			}
			fmt.Fprintf(w, "  %-30s %-12s %-14s eksik: %s\n",
				c.CompanyName, p.TaxNo, p.PeriodDisplay, strings.Join(p.MissingFiles(), ", "))
		}
	}
}
