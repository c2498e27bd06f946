package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"edefter/internal/automation"
	"edefter/internal/backup"
	"edefter/internal/compliance"
	"edefter/internal/events"
	"edefter/internal/httpapi"
	"edefter/internal/ledger"
	"edefter/internal/logger"
	"edefter/internal/mail"
	"edefter/internal/metrics"
	"edefter/internal/report"
	"edefter/internal/sheets"
	"edefter/internal/store"
	"edefter/internal/watcher"
	"edefter/pkg/models"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the e-defter folder and automate completed periods",
	Long: `Watch the source folder recursively. When a Kebir or Yevmiye file changes,
the period is re-checked once the folder has been quiet for WATCH_DEBOUNCE.
The first time a period is found complete the enabled actions run:

  AUTO_BACKUP_ON_COMPLETE  copy the period folder to BACKUP_FOLDER/<taxNo>/<YYYYMM>
  AUTO_EMAIL               e-mail a zip of the period to the customer
  AUTO_REPORT              regenerate the Excel report in REPORT_OUTPUT_FOLDER

A period is handled at most once; see 'edefter processed'. With METRICS_ADDR
set, /healthz, /status, /deadlines, /processed and /metrics are served there.`,
	Example: `  edefter watch
  METRICS_ADDR=:9090 edefter watch --initial-scan`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Bool("initial-scan", false, "Handle periods that are already complete at start-up")
	watchCmd.Flags().Duration("roster-refresh", 15*time.Minute, "Reload the customer list at this interval (0 disables)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("watch")

	source, err := sourceFolder(cmd)
	if err != nil {
		return err
	}
	initialScan, _ := cmd.Flags().GetBool("initial-scan")
	refresh, _ := cmd.Flags().GetDuration("roster-refresh")

	ctx, cancel := signalContext()
	defer cancel()

	customers, err := loadRoster(ctx, appConfig)
	if err != nil {
		return fmt.Errorf("failed to load customer list: %w", err)
	}

	db, err := store.Open(appConfig.StateDBPath)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer db.Close()

	m := metrics.New()
	observer := events.Multi{events.NewLogObserver(), m}
	checker := ledger.NewChecker(nil)

	settings := appConfig.GetAutomationSettings()
	settings.SourceFolder = source

	deps := automation.Deps{
		Checker:  checker,
		Store:    db,
		Archiver: backup.NewService(),
		Observer: observer,
	}
	if settings.AutoEmail {
		deps.Mailer = mail.NewSender(appConfig.GetMailConfig())
	}

	// The report generator reads the roster through the trigger, which is
	// assigned below and replaced on every reload.
	var trigger *automation.Trigger
	currentRoster := func() *models.Roster { return trigger.Roster() }

	if settings.AutoReport {
		gen := report.NewGenerator(checker, source, appConfig.ReportOutputFolder, currentRoster)
		if appConfig.ReportSheetURL != "" {
			svc, err := sheets.NewSheetsService(ctx, appConfig.ReportSheetURL)
			if err != nil {
				log.Warn().Err(err).Msg("Report sheet unavailable; writing Excel only")
			} else {
				gen.Publisher = svc
			}
		}
		deps.Reporter = gen
	}

	trigger = automation.NewTrigger(settings, deps)
	defer trigger.Stop()
	trigger.SetRoster(customers)

	w := watcher.New(source, trigger, observer)
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	log.Info().
		Str("source", source).
		Int("customers", customers.Len()).
		Bool("auto_backup", settings.AutoBackup).
		Bool("auto_email", settings.AutoEmail).
		Bool("auto_report", settings.AutoReport).
		Msg("Watching for e-defter changes")

	g, gctx := errgroup.WithContext(ctx)

	if initialScan {
		g.Go(func() error {
			scan, err := checker.ScanAll(gctx, source, trigger.Roster())
			if err != nil {
				log.Error().Err(err).Msg("Initial scan failed")
				return nil
			}
			m.ObserveScan(scan)
			handled := handleCompletePeriods(gctx, trigger, scan)
			log.Info().Int("handled", handled).Msg("Initial scan finished")
			return nil
		})
	}

	if refresh > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(refresh)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					r, err := loadRoster(gctx, appConfig)
					if err != nil {
						log.Warn().Err(err).Msg("Customer list reload failed; keeping the previous list")
						continue
					}
					trigger.SetRoster(r)
					log.Debug().Int("customers", r.Len()).Msg("Customer list reloaded")
				}
			}
		})
	}

	if appConfig.MetricsAddr != "" {
		srv := httpapi.NewServer(httpapi.Options{
			SourceFolder: source,
			Watcher:      w,
			Store:        db,
			Aggregator:   compliance.NewAggregator(nil),
			Roster:       currentRoster,
			Metrics:      m.Handler(),
		})
		g.Go(func() error {
			return srv.ListenAndServe(gctx, appConfig.MetricsAddr)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err = g.Wait()
	log.Info().Msg("Watch stopped")
	return err
}

// handleCompletePeriods runs the trigger for every complete period of scan
// and returns how many were newly handled.
func handleCompletePeriods(ctx context.Context, trigger *automation.Trigger, scan *ledger.ScanResult) int {
	log := logger.WithComponent("watch")
	handled := 0
	for _, c := range scan.Companies {
		for _, p := range c.Periods {
			if ctx.Err() != nil {
				return handled
			}
			if !p.IsComplete {
				continue
			}
			_, err := trigger.HandleComplete(ctx, p, p.FolderPath)
			switch {
			case err == nil:
				handled++
			case errors.Is(err, models.ErrAlreadyProcessed):
			default:
				log.Warn().Err(err).Str("tax_no", p.TaxNo).Str("period", p.Period.Code()).Msg("Automation failed")
			}
		}
	}
	return handled
}
