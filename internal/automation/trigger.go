// Package automation reacts to e-defter folder changes. When a company period
// becomes complete it backs the folder up, mails it to the customer and
// regenerates the report, exactly once per (tax number, period).
package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"edefter/internal/events"
	"edefter/internal/ledger"
	"edefter/internal/logger"
	"edefter/internal/mail"
	"edefter/pkg/models"
)

// DefaultDebounce is the quiescence window used when Settings.Debounce is zero.
const DefaultDebounce = 2 * time.Second

// Settings are the automation toggles. They are fixed for the life of a Trigger.
type Settings struct {
	SourceFolder string
	BackupFolder string

	AutoBackup bool
	AutoEmail  bool
	AutoReport bool

	SubjectTemplate string
	BodyTemplate    string

	Debounce time.Duration
	TempDir  string // where mail archives are staged; os.TempDir() when empty
}

// PeriodChecker inspects one period folder.
type PeriodChecker interface {
	CheckPeriod(folderPath, taxNo string, period models.Period) (*ledger.PeriodCheckResult, error)
}

// ProcessedStore is the idempotence record. MarkProcessed must fail with
// models.ErrAlreadyProcessed when the key exists.
type ProcessedStore interface {
	IsProcessed(taxNo, period string) (bool, error)
	MarkProcessed(item models.ProcessedItem) error
}

// Archiver copies and zips folders.
type Archiver interface {
	CopyFolder(src, dst string) error
	ZipFolder(src, out string) (string, error)
}

// Mailer delivers one message.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// Reporter regenerates the compliance report and returns its path.
type Reporter interface {
	Generate(ctx context.Context) (string, error)
}

// Deps are the collaborators of a Trigger. Checker and Store are required;
// a nil Archiver, Mailer or Reporter disables the matching action.
type Deps struct {
	Checker  PeriodChecker
	Store    ProcessedStore
	Archiver Archiver
	Mailer   Mailer
	Reporter Reporter
	Observer events.Observer
	Now      func() time.Time
}

// Trigger turns folder-change notifications into idempotent side effects.
type Trigger struct {
	settings Settings
	deps     Deps
	roster   atomic.Pointer[models.Roster]
	debounce *debouncer
	keys     *keyedMutex
	log      zerolog.Logger
}

// NewTrigger creates a Trigger. Zero settings fall back to DefaultDebounce and
// the system temp directory; Checker and Store are required.
func NewTrigger(settings Settings, deps Deps) *Trigger {
	if settings.Debounce <= 0 {
		settings.Debounce = DefaultDebounce
	}
	if settings.TempDir == "" {
		settings.TempDir = os.TempDir()
	}
	if deps.Observer == nil {
		deps.Observer = events.Discard
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Checker == nil || deps.Store == nil {
		panic("automation: Checker and Store are required")
	}

	return &Trigger{
		settings: settings,
		deps:     deps,
		debounce: newDebouncer(settings.Debounce),
		keys:     newKeyedMutex(),
		log:      logger.WithComponent("automation"),
	}
}

// SetRoster replaces the customer roster used to resolve names and e-mails.
func (t *Trigger) SetRoster(r *models.Roster) {
	t.roster.Store(r)
}

// Roster returns the current customer roster, nil before the first SetRoster.
func (t *Trigger) Roster() *models.Roster {
	return t.roster.Load()
}

// HandleEvent records a change to path and evaluates it once the path has
// been quiet for the debounce window. It never blocks.
func (t *Trigger) HandleEvent(ctx context.Context, op, path string) {
	t.log.Debug().Str("op", op).Str("path", path).Msg("Change received")
	t.debounce.Schedule(path, func() {
		// ErrAllActionsFailed was already reported once per action.
		if err := t.ProcessChange(ctx, path); err != nil && !errors.Is(err, ErrAllActionsFailed) {
			t.emit(events.Event{Type: events.Error, Path: path, Err: err,
				Message: "Dosya değişikliği işlenirken hata oluştu"})
		}
	})
}

// Stop cancels pending evaluations and blocks until running ones have
// finished, so the store can be closed afterwards.
func (t *Trigger) Stop() {
	t.debounce.Stop()
}

// ProcessChange evaluates the period that contains path. Paths outside the
// e-defter layout, and files that are not Kebir or Yevmiye files, are ignored.
func (t *Trigger) ProcessChange(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	loc, err := ledger.ParseLocation(t.settings.SourceFolder, path)
	if err != nil || !ledger.IsLedgerFile(loc.FileName) {
		return nil
	}

	period := loc.Period.Code()
	t.emit(events.Event{Type: events.FolderChanged, TaxNo: loc.TaxNo, Period: period, Path: path})

	periodPath := loc.PeriodPath(t.settings.SourceFolder)
	result, err := t.deps.Checker.CheckPeriod(periodPath, loc.TaxNo, loc.Period)
	if err != nil {
		return err
	}
	if c, ok := t.roster.Load().Lookup(loc.TaxNo); ok {
		result.AttachCustomer(c)
	}

	if !result.IsComplete {
		t.emit(events.Event{Type: events.PeriodIncomplete, TaxNo: loc.TaxNo, Period: period, Path: periodPath,
			Message: fmt.Sprintf("Eksik dosyalar: %v", result.MissingFiles())})
		return nil
	}

	_, err = t.HandleComplete(ctx, result, periodPath)
	if errors.Is(err, ErrAlreadyProcessed) {
		return nil
	}
	return err
}

// HandleComplete runs the enabled actions for a complete period and records
// it as processed. A period that is already processed is rejected with
// ErrAlreadyProcessed and nothing runs. Calls for the same key are serialized.
func (t *Trigger) HandleComplete(ctx context.Context, result *ledger.PeriodCheckResult, periodPath string) (*models.ProcessedItem, error) {
	if !result.IsComplete {
		return nil, ErrIncomplete
	}

	taxNo, period := result.TaxNo, result.Period.Code()
	unlock := t.keys.Lock(models.ProcessedKey(taxNo, period))
	defer unlock()

	log := logger.WithPeriod("automation", taxNo, period)

	done, err := t.deps.Store.IsProcessed(taxNo, period)
	if err != nil {
		return nil, err
	}
	if done {
		log.Debug().Msg("Period already processed")
		return nil, ErrAlreadyProcessed
	}

	t.emit(events.Event{Type: events.PeriodComplete, TaxNo: taxNo, Period: period, Path: periodPath,
		Message: fmt.Sprintf("%s - %s dönemi tamamlandı!", result.CompanyName, result.PeriodDisplay)})

	var (
		actions  []models.Action
		failures []error
	)
	run := func(action models.Action, fn func() error) {
		if err := safeRun(fn); err != nil {
			actionErr := &ActionError{Action: string(action), TaxNo: taxNo, Period: period, Err: err}
			failures = append(failures, actionErr)
			log.Error().Err(err).Str("action", string(action)).Msg("Automation action failed")
			t.emit(events.Event{Type: events.Error, TaxNo: taxNo, Period: period, Action: string(action),
				Err: actionErr, Message: "Tam otomasyon sırasında hata oluştu"})
			return
		}
		actions = append(actions, action)
	}

	if t.settings.AutoBackup && t.settings.BackupFolder != "" && t.deps.Archiver != nil {
		run(models.ActionBackup, func() error { return t.backup(taxNo, period, periodPath) })
	}
	if t.settings.AutoEmail && t.deps.Archiver != nil && t.deps.Mailer != nil {
		if result.CustomerEmail == "" {
			log.Warn().Msg("Customer has no e-mail address, skipping delivery")
		} else {
			run(models.ActionEmail, func() error { return t.email(ctx, result, periodPath) })
		}
	}
	if t.settings.AutoReport && t.deps.Reporter != nil {
		run(models.ActionReport, func() error { return t.report(ctx) })
	}

	if len(actions) == 0 && len(failures) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllActionsFailed, errors.Join(failures...))
	}

	item := models.ProcessedItem{
		TaxNo:       taxNo,
		Period:      period,
		ProcessedAt: t.deps.Now(),
		Actions:     actions,
		RunID:       uuid.NewString(),
	}
	if err := t.deps.Store.MarkProcessed(item); err != nil {
		return nil, err
	}

	log.Info().
		Str("run_id", item.RunID).
		Interface("actions", actions).
		Int("failed", len(failures)).
		Msg("Period processed")
	return &item, nil
}

func (t *Trigger) backup(taxNo, period, periodPath string) error {
	dst := filepath.Join(t.settings.BackupFolder, taxNo, period)
	if err := t.deps.Archiver.CopyFolder(periodPath, dst); err != nil {
		return err
	}
	t.emit(events.Event{Type: events.BackupComplete, TaxNo: taxNo, Period: period, Path: dst, Action: string(models.ActionBackup)})
	return nil
}

func (t *Trigger) email(ctx context.Context, result *ledger.PeriodCheckResult, periodPath string) error {
	taxNo, period := result.TaxNo, result.Period.Code()
	tmp := filepath.Join(t.settings.TempDir, fmt.Sprintf("e-defter-%s-%s.zip", taxNo, period))

	zipPath, err := t.deps.Archiver.ZipFolder(periodPath, tmp)
	if err != nil {
		return err
	}
	defer os.Remove(zipPath)

	subject, body := t.template().Render(mail.TemplateData{
		CompanyName: result.CompanyName,
		TaxNo:       taxNo,
		Period:      result.PeriodDisplay,
		PeriodCode:  period,
	})
	if err := t.deps.Mailer.Send(ctx, mail.Message{
		To:          result.CustomerEmail,
		Subject:     subject,
		Body:        body,
		Attachments: []string{zipPath},
	}); err != nil {
		return err
	}

	t.emit(events.Event{Type: events.EmailSent, TaxNo: taxNo, Period: period, Action: string(models.ActionEmail),
		Message: result.CustomerEmail})
	return nil
}

func (t *Trigger) report(ctx context.Context) error {
	path, err := t.deps.Reporter.Generate(ctx)
	if err != nil {
		return err
	}
	t.emit(events.Event{Type: events.ReportGenerated, Path: path, Action: string(models.ActionReport)})
	return nil
}

func (t *Trigger) template() mail.Template {
	tpl := mail.DeliveryTemplate
	if t.settings.SubjectTemplate != "" {
		tpl.Subject = t.settings.SubjectTemplate
	}
	if t.settings.BodyTemplate != "" {
		tpl.Body = t.settings.BodyTemplate
	}
	return tpl
}

func (t *Trigger) emit(e events.Event) {
	if e.At.IsZero() {
		e.At = t.deps.Now()
	}
	t.deps.Observer.Notify(e)
}

// safeRun calls fn and turns a panic into an error.
func safeRun(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
