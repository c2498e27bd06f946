// Package events carries fire-and-forget notifications from the watcher and the
// automation trigger to whoever is listening (logs, metrics, a UI host).
package events

import (
	"time"

	"github.com/rs/zerolog"

	"edefter/internal/logger"
)

type Type string

const (
	WatcherStarted   Type = "watcher-started"
	WatcherStopped   Type = "watcher-stopped"
	FolderChanged    Type = "file-change"
	PeriodIncomplete Type = "period-incomplete"
	PeriodComplete   Type = "period-complete"
	BackupComplete   Type = "backup-complete"
	EmailSent        Type = "email-sent"
	ReportGenerated  Type = "report-generated"
	Error            Type = "error"
)

// Event is a single notification. Fields that do not apply are left empty.
type Event struct {
	Type    Type
	TaxNo   string
	Period  string
	Path    string
	Action  string // backup, email or report for action results
	Message string
	Err     error
	At      time.Time
}

// Observer receives events. Implementations must not block for long.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Notify(e Event) { f(e) }

// Multi fans an event out to several observers in order.
type Multi []Observer

func (m Multi) Notify(e Event) {
	for _, o := range m {
		if o != nil {
			o.Notify(e)
		}
	}
}

// Discard drops every event.
var Discard Observer = ObserverFunc(func(Event) {})

// LogObserver writes events to a zerolog logger.
type LogObserver struct {
	log zerolog.Logger
}

// NewLogObserver creates a LogObserver logging under the events component.
func NewLogObserver() *LogObserver {
	return &LogObserver{log: logger.WithComponent("events")}
}

func (o *LogObserver) Notify(e Event) {
	ev := o.log.Info()
	if e.Type == Error {
		ev = o.log.Error().Err(e.Err)
	} else if e.Type == FolderChanged {
		ev = o.log.Debug()
	}
	ev.Str("event", string(e.Type)).
		Str("tax_no", e.TaxNo).
		Str("period", e.Period).
		Str("path", e.Path).
		Str("action", e.Action).
		Msg(e.Message)
}
