// Package httpapi serves the read-only status endpoints of watch mode.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"edefter/internal/compliance"
	"edefter/internal/logger"
	"edefter/pkg/models"
)

// WatchState reports whether the folder watcher runs.
type WatchState interface {
	IsWatching() bool
}

// ProcessedLister lists the idempotence records.
type ProcessedLister interface {
	ProcessedItems() ([]models.ProcessedItem, error)
}

// Options wires the server. Nil fields disable the matching endpoint data.
type Options struct {
	SourceFolder string
	Watcher      WatchState
	Store        ProcessedLister
	Aggregator   *compliance.Aggregator
	Roster       func() *models.Roster
	Metrics      http.Handler
}

type Server struct {
	opts      Options
	router    chi.Router
	startedAt time.Time
	log       zerolog.Logger
}

// NewServer creates a Server and mounts its routes. /metrics is only served
// when opts.Metrics is set.
func NewServer(opts Options) *Server {
	s := &Server{
		opts:      opts,
		startedAt: time.Now(),
		log:       logger.WithComponent("httpapi"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/healthz", s.health)
	r.Get("/status", s.status)
	r.Get("/deadlines", s.deadlines)
	r.Get("/processed", s.processed)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	s.router = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("Status server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{Status: "ok", Uptime: time.Since(s.startedAt).Round(time.Second).String()})
}

type statusResponse struct {
	SourceFolder   string `json:"source_folder"`
	Watching       bool   `json:"watching"`
	RosterSource   string `json:"roster_source"`
	Customers      int    `json:"customers"`
	ActiveCount    int    `json:"active_customers"`
	ProcessedCount int    `json:"processed_count"`
	Upcoming       int    `json:"upcoming_deadlines"`
	Overdue        int    `json:"overdue_deadlines"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{SourceFolder: s.opts.SourceFolder}
	if s.opts.Watcher != nil {
		resp.Watching = s.opts.Watcher.IsWatching()
	}

	roster := s.roster()
	resp.RosterSource = roster.Source()
	resp.Customers = roster.Len()
	resp.ActiveCount = len(roster.Active())

	if s.opts.Aggregator != nil {
		for _, d := range s.opts.Aggregator.UpcomingDeadlines(roster.Customers()) {
			if d.IsOverdue {
				resp.Overdue++
			} else {
				resp.Upcoming++
			}
		}
	}

	if s.opts.Store != nil {
		items, err := s.opts.Store.ProcessedItems()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.ProcessedCount = len(items)
	}

	render.JSON(w, r, resp)
}

type deadlineResponse struct {
	Company       string `json:"company"`
	TaxNo         string `json:"tax_no"`
	Period        string `json:"period"`
	PeriodDisplay string `json:"period_display"`
	Deadline      string `json:"deadline"`
	DaysRemaining int    `json:"days_remaining"`
	IsOverdue     bool   `json:"is_overdue"`
	Info          string `json:"info"`
}

func (s *Server) deadlines(w http.ResponseWriter, r *http.Request) {
	out := []deadlineResponse{}
	if s.opts.Aggregator != nil {
		for _, d := range s.opts.Aggregator.UpcomingDeadlines(s.roster().Customers()) {
			out = append(out, deadlineResponse{
				Company:       d.Customer.CompanyName,
				TaxNo:         d.Customer.Identifier(),
				Period:        d.Period.Code(),
				PeriodDisplay: d.PeriodDisplay,
				Deadline:      d.Deadline.String(),
				DaysRemaining: d.DaysRemaining,
				IsOverdue:     d.IsOverdue,
				Info:          compliance.FormatDeadlineInfo(d),
			})
		}
	}
	render.JSON(w, r, out)
}

func (s *Server) processed(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		render.JSON(w, r, []models.ProcessedItem{})
		return
	}
	items, err := s.opts.Store.ProcessedItems()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

func (s *Server) roster() *models.Roster {
	if s.opts.Roster == nil {
		return nil
	}
	return s.opts.Roster()
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, map[string]interface{}{"error": err.Error()})
}
