// Package server serves the session dashboard over HTTP. Every request
// reprocesses the configured sources so the page tracks the files on disk.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"sessionchart/internal/apperr"
	"sessionchart/internal/config"
	"sessionchart/internal/report"
	"sessionchart/internal/service"
)

// Runner produces instrument outcomes on demand.
type Runner interface {
	Instruments() []config.InstrumentConfig
	RunAll(ctx context.Context) ([]service.Outcome, error)
	RunOne(ctx context.Context, name string) (service.Outcome, error)
}

// Options wire the server's collaborators.
type Options struct {
	Page    *report.Page
	Chart   report.ChartOptions
	Metrics http.Handler
}

// Server exposes the dashboard, chart images, JSON series and metrics.
type Server struct {
	runner Runner
	opts   Options
	logger zerolog.Logger
}

// New constructs a Server.
func New(runner Runner, opts Options, logger zerolog.Logger) *Server {
	return &Server{
		runner: runner,
		opts:   opts,
		logger: logger.With().Str("component", "server").Logger(),
	}
}

// Routes builds the HTTP router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/chart/{name}.png", s.handleChart)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/instruments", s.handleInstruments)
		r.Get("/instruments/{name}", s.handleSeries)
	})

	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", cfg.Addr).Msg("dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info().Msg("dashboard stopped")
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	outcomes, err := s.runner.RunAll(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusServiceUnavailable, err.Error(), "")
		return
	}

	tabs := make([]report.Tab, 0, len(outcomes))
	for _, o := range outcomes {
		tabs = append(tabs, report.NewTab(o, s.opts.Chart.Window, "/chart/"+o.Instrument.Name+".png"))
	}

	var buf bytes.Buffer
	if err := s.opts.Page.Render(&buf, tabs); err != nil {
		s.logger.Error().Err(err).Msg("render page")
		s.respondError(w, r, http.StatusInternalServerError, "could not render page", "")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	o, ok := s.outcome(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	title := report.ChartTitle(o.Instrument.Name, s.opts.Chart.Window)
	if err := report.RenderChart(&buf, title, o.Result, s.opts.Chart); err != nil {
		s.logger.Error().Err(err).Str("instrument", o.Instrument.Name).Msg("render chart")
		s.respondError(w, r, http.StatusInternalServerError, "could not render chart", "")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

type instrumentResponse struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Source string `json:"source"`
}

func (s *Server) handleInstruments(w http.ResponseWriter, r *http.Request) {
	insts := s.runner.Instruments()
	out := make([]instrumentResponse, 0, len(insts))
	for _, inst := range insts {
		out = append(out, instrumentResponse{Name: inst.Name, Label: inst.TabLabel(), Source: inst.Source})
	}
	render.JSON(w, r, out)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	o, ok := s.outcome(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, report.NewSeriesView(o.Result))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// outcome runs the instrument named in the URL and writes an error response
// unless it produced a result.
func (s *Server) outcome(w http.ResponseWriter, r *http.Request) (service.Outcome, bool) {
	name, found := s.lookup(chi.URLParam(r, "name"))
	if !found {
		s.respondError(w, r, http.StatusNotFound, fmt.Sprintf("unknown instrument %q", chi.URLParam(r, "name")), "")
		return service.Outcome{}, false
	}

	o, err := s.runner.RunOne(r.Context(), name)
	if err != nil {
		s.respondError(w, r, http.StatusServiceUnavailable, err.Error(), "")
		return o, false
	}

	switch o.Status {
	case service.StatusOK:
		return o, true
	case service.StatusWarning:
		s.respondError(w, r, http.StatusNotFound, o.Message, string(apperr.KindOf(o.Err)))
	default:
		s.respondError(w, r, http.StatusUnprocessableEntity, o.Message, string(apperr.KindOf(o.Err)))
	}
	return o, false
}

func (s *Server) lookup(name string) (string, bool) {
	for _, inst := range s.runner.Instruments() {
		if strings.EqualFold(inst.Name, name) {
			return inst.Name, true
		}
	}
	return "", false
}

type errorResponse struct {
	HTTPStatus int    `json:"-"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	Kind       string `json:"kind,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

func (e *errorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatus)
	return nil
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, msg, kind string) {
	_ = render.Render(w, r, &errorResponse{
		HTTPStatus: status,
		Status:     "error",
		Message:    msg,
		Kind:       kind,
		RequestID:  middleware.GetReqID(r.Context()),
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(started)).
			Msg("request served")
	})
}

