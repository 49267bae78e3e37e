package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"sessionchart/internal/apperr"
	"sessionchart/internal/config"
	"sessionchart/internal/metrics"
	"sessionchart/internal/pipeline"
	"sessionchart/internal/session"
)

// Status is the outcome class of one instrument run.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Outcome is the result of processing one instrument. Exactly one of Result
// and Err is set.
type Outcome struct {
	Instrument config.InstrumentConfig
	Result     *pipeline.Result
	Status     Status
	Message    string
	Err        error
}

// RunFunc executes the pipeline for one source.
type RunFunc func(src pipeline.Source, opts pipeline.Options) (*pipeline.Result, error)

// Service runs the per-instrument pipelines in sequence, isolating the
// failure of one instrument from the others.
type Service struct {
	instruments []config.InstrumentConfig
	baseDir     string
	opts        pipeline.Options
	run         RunFunc
	metrics     *metrics.Recorder
	logger      zerolog.Logger
}

// Options tune service construction.
type Options struct {
	// BaseDir resolves relative instrument sources.
	BaseDir string
	Metrics *metrics.Recorder
	Run     RunFunc
}

// New constructs the service from configuration.
func New(cfg *config.Config, popts pipeline.Options, opts Options, logger zerolog.Logger) *Service {
	run := opts.Run
	if run == nil {
		run = pipeline.Run
	}
	return &Service{
		instruments: cfg.Page.Instruments,
		baseDir:     opts.BaseDir,
		opts:        popts,
		run:         run,
		metrics:     opts.Metrics,
		logger:      logger.With().Str("component", "service").Logger(),
	}
}

// PipelineOptions derives pipeline options from configuration.
func PipelineOptions(cfg *config.Config) (pipeline.Options, error) {
	loc, err := cfg.Session.TimeLocation()
	if err != nil {
		return pipeline.Options{}, err
	}
	schema, err := pipeline.NewSchema(cfg.Loader.DateColumns, cfg.Loader.PriceColumns)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("loader columns: %w", err)
	}
	return pipeline.Options{
		Window: session.Window{
			OpenHour:  cfg.Session.OpenHour,
			CloseHour: cfg.Session.CloseHour,
		},
		Location:    loc,
		Schema:      schema,
		Encodings:   cfg.Loader.Encodings,
		SheetNames:  cfg.Loader.SheetNames,
		TimeColumn:  cfg.Loader.TimeColumn,
		AvgColumns:  cfg.Loader.AverageLabels,
		DefaultYear: cfg.Session.DefaultYear,
	}, nil
}

// Instruments returns the configured instruments in tab order.
func (s *Service) Instruments() []config.InstrumentConfig {
	return s.instruments
}

// RunAll processes every instrument in order. It stops early only when ctx
// is cancelled; the outcomes gathered so far are returned with ctx's error.
func (s *Service) RunAll(ctx context.Context) ([]Outcome, error) {
	out := make([]Outcome, 0, len(s.instruments))
	for _, inst := range s.instruments {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, s.process(inst))
	}
	return out, nil
}

// RunOne processes a single instrument by name.
func (s *Service) RunOne(ctx context.Context, name string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	for _, inst := range s.instruments {
		if inst.Name == name {
			return s.process(inst), nil
		}
	}
	return Outcome{}, fmt.Errorf("unknown instrument %q", name)
}

func (s *Service) process(inst config.InstrumentConfig) (outcome Outcome) {
	logger := s.logger.With().Str("instrument", inst.Name).Logger()
	started := time.Now()
	src := pipeline.Source{Name: inst.Name, Path: s.resolve(inst.Source), Kind: inst.Kind}

	defer func() {
		if r := recover(); r != nil {
			outcome = s.fail(inst, src, fmt.Errorf("pipeline panic: %v", r), started, logger)
		}
	}()

	res, err := s.run(src, s.opts)
	if err != nil {
		return s.fail(inst, src, err, started, logger)
	}

	if s.metrics != nil {
		kept := len(res.Points)
		s.metrics.RecordSuccess(inst.Name, metrics.RowCounts{
			Kept:        kept,
			BadTime:     res.Stats.BadTime,
			BadPrice:    res.Stats.BadPrice,
			OutOfWindow: res.Stats.OutOfWindow,
		}, res.Stats.Sessions, time.Since(started))
	}

	logger.Info().
		Str("source", src.Path).
		Int("rows", res.Stats.Rows).
		Int("points", len(res.Points)).
		Int("sessions", res.Stats.Sessions).
		Int("dropped_time", res.Stats.BadTime).
		Int("dropped_price", res.Stats.BadPrice).
		Int("out_of_window", res.Stats.OutOfWindow).
		Str("range", res.TitleRange).
		Msg("instrument processed")

	return Outcome{Instrument: inst, Result: res, Status: StatusOK}
}

func (s *Service) fail(inst config.InstrumentConfig, src pipeline.Source, err error, started time.Time, logger zerolog.Logger) Outcome {
	outcome := Outcome{Instrument: inst, Err: err}
	if errors.Is(err, apperr.ErrSourceUnavailable) {
		outcome.Status = StatusWarning
		outcome.Message = fmt.Sprintf("Missing `%s` in the folder.", inst.Source)
		logger.Warn().Str("source", src.Path).Msg("source file missing")
	} else {
		outcome.Status = StatusError
		outcome.Message = fmt.Sprintf("Couldn't process %s: %v", inst.Name, err)
		logger.Error().Err(err).Str("source", src.Path).Str("kind", string(apperr.KindOf(err))).Msg("instrument failed")
	}

	if s.metrics != nil {
		s.metrics.RecordFailure(inst.Name, string(outcome.Status), time.Since(started))
	}
	return outcome
}

func (s *Service) resolve(path string) string {
	if s.baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.baseDir, path)
}
