package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"sessionchart/internal/pipeline"
	"sessionchart/internal/report"
	"sessionchart/internal/scheduler"
	"sessionchart/internal/service"
)

// RenderOptions configure the render command.
type RenderOptions struct {
	OutDir string
	// Every re-renders on this interval until interrupted.
	Every time.Duration
	// Cron re-renders on a cron schedule and takes precedence over Every.
	// With neither set, Render runs once.
	Cron string
}

// Render processes every instrument and writes charts, CSV files and the
// dashboard page to the output directory.
func (a *App) Render(ctx context.Context, opts RenderOptions) error {
	if opts.OutDir == "" {
		opts.OutDir = a.Config.Output.Dir
	}
	if opts.Every == 0 && opts.Cron == "" {
		opts.Every = a.Config.Scheduler.Interval
		opts.Cron = a.Config.Scheduler.Cron
	}

	svc, err := a.newService(nil)
	if err != nil {
		return err
	}
	page, err := a.newPage()
	if err != nil {
		return err
	}

	if opts.Every <= 0 && opts.Cron == "" {
		return a.renderOnce(ctx, svc, page, opts.OutDir)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched, err := scheduler.New(scheduler.Options{
		Interval:     opts.Every,
		Cron:         opts.Cron,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
		Immediate:    true,
	}, a.Logger)
	if err != nil {
		return err
	}

	a.Logger.Info().Dur("every", opts.Every).Str("cron", opts.Cron).Str("out", opts.OutDir).Msg("starting periodic render")
	err = sched.Run(ctx, func(ctx context.Context, at time.Time) error {
		return a.renderOnce(ctx, svc, page, opts.OutDir)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.Logger.Info().Msg("periodic render stopped")
	return nil
}

func (a *App) renderOnce(ctx context.Context, svc *service.Service, page *report.Page, dir string) error {
	logger := a.Logger.With().Str("run_id", uuid.NewString()).Logger()
	started := time.Now()

	outcomes, err := svc.RunAll(ctx)
	if err != nil {
		return err
	}

	out := a.Config.Output
	tabs := make([]report.Tab, 0, len(outcomes))
	failed := 0
	for _, o := range outcomes {
		chartURL := ""
		if o.Status == service.StatusOK {
			url, werr := a.writeArtifacts(dir, o)
			if werr != nil {
				logger.Error().Err(werr).Str("instrument", o.Instrument.Name).Msg("write artifacts failed")
				o.Status = service.StatusError
				o.Message = fmt.Sprintf("Couldn't write output for %s: %v", o.Instrument.Name, werr)
			}
			chartURL = url
		}
		if o.Status != service.StatusOK {
			failed++
			chartURL = ""
		}
		tabs = append(tabs, report.NewTab(o, a.window(), chartURL))
	}

	if out.HTML {
		path := filepath.Join(dir, "index.html")
		if err := report.WriteFile(path, func(w io.Writer) error { return page.Render(w, tabs) }); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	logger.Info().
		Str("out", dir).
		Int("instruments", len(outcomes)).
		Int("failed", failed).
		Dur("elapsed", time.Since(started)).
		Msg("render complete")
	return nil
}

// writeArtifacts writes the per-instrument files and returns the chart path
// relative to the page, or "" when PNG output is disabled.
func (a *App) writeArtifacts(dir string, o service.Outcome) (string, error) {
	out := a.Config.Output
	name := o.Instrument.Name
	res := o.Result

	if out.CSV {
		if err := writeCSVPair(dir, name, res); err != nil {
			return "", err
		}
	}
	if !out.PNG {
		return "", nil
	}

	file := name + ".png"
	path := filepath.Join(dir, file)
	title := report.ChartTitle(name, a.window())
	err := report.WriteFile(path, func(w io.Writer) error {
		return report.RenderChart(w, title, res, a.chartOptions())
	})
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return file, nil
}

func writeCSVPair(dir, name string, res *pipeline.Result) error {
	sessionsPath := filepath.Join(dir, name+"_sessions.csv")
	if err := report.WriteFile(sessionsPath, func(w io.Writer) error { return report.WriteSessionsCSV(w, res) }); err != nil {
		return fmt.Errorf("write %s: %w", sessionsPath, err)
	}
	averagePath := filepath.Join(dir, name+"_average.csv")
	if err := report.WriteFile(averagePath, func(w io.Writer) error { return report.WriteAverageCSV(w, res) }); err != nil {
		return fmt.Errorf("write %s: %w", averagePath, err)
	}
	return nil
}
