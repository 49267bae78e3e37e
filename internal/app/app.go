package app

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"sessionchart/internal/config"
	"sessionchart/internal/metrics"
	"sessionchart/internal/report"
	"sessionchart/internal/service"
	"sessionchart/internal/session"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Out receives command output meant for humans (tables, YAML).
	Out io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger.With().Str("component", "app").Logger(),
		Out:    os.Stdout,
	}
}

func (a *App) newService(rec *metrics.Recorder) (*service.Service, error) {
	popts, err := service.PipelineOptions(a.Config)
	if err != nil {
		return nil, err
	}
	return service.New(a.Config, popts, service.Options{
		BaseDir: a.Config.Loader.BaseDir,
		Metrics: rec,
	}, a.Logger), nil
}

func (a *App) newPage() (*report.Page, error) {
	tabs := make([]report.TabConfig, 0, len(a.Config.Page.Instruments))
	for _, inst := range a.Config.Page.Instruments {
		tabs = append(tabs, report.TabConfig{Label: inst.TabLabel(), Instrument: inst.Name})
	}
	return report.NewPage(report.PageConfig{
		Title:   a.Config.Page.Title,
		Caption: a.Config.Page.Caption,
		Layout:  a.Config.Page.Layout,
		Tabs:    tabs,
	})
}

func (a *App) window() session.Window {
	return session.Window{OpenHour: a.Config.Session.OpenHour, CloseHour: a.Config.Session.CloseHour}
}

func (a *App) chartOptions() report.ChartOptions {
	return report.ChartOptions{
		Width:  a.Config.Output.Width,
		Height: a.Config.Output.Height,
		Window: a.window(),
	}
}
