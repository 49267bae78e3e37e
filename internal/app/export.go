package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"sessionchart/internal/report"
	"sessionchart/internal/service"
)

// ExportOptions hold parameters for exporting one instrument.
type ExportOptions struct {
	Instrument string
	CSVPath    string
	AvgPath    string
	PNGPath    string
}

// Export writes one instrument's rebased sessions as CSV and/or its chart
// as PNG to explicit paths.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.AvgPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv, --avg or --png must be provided")
	}

	inst, ok := a.Config.Instrument(opts.Instrument)
	if !ok {
		return fmt.Errorf("unknown instrument %q", opts.Instrument)
	}

	svc, err := a.newService(nil)
	if err != nil {
		return err
	}
	o, err := svc.RunOne(ctx, inst.Name)
	if err != nil {
		return err
	}
	if o.Status != service.StatusOK {
		return errors.New(o.Message)
	}

	res := o.Result
	a.Logger.Info().
		Str("instrument", inst.Name).
		Int("points", len(res.Points)).
		Int("sessions", res.Stats.Sessions).
		Msg("exporting instrument")

	if opts.CSVPath != "" {
		if err := report.WriteFile(opts.CSVPath, func(w io.Writer) error { return report.WriteSessionsCSV(w, res) }); err != nil {
			return err
		}
	}
	if opts.AvgPath != "" {
		if err := report.WriteFile(opts.AvgPath, func(w io.Writer) error { return report.WriteAverageCSV(w, res) }); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		title := report.ChartTitle(inst.Name, a.window())
		if err := report.WriteFile(opts.PNGPath, func(w io.Writer) error {
			return report.RenderChart(w, title, res, a.chartOptions())
		}); err != nil {
			return err
		}
	}
	return nil
}
