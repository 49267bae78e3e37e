package app

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"sessionchart/internal/service"
	"sessionchart/internal/session"
)

// ShowOptions configure the show command.
type ShowOptions struct {
	// Instrument limits output to one instrument; empty shows all.
	Instrument string
}

// Show prints a per-session summary for each instrument.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	svc, err := a.newService(nil)
	if err != nil {
		return err
	}

	var outcomes []service.Outcome
	if opts.Instrument != "" {
		inst, ok := a.Config.Instrument(opts.Instrument)
		if !ok {
			return fmt.Errorf("unknown instrument %q", opts.Instrument)
		}
		o, err := svc.RunOne(ctx, inst.Name)
		if err != nil {
			return err
		}
		outcomes = []service.Outcome{o}
	} else if outcomes, err = svc.RunAll(ctx); err != nil {
		return err
	}

	for i, o := range outcomes {
		if i > 0 {
			fmt.Fprintln(a.Out)
		}
		a.printOutcome(o)
	}
	return nil
}

func (a *App) printOutcome(o service.Outcome) {
	fmt.Fprintf(a.Out, "== %s ==\n", o.Instrument.TabLabel())
	if o.Status != service.StatusOK {
		fmt.Fprintf(a.Out, "%s: %s\n", o.Status, sanitizeInline(o.Message))
		return
	}
	fmt.Fprintf(a.Out, "%s Futures Yield: %s\n", o.Instrument.Name, o.Result.TitleRange)

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Session\tDate\tFirst\tLast\tOpen\tClose\tΔ Yield\tLow\tHigh\tPoints")
	for _, s := range session.Summarize(o.Result.Points) {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			sanitizeInline(s.Label),
			s.SessionDate.Format(time.DateOnly),
			s.First.Format("01-02 15:04"),
			s.Last.Format("01-02 15:04"),
			formatDecimal(s.OpenPrice, 5),
			formatDecimal(s.LastPrice, 5),
			formatDecimal(s.Change, 5),
			formatDecimal(s.Low, 5),
			formatDecimal(s.High, 5),
			s.Points,
		)
	}

	avg := o.Result.Average
	if len(avg) > 0 {
		final := avg[len(avg)-1]
		fmt.Fprintf(writer, "Average\t\t\t\t\t\t%s\t\t\t%d\n", formatDecimal(final.Yield, 5), len(avg))
	}
	writer.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
