package report

import (
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"sessionchart/internal/pipeline"
	"sessionchart/internal/session"
)

// ChartOptions size the rendered chart and place its time axis.
type ChartOptions struct {
	Width  int
	Height int
	Window session.Window
}

// tickEvery spaces the time axis labels.
const tickEvery = 120

// RenderChart draws one solid line per session and a dashed black average
// line, with minutes since the session open on the X axis.
func RenderChart(w io.Writer, title string, res *pipeline.Result, opts ChartOptions) error {
	if res == nil || len(res.Points) == 0 {
		return fmt.Errorf("no points to chart")
	}
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 500
	}

	groups := res.Sessions()
	series := make([]chart.Series, 0, len(groups.Keys)+1)
	lo, hi := math.Inf(1), math.Inf(-1)

	for i, key := range groups.Keys {
		rows := groups.Rows[key]
		xs := make([]float64, len(rows))
		ys := make([]float64, len(rows))
		for j, p := range rows {
			xs[j] = p.MinutesSinceOpen()
			ys[j] = p.Yield.InexactFloat64()
			lo, hi = math.Min(lo, ys[j]), math.Max(hi, ys[j])
		}
		series = append(series, chart.ContinuousSeries{
			Name:    rows[0].Label,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: chart.GetDefaultColor(i),
				StrokeWidth: 1.5,
			},
		})
	}

	if len(res.Average) > 0 {
		xs := make([]float64, len(res.Average))
		ys := make([]float64, len(res.Average))
		for j, a := range res.Average {
			xs[j] = a.MinutesSinceOpen()
			ys[j] = a.Yield.InexactFloat64()
		}
		series = append(series, chart.ContinuousSeries{
			Name:    "Average",
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor:     drawing.ColorBlack,
				StrokeWidth:     2,
				StrokeDashArray: []float64{5, 5},
			},
		})
	}

	lo, hi = padRange(lo, hi)
	span := opts.Window.Length().Minutes()

	graph := chart.Chart{
		Title:  title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  fmt.Sprintf("Minutes Since %s (%s → %s)", clockLabel(opts.Window, 0), clockLabel(opts.Window, 0), clockLabel(opts.Window, span)),
			Range: &chart.ContinuousRange{Min: 0, Max: span},
			Ticks: timeTicks(opts.Window, span),
		},
		YAxis: chart.YAxis{
			Name:  fmt.Sprintf("Δ Yield (from %s Open)", clockLabel(opts.Window, 0)),
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.4f")
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

func padRange(lo, hi float64) (float64, float64) {
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return -0.01, 0.01
	}
	if hi-lo < 1e-9 {
		return lo - 0.01, hi + 0.01
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

func timeTicks(w session.Window, span float64) []chart.Tick {
	var ticks []chart.Tick
	for m := 0.0; m <= span; m += tickEvery {
		ticks = append(ticks, chart.Tick{Value: m, Label: clockLabel(w, m)})
	}
	return ticks
}

// clockLabel renders the wall clock time minutes after the session open,
// e.g. "6 PM" or "7:30 AM".
func clockLabel(w session.Window, minutes float64) string {
	total := (w.OpenHour*60 + int(minutes)) % (24 * 60)
	h, m := total/60, total%60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	if m == 0 {
		return fmt.Sprintf("%d %s", h12, suffix)
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, suffix)
}
