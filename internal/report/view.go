package report

import (
	"time"

	"sessionchart/internal/pipeline"
)

// Point is one chart point as exposed to dashboard clients.
type Point struct {
	Minutes float64 `json:"minutes_since_open"`
	Yield   float64 `json:"yield"`
}

// SessionSeries is one day's rebased curve.
type SessionSeries struct {
	Key         string  `json:"key"`
	Label       string  `json:"label"`
	SessionDate string  `json:"session_date"`
	Points      []Point `json:"points"`
}

// SeriesView is the chart-ready form of a pipeline result.
type SeriesView struct {
	Instrument string          `json:"instrument"`
	TitleRange string          `json:"title_range"`
	Sessions   []SessionSeries `json:"sessions"`
	Average    []Point         `json:"average"`
}

// NewSeriesView converts a result for JSON clients.
func NewSeriesView(res *pipeline.Result) SeriesView {
	groups := res.Sessions()
	view := SeriesView{
		Instrument: res.Instrument,
		TitleRange: res.TitleRange,
		Sessions:   make([]SessionSeries, 0, len(groups.Keys)),
		Average:    make([]Point, 0, len(res.Average)),
	}

	for _, k := range groups.Keys {
		rows := groups.Rows[k]
		s := SessionSeries{
			Key:         k,
			Label:       rows[0].Label,
			SessionDate: rows[0].SessionDate.Format(time.DateOnly),
			Points:      make([]Point, len(rows)),
		}
		for i, p := range rows {
			s.Points[i] = Point{Minutes: p.MinutesSinceOpen(), Yield: p.Yield.InexactFloat64()}
		}
		view.Sessions = append(view.Sessions, s)
	}

	for _, a := range res.Average {
		view.Average = append(view.Average, Point{Minutes: a.MinutesSinceOpen(), Yield: a.Yield.InexactFloat64()})
	}
	return view
}
