// Package pipeline turns loaded price tables into rebased session curves.
package pipeline

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sessionchart/internal/apperr"
	"sessionchart/internal/price"
	"sessionchart/internal/session"
	"sessionchart/internal/table"
)

// Source kinds.
const (
	KindCSV   = "csv"
	KindSheet = "xlsx"
)

// DefaultTitleRange is used when no session carries a calendar date.
const DefaultTitleRange = "Futures Session Range"

// Source identifies one instrument's raw data.
type Source struct {
	Name string
	Path string
	Kind string
}

// ResolvedKind returns Kind, or a kind inferred from the file extension.
func (s Source) ResolvedKind() string {
	if s.Kind != "" {
		return strings.ToLower(s.Kind)
	}
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return KindSheet
	default:
		return KindCSV
	}
}

// Options configure both pipeline variants.
type Options struct {
	Window      session.Window
	Location    *time.Location
	Schema      Schema
	Encodings   []string
	SheetNames  []string
	TimeColumn  string
	AvgColumns  []string
	DefaultYear int
}

// DefaultOptions mirror the layout of the exported intraday files.
func DefaultOptions() Options {
	return Options{
		Window:      session.DefaultWindow,
		Location:    time.UTC,
		Schema:      DefaultSchema(),
		Encodings:   table.DefaultEncodings,
		SheetNames:  table.DefaultSheetNames,
		TimeColumn:  "Time/Day",
		AvgColumns:  []string{"Avg", "Average"},
		DefaultYear: time.Now().Year(),
	}
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// Stats counts rows at each stage.
type Stats struct {
	Rows        int
	BadTime     int
	BadPrice    int
	OutOfWindow int
	Sessions    int
}

// Result is the processed output for one instrument.
type Result struct {
	Instrument string
	Points     []session.Point
	Average    []session.AveragePoint
	TitleRange string
	Stats      Stats
}

// Sessions returns the normalized points grouped by session.
func (r *Result) Sessions() session.Groups[string] {
	return session.BySession(r.Points)
}

// Run loads a source and processes it with the variant matching its kind.
func Run(src Source, opts Options) (*Result, error) {
	switch src.ResolvedKind() {
	case KindSheet:
		tbl, _, err := table.LoadSheet(src.Path, opts.SheetNames)
		if err != nil {
			return nil, err
		}
		return FromSheet(src.Name, tbl, opts)
	case KindCSV:
		tbl, err := table.LoadCSV(src.Path, opts.Encodings)
		if err != nil {
			return nil, err
		}
		return FromTable(src.Name, tbl, opts)
	default:
		return nil, apperr.Newf(apperr.KindUnreadableFormat, "%s: unsupported source kind %q", src.Name, src.Kind)
	}
}

// FromTable processes a long table with one timestamp and one price column.
func FromTable(name string, tbl *table.Table, opts Options) (*Result, error) {
	schema := opts.Schema
	if len(schema) == 0 {
		schema = DefaultSchema()
	}
	cols, err := schema.Resolve(tbl.Columns)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	tsIdx, pxIdx := cols[FieldTimestamp], cols[FieldPrice]

	stats := Stats{Rows: tbl.Len()}
	observations := make([]session.Observation, 0, tbl.Len())
	for _, row := range tbl.Rows {
		ts, ok := ParseTimestamp(row[tsIdx].Text, opts.location())
		if !ok {
			stats.BadTime++
			continue
		}
		px, ok := price.Parse(row[pxIdx].Value())
		if !ok {
			stats.BadPrice++
			continue
		}
		observations = append(observations, session.Observation{Time: ts, Price: px})
	}

	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].Time.Before(observations[j].Time)
	})

	return finish(name, observations, stats, opts)
}

// FromSheet processes a wide table: one time-of-day column and one column
// per trading day. Average columns are skipped; the average is recomputed
// from the day columns.
func FromSheet(name string, tbl *table.Table, opts Options) (*Result, error) {
	timeCol := opts.TimeColumn
	if timeCol == "" {
		timeCol = "Time/Day"
	}
	tIdx := tbl.Index(Equals(timeCol).Match)
	if tIdx < 0 {
		return nil, apperr.Newf(apperr.KindMissingRequiredColumn,
			"%s: expected a %q column (found %q)", name, timeCol, tbl.Columns).With("field", FieldTimestamp)
	}

	loc := opts.location()
	dummy := time.Date(1970, time.January, 1, 0, 0, 0, 0, loc)

	stats := Stats{}
	var observations []session.Observation
	for c, label := range tbl.Columns {
		if c == tIdx || strings.TrimSpace(label) == "" || isAverageLabel(label, opts.AvgColumns) {
			continue
		}

		base, dated := ParseDayLabel(label, opts.DefaultYear, loc)
		sessionLabel := ""
		if !dated {
			base = dummy
			sessionLabel = shortLabel(label, opts.DefaultYear)
		}

		for _, row := range tbl.Rows {
			stats.Rows++
			clock, ok := ParseClock(row[tIdx].Text)
			if !ok {
				stats.BadTime++
				continue
			}
			px, ok := price.Parse(row[c].Value())
			if !ok {
				stats.BadPrice++
				continue
			}

			ts := onDate(base, clock, loc)
			if ts.Hour() < opts.Window.OpenHour {
				ts = ts.AddDate(0, 0, 1)
			}
			observations = append(observations, session.Observation{Time: ts, Price: px, Label: sessionLabel})
		}
	}

	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].Time.Before(observations[j].Time)
	})

	return finish(name, observations, stats, opts)
}

// onDate sets the wall clock time of day on date. Adding the duration to
// midnight would drift by an hour on DST change days.
func onDate(date time.Time, clock time.Duration, loc *time.Location) time.Time {
	h := int(clock / time.Hour)
	m := int(clock % time.Hour / time.Minute)
	sec := int(clock % time.Minute / time.Second)
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, sec, 0, loc)
}

func finish(name string, observations []session.Observation, stats Stats, opts Options) (*Result, error) {
	segmented := session.Segment(observations, opts.Window)
	stats.OutOfWindow = len(observations) - len(segmented)
	if len(segmented) == 0 {
		return nil, apperr.Newf(apperr.KindNoValidRows,
			"%s: no rows left after parsing (rows=%d bad_time=%d bad_price=%d out_of_window=%d)",
			name, stats.Rows, stats.BadTime, stats.BadPrice, stats.OutOfWindow)
	}

	points := session.Normalize(segmented)
	stats.Sessions = len(session.BySession(points).Keys)

	return &Result{
		Instrument: name,
		Points:     points,
		Average:    session.Average(points),
		TitleRange: TitleRange(points),
		Stats:      stats,
	}, nil
}

// TitleRange formats the span of dated sessions as "Sep 17 – Sep 19, 2025".
func TitleRange(points []session.Point) string {
	var first, last time.Time
	for _, p := range points {
		if p.Session != p.SessionDate.Format(time.DateOnly) {
			continue
		}
		if first.IsZero() || p.SessionDate.Before(first) {
			first = p.SessionDate
		}
		if last.IsZero() || p.SessionDate.After(last) {
			last = p.SessionDate
		}
	}
	if first.IsZero() {
		return DefaultTitleRange
	}
	return fmt.Sprintf("%s – %s", first.Format("Jan 02"), last.Format("Jan 02, 2006"))
}

func isAverageLabel(label string, avg []string) bool {
	if len(avg) == 0 {
		avg = []string{"Avg", "Average"}
	}
	for _, a := range avg {
		if strings.EqualFold(strings.TrimSpace(label), a) {
			return true
		}
	}
	return false
}

// shortLabel drops the year and a midnight time from a column header.
func shortLabel(label string, year int) string {
	y := fmt.Sprint(year)
	r := strings.NewReplacer(y+"-", "", "-"+y, "", "00:00:00", "")
	return strings.TrimSpace(r.Replace(label))
}
