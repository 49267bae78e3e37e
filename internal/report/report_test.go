package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionchart/internal/config"
	"sessionchart/internal/pipeline"
	"sessionchart/internal/service"
	"sessionchart/internal/session"
)

func sampleResult(t *testing.T) *pipeline.Result {
	t.Helper()
	at := func(s string) time.Time {
		ts, err := time.Parse("2006-01-02 15:04", s)
		require.NoError(t, err)
		return ts
	}
	obs := []session.Observation{
		{Time: at("2025-09-17 18:00"), Price: decimal.RequireFromString("100")},
		{Time: at("2025-09-18 09:00"), Price: decimal.RequireFromString("100.00125")},
		{Time: at("2025-09-18 18:00"), Price: decimal.RequireFromString("100")},
		{Time: at("2025-09-19 09:00"), Price: decimal.RequireFromString("99.995")},
	}
	points := session.Normalize(session.Segment(obs, session.DefaultWindow))
	return &pipeline.Result{
		Instrument: "TUZ5",
		Points:     points,
		Average:    session.Average(points),
		TitleRange: pipeline.TitleRange(points),
	}
}

func TestRenderChartPNG(t *testing.T) {
	var buf bytes.Buffer
	err := RenderChart(&buf, "TUZ5 Session (6 PM → 4 PM)", sampleResult(t), ChartOptions{Width: 640, Height: 320, Window: session.DefaultWindow})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestRenderChartFlatSeries(t *testing.T) {
	res := sampleResult(t)
	for i := range res.Points {
		res.Points[i].Yield = decimal.Zero
	}
	res.Average = session.Average(res.Points)

	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, "flat", res, ChartOptions{Window: session.DefaultWindow}))
}

func TestRenderChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, RenderChart(&buf, "empty", &pipeline.Result{}, ChartOptions{}))
}

func TestWriteSessionsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSessionsCSV(&buf, sampleResult(t)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"session", "label", "session_date", "timestamp", "minutes_since_open", "price", "yield"}, records[0])
	assert.Equal(t, []string{"2025-09-17", "Sep 17", "2025-09-17", "2025-09-18 09:00:00", "900", "100.00125", "0.00125"}, records[2])
}

func TestWriteAverageCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAverageCSV(&buf, sampleResult(t)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"0", "0.00000000", "2"}, records[1])
	assert.Equal(t, []string{"900", "-0.00187500", "2"}, records[2])
}

func TestNewSeriesView(t *testing.T) {
	view := NewSeriesView(sampleResult(t))
	require.Len(t, view.Sessions, 2)
	assert.Equal(t, "Sep 18", view.Sessions[1].Label)
	assert.Equal(t, "2025-09-18", view.Sessions[1].SessionDate)
	require.Len(t, view.Average, 2)
	assert.InDelta(t, -0.001875, view.Average[1].Yield, 1e-12)
	assert.Equal(t, "Sep 17 – Sep 18, 2025", view.TitleRange)
}

func TestNewPageValidation(t *testing.T) {
	_, err := NewPage(PageConfig{Tabs: []TabConfig{{Instrument: "TUZ5"}}})
	assert.Error(t, err)

	_, err = NewPage(PageConfig{Title: "x"})
	assert.Error(t, err)

	_, err = NewPage(PageConfig{Title: "x", Layout: "sidebar", Tabs: []TabConfig{{Instrument: "TUZ5"}}})
	assert.Error(t, err)

	p, err := NewPage(PageConfig{Title: "x", Tabs: []TabConfig{{Instrument: "TUZ5"}}})
	require.NoError(t, err)
	assert.Equal(t, LayoutWide, p.Config().Layout)
}

func TestPageRender(t *testing.T) {
	page, err := NewPage(PageConfig{
		Title:  "US Treasury Futures Yield Model",
		Layout: LayoutCentered,
		Tabs: []TabConfig{
			{Label: "2Y – TUZ5", Instrument: "TUZ5"},
			{Label: "5Y – FVZ5", Instrument: "FVZ5"},
			{Label: "10Y – TYZ5", Instrument: "TYZ5"},
		},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = page.Render(&buf, []Tab{
		{TabConfig: TabConfig{Instrument: "TUZ5"}, Status: "ok", Headline: "TUZ5 Futures Yield: Sep 17 – Sep 18, 2025", ChartURL: "TUZ5.png"},
		{TabConfig: TabConfig{Instrument: "FVZ5"}, Status: "warning", Message: "Missing `fvz5.csv` in the folder."},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "TUZ5 Futures Yield: Sep 17 – Sep 18, 2025")
	assert.Contains(t, html, `src="TUZ5.png"`)
	assert.Contains(t, html, "Missing `fvz5.csv` in the folder.")
	assert.Contains(t, html, "No data for TYZ5.")
	assert.Contains(t, html, "10Y – TYZ5")
	assert.Contains(t, html, `class="centered"`)
	assert.Equal(t, 1, strings.Count(html, " checked>"))
}

func TestClockLabel(t *testing.T) {
	w := session.DefaultWindow
	assert.Equal(t, "6 PM", clockLabel(w, 0))
	assert.Equal(t, "12 AM", clockLabel(w, 360))
	assert.Equal(t, "9:30 AM", clockLabel(w, 930))
	assert.Equal(t, "4 PM", clockLabel(w, 1320))
}

func TestNewTab(t *testing.T) {
	inst := config.InstrumentConfig{Name: "TUZ5", Label: "2Y – TUZ5", Source: "tuz5.csv"}

	tab := NewTab(service.Outcome{Instrument: inst, Result: sampleResult(t), Status: service.StatusOK}, session.DefaultWindow, "TUZ5.png")
	assert.True(t, tab.OK())
	assert.Equal(t, "2Y – TUZ5", tab.Label)
	assert.Equal(t, "TUZ5 Futures Yield: Sep 17 – Sep 18, 2025", tab.Headline)
	assert.Equal(t, "TUZ5 Session (6 PM → 4 PM)", tab.ChartTitle)
	assert.Equal(t, "Each line = daily session (6 PM → 4 PM), rebased to 0 at open. Dashed = average.", tab.Caption)
	assert.Equal(t, 2, tab.Sessions)
	assert.Equal(t, 4, tab.Points)

	missing := NewTab(service.Outcome{
		Instrument: inst,
		Status:     service.StatusWarning,
		Message:    "Missing `tuz5.csv` in the folder.",
	}, session.DefaultWindow, "TUZ5.png")
	assert.False(t, missing.OK())
	assert.Empty(t, missing.ChartURL)
	assert.Equal(t, "Missing `tuz5.csv` in the folder.", missing.Message)
}
