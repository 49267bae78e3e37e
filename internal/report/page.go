// Package report renders processed sessions as charts, CSV files and a
// tabbed HTML page.
package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed page.html.tmpl
var pageTemplate string

// Layout modes for the page body.
const (
	LayoutWide     = "wide"
	LayoutCentered = "centered"
)

// SessionCaption and ClosingCaption accompany every rendered chart.
const (
	SessionCaption = "Each line = daily session (%s → %s), rebased to 0 at open. Dashed = average."
	ClosingCaption = "Each day begins at %s = 0 and ends at %s with its total Δ Yield. " +
		"All 5-minute data points preserved. Dashed black line shows average session performance."
)

// TabConfig defines one tab of the page.
type TabConfig struct {
	Label      string
	Instrument string
}

// PageConfig is the explicit page setup.
type PageConfig struct {
	Title   string
	Caption string
	Layout  string
	Tabs    []TabConfig
}

// Tab is the rendered state of one instrument.
type Tab struct {
	TabConfig
	Status     string
	Message    string
	Headline   string
	ChartTitle string
	ChartURL   string
	Caption    string
	Closing    string
	Sessions   int
	Points     int
}

// OK reports whether the tab has a chart.
func (t Tab) OK() bool {
	return t.Status == "ok"
}

// Page renders the dashboard for a fixed set of tabs.
type Page struct {
	cfg  PageConfig
	tmpl *template.Template
}

// NewPage validates the page configuration and prepares the template.
func NewPage(cfg PageConfig) (*Page, error) {
	if strings.TrimSpace(cfg.Title) == "" {
		return nil, fmt.Errorf("page title is required")
	}
	if len(cfg.Tabs) == 0 {
		return nil, fmt.Errorf("page needs at least one tab")
	}
	switch cfg.Layout {
	case "":
		cfg.Layout = LayoutWide
	case LayoutWide, LayoutCentered:
	default:
		return nil, fmt.Errorf("unknown page layout %q", cfg.Layout)
	}

	tmpl, err := template.New("page").Funcs(template.FuncMap{
		"tabID": tabID,
	}).Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Page{cfg: cfg, tmpl: tmpl}, nil
}

// Config returns the page configuration.
func (p *Page) Config() PageConfig {
	return p.cfg
}

// Render writes the page. tabs must follow the configured tab order; tabs
// missing from the slice render as empty warnings.
func (p *Page) Render(w io.Writer, tabs []Tab) error {
	byName := make(map[string]Tab, len(tabs))
	for _, t := range tabs {
		byName[t.Instrument] = t
	}

	ordered := make([]Tab, 0, len(p.cfg.Tabs))
	for _, tc := range p.cfg.Tabs {
		t, ok := byName[tc.Instrument]
		if !ok {
			t = Tab{Status: "warning", Message: fmt.Sprintf("No data for %s.", tc.Instrument)}
		}
		t.TabConfig = tc
		ordered = append(ordered, t)
	}

	return p.tmpl.Execute(w, struct {
		PageConfig
		Tabs []Tab
	}{PageConfig: p.cfg, Tabs: ordered})
}

func tabID(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	return "tab-" + b.String()
}
