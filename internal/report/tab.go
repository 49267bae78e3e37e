package report

import (
	"fmt"

	"sessionchart/internal/service"
	"sessionchart/internal/session"
)

// ChartTitle names the chart of one instrument, e.g. "TUZ5 Session (6 PM → 4 PM)".
func ChartTitle(instrument string, w session.Window) string {
	return fmt.Sprintf("%s Session (%s → %s)", instrument, clockLabel(w, 0), clockLabel(w, w.Length().Minutes()))
}

// NewTab turns a service outcome into page state. chartURL is where the
// rendered PNG will be reachable from the page.
func NewTab(o service.Outcome, w session.Window, chartURL string) Tab {
	tab := Tab{
		TabConfig: TabConfig{Label: o.Instrument.TabLabel(), Instrument: o.Instrument.Name},
		Status:    string(o.Status),
		Message:   o.Message,
	}
	if o.Status != service.StatusOK || o.Result == nil {
		return tab
	}

	open, closing := clockLabel(w, 0), clockLabel(w, w.Length().Minutes())
	tab.Headline = fmt.Sprintf("%s Futures Yield: %s", o.Instrument.Name, o.Result.TitleRange)
	tab.ChartTitle = ChartTitle(o.Instrument.Name, w)
	tab.ChartURL = chartURL
	tab.Caption = fmt.Sprintf(SessionCaption, open, closing)
	tab.Closing = fmt.Sprintf(ClosingCaption, open, closing)
	tab.Sessions = len(o.Result.Sessions().Keys)
	tab.Points = len(o.Result.Points)
	return tab
}
