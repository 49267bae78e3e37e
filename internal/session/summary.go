package session

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary describes one normalized session.
type Summary struct {
	Session     string
	Label       string
	SessionDate time.Time
	First       time.Time
	Last        time.Time
	OpenPrice   decimal.Decimal
	LastPrice   decimal.Decimal
	Change      decimal.Decimal
	Low         decimal.Decimal
	High        decimal.Decimal
	Points      int
}

// Summarize reports open, last and range of every session in key order.
func Summarize(points []Point) []Summary {
	groups := BySession(points)
	out := make([]Summary, 0, len(groups.Keys))
	for _, k := range groups.Keys {
		rows := groups.Rows[k]
		anchor, _ := Anchor(rows)

		s := Summary{
			Session:     k,
			Label:       anchor.Label,
			SessionDate: anchor.SessionDate,
			First:       rows[0].Time,
			Last:        rows[0].Time,
			OpenPrice:   anchor.Price,
			LastPrice:   rows[0].Price,
			Change:      rows[0].Yield,
			Low:         rows[0].Yield,
			High:        rows[0].Yield,
			Points:      len(rows),
		}
		for _, r := range rows[1:] {
			if r.Time.Before(s.First) {
				s.First = r.Time
			}
			if !r.Time.Before(s.Last) {
				s.Last = r.Time
				s.LastPrice = r.Price
				s.Change = r.Yield
			}
			s.Low = decimal.Min(s.Low, r.Yield)
			s.High = decimal.Max(s.High, r.Yield)
		}
		out = append(out, s)
	}
	return out
}
