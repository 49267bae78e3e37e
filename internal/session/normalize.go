package session

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Groups is a grouped view over points: Keys in first-appearance order and
// the rows of every key in input order.
type Groups[K comparable] struct {
	Keys []K
	Rows map[K][]Point
}

// GroupBy splits points by key without modifying them.
func GroupBy[K comparable](points []Point, key func(Point) K) Groups[K] {
	g := Groups[K]{Rows: make(map[K][]Point)}
	for _, p := range points {
		k := key(p)
		if _, seen := g.Rows[k]; !seen {
			g.Keys = append(g.Keys, k)
		}
		g.Rows[k] = append(g.Rows[k], p)
	}
	return g
}

// BySession groups points by their session key.
func BySession(points []Point) Groups[string] {
	return GroupBy(points, func(p Point) string { return p.Session })
}

// Anchor returns the opening row of a session: the row at offset zero when
// one exists, otherwise the chronologically first row.
func Anchor(rows []Point) (Point, bool) {
	if len(rows) == 0 {
		return Point{}, false
	}
	first := rows[0]
	for _, r := range rows {
		if r.Offset == 0 {
			return r, true
		}
		if r.Time.Before(first.Time) {
			first = r
		}
	}
	return first, true
}

// Normalize rebases every session so its anchor has Yield zero. The result
// is a new slice in input order.
func Normalize(points []Point) []Point {
	groups := BySession(points)
	base := make(map[string]decimal.Decimal, len(groups.Keys))
	for _, k := range groups.Keys {
		anchor, _ := Anchor(groups.Rows[k])
		base[k] = anchor.Price
	}

	out := make([]Point, len(points))
	for i, p := range points {
		p.Yield = p.Price.Sub(base[p.Session])
		out[i] = p
	}
	return out
}

// Average reduces normalized points to one row per distinct offset holding
// the unweighted mean Yield of the sessions that have a row at that offset,
// sorted by offset. A session with several rows at one offset contributes
// each of them.
func Average(points []Point) []AveragePoint {
	groups := GroupBy(points, func(p Point) time.Duration { return p.Offset })

	out := make([]AveragePoint, 0, len(groups.Keys))
	for _, off := range groups.Keys {
		rows := groups.Rows[off]
		sum := decimal.Zero
		for _, r := range rows {
			sum = sum.Add(r.Yield)
		}
		out = append(out, AveragePoint{
			Offset:   off,
			Yield:    sum.Div(decimal.NewFromInt(int64(len(rows)))),
			Sessions: len(rows),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}
