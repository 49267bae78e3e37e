package session

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func obs(ts, px string) Observation {
	return Observation{Time: at(ts), Price: decimal.RequireFromString(px)}
}

func TestSegmentDropsGap(t *testing.T) {
	points := Segment([]Observation{
		obs("2025-09-18 15:55", "1"),
		obs("2025-09-18 16:00", "1"),
		obs("2025-09-18 17:59", "1"),
		obs("2025-09-18 18:00", "1"),
	}, DefaultWindow)

	require.Len(t, points, 2)
	for _, p := range points {
		h := p.Time.Hour()
		assert.False(t, h >= 16 && h < 18, "hour %d must be excluded", h)
	}
}

func TestSegmentSessionDateAndOffset(t *testing.T) {
	tests := []struct {
		ts      string
		date    string
		minutes float64
	}{
		{"2025-09-17 18:00", "2025-09-17", 0},
		{"2025-09-17 23:55", "2025-09-17", 355},
		{"2025-09-18 00:00", "2025-09-17", 360},
		{"2025-09-18 09:30", "2025-09-17", 930},
		{"2025-09-18 15:55", "2025-09-17", 1315},
		{"2025-09-18 18:05", "2025-09-18", 5},
	}

	for _, tt := range tests {
		t.Run(tt.ts, func(t *testing.T) {
			points := Segment([]Observation{obs(tt.ts, "100")}, DefaultWindow)
			require.Len(t, points, 1)
			assert.Equal(t, tt.date, points[0].SessionDate.Format(time.DateOnly))
			assert.Equal(t, tt.date, points[0].Session)
			assert.Equal(t, tt.minutes, points[0].MinutesSinceOpen())
			assert.GreaterOrEqual(t, points[0].MinutesSinceOpen(), 0.0)
			assert.LessOrEqual(t, points[0].MinutesSinceOpen(), 1320.0)
		})
	}
}

func TestSegmentUsesExplicitLabel(t *testing.T) {
	o := obs("1970-01-01 18:00", "0")
	o.Label = "Avg of week"

	points := Segment([]Observation{o}, DefaultWindow)
	require.Len(t, points, 1)
	assert.Equal(t, "Avg of week", points[0].Session)
	assert.Equal(t, "Avg of week", points[0].Label)
}

func TestSegmentLabelsByDay(t *testing.T) {
	points := Segment([]Observation{obs("2025-09-18 02:00", "1")}, DefaultWindow)
	require.Len(t, points, 1)
	assert.Equal(t, "Sep 17", points[0].Label)
}

func TestNormalizeRebasesAtOpen(t *testing.T) {
	points := Segment([]Observation{
		obs("2025-09-17 18:00", "100.00125"),
		obs("2025-09-17 18:05", "100.0025"),
		obs("2025-09-18 18:00", "101"),
		obs("2025-09-18 19:00", "100.5"),
	}, DefaultWindow)

	norm := Normalize(points)
	require.Len(t, norm, 4)
	assert.True(t, norm[0].Yield.IsZero())
	assert.True(t, decimal.RequireFromString("0.00125").Equal(norm[1].Yield))
	assert.True(t, norm[2].Yield.IsZero())
	assert.True(t, decimal.RequireFromString("-0.5").Equal(norm[3].Yield))

	// input rows are untouched
	assert.True(t, points[1].Yield.IsZero())
}

func TestNormalizeFallsBackToFirstRow(t *testing.T) {
	points := Segment([]Observation{
		obs("2025-09-17 18:10", "100.5"),
		obs("2025-09-17 18:05", "100"),
		obs("2025-09-17 18:15", "101"),
	}, DefaultWindow)

	norm := Normalize(points)
	assert.True(t, decimal.RequireFromString("0.5").Equal(norm[0].Yield))
	assert.True(t, norm[1].Yield.IsZero())
	assert.True(t, decimal.NewFromInt(1).Equal(norm[2].Yield))
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
	assert.Empty(t, Average(nil))
}

func TestAverageOnlySessionsPresent(t *testing.T) {
	points := Normalize(Segment([]Observation{
		obs("2025-09-16 18:00", "100"),
		obs("2025-09-16 18:05", "100.3"),
		obs("2025-09-16 18:10", "100.6"),
		obs("2025-09-17 18:00", "100"),
		obs("2025-09-17 18:05", "100.1"),
		obs("2025-09-18 18:00", "100"),
		obs("2025-09-18 18:10", "99.9"),
	}, DefaultWindow))

	avg := Average(points)
	require.Len(t, avg, 3)

	assert.Equal(t, 0.0, avg[0].MinutesSinceOpen())
	assert.True(t, avg[0].Yield.IsZero())
	assert.Equal(t, 3, avg[0].Sessions)

	assert.Equal(t, 5.0, avg[1].MinutesSinceOpen())
	assert.True(t, decimal.RequireFromString("0.2").Equal(avg[1].Yield), "got %s", avg[1].Yield)
	assert.Equal(t, 2, avg[1].Sessions)

	assert.Equal(t, 10.0, avg[2].MinutesSinceOpen())
	assert.True(t, decimal.RequireFromString("0.25").Equal(avg[2].Yield), "got %s", avg[2].Yield)
}

func TestAverageSortedByOffset(t *testing.T) {
	points := Normalize(Segment([]Observation{
		obs("2025-09-18 03:00", "1"),
		obs("2025-09-17 18:00", "1"),
		obs("2025-09-17 20:00", "1"),
	}, DefaultWindow))

	avg := Average(points)
	require.Len(t, avg, 3)
	for i := 1; i < len(avg); i++ {
		assert.Less(t, avg[i-1].Offset, avg[i].Offset)
	}
}

func TestSummarize(t *testing.T) {
	points := Normalize(Segment([]Observation{
		obs("2025-09-17 18:00", "100"),
		obs("2025-09-17 22:00", "99.5"),
		obs("2025-09-18 15:55", "100.25"),
	}, DefaultWindow))

	sums := Summarize(points)
	require.Len(t, sums, 1)
	s := sums[0]
	assert.Equal(t, "Sep 17", s.Label)
	assert.Equal(t, 3, s.Points)
	assert.True(t, decimal.RequireFromString("0.25").Equal(s.Change))
	assert.True(t, decimal.RequireFromString("-0.5").Equal(s.Low))
	assert.True(t, decimal.RequireFromString("0.25").Equal(s.High))
	assert.Equal(t, at("2025-09-18 15:55"), s.Last)
}

func TestWindowLength(t *testing.T) {
	assert.Equal(t, 22*time.Hour, DefaultWindow.Length())
}

func TestSegmentOffsetsAcrossDSTChange(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	local := func(s string) time.Time {
		ts, err := time.ParseInLocation("2006-01-02 15:04", s, ny)
		require.NoError(t, err)
		return ts
	}

	tests := []struct {
		name  string
		open  string
		close string
	}{
		{name: "fall back", open: "2025-11-01 18:00", close: "2025-11-02 15:55"},
		{name: "spring forward", open: "2025-03-08 18:00", close: "2025-03-09 15:55"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := Segment([]Observation{
				{Time: local(tt.open), Price: decimal.NewFromInt(100)},
				{Time: local(tt.close), Price: decimal.NewFromInt(101)},
			}, DefaultWindow)

			require.Len(t, points, 2)
			assert.Equal(t, points[0].Session, points[1].Session)
			assert.Equal(t, 0.0, points[0].MinutesSinceOpen())
			assert.Equal(t, 1315.0, points[1].MinutesSinceOpen())
		})
	}
}
