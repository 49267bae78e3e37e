// Package price converts quoted futures prices into decimals.
package price

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var (
	fractionalPattern = regexp.MustCompile(`^(\d+)-(\d+)`)

	thirtyTwo = decimal.NewFromInt(32)
	hundred   = decimal.NewFromInt(100)
)

// Parse converts a raw cell value into a price.
//
// Strings in 32nds notation ("W-F") evaluate to W + (F/32)/100. Before
// matching, en dashes become hyphens and every "+" is replaced by the digit
// "4" in place, so "100-04+" is read as "100-044". Characters after the
// leading W-F digits are ignored. Other strings are parsed as plain
// decimals, and numeric values convert directly. The boolean is false when
// no price can be derived.
func Parse(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Decimal{}, false
	case string:
		return ParseString(x)
	case decimal.Decimal:
		return x, true
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(f), true
}

// ParseString is Parse restricted to text input.
func ParseString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "–", "-")
	s = strings.ReplaceAll(s, "+", "4")

	if m := fractionalPattern.FindStringSubmatch(s); m != nil {
		whole, err := decimal.NewFromString(m[1])
		if err != nil {
			return decimal.Decimal{}, false
		}
		frac, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return whole.Add(decimal.NewFromInt(frac).Div(thirtyTwo).Div(hundred)), true
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
