package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"sessionchart/internal/apperr"
)

// Matcher decides whether a column header satisfies a field.
type Matcher struct {
	Desc  string
	Match func(header string) bool
}

// Contains matches headers containing sub, ignoring case.
func Contains(sub string) Matcher {
	lower := strings.ToLower(sub)
	return Matcher{
		Desc:  fmt.Sprintf("contains %q", sub),
		Match: func(h string) bool { return strings.Contains(strings.ToLower(h), lower) },
	}
}

// Equals matches headers equal to name, ignoring case and surrounding space.
func Equals(name string) Matcher {
	return Matcher{
		Desc:  fmt.Sprintf("equals %q", name),
		Match: func(h string) bool { return strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) },
	}
}

// Pattern matches headers against a case-insensitive regular expression.
func Pattern(expr string) (Matcher, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return Matcher{}, fmt.Errorf("compile column pattern %q: %w", expr, err)
	}
	return Matcher{
		Desc:  fmt.Sprintf("matches /%s/", expr),
		Match: re.MatchString,
	}, nil
}

// ParseMatcher builds a Matcher from its textual form: "equals:NAME",
// "regex:EXPR", "contains:SUB" or a bare substring.
func ParseMatcher(text string) (Matcher, error) {
	kind, value, found := strings.Cut(text, ":")
	if !found {
		return Contains(text), nil
	}
	switch strings.ToLower(kind) {
	case "contains":
		return Contains(value), nil
	case "equals":
		return Equals(value), nil
	case "regex":
		return Pattern(value)
	default:
		return Contains(text), nil
	}
}

// Field is a required logical column and its candidate matchers in
// priority order.
type Field struct {
	Name       string
	Candidates []Matcher
}

// Schema maps logical fields onto physical columns.
type Schema []Field

// Field names used by the pipelines.
const (
	FieldTimestamp = "timestamp"
	FieldPrice     = "price"
)

// DefaultSchema matches the export layout of the intraday CSV files.
func DefaultSchema() Schema {
	return Schema{
		{Name: FieldTimestamp, Candidates: []Matcher{Contains("date")}},
		{Name: FieldPrice, Candidates: []Matcher{Contains("lst")}},
	}
}

// NewSchema builds a timestamp/price schema from textual matchers.
func NewSchema(timestamp, price []string) (Schema, error) {
	ts, err := parseMatchers(timestamp)
	if err != nil {
		return nil, err
	}
	px, err := parseMatchers(price)
	if err != nil {
		return nil, err
	}
	return Schema{
		{Name: FieldTimestamp, Candidates: ts},
		{Name: FieldPrice, Candidates: px},
	}, nil
}

func parseMatchers(texts []string) ([]Matcher, error) {
	out := make([]Matcher, 0, len(texts))
	for _, s := range texts {
		m, err := ParseMatcher(s)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Resolve returns the column index of every field. Candidates are tried in
// order; within a candidate the leftmost matching header wins.
func (s Schema) Resolve(columns []string) (map[string]int, error) {
	out := make(map[string]int, len(s))
	for _, f := range s {
		idx := resolveField(f, columns)
		if idx < 0 {
			descs := make([]string, len(f.Candidates))
			for i, c := range f.Candidates {
				descs[i] = c.Desc
			}
			return nil, apperr.Newf(apperr.KindMissingRequiredColumn,
				"no column for %s (tried: %s; found %q)", f.Name, strings.Join(descs, ", "), columns).
				With("field", f.Name)
		}
		out[f.Name] = idx
	}
	return out, nil
}

func resolveField(f Field, columns []string) int {
	for _, m := range f.Candidates {
		for i, c := range columns {
			if m.Match(c) {
				return i
			}
		}
	}
	return -1
}
