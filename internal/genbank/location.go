// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package genbank

import (
	"fmt"
	"strconv"
	"strings"
)

// Interval is one span of a feature location in 1-based, inclusive
// coordinates. From <= To for ranges on either strand.
type Interval struct {
	From int
	To   int

	// Complement is set for intervals on the reverse strand.
	Complement bool

	// Between marks a site between two bases (a^b); it spans no bases.
	Between bool

	// Partial5 and Partial3 record the '<' and '>' markers.
	Partial5 bool
	Partial3 bool
}

// Len returns the number of bases the interval covers.
func (iv Interval) Len() int {
	if iv.Between {
		return 0
	}
	if iv.To < iv.From {
		return iv.From - iv.To + 1
	}
	return iv.To - iv.From + 1
}

// Location is a parsed feature location.
type Location struct {
	// Raw is the location text as it appeared in the feature table.
	Raw string

	// Operator is "join" or "order" for multi-interval locations.
	Operator string

	// Intervals are the local spans in biological order. Spans that
	// reference another record (e.g. "J00194.1:100..202") are dropped.
	Intervals []Interval
}

// Len returns the total number of bases covered by the location's
// intervals.
func (l Location) Len() int {
	n := 0
	for _, iv := range l.Intervals {
		n += iv.Len()
	}
	return n
}

// Start returns the smallest coordinate of the location, or 0 if empty.
func (l Location) Start() int {
	start := 0
	for i, iv := range l.Intervals {
		lo := min(iv.From, iv.To)
		if i == 0 || lo < start {
			start = lo
		}
	}
	return start
}

// End returns the largest coordinate of the location, or 0 if empty.
func (l Location) End() int {
	end := 0
	for _, iv := range l.Intervals {
		end = max(end, iv.From, iv.To)
	}
	return end
}

// ParseLocation parses an INSDC feature location such as
// "complement(join(<1..120,340..>500))".
func ParseLocation(s string) (Location, error) {
	raw := strings.Join(strings.Fields(s), "")
	if raw == "" {
		return Location{}, fmt.Errorf("empty location")
	}
	loc := Location{Raw: raw}
	ivs, err := parseLocation(raw, false, &loc.Operator)
	if err != nil {
		return Location{}, fmt.Errorf("location %q: %w", raw, err)
	}
	loc.Intervals = ivs
	return loc, nil
}

func parseLocation(s string, comp bool, op *string) ([]Interval, error) {
	switch {
	case strings.HasPrefix(s, "complement(") && strings.HasSuffix(s, ")"):
		inner, err := parseLocation(s[len("complement("):len(s)-1], !comp, op)
		if err != nil {
			return nil, err
		}
		for i, j := 0, len(inner)-1; i < j; i, j = i+1, j-1 {
			inner[i], inner[j] = inner[j], inner[i]
		}
		return inner, nil

	case strings.HasPrefix(s, "join(") && strings.HasSuffix(s, ")"):
		*op = "join"
		return parseList(s[len("join("):len(s)-1], comp, op)

	case strings.HasPrefix(s, "order(") && strings.HasSuffix(s, ")"):
		*op = "order"
		return parseList(s[len("order("):len(s)-1], comp, op)

	case strings.Contains(s, "("):
		return nil, fmt.Errorf("unsupported operator in %q", s)

	case strings.Contains(s, ":"):
		// Span on another record.
		return nil, nil
	}

	iv, err := parseInterval(s)
	if err != nil {
		return nil, err
	}
	iv.Complement = comp
	return []Interval{iv}, nil
}

func parseList(s string, comp bool, op *string) ([]Interval, error) {
	parts, err := splitTopLevel(s)
	if err != nil {
		return nil, err
	}
	var out []Interval
	for _, p := range parts {
		ivs, err := parseLocation(p, comp, op)
		if err != nil {
			return nil, err
		}
		out = append(out, ivs...)
	}
	return out, nil
}

// splitTopLevel splits s on commas that are not nested in parentheses.
func splitTopLevel(s string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses")
	}
	parts = append(parts, s[start:])
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("empty element in list")
		}
	}
	return parts, nil
}

func parseInterval(s string) (Interval, error) {
	if from, to, ok := strings.Cut(s, ".."); ok {
		var iv Interval
		var err error
		if strings.HasPrefix(from, "<") {
			iv.Partial5 = true
			from = from[1:]
		}
		if strings.HasPrefix(to, ">") {
			iv.Partial3 = true
			to = to[1:]
		}
		if iv.From, err = parsePos(from); err != nil {
			return Interval{}, err
		}
		if iv.To, err = parsePos(to); err != nil {
			return Interval{}, err
		}
		return iv, nil
	}

	if from, to, ok := strings.Cut(s, "^"); ok {
		a, err := parsePos(from)
		if err != nil {
			return Interval{}, err
		}
		b, err := parsePos(to)
		if err != nil {
			return Interval{}, err
		}
		return Interval{From: a, To: b, Between: true}, nil
	}

	var iv Interval
	switch {
	case strings.HasPrefix(s, "<"):
		iv.Partial5 = true
		s = s[1:]
	case strings.HasPrefix(s, ">"):
		iv.Partial3 = true
		s = s[1:]
	}
	pos, err := parsePos(s)
	if err != nil {
		return Interval{}, err
	}
	iv.From, iv.To = pos, pos
	return iv, nil
}

func parsePos(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	return n, nil
}
