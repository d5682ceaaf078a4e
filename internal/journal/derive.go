package journal

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ExpectedCost scores a list of scenarios: the sum of prob/100, halved for
// every scenario that has a coping plan. A whitespace-only plan counts as
// no plan.
func ExpectedCost(scenarios []Scenario) float64 {
	var total float64
	for _, s := range scenarios {
		weight := 1.0
		if strings.TrimSpace(s.Plan) != "" {
			weight = 0.5
		}
		total += (s.Prob / 100) * weight
	}
	return total
}

// SortOrder selects how Sort orders entries.
type SortOrder string

const (
	SortNewest SortOrder = "newest" // date descending
	SortOldest SortOrder = "oldest" // date ascending
	SortCost   SortOrder = "cost"   // expected cost descending
)

// SortOrders lists the accepted orders, in help-text order.
var SortOrders = []SortOrder{SortNewest, SortOldest, SortCost}

// ParseSortOrder validates a user-supplied order name.
// "prob-desc" is accepted as an alias for cost.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(SortNewest):
		return SortNewest, nil
	case string(SortOldest):
		return SortOldest, nil
	case string(SortCost), "prob-desc":
		return SortCost, nil
	}
	return "", fmt.Errorf("invalid sort order %q: must be one of %v", s, SortOrders)
}

// Sort returns a stably sorted copy of entries. The input is not modified.
// Dates that do not parse sort as the zero time.
func Sort(entries []Entry, order SortOrder) []Entry {
	out := slices.Clone(entries)
	switch order {
	case SortOldest:
		slices.SortStableFunc(out, func(a, b Entry) int {
			return parseDate(a.Date).Compare(parseDate(b.Date))
		})
	case SortCost:
		slices.SortStableFunc(out, func(a, b Entry) int {
			ca, cb := ExpectedCost(a.Scenarios), ExpectedCost(b.Scenarios)
			switch {
			case ca > cb:
				return -1
			case ca < cb:
				return 1
			}
			return 0
		})
	default:
		slices.SortStableFunc(out, func(a, b Entry) int {
			return parseDate(b.Date).Compare(parseDate(a.Date))
		})
	}
	return out
}

// Filter returns the entries whose title, anxiety, reflection or reset text
// contains query, case-insensitively. An empty query returns every entry.
func Filter(entries []Entry, query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(entries)
	}
	out := []Entry{}
	for _, e := range entries {
		hay := strings.ToLower(strings.Join([]string{e.Title, e.Anxiety, e.Reflection, e.Reset}, "\n"))
		if strings.Contains(hay, q) {
			out = append(out, e)
		}
	}
	return out
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04",
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
