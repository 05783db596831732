package domain

import (
	"strings"
	"time"
)

// FilterState is the client-held filter axis set. The zero value matches
// everything.
type FilterState struct {
	Status      string    `json:"status,omitempty"`
	Platform    string    `json:"platform,omitempty"`
	DateRange   DateRange `json:"dateRange,omitempty"`
	SearchQuery string    `json:"searchQuery,omitempty"`
}

// FilterOptions tune how Filter applies the search axis.
type FilterOptions struct {
	// SkipSearch is set when the fetch already applied the search query
	// server-side; re-filtering locally would diverge from the remote
	// result set.
	SkipSearch bool
	// Now anchors date range resolution. Zero means time.Now().
	Now time.Time
}

// Filter returns the subset of leads matching every active axis of the
// filter state. Predicates combine with logical AND; inactive axes pass.
// The function is pure: the input slice is never mutated and filtering twice
// with the same state yields the same result.
func Filter(leads []Lead, state FilterState, opts FilterOptions) []Lead {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	dateRange := ResolveDateRange(ParseDateRange(string(state.DateRange)), now)
	query := strings.ToLower(strings.TrimSpace(state.SearchQuery))

	out := make([]Lead, 0, len(leads))
	for _, lead := range leads {
		if !matchesStatus(lead, state.Status) {
			continue
		}
		if !matchesPlatform(lead, state.Platform) {
			continue
		}
		if !dateRange.Contains(lead.CreatedAt) {
			continue
		}
		if !opts.SkipSearch && !matchesSearch(lead, query) {
			continue
		}
		out = append(out, lead)
	}
	return out
}

func matchesStatus(lead Lead, status string) bool {
	if status == "" || strings.EqualFold(status, "all") {
		return true
	}
	return strings.EqualFold(string(lead.Status), status)
}

func matchesPlatform(lead Lead, platform string) bool {
	if platform == "" || strings.EqualFold(platform, "all") {
		return true
	}
	return strings.EqualFold(string(lead.SourcePlatform), platform)
}

func matchesSearch(lead Lead, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(lead.Name), query) ||
		strings.Contains(strings.ToLower(lead.Email), query) ||
		strings.Contains(strings.ToLower(lead.PhoneNumber), query)
}
