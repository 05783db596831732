package service

import (
	"time"

	"leadboard_backend/internal/board/domain"
)

// detectNewLeads implements the dedup rule for new-lead detection: a fetched
// lead is new iff its createdAt is strictly later than the previous fetch
// timestamp AND its id was absent from the previous collection. Both
// conditions are required; a lead seen in the previous collection can never
// be reported again, and a backfilled old record never alerts.
//
// A zero previous timestamp means there is no comparison point yet (first
// fetch or warm start from an old cache format), so nothing is reported.
func detectNewLeads(previous []domain.Lead, previousFetchedAt time.Time, fresh []domain.Lead) []string {
	if previousFetchedAt.IsZero() {
		return nil
	}

	seen := make(map[string]bool, len(previous))
	for _, lead := range previous {
		seen[lead.ID] = true
	}

	var newIDs []string
	for _, lead := range fresh {
		if seen[lead.ID] {
			continue
		}
		if !lead.CreatedAt.After(previousFetchedAt) {
			continue
		}
		newIDs = append(newIDs, lead.ID)
	}
	return newIDs
}
