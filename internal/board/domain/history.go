package domain

import (
	"sort"
	"time"
)

// historyDedupeTolerance is how close two id-less entries' timestamps may be
// while still describing the same transition event.
const historyDedupeTolerance = time.Second

// StatusHistoryEntry is one append-only audit record of a status transition.
// Entries are created exactly once per accepted transition and never mutated.
type StatusHistoryEntry struct {
	ID        string     `json:"id,omitempty"`
	LeadID    string     `json:"leadId"`
	OldStatus LeadStatus `json:"oldStatus"`
	NewStatus LeadStatus `json:"newStatus"`
	Reason    string     `json:"reason,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// CollapseHistory removes duplicate transition events before display. Two
// entries are the same event when they share an explicit id, or, absent ids,
// when they share oldStatus and newStatus with createdAt within one second.
// The earliest entry of each duplicate group survives; output is ordered by
// CreatedAt ascending.
func CollapseHistory(entries []StatusHistoryEntry) []StatusHistoryEntry {
	if len(entries) == 0 {
		return nil
	}

	sorted := append([]StatusHistoryEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	seenIDs := make(map[string]bool)
	out := make([]StatusHistoryEntry, 0, len(sorted))

	for _, entry := range sorted {
		if entry.ID != "" {
			if seenIDs[entry.ID] {
				continue
			}
			seenIDs[entry.ID] = true
			out = append(out, entry)
			continue
		}

		if hasNearDuplicate(out, entry) {
			continue
		}
		out = append(out, entry)
	}

	return out
}

func hasNearDuplicate(kept []StatusHistoryEntry, entry StatusHistoryEntry) bool {
	// Walk backwards; kept is sorted, so anything past the tolerance window ends the scan.
	for i := len(kept) - 1; i >= 0; i-- {
		prior := kept[i]
		if entry.CreatedAt.Sub(prior.CreatedAt) > historyDedupeTolerance {
			return false
		}
		if prior.ID != "" {
			continue
		}
		if prior.OldStatus == entry.OldStatus && prior.NewStatus == entry.NewStatus {
			return true
		}
	}
	return false
}
