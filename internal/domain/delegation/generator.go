package delegation

import (
	"fmt"
	"sort"
	"time"

	"mealdrop-service/internal/domain/snapshot"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Generate builds the delegation for a compiled snapshot: slots are grouped by
// delivery date (time-truncated), one timeline entry per distinct date in
// ascending order. Entry ids are derived deterministically from the
// subscription id plus the ordinal, so regeneration yields identical ids.
// Each snapshot slot gets its entry id written back for O(1) cross-reference.
func Generate(subscriptionID uuid.UUID, snap *snapshot.Snapshot, now time.Time) (*Delegation, error) {
	if len(snap.Slots) == 0 {
		return nil, ErrNoSlots
	}

	byDate := lo.GroupBy(snap.Slots, func(s snapshot.Slot) time.Time {
		return snapshot.DateOnly(s.ScheduledDeliveryDate)
	})

	dates := lo.Keys(byDate)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	entries := make([]TimelineEntry, 0, len(dates))
	for i, date := range dates {
		entryID := entryIDFor(subscriptionID, i)
		entries = append(entries, TimelineEntry{
			ID:      entryID,
			Ordinal: i,
			Date:    date,
			Status:  EntryPending,
		})

		for j := range snap.Slots {
			if snapshot.DateOnly(snap.Slots[j].ScheduledDeliveryDate).Equal(date) {
				id := entryID
				snap.Slots[j].TimelineEntryID = &id
			}
		}
	}

	return &Delegation{
		ID:             uuid.New(),
		SubscriptionID: subscriptionID,
		Entries:        entries,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// entryIDFor is a stable v5-style derivation: the subscription id acts as the
// namespace and the ordinal as the name.
func entryIDFor(subscriptionID uuid.UUID, ordinal int) uuid.UUID {
	return uuid.NewSHA1(subscriptionID, []byte(fmt.Sprintf("timeline/%d", ordinal)))
}
