//go:build unit

package delegation_test

import (
	"testing"
	"time"

	"mealdrop-service/internal/domain/delegation"
	"mealdrop-service/internal/domain/snapshot"
	"mealdrop-service/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compiled(t *testing.T) (uuid.UUID, *snapshot.Snapshot) {
	t.Helper()
	sub, snap, err := builder.NewSubscriptionBuilder().BuildWithSnapshot()
	require.NoError(t, err)
	return sub.ID(), snap
}

func TestGenerate(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("one entry per distinct delivery date", func(t *testing.T) {
		subID, snap := compiled(t)

		deleg, err := delegation.Generate(subID, snap, now)
		require.NoError(t, err)

		// 8 slots collapse onto 4 delivery dates.
		require.Len(t, deleg.Entries, 4)
		for i, e := range deleg.Entries {
			assert.Equal(t, i, e.Ordinal)
			assert.Equal(t, delegation.EntryPending, e.Status)
			if i > 0 {
				assert.True(t, e.Date.After(deleg.Entries[i-1].Date))
			}
		}
	})

	t.Run("entry ids are deterministic", func(t *testing.T) {
		subID, snap := compiled(t)

		first, err := delegation.Generate(subID, snap, now)
		require.NoError(t, err)
		second, err := delegation.Generate(subID, snap, now.Add(time.Hour))
		require.NoError(t, err)

		for i := range first.Entries {
			assert.Equal(t, first.Entries[i].ID, second.Entries[i].ID)
		}

		// Different subscriptions never collide.
		other, err := delegation.Generate(uuid.New(), snap, now)
		require.NoError(t, err)
		assert.NotEqual(t, first.Entries[0].ID, other.Entries[0].ID)
	})

	t.Run("slots back-reference their entry", func(t *testing.T) {
		subID, snap := compiled(t)

		deleg, err := delegation.Generate(subID, snap, now)
		require.NoError(t, err)

		for _, slot := range snap.Slots {
			require.NotNil(t, slot.TimelineEntryID)
			entry, ok := deleg.Entry(*slot.TimelineEntryID)
			require.True(t, ok)
			assert.Equal(t, snapshot.DateOnly(slot.ScheduledDeliveryDate), entry.Date)
		}

		// Both slots of a date share the entry.
		slots := snap.SlotsForTimelineEntry(deleg.Entries[0].ID)
		assert.Len(t, slots, 2)
	})

	t.Run("empty snapshot rejected", func(t *testing.T) {
		subID, snap := compiled(t)
		snap.Slots = nil

		_, err := delegation.Generate(subID, snap, now)
		require.ErrorIs(t, err, delegation.ErrNoSlots)
	})
}

func TestDelegationTransitions(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	newDelegation := func(t *testing.T) *delegation.Delegation {
		t.Helper()
		subID, snap := compiled(t)
		deleg, err := delegation.Generate(subID, snap, now)
		require.NoError(t, err)
		return deleg
	}

	t.Run("mark delivered once", func(t *testing.T) {
		deleg := newDelegation(t)
		id := deleg.Entries[0].ID

		require.NoError(t, deleg.MarkDelivered(id, now))
		assert.Equal(t, delegation.EntryDelivered, deleg.Entries[0].Status)

		// Replays hit the final-state guard.
		require.ErrorIs(t, deleg.MarkDelivered(id, now.Add(time.Minute)), delegation.ErrEntryFinal)
	})

	t.Run("unknown entry", func(t *testing.T) {
		deleg := newDelegation(t)
		require.ErrorIs(t, deleg.MarkDelivered(uuid.New(), now), delegation.ErrEntryNotFound)
	})

	t.Run("skip by date", func(t *testing.T) {
		deleg := newDelegation(t)
		date := deleg.Entries[1].Date

		require.NoError(t, deleg.MarkSkipped(date, now, "travelling"))
		assert.Equal(t, delegation.EntrySkipped, deleg.Entries[1].Status)
		require.NotNil(t, deleg.Entries[1].SkipReason)
		assert.Equal(t, "travelling", *deleg.Entries[1].SkipReason)
	})

	t.Run("first entry detection", func(t *testing.T) {
		deleg := newDelegation(t)
		first, ok := deleg.FirstEntry()
		require.True(t, ok)
		assert.True(t, deleg.IsFirstEntry(first.ID))
		assert.False(t, deleg.IsFirstEntry(deleg.Entries[1].ID))
	})

	t.Run("chef assignment schedules a pending entry", func(t *testing.T) {
		deleg := newDelegation(t)
		chefID := uuid.New()
		entryID := deleg.Entries[0].ID

		require.NoError(t, deleg.AssignChef(entryID, chefID, now))
		assert.Equal(t, delegation.EntryScheduled, deleg.Entries[0].Status)
		require.NotNil(t, deleg.Entries[0].ChefID)
		assert.Equal(t, chefID, *deleg.Entries[0].ChefID)

		driverID := uuid.New()
		require.NoError(t, deleg.AssignDriver(entryID, driverID, now))
		assert.Equal(t, driverID, *deleg.Entries[0].DriverID)
		// Driver assignment does not change status.
		assert.Equal(t, delegation.EntryScheduled, deleg.Entries[0].Status)
	})
}
