//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"mealdrop-service/internal/domain/plan"
	"mealdrop-service/internal/domain/snapshot"
	"mealdrop-service/internal/domain/subscription"
	"mealdrop-service/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) created(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := h.subCmds.Create(context.Background(), h.createInput())
	require.NoError(t, err)
	return id
}

func TestOnCompleted(t *testing.T) {
	t.Run("first delivery activates the subscription", func(t *testing.T) {
		h := newHarness(testNow)
		id := h.created(t)

		deleg := h.delegs.delegs[id]
		first, ok := deleg.FirstEntry()
		require.True(t, ok)

		require.NoError(t, h.delivery.OnCompleted(context.Background(), first.ID))

		sub := h.subs.subs[id]
		assert.Equal(t, subscription.StatusActive, sub.Status())
		require.NotNil(t, sub.ActivatedAt())
		// Two-week plan restarts from the activation day.
		assert.Equal(t, snapshot.DateOnly(testNow).AddDate(0, 0, 14), sub.EndDate())

		// Both meals of the date are settled and the cursor left the day.
		snap := h.snaps.snaps[id]
		for _, slot := range snap.SlotsForTimelineEntry(first.ID) {
			assert.Equal(t, snapshot.SlotDelivered, slot.Status)
		}
		assert.Equal(t, subscription.Cursor{Week: 1, Day: 3, Category: plan.CategoryBreakfast}, sub.Cursor())

		assert.Equal(t, []string{"delivery_completed", "subscription_activated"}, h.notifs.kinds())
	})

	t.Run("replayed event is absorbed", func(t *testing.T) {
		h := newHarness(testNow)
		id := h.created(t)

		deleg := h.delegs.delegs[id]
		first, _ := deleg.FirstEntry()
		require.NoError(t, h.delivery.OnCompleted(context.Background(), first.ID))

		cursorAfter := h.subs.subs[id].Cursor()
		notifsAfter := len(h.notifs.jobs)

		require.NoError(t, h.delivery.OnCompleted(context.Background(), first.ID))
		assert.Equal(t, cursorAfter, h.subs.subs[id].Cursor())
		assert.Equal(t, notifsAfter, len(h.notifs.jobs))
	})

	t.Run("later deliveries do not re-activate", func(t *testing.T) {
		h := newHarness(testNow)
		id := h.created(t)

		deleg := h.delegs.delegs[id]
		require.NoError(t, h.delivery.OnCompleted(context.Background(), deleg.Entries[0].ID))
		endAfterFirst := h.subs.subs[id].EndDate()

		h.clock.Add(48 * time.Hour)
		require.NoError(t, h.delivery.OnCompleted(context.Background(), deleg.Entries[1].ID))

		sub := h.subs.subs[id]
		assert.Equal(t, endAfterFirst, sub.EndDate())
		assert.Equal(t, subscription.Cursor{Week: 2, Day: 1, Category: plan.CategoryBreakfast}, sub.Cursor())

		kinds := h.notifs.kinds()
		assert.Equal(t, []string{"delivery_completed", "subscription_activated", "delivery_completed"}, kinds)
	})

	t.Run("unknown entry", func(t *testing.T) {
		h := newHarness(testNow)
		h.created(t)

		err := h.delivery.OnCompleted(context.Background(), uuid.New())
		require.ErrorIs(t, err, errs.ErrTimelineEntryNotFound)
	})
}

func TestAssignments(t *testing.T) {
	t.Run("chef assignment schedules the entry", func(t *testing.T) {
		h := newHarness(testNow)
		id := h.created(t)
		entryID := h.delegs.delegs[id].Entries[0].ID

		chefID := uuid.New()
		require.NoError(t, h.delivery.AssignChef(context.Background(), entryID, chefID))

		entry, ok := h.delegs.delegs[id].Entry(entryID)
		require.True(t, ok)
		require.NotNil(t, entry.ChefID)
		assert.Equal(t, chefID, *entry.ChefID)
		assert.Equal(t, "scheduled", string(entry.Status))
	})

	t.Run("driver assignment keeps the status", func(t *testing.T) {
		h := newHarness(testNow)
		id := h.created(t)
		entryID := h.delegs.delegs[id].Entries[0].ID

		driverID := uuid.New()
		require.NoError(t, h.delivery.AssignDriver(context.Background(), entryID, driverID))

		entry, ok := h.delegs.delegs[id].Entry(entryID)
		require.True(t, ok)
		require.NotNil(t, entry.DriverID)
		assert.Equal(t, driverID, *entry.DriverID)
		assert.Equal(t, "pending", string(entry.Status))
	})

	t.Run("unknown entry", func(t *testing.T) {
		h := newHarness(testNow)
		h.created(t)

		err := h.delivery.AssignChef(context.Background(), uuid.New(), uuid.New())
		require.ErrorIs(t, err, errs.ErrTimelineEntryNotFound)
	})
}
