//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mealdrop-service/internal/domain/snapshot"
	"mealdrop-service/internal/domain/subscription"
	"mealdrop-service/internal/pkg/errs"
	"mealdrop-service/internal/pkg/ptr"
	"mealdrop-service/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func TestCreateSubscription(t *testing.T) {
	t.Run("compiles snapshot and delegation", func(t *testing.T) {
		h := newHarness(testNow)

		id, err := h.subCmds.Create(context.Background(), h.createInput())
		require.NoError(t, err)

		sub := h.subs.subs[id]
		require.NotNil(t, sub)
		assert.Equal(t, subscription.StatusPendingFirstDelivery, sub.Status())
		assert.Equal(t, subscription.SnapshotReady, sub.SnapshotState())

		snap := h.snaps.snaps[id]
		require.NotNil(t, snap)
		assert.Len(t, snap.Slots, 8)
		assert.Equal(t, snapshot.StateReady, snap.State)

		deleg := h.delegs.delegs[id]
		require.NotNil(t, deleg)
		assert.Len(t, deleg.Entries, 4)
	})

	t.Run("catalog outage degrades to incomplete", func(t *testing.T) {
		h := newHarness(testNow)
		h.fixture.Catalog.Err = errors.New("catalog timeout")

		id, err := h.subCmds.Create(context.Background(), h.createInput())
		require.NoError(t, err)

		sub := h.subs.subs[id]
		require.NotNil(t, sub)
		assert.Equal(t, subscription.SnapshotIncomplete, sub.SnapshotState())
		assert.Nil(t, h.snaps.snaps[id])
		assert.Nil(t, h.delegs.delegs[id])
	})

	t.Run("unknown plan fails outright", func(t *testing.T) {
		h := newHarness(testNow)
		in := h.createInput()
		in.PlanID = uuid.New()

		_, err := h.subCmds.Create(context.Background(), in)
		require.ErrorIs(t, err, errs.ErrPlanNotFound)
		assert.Empty(t, h.subs.subs)
	})

	t.Run("bad input fails validation", func(t *testing.T) {
		h := newHarness(testNow)

		cases := []struct {
			name   string
			mutate func(*commands.CreateSubscriptionInput)
		}{
			{"unknown category", func(in *commands.CreateSubscriptionInput) { in.Categories = []string{"brunch"} }},
			{"no categories", func(in *commands.CreateSubscriptionInput) { in.Categories = nil }},
			{"bad window", func(in *commands.CreateSubscriptionInput) { in.DeliveryWindow = "midnight" }},
			{"zero weeks", func(in *commands.CreateSubscriptionInput) { in.DurationWeeks = 0 }},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				in := h.createInput()
				tc.mutate(&in)
				_, err := h.subCmds.Create(context.Background(), in)
				require.ErrorIs(t, err, errs.ErrDomainValidation)
			})
		}
	})
}

func TestLifecycleCommands(t *testing.T) {
	activate := func(t *testing.T, h *harness, id uuid.UUID) {
		t.Helper()
		deleg := h.delegs.delegs[id]
		first, ok := deleg.FirstEntry()
		require.True(t, ok)
		require.NoError(t, h.delivery.OnCompleted(context.Background(), first.ID))
	}

	t.Run("pause then resume extends end date", func(t *testing.T) {
		h := newHarness(testNow)
		id, err := h.subCmds.Create(context.Background(), h.createInput())
		require.NoError(t, err)
		activate(t, h, id)
		endBefore := h.subs.subs[id].EndDate()

		h.clock.Add(24 * time.Hour)
		require.NoError(t, h.subCmds.Pause(context.Background(), id, "vacation"))
		assert.Equal(t, subscription.StatusPaused, h.subs.subs[id].Status())

		h.clock.Add(72 * time.Hour)
		require.NoError(t, h.subCmds.Resume(context.Background(), id))

		sub := h.subs.subs[id]
		assert.Equal(t, subscription.StatusActive, sub.Status())
		assert.Equal(t, endBefore.AddDate(0, 0, 3), sub.EndDate())
		assert.Contains(t, h.notifs.kinds(), "subscription_paused")
		assert.Contains(t, h.notifs.kinds(), "subscription_resumed")
	})

	t.Run("pause requires active", func(t *testing.T) {
		h := newHarness(testNow)
		id, err := h.subCmds.Create(context.Background(), h.createInput())
		require.NoError(t, err)

		err = h.subCmds.Pause(context.Background(), id, "too soon")
		require.ErrorIs(t, err, errs.ErrNotInExpectedState)
	})

	t.Run("cancel is terminal", func(t *testing.T) {
		h := newHarness(testNow)
		id, err := h.subCmds.Create(context.Background(), h.createInput())
		require.NoError(t, err)

		require.NoError(t, h.subCmds.Cancel(context.Background(), id))
		assert.Equal(t, subscription.StatusCancelled, h.subs.subs[id].Status())

		err = h.subCmds.Cancel(context.Background(), id)
		require.ErrorIs(t, err, errs.ErrNotInExpectedState)
	})

	t.Run("unknown subscription", func(t *testing.T) {
		h := newHarness(testNow)
		err := h.subCmds.Cancel(context.Background(), uuid.New())
		require.ErrorIs(t, err, errs.ErrSubscriptionNotFound)
	})

	t.Run("notification failure does not fail the command", func(t *testing.T) {
		h := newHarness(testNow)
		id, err := h.subCmds.Create(context.Background(), h.createInput())
		require.NoError(t, err)
		activate(t, h, id)

		h.notifs.err = errors.New("outbox full")
		require.NoError(t, h.subCmds.Pause(context.Background(), id, "vacation"))
	})
}

func TestSkipMeal(t *testing.T) {
	t.Run("skips the date and moves the cursor past it", func(t *testing.T) {
		h := newHarness(testNow)
		id, err := h.subCmds.Create(context.Background(), h.createInput())
		require.NoError(t, err)

		firstDate := snapshot.DateOnly(testNow)
		require.NoError(t, h.subCmds.SkipMeal(context.Background(), id, firstDate, "travelling"))

		snap := h.snaps.snaps[id]
		for _, slot := range snap.SlotsOnDate(firstDate) {
			assert.Equal(t, snapshot.SlotSkipped, slot.Status)
		}

		deleg := h.delegs.delegs[id]
		entry, ok := deleg.EntryOnDate(firstDate)
		require.True(t, ok)
		assert.Equal(t, "skipped", string(entry.Status))

		// Cursor left day 1 for day 3.
		assert.Equal(t, 3, h.subs.subs[id].Cursor().Day)
	})

	t.Run("skipping a delivered date is rejected", func(t *testing.T) {
		h := newHarness(testNow)
		id, err := h.subCmds.Create(context.Background(), h.createInput())
		require.NoError(t, err)

		deleg := h.delegs.delegs[id]
		first, ok := deleg.FirstEntry()
		require.True(t, ok)
		require.NoError(t, h.delivery.OnCompleted(context.Background(), first.ID))

		err = h.subCmds.SkipMeal(context.Background(), id, first.Date, "")
		require.ErrorIs(t, err, errs.ErrNotInExpectedState)
	})
}

func TestRecompileIncompleteSnapshots(t *testing.T) {
	t.Run("retries after outage clears", func(t *testing.T) {
		h := newHarness(testNow)
		h.fixture.Catalog.Err = errors.New("catalog timeout")

		id, err := h.subCmds.Create(context.Background(), h.createInput())
		require.NoError(t, err)
		require.Equal(t, subscription.SnapshotIncomplete, h.subs.subs[id].SnapshotState())

		h.fixture.Catalog.Err = nil
		n, err := h.subCmds.RecompileIncompleteSnapshots(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		assert.Equal(t, subscription.SnapshotReady, h.subs.subs[id].SnapshotState())
		require.NotNil(t, h.snaps.snaps[id])
		require.NotNil(t, h.delegs.delegs[id])
	})

	t.Run("signup discount survives the recompile", func(t *testing.T) {
		h := newHarness(testNow)
		h.fixture.Catalog.Err = errors.New("catalog timeout")

		in := h.createInput()
		in.DiscountPercent = ptr.To(decimal.NewFromInt(20))
		id, err := h.subCmds.Create(context.Background(), in)
		require.NoError(t, err)

		h.fixture.Catalog.Err = nil
		n, err := h.subCmds.RecompileIncompleteSnapshots(context.Background(), 10)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		snap := h.snaps.snaps[id]
		require.NotNil(t, snap)
		require.NotNil(t, snap.Pricing.DiscountPercent)
		assert.True(t, snap.Pricing.DiscountPercent.Equal(decimal.NewFromInt(20)))
		assert.True(t, snap.Pricing.Subtotal.Equal(decimal.NewFromInt(200)))
		assert.True(t, snap.Pricing.Total.Equal(decimal.NewFromInt(160)))
	})

	t.Run("persistent outage keeps the queue", func(t *testing.T) {
		h := newHarness(testNow)
		h.fixture.Catalog.Err = errors.New("catalog timeout")

		_, err := h.subCmds.Create(context.Background(), h.createInput())
		require.NoError(t, err)

		n, err := h.subCmds.RecompileIncompleteSnapshots(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}
