//go:build unit

package subscription_test

import (
	"testing"
	"time"

	"mealdrop-service/internal/domain/plan"
	"mealdrop-service/internal/domain/subscription"
	"mealdrop-service/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewSubscription(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		sub, err := builder.NewSubscriptionBuilder().BuildDomain()
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusPendingFirstDelivery, sub.Status())
		assert.Nil(t, sub.ActivatedAt())
		assert.Equal(t, subscription.SnapshotPending, sub.SnapshotState())
		assert.Equal(t, subscription.Cursor{Week: 1, Day: 1, Category: plan.CategoryBreakfast}, sub.Cursor())
		// Placeholder end date until the first delivery activates the clock.
		assert.Equal(t, date(2025, 1, 15), sub.EndDate())
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*builder.SubscriptionBuilder)
			errIs  error
		}{
			{
				name:   "zero weeks",
				mutate: func(b *builder.SubscriptionBuilder) { b.WithWeeks(0) },
				errIs:  subscription.ErrInvalidDuration,
			},
			{
				name:   "no categories",
				mutate: func(b *builder.SubscriptionBuilder) { b.WithCategories() },
				errIs:  subscription.ErrEmptyCategories,
			},
			{
				name:   "bad window",
				mutate: func(b *builder.SubscriptionBuilder) { b.WithWindow("midnight") },
				errIs:  subscription.ErrInvalidWindow,
			},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				b := builder.NewSubscriptionBuilder()
				tc.mutate(b)
				_, err := b.BuildDomain()
				require.ErrorIs(t, err, tc.errIs)
			})
		}
	})

	t.Run("categories stored in canonical order", func(t *testing.T) {
		sub, err := builder.NewSubscriptionBuilder().
			WithCategories(plan.CategoryLunch, plan.CategoryBreakfast).
			BuildDomain()
		require.NoError(t, err)
		assert.Equal(t, []plan.MealCategory{plan.CategoryBreakfast, plan.CategoryLunch}, sub.SelectedCategories())
	})
}

func TestActivate(t *testing.T) {
	t.Run("end date restarts from activation", func(t *testing.T) {
		// Signup Jan 1, 2-week plan, first delivery completes Jan 5:
		// paid window becomes Jan 5 - Jan 19.
		sub, err := builder.NewSubscriptionBuilder().
			WithStartDate(date(2025, 1, 1)).
			WithWeeks(2).
			BuildDomain()
		require.NoError(t, err)

		require.NoError(t, sub.Activate(date(2025, 1, 5)))

		assert.Equal(t, subscription.StatusActive, sub.Status())
		require.NotNil(t, sub.ActivatedAt())
		assert.Equal(t, date(2025, 1, 19), sub.EndDate())
	})

	t.Run("idempotent", func(t *testing.T) {
		sub, err := builder.NewSubscriptionBuilder().BuildDomain()
		require.NoError(t, err)

		require.NoError(t, sub.Activate(date(2025, 1, 5)))
		end := sub.EndDate()
		activatedAt := *sub.ActivatedAt()

		require.NoError(t, sub.Activate(date(2025, 2, 1)))
		assert.Equal(t, end, sub.EndDate())
		assert.Equal(t, activatedAt, *sub.ActivatedAt())
	})

	t.Run("end date never retreats", func(t *testing.T) {
		sub, err := builder.NewSubscriptionBuilder().
			WithStartDate(date(2025, 1, 1)).
			WithWeeks(2).
			BuildDomain()
		require.NoError(t, err)

		// Activation in the past relative to the placeholder keeps the later date.
		require.NoError(t, sub.Activate(date(2024, 12, 20)))
		assert.Equal(t, date(2025, 1, 15), sub.EndDate())
	})

	t.Run("terminal state rejected", func(t *testing.T) {
		sub, err := builder.NewSubscriptionBuilder().BuildDomain()
		require.NoError(t, err)
		require.NoError(t, sub.Cancel(date(2025, 1, 2)))

		err = sub.Activate(date(2025, 1, 5))
		require.ErrorIs(t, err, subscription.ErrTerminalState)
	})
}

func TestPauseResume(t *testing.T) {
	newActive := func(t *testing.T) *subscription.Subscription {
		t.Helper()
		sub, err := builder.NewSubscriptionBuilder().
			WithStartDate(date(2025, 1, 1)).
			WithWeeks(2).
			BuildDomain()
		require.NoError(t, err)
		require.NoError(t, sub.Activate(date(2025, 1, 5)))
		return sub
	}

	t.Run("paused days extend end date", func(t *testing.T) {
		sub := newActive(t)
		// Active Jan 5, end Jan 19. Paused Jan 10-13: +3 days.
		require.NoError(t, sub.Pause(date(2025, 1, 10), "vacation"))
		assert.Equal(t, subscription.StatusPaused, sub.Status())

		require.NoError(t, sub.Resume(date(2025, 1, 13)))
		assert.Equal(t, subscription.StatusActive, sub.Status())
		assert.Equal(t, date(2025, 1, 22), sub.EndDate())
		assert.Nil(t, sub.PausedAt())
		assert.Nil(t, sub.PauseReason())
		require.NotNil(t, sub.ResumedAt())
	})

	t.Run("partial day rounds up", func(t *testing.T) {
		sub := newActive(t)
		require.NoError(t, sub.Pause(time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC), "travel"))
		require.NoError(t, sub.Resume(time.Date(2025, 1, 10, 20, 0, 0, 0, time.UTC)))
		// 12 hours paused still credits a whole day.
		assert.Equal(t, date(2025, 1, 20), sub.EndDate())
	})

	t.Run("pause requires reason", func(t *testing.T) {
		sub := newActive(t)
		err := sub.Pause(date(2025, 1, 10), "   ")
		require.ErrorIs(t, err, subscription.ErrPauseReasonRequired)
	})

	t.Run("pause requires active", func(t *testing.T) {
		sub, err := builder.NewSubscriptionBuilder().BuildDomain()
		require.NoError(t, err)
		require.ErrorIs(t, sub.Pause(date(2025, 1, 2), "x"), subscription.ErrNotActive)
	})

	t.Run("resume requires paused", func(t *testing.T) {
		sub := newActive(t)
		require.ErrorIs(t, sub.Resume(date(2025, 1, 10)), subscription.ErrNotPaused)
	})
}

func TestCancelAndExpire(t *testing.T) {
	t.Run("cancel is terminal", func(t *testing.T) {
		sub, err := builder.NewSubscriptionBuilder().BuildDomain()
		require.NoError(t, err)

		require.NoError(t, sub.Cancel(date(2025, 1, 3)))
		assert.Equal(t, subscription.StatusCancelled, sub.Status())
		require.NotNil(t, sub.CancelledAt())

		require.ErrorIs(t, sub.Cancel(date(2025, 1, 4)), subscription.ErrTerminalState)
	})

	t.Run("expires past end date", func(t *testing.T) {
		sub, err := builder.NewSubscriptionBuilder().
			WithStartDate(date(2025, 1, 1)).
			WithWeeks(1).
			BuildDomain()
		require.NoError(t, err)
		require.NoError(t, sub.Activate(date(2025, 1, 2)))

		assert.False(t, sub.ExpireIfDue(date(2025, 1, 8)))
		assert.True(t, sub.ExpireIfDue(date(2025, 1, 10)))
		assert.Equal(t, subscription.StatusExpired, sub.Status())
	})

	t.Run("paused subscriptions do not expire", func(t *testing.T) {
		sub, err := builder.NewSubscriptionBuilder().
			WithStartDate(date(2025, 1, 1)).
			WithWeeks(1).
			BuildDomain()
		require.NoError(t, err)
		require.NoError(t, sub.Activate(date(2025, 1, 2)))
		require.NoError(t, sub.Pause(date(2025, 1, 3), "holiday"))

		assert.False(t, sub.ExpireIfDue(date(2025, 3, 1)))
		assert.Equal(t, subscription.StatusPaused, sub.Status())
	})
}

func TestAdvanceCursor(t *testing.T) {
	t.Run("records last delivered and moves on", func(t *testing.T) {
		sub, snap, err := builder.NewSubscriptionBuilder().BuildWithSnapshot()
		require.NoError(t, err)

		require.NoError(t, sub.AdvanceCursor(snap, date(2025, 1, 1)))

		require.NotNil(t, sub.LastDelivered())
		assert.Equal(t, subscription.Cursor{Week: 1, Day: 1, Category: plan.CategoryBreakfast}, sub.LastDelivered().Cursor)
		assert.Equal(t, subscription.Cursor{Week: 1, Day: 1, Category: plan.CategoryLunch}, sub.Cursor())

		require.NotNil(t, sub.NextDelivery())
		assert.Equal(t, date(2025, 1, 1), sub.NextDelivery().Date)
		assert.Equal(t, "08:00-11:00", sub.NextDelivery().Window)
	})

	t.Run("wraparound continues calendar dates", func(t *testing.T) {
		sub, snap, err := builder.NewSubscriptionBuilder().BuildWithSnapshot()
		require.NoError(t, err)

		// 2 weeks x 2 days x 2 categories = 8 advances completes the cycle.
		for i := 0; i < 8; i++ {
			require.NoError(t, sub.AdvanceCursor(snap, date(2025, 1, 1)))
		}

		assert.Equal(t, subscription.Cursor{Week: 1, Day: 1, Category: plan.CategoryBreakfast}, sub.Cursor())
		assert.Equal(t, 2, sub.Cycle())
		// Week 1 day 1 of the second cycle lands 14 days after the start.
		assert.Equal(t, date(2025, 1, 15), sub.NextDelivery().Date)
	})

	t.Run("terminal subscriptions cannot advance", func(t *testing.T) {
		sub, snap, err := builder.NewSubscriptionBuilder().BuildWithSnapshot()
		require.NoError(t, err)
		require.NoError(t, sub.Cancel(date(2025, 1, 2)))

		require.ErrorIs(t, sub.AdvanceCursor(snap, date(2025, 1, 3)), subscription.ErrTerminalState)
	})
}
