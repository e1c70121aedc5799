//go:build unit

package subscription_test

import (
	"testing"

	"mealdrop-service/internal/domain/plan"
	"mealdrop-service/internal/domain/subscription"
	"mealdrop-service/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	twoCats = []plan.MealCategory{plan.CategoryBreakfast, plan.CategoryLunch}
	twoDays = []int{1, 3}
)

func TestCursorNext(t *testing.T) {
	t.Run("category then day then week", func(t *testing.T) {
		steps := []struct {
			from subscription.Cursor
			to   subscription.Cursor
			wrap bool
		}{
			{
				from: subscription.Cursor{Week: 1, Day: 1, Category: plan.CategoryBreakfast},
				to:   subscription.Cursor{Week: 1, Day: 1, Category: plan.CategoryLunch},
			},
			{
				from: subscription.Cursor{Week: 1, Day: 1, Category: plan.CategoryLunch},
				to:   subscription.Cursor{Week: 1, Day: 3, Category: plan.CategoryBreakfast},
			},
			{
				from: subscription.Cursor{Week: 1, Day: 3, Category: plan.CategoryLunch},
				to:   subscription.Cursor{Week: 2, Day: 1, Category: plan.CategoryBreakfast},
			},
			{
				from: subscription.Cursor{Week: 2, Day: 3, Category: plan.CategoryLunch},
				to:   subscription.Cursor{Week: 1, Day: 1, Category: plan.CategoryBreakfast},
				wrap: true,
			},
		}

		for _, s := range steps {
			got, wrapped := s.from.Next(2, twoDays, twoCats)
			assert.Equal(t, s.to, got)
			assert.Equal(t, s.wrap, wrapped)
		}
	})

	t.Run("full cycle closes", func(t *testing.T) {
		c := subscription.FirstCursor(twoCats)
		seen := map[subscription.Cursor]bool{}

		total := 2 * len(twoDays) * len(twoCats)
		for i := 0; i < total; i++ {
			assert.False(t, seen[c], "cursor %+v visited twice", c)
			seen[c] = true

			var wrapped bool
			c, wrapped = c.Next(2, twoDays, twoCats)
			assert.Equal(t, i == total-1, wrapped)
		}
		assert.Equal(t, subscription.FirstCursor(twoCats), c)
	})
}

func TestCursorValidate(t *testing.T) {
	cases := []struct {
		name   string
		cursor subscription.Cursor
		ok     bool
	}{
		{"valid", subscription.Cursor{Week: 1, Day: 3, Category: plan.CategoryLunch}, true},
		{"week out of range", subscription.Cursor{Week: 3, Day: 1, Category: plan.CategoryBreakfast}, false},
		{"day not a delivery day", subscription.Cursor{Week: 1, Day: 2, Category: plan.CategoryBreakfast}, false},
		{"category not selected", subscription.Cursor{Week: 1, Day: 1, Category: plan.CategorySnack}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cursor.Validate(2, twoDays, twoCats)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, subscription.ErrInvalidCursor)
			}
		})
	}
}

func TestResolveSlot(t *testing.T) {
	t.Run("exact hit needs no healing", func(t *testing.T) {
		sub, snap, err := builder.NewSubscriptionBuilder().BuildWithSnapshot()
		require.NoError(t, err)

		slot, healed, err := sub.CurrentSlot(snap)
		require.NoError(t, err)
		assert.False(t, healed)
		assert.Equal(t, 1, slot.Key.Week)
		assert.Equal(t, 1, slot.Key.Day)
		assert.Equal(t, plan.CategoryBreakfast, slot.Key.Category)
	})

	t.Run("stale cursor heals forward", func(t *testing.T) {
		_, snap, err := builder.NewSubscriptionBuilder().BuildWithSnapshot()
		require.NoError(t, err)

		// Day 2 never holds a slot; the scan settles on day 3.
		stale := subscription.Cursor{Week: 1, Day: 2, Category: plan.CategoryBreakfast}
		slot, corrected, healed, err := stale.ResolveSlot(snap)
		require.NoError(t, err)
		assert.True(t, healed)
		assert.Equal(t, subscription.Cursor{Week: 1, Day: 3, Category: plan.CategoryBreakfast}, corrected)
		assert.Equal(t, corrected.Week, slot.Key.Week)
	})

	t.Run("past the end wraps to the first slot", func(t *testing.T) {
		_, snap, err := builder.NewSubscriptionBuilder().BuildWithSnapshot()
		require.NoError(t, err)

		stale := subscription.Cursor{Week: 2, Day: 5, Category: plan.CategoryBreakfast}
		slot, corrected, healed, err := stale.ResolveSlot(snap)
		require.NoError(t, err)
		assert.True(t, healed)
		assert.Equal(t, subscription.Cursor{Week: 1, Day: 1, Category: plan.CategoryBreakfast}, corrected)
		assert.NotNil(t, slot)
	})

	t.Run("empty snapshot is unrecoverable", func(t *testing.T) {
		_, snap, err := builder.NewSubscriptionBuilder().BuildWithSnapshot()
		require.NoError(t, err)
		snap.Slots = nil

		c := subscription.FirstCursor(twoCats)
		_, _, _, err = c.ResolveSlot(snap)
		require.ErrorIs(t, err, subscription.ErrCursorUnrecoverable)
	})
}

func TestUpcomingDays(t *testing.T) {
	t.Run("one row per scheduled day", func(t *testing.T) {
		sub, snap, err := builder.NewSubscriptionBuilder().BuildWithSnapshot()
		require.NoError(t, err)

		days := sub.UpcomingDays(snap, 14)
		// Delivery days 1 and 3 over two weeks inside a 14-day horizon.
		require.Len(t, days, 4)
		assert.Equal(t, snap.StartDate, days[0].Date)
		assert.Len(t, days[0].Slots, 2)
		assert.Equal(t, snap.StartDate.AddDate(0, 0, 9), days[3].Date)
	})

	t.Run("horizon bounds the walk", func(t *testing.T) {
		sub, snap, err := builder.NewSubscriptionBuilder().BuildWithSnapshot()
		require.NoError(t, err)

		days := sub.UpcomingDays(snap, 3)
		require.Len(t, days, 2)
		assert.Equal(t, 1, days[0].Day)
		assert.Equal(t, 3, days[1].Day)
	})

	t.Run("walk does not mutate the cursor", func(t *testing.T) {
		sub, snap, err := builder.NewSubscriptionBuilder().BuildWithSnapshot()
		require.NoError(t, err)

		before := sub.Cursor()
		_ = sub.UpcomingDays(snap, 28)
		assert.Equal(t, before, sub.Cursor())
	})

	t.Run("crosses into the next cycle", func(t *testing.T) {
		sub, snap, err := builder.NewSubscriptionBuilder().BuildWithSnapshot()
		require.NoError(t, err)

		days := sub.UpcomingDays(snap, 16)
		require.Len(t, days, 5)
		// Fifth row is week 1 day 1 of the repeated cycle.
		assert.Equal(t, snap.StartDate.AddDate(0, 0, 14), days[4].Date)
		assert.Equal(t, 1, days[4].Week)
	})
}
