//go:build unit

package snapshot_test

import (
	"context"
	"testing"
	"time"

	"mealdrop-service/internal/domain/plan"
	"mealdrop-service/internal/domain/snapshot"
	"mealdrop-service/internal/pkg/clock"
	"mealdrop-service/internal/pkg/errs"
	"mealdrop-service/internal/pkg/ptr"
	"mealdrop-service/tests/common/builder"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileInput(f builder.CatalogFixture) snapshot.CompileInput {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return snapshot.CompileInput{
		SubscriptionID:     uuid.New(),
		PlanID:             f.PlanID,
		StartDate:          start,
		EndDate:            start.AddDate(0, 0, 14),
		DurationWeeks:      2,
		SelectedCategories: []plan.MealCategory{plan.CategoryBreakfast, plan.CategoryLunch},
	}
}

func TestCompile(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	t.Run("full snapshot layout", func(t *testing.T) {
		f := builder.NewCatalogBuilder().Build()
		compiler := snapshot.NewCompiler(f.Catalog, clock.NewMockClock(now))

		snap, err := compiler.Compile(context.Background(), compileInput(f))
		require.NoError(t, err)

		// 2 weeks x 2 delivery days x 2 categories
		assert.Len(t, snap.Slots, 8)
		assert.Equal(t, []int{1, 3}, snap.DeliveryDays)
		assert.Equal(t, snapshot.StateReady, snap.State)
		assert.Equal(t, "Balanced Week", snap.PlanName)

		// Week-major, day, then category order.
		first := snap.Slots[0]
		assert.Equal(t, snapshot.SlotKey{Week: 1, Day: 1, Category: plan.CategoryBreakfast}, first.Key)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), first.ScheduledDeliveryDate)

		// Day 3 of week 2 lands 7+2 days after the start date.
		last := snap.Slots[len(snap.Slots)-1]
		assert.Equal(t, snapshot.SlotKey{Week: 2, Day: 3, Category: plan.CategoryLunch}, last.Key)
		assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), last.ScheduledDeliveryDate)
	})

	t.Run("deterministic against unchanged catalog", func(t *testing.T) {
		f := builder.NewCatalogBuilder().Build()
		compiler := snapshot.NewCompiler(f.Catalog, clock.NewMockClock(now))
		in := compileInput(f)

		first, err := compiler.Compile(context.Background(), in)
		require.NoError(t, err)
		second, err := compiler.Compile(context.Background(), in)
		require.NoError(t, err)

		decimalCmp := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
		assert.Empty(t, cmp.Diff(first, second, decimalCmp))
	})

	t.Run("catalog edits after compile do not leak in", func(t *testing.T) {
		f := builder.NewCatalogBuilder().Build()
		compiler := snapshot.NewCompiler(f.Catalog, clock.NewMockClock(now))

		snap, err := compiler.Compile(context.Background(), compileInput(f))
		require.NoError(t, err)

		f.Catalog.Meals[f.BreakfastID].Name = "Renamed"
		f.Catalog.Meals[f.BreakfastID].Nutrition.Calories = 9999

		assert.Equal(t, "Oat Bowl", snap.Slots[0].Meals[0].Name)
		assert.Equal(t, float64(400), snap.Slots[0].Meals[0].Nutrition.Calories)
	})

	t.Run("stats average divides by scheduled days only", func(t *testing.T) {
		f := builder.NewCatalogBuilder().Build()
		compiler := snapshot.NewCompiler(f.Catalog, clock.NewMockClock(now))

		snap, err := compiler.Compile(context.Background(), compileInput(f))
		require.NoError(t, err)

		// 4 distinct delivery dates out of 14 calendar days.
		assert.Equal(t, 4, snap.Stats.ScheduledDays)
		assert.Equal(t, 8, snap.Stats.SlotCount)
		assert.Equal(t, float64(8*500), snap.Stats.TotalNutrition.Calories)
		// (400+600) per day, never diluted by empty days.
		assert.Equal(t, float64(1000), snap.Stats.AvgNutritionDay.Calories)
		assert.True(t, snap.Stats.TotalMealPrice.Equal(decimal.NewFromFloat(4*20.50)))
	})

	t.Run("pricing with discount", func(t *testing.T) {
		f := builder.NewCatalogBuilder().Build()
		compiler := snapshot.NewCompiler(f.Catalog, clock.NewMockClock(now))

		in := compileInput(f)
		in.DiscountPercent = ptr.To(decimal.NewFromInt(10))

		snap, err := compiler.Compile(context.Background(), in)
		require.NoError(t, err)

		assert.True(t, snap.Pricing.Subtotal.Equal(decimal.NewFromInt(200)))
		assert.True(t, snap.Pricing.Total.Equal(decimal.NewFromInt(180)))
	})

	t.Run("category filter", func(t *testing.T) {
		f := builder.NewCatalogBuilder().Build()
		compiler := snapshot.NewCompiler(f.Catalog, clock.NewMockClock(now))

		in := compileInput(f)
		in.SelectedCategories = []plan.MealCategory{plan.CategoryLunch}

		snap, err := compiler.Compile(context.Background(), in)
		require.NoError(t, err)

		assert.Len(t, snap.Slots, 4)
		for _, s := range snap.Slots {
			assert.Equal(t, plan.CategoryLunch, s.Key.Category)
		}
	})

	t.Run("validation failures", func(t *testing.T) {
		f := builder.NewCatalogBuilder().Build()
		compiler := snapshot.NewCompiler(f.Catalog, clock.NewMockClock(now))

		cases := []struct {
			name   string
			mutate func(*snapshot.CompileInput)
			errIs  error
		}{
			{
				name:   "empty categories",
				mutate: func(in *snapshot.CompileInput) { in.SelectedCategories = nil },
				errIs:  snapshot.ErrEmptyCategories,
			},
			{
				name: "category not offered by plan",
				mutate: func(in *snapshot.CompileInput) {
					in.SelectedCategories = []plan.MealCategory{plan.CategorySnack}
				},
				errIs: snapshot.ErrNoMatchingSlots,
			},
			{
				name:   "zero duration",
				mutate: func(in *snapshot.CompileInput) { in.DurationWeeks = 0 },
				errIs:  snapshot.ErrInvalidDuration,
			},
			{
				name:   "end before start",
				mutate: func(in *snapshot.CompileInput) { in.EndDate = in.StartDate.AddDate(0, 0, -1) },
				errIs:  snapshot.ErrInvalidDateRange,
			},
			{
				name: "discount above 100",
				mutate: func(in *snapshot.CompileInput) {
					in.DiscountPercent = ptr.To(decimal.NewFromInt(101))
				},
				errIs: snapshot.ErrInvalidDiscount,
			},
			{
				name:   "unknown plan",
				mutate: func(in *snapshot.CompileInput) { in.PlanID = uuid.New() },
				errIs:  errs.ErrPlanNotFound,
			},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				in := compileInput(f)
				tc.mutate(&in)
				_, err := compiler.Compile(context.Background(), in)
				require.ErrorIs(t, err, tc.errIs)
			})
		}
	})
}
