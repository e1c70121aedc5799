package builder

import (
	"context"

	"mealdrop-service/internal/domain/plan"
	"mealdrop-service/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FakeCatalog is an in-memory CatalogReader for unit tests.
type FakeCatalog struct {
	Plans     map[uuid.UUID]*plan.Plan
	Schedules map[uuid.UUID][]plan.ScheduleAssignment
	Meals     map[uuid.UUID]*plan.Meal

	// Err, when set, is returned by every read to simulate an outage.
	Err error
}

func (f *FakeCatalog) Plan(_ context.Context, planID uuid.UUID) (*plan.Plan, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	p, ok := f.Plans[planID]
	if !ok {
		return nil, errs.ErrPlanNotFound
	}
	return p, nil
}

func (f *FakeCatalog) PlanSchedule(_ context.Context, planID uuid.UUID) ([]plan.ScheduleAssignment, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Schedules[planID], nil
}

func (f *FakeCatalog) Meal(_ context.Context, mealID uuid.UUID) (*plan.Meal, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	m, ok := f.Meals[mealID]
	if !ok {
		return nil, errs.ErrMealNotFound
	}
	return m, nil
}

// CatalogFixture is the standard two-category, two-delivery-day plan used
// across tests: breakfast and lunch on Monday and Wednesday.
type CatalogFixture struct {
	Catalog     *FakeCatalog
	PlanID      uuid.UUID
	BreakfastID uuid.UUID
	LunchID     uuid.UUID
}

type CatalogBuilder struct {
	deliveryDays []int
	weeks        int
	basePrice    decimal.Decimal
}

func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{
		deliveryDays: []int{1, 3},
		weeks:        2,
		basePrice:    decimal.NewFromFloat(100.00),
	}
}

func (b *CatalogBuilder) WithDeliveryDays(days ...int) *CatalogBuilder {
	b.deliveryDays = days
	return b
}

func (b *CatalogBuilder) WithWeeks(weeks int) *CatalogBuilder {
	b.weeks = weeks
	return b
}

func (b *CatalogBuilder) WithBasePrice(price decimal.Decimal) *CatalogBuilder {
	b.basePrice = price
	return b
}

func (b *CatalogBuilder) Build() CatalogFixture {
	planID := uuid.New()
	breakfastID := uuid.New()
	lunchID := uuid.New()

	p := &plan.Plan{
		ID:                  planID,
		Name:                "Balanced Week",
		Description:         "Two meals a day, twice a week",
		CoverImageURL:       "https://cdn.example.com/plans/balanced.jpg",
		AvailableCategories: []plan.MealCategory{plan.CategoryBreakfast, plan.CategoryLunch},
		DeliveryDays:        b.deliveryDays,
		BasePricePerWeek:    b.basePrice,
	}

	var schedule []plan.ScheduleAssignment
	for week := 1; week <= b.weeks; week++ {
		for _, day := range b.deliveryDays {
			schedule = append(schedule,
				plan.ScheduleAssignment{Week: week, Day: day, Category: plan.CategoryBreakfast, MealIDs: []uuid.UUID{breakfastID}},
				plan.ScheduleAssignment{Week: week, Day: day, Category: plan.CategoryLunch, MealIDs: []uuid.UUID{lunchID}},
			)
		}
	}

	catalog := &FakeCatalog{
		Plans:     map[uuid.UUID]*plan.Plan{planID: p},
		Schedules: map[uuid.UUID][]plan.ScheduleAssignment{planID: schedule},
		Meals: map[uuid.UUID]*plan.Meal{
			breakfastID: {
				ID:          breakfastID,
				Name:        "Oat Bowl",
				Description: "Oats, berries, almond butter",
				Nutrition:   plan.Nutrition{Calories: 400, ProteinGrams: 20, CarbsGrams: 55, FatGrams: 12},
				Price:       decimal.NewFromFloat(8.50),
				DietaryTags: []string{"vegetarian"},
			},
			lunchID: {
				ID:          lunchID,
				Name:        "Chicken Quinoa Salad",
				Description: "Grilled chicken, quinoa, greens",
				Nutrition:   plan.Nutrition{Calories: 600, ProteinGrams: 30, CarbsGrams: 45, FatGrams: 22},
				Price:       decimal.NewFromFloat(12.00),
				DietaryTags: []string{"gluten-free"},
			},
		},
	}

	return CatalogFixture{
		Catalog:     catalog,
		PlanID:      planID,
		BreakfastID: breakfastID,
		LunchID:     lunchID,
	}
}
