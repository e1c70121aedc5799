package snapshot

import (
	"context"
	"errors"
	"sort"
	"time"

	"mealdrop-service/internal/domain/plan"
	"mealdrop-service/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCategories  = errors.New("selected meal categories must not be empty")
	ErrNoMatchingSlots  = errors.New("no schedule slots match the selected categories")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidDuration  = errors.New("duration must be at least one week")
	ErrInvalidDiscount  = errors.New("discount percent must be between 0 and 100")
)

// CatalogReader is the one external dependency of the compiler. Implementations
// retry with bounded backoff; a hard failure surfaces here and the caller marks
// the snapshot incomplete instead of leaving it half-written.
type CatalogReader interface {
	Plan(ctx context.Context, planID uuid.UUID) (*plan.Plan, error)
	PlanSchedule(ctx context.Context, planID uuid.UUID) ([]plan.ScheduleAssignment, error)
	Meal(ctx context.Context, mealID uuid.UUID) (*plan.Meal, error)
}

type CompileInput struct {
	SubscriptionID     uuid.UUID
	PlanID             uuid.UUID
	StartDate          time.Time
	EndDate            time.Time
	DurationWeeks      int
	SelectedCategories []plan.MealCategory
	DiscountPercent    *decimal.Decimal
}

func (in CompileInput) validate() error {
	if len(in.SelectedCategories) == 0 {
		return ErrEmptyCategories
	}
	for _, c := range in.SelectedCategories {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if in.DurationWeeks < 1 {
		return ErrInvalidDuration
	}
	if !in.StartDate.Before(in.EndDate) {
		return ErrInvalidDateRange
	}
	if in.DiscountPercent != nil {
		if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
			return ErrInvalidDiscount
		}
	}
	return nil
}

type Compiler struct {
	catalog CatalogReader
	clock   clock.Clock
}

func NewCompiler(catalog CatalogReader, clock clock.Clock) *Compiler {
	return &Compiler{
		catalog: catalog,
		clock:   clock,
	}
}

// Compile freezes one plan into a fully denormalized snapshot. It is a pure
// function of its input plus the catalog state at call time: the same input
// against an unchanged catalog reproduces an identical snapshot, and catalog
// edits after compilation never alter an existing one.
func (c *Compiler) Compile(ctx context.Context, in CompileInput) (*Snapshot, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p, err := c.catalog.Plan(ctx, in.PlanID)
	if err != nil {
		return nil, err
	}
	for _, cat := range in.SelectedCategories {
		if !p.HasCategory(cat) {
			return nil, ErrNoMatchingSlots
		}
	}

	schedule, err := c.catalog.PlanSchedule(ctx, in.PlanID)
	if err != nil {
		return nil, err
	}

	categories := plan.SortCategories(in.SelectedCategories)
	selected := lo.Filter(schedule, func(a plan.ScheduleAssignment, _ int) bool {
		return a.Week <= in.DurationWeeks && lo.Contains(categories, a.Category)
	})
	if len(selected) == 0 {
		return nil, ErrNoMatchingSlots
	}

	slots, err := c.buildSlots(ctx, selected, categories, DateOnly(in.StartDate))
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		SubscriptionID:     in.SubscriptionID,
		PlanID:             p.ID,
		PlanName:           p.Name,
		PlanDescription:    p.Description,
		CoverImageURL:      p.CoverImageURL,
		SelectedCategories: categories,
		DeliveryDays:       deliveryDays(p, selected),
		DurationWeeks:      in.DurationWeeks,
		StartDate:          DateOnly(in.StartDate),
		EndDate:            DateOnly(in.EndDate),
		Slots:              slots,
		Stats:              aggregate(slots),
		Pricing:            price(p.BasePricePerWeek, in.DurationWeeks, in.DiscountPercent),
		State:              StateReady,
		CompiledAt:         c.clock.Now().UTC(),
	}
	return snap, nil
}

func (c *Compiler) buildSlots(
	ctx context.Context,
	assignments []plan.ScheduleAssignment,
	categories []plan.MealCategory,
	startDate time.Time,
) ([]Slot, error) {
	slots := make([]Slot, 0, len(assignments))
	for _, a := range assignments {
		if err := a.Validate(); err != nil {
			return nil, err
		}

		meals := make([]MealDetail, 0, len(a.MealIDs))
		for _, mealID := range a.MealIDs {
			meal, err := c.catalog.Meal(ctx, mealID)
			if err != nil {
				return nil, err
			}
			var detail MealDetail
			// Deep copy so the slot owns its meal data outright; the catalog
			// record stays free to change underneath.
			if err := copier.CopyWithOption(&detail, meal, copier.Option{DeepCopy: true}); err != nil {
				return nil, err
			}
			detail.MealID = meal.ID
			meals = append(meals, detail)
		}

		slots = append(slots, Slot{
			Key: SlotKey{
				Week:     a.Week,
				Day:      a.Day,
				Category: a.Category,
			},
			Meals:                 meals,
			ScheduledDeliveryDate: startDate.AddDate(0, 0, (a.Week-1)*7+(a.Day-1)),
			Status:                SlotPending,
		})
	}

	// Deterministic layout: week-major, day, then fixed category order.
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i].Key, slots[j].Key
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.Category.OrderIndex() < b.Category.OrderIndex()
	})
	return slots, nil
}

func deliveryDays(p *plan.Plan, selected []plan.ScheduleAssignment) []int {
	if len(p.DeliveryDays) > 0 {
		days := make([]int, len(p.DeliveryDays))
		copy(days, p.DeliveryDays)
		sort.Ints(days)
		return days
	}
	days := lo.Uniq(lo.Map(selected, func(a plan.ScheduleAssignment, _ int) int {
		return a.Day
	}))
	sort.Ints(days)
	return days
}

// aggregate computes the snapshot statistics once. Per-day averages divide by
// the count of distinct dates that actually hold a slot; days with nothing
// scheduled must not dilute the average.
func aggregate(slots []Slot) Stats {
	var total plan.Nutrition
	totalPrice := decimal.Zero
	for i := range slots {
		total = total.Add(slots[i].Nutrition())
		totalPrice = totalPrice.Add(slots[i].Price())
	}

	days := lo.Uniq(lo.Map(slots, func(s Slot, _ int) time.Time {
		return s.ScheduledDeliveryDate
	}))

	return Stats{
		TotalNutrition:  total,
		AvgNutritionDay: total.DivideBy(len(days)),
		TotalMealPrice:  totalPrice,
		ScheduledDays:   len(days),
		SlotCount:       len(slots),
	}
}

func price(basePerWeek decimal.Decimal, weeks int, discountPercent *decimal.Decimal) Pricing {
	subtotal := basePerWeek.Mul(decimal.NewFromInt(int64(weeks)))
	total := subtotal
	if discountPercent != nil {
		factor := decimal.NewFromInt(100).Sub(*discountPercent).Div(decimal.NewFromInt(100))
		total = subtotal.Mul(factor).Round(2)
	}
	return Pricing{
		BasePricePerWeek: basePerWeek,
		DurationWeeks:    weeks,
		Subtotal:         subtotal,
		DiscountPercent:  discountPercent,
		Total:            total,
	}
}
