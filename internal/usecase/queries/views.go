package queries

import (
	"time"

	"mealdrop-service/internal/domain/plan"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubscriptionView struct {
	ID                 uuid.UUID
	CustomerID         uuid.UUID
	PlanID             uuid.UUID
	Status             string
	DurationWeeks      int
	StartDate          time.Time
	EndDate            time.Time
	ActivatedAt        *time.Time
	PausedAt           *time.Time
	PauseReason        *string
	CancelledAt        *time.Time
	SelectedCategories []string
	DeliveryWindow     string
	SnapshotState      string
	NextDelivery       *NextDeliveryView
	Pricing            *PricingView
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type NextDeliveryView struct {
	Date   time.Time
	Window string
}

type PricingView struct {
	BasePricePerWeek decimal.Decimal
	DurationWeeks    int
	Subtotal         decimal.Decimal
	DiscountPercent  *decimal.Decimal
	Total            decimal.Decimal
}

type MealView struct {
	MealID      uuid.UUID
	Name        string
	Description string
	ImageURL    string
	Nutrition   plan.Nutrition
	Price       decimal.Decimal
	DietaryTags []string
}

// CurrentMealView is the answer to "what meal is due next".
type CurrentMealView struct {
	SubscriptionID        uuid.UUID
	Week                  int
	Day                   int
	Category              string
	Meals                 []MealView
	ScheduledDeliveryDate time.Time
	DeliveryWindow        string
	Status                string
}

type SlotView struct {
	Category              string
	Meals                 []MealView
	ScheduledDeliveryDate time.Time
	Status                string
	TimelineEntryID       *uuid.UUID
}

// DayView is one row of the look-ahead timeline.
type DayView struct {
	Date  time.Time
	Week  int
	Day   int
	Slots []SlotView
}

type TimelineEntryView struct {
	ID         uuid.UUID
	Ordinal    int
	Date       time.Time
	Status     string
	ChefID     *uuid.UUID
	DriverID   *uuid.UUID
	SkipReason *string
}

type DelegationView struct {
	ID             uuid.UUID
	SubscriptionID uuid.UUID
	Entries        []TimelineEntryView
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
