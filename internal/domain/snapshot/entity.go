package snapshot

import (
	"errors"
	"time"

	"mealdrop-service/internal/domain/plan"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrSlotNotFound      = errors.New("slot not found in snapshot")
	ErrInvalidSlotStatus = errors.New("invalid slot delivery status")
)

// DeliveryStatus tracks the customer-facing state of one schedule slot.
type DeliveryStatus string

const (
	SlotPending        DeliveryStatus = "pending"
	SlotScheduled      DeliveryStatus = "scheduled"
	SlotPreparing      DeliveryStatus = "preparing"
	SlotOutForDelivery DeliveryStatus = "out_for_delivery"
	SlotDelivered      DeliveryStatus = "delivered"
	SlotSkipped        DeliveryStatus = "skipped"
	SlotCancelled      DeliveryStatus = "cancelled"
)

func (s DeliveryStatus) Validate() error {
	switch s {
	case SlotPending, SlotScheduled, SlotPreparing, SlotOutForDelivery,
		SlotDelivered, SlotSkipped, SlotCancelled:
		return nil
	}
	return ErrInvalidSlotStatus
}

// IsFinal reports whether the slot can no longer change.
func (s DeliveryStatus) IsFinal() bool {
	return s == SlotDelivered || s == SlotSkipped || s == SlotCancelled
}

// SlotKey addresses one cell of the frozen schedule, unique per subscription.
type SlotKey struct {
	Week     int               `json:"week"`
	Day      int               `json:"day"`
	Category plan.MealCategory `json:"category"`
}

// MealDetail is the denormalized copy of a catalog meal taken at compile time.
// Catalog edits after compilation never reach it.
type MealDetail struct {
	MealID      uuid.UUID       `json:"meal_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Nutrition   plan.Nutrition  `json:"nutrition"`
	Price       decimal.Decimal `json:"price"`
	DietaryTags []string        `json:"dietary_tags"`
}

// Slot is immutable except for Status and the timeline back-reference.
type Slot struct {
	Key                   SlotKey        `json:"key"`
	Meals                 []MealDetail   `json:"meals"`
	ScheduledDeliveryDate time.Time      `json:"scheduled_delivery_date"`
	Status                DeliveryStatus `json:"status"`
	TimelineEntryID       *uuid.UUID     `json:"timeline_entry_id,omitempty"`
}

func (s *Slot) Nutrition() plan.Nutrition {
	var total plan.Nutrition
	for _, m := range s.Meals {
		total = total.Add(m.Nutrition)
	}
	return total
}

func (s *Slot) Price() decimal.Decimal {
	total := decimal.Zero
	for _, m := range s.Meals {
		total = total.Add(m.Price)
	}
	return total
}

// Stats are pre-aggregated once at compile time. They are never recomputed, so
// snapshot reads stay stable under catalog changes.
type Stats struct {
	TotalNutrition  plan.Nutrition  `json:"total_nutrition"`
	AvgNutritionDay plan.Nutrition  `json:"avg_nutrition_per_day"`
	TotalMealPrice  decimal.Decimal `json:"total_meal_price"`
	ScheduledDays   int             `json:"scheduled_days"`
	SlotCount       int             `json:"slot_count"`
}

// Pricing is fixed at compile time regardless of later catalog price changes.
type Pricing struct {
	BasePricePerWeek decimal.Decimal  `json:"base_price_per_week"`
	DurationWeeks    int              `json:"duration_weeks"`
	Subtotal         decimal.Decimal  `json:"subtotal"`
	DiscountPercent  *decimal.Decimal `json:"discount_percent,omitempty"`
	Total            decimal.Decimal  `json:"total"`
}

// State marks whether the best-effort compile completed. An incomplete
// snapshot is queued for out-of-band retry and never blocks the subscription.
type State string

const (
	StateReady      State = "ready"
	StateIncomplete State = "incomplete"
)

// Snapshot is the per-subscription frozen copy of a meal plan. It is owned
// exclusively by one subscription and destroyed with it.
type Snapshot struct {
	SubscriptionID     uuid.UUID           `json:"subscription_id"`
	PlanID             uuid.UUID           `json:"plan_id"`
	PlanName           string              `json:"plan_name"`
	PlanDescription    string              `json:"plan_description"`
	CoverImageURL      string              `json:"cover_image_url"`
	SelectedCategories []plan.MealCategory `json:"selected_categories"`
	DeliveryDays       []int               `json:"delivery_days"`
	DurationWeeks      int                 `json:"duration_weeks"`
	StartDate          time.Time           `json:"start_date"`
	EndDate            time.Time           `json:"end_date"`
	Slots              []Slot              `json:"slots"`
	Stats              Stats               `json:"stats"`
	Pricing            Pricing             `json:"pricing"`
	State              State               `json:"state"`
	CompiledAt         time.Time           `json:"compiled_at"`
	LastSyncedAt       *time.Time          `json:"last_synced_at,omitempty"`
}

// SlotAt finds the slot for an exact key.
func (s *Snapshot) SlotAt(key SlotKey) (*Slot, bool) {
	for i := range s.Slots {
		if s.Slots[i].Key == key {
			return &s.Slots[i], true
		}
	}
	return nil, false
}

// SlotsOnDate returns every slot scheduled for the given calendar date.
func (s *Snapshot) SlotsOnDate(date time.Time) []*Slot {
	day := DateOnly(date)
	var out []*Slot
	for i := range s.Slots {
		if s.Slots[i].ScheduledDeliveryDate.Equal(day) {
			out = append(out, &s.Slots[i])
		}
	}
	return out
}

// SlotsForTimelineEntry returns the slots back-referencing a timeline entry.
func (s *Snapshot) SlotsForTimelineEntry(entryID uuid.UUID) []*Slot {
	var out []*Slot
	for i := range s.Slots {
		if s.Slots[i].TimelineEntryID != nil && *s.Slots[i].TimelineEntryID == entryID {
			out = append(out, &s.Slots[i])
		}
	}
	return out
}

// MarkSynced stamps the one-time sync marker. Subsequent calls are no-ops.
func (s *Snapshot) MarkSynced(now time.Time) {
	if s.LastSyncedAt == nil {
		t := now.UTC()
		s.LastSyncedAt = &t
	}
}

// DateOnly truncates to a UTC calendar date. Delivery dates are date-level;
// time-of-day lives in the subscription's delivery window preference.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
