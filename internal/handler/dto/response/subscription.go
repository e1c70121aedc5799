package response

import (
	"time"

	"mealdrop-service/internal/domain/plan"
	"mealdrop-service/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubscriptionResponse struct {
	ID                 uuid.UUID             `json:"id"`
	CustomerID         uuid.UUID             `json:"customerId"`
	PlanID             uuid.UUID             `json:"planId"`
	Status             string                `json:"status"`
	DurationWeeks      int                   `json:"durationWeeks"`
	StartDate          time.Time             `json:"startDate"`
	EndDate            time.Time             `json:"endDate"`
	ActivatedAt        *time.Time            `json:"activatedAt,omitempty"`
	PausedAt           *time.Time            `json:"pausedAt,omitempty"`
	PauseReason        *string               `json:"pauseReason,omitempty"`
	CancelledAt        *time.Time            `json:"cancelledAt,omitempty"`
	SelectedCategories []string              `json:"selectedCategories"`
	DeliveryWindow     string                `json:"deliveryWindow"`
	SnapshotState      string                `json:"snapshotState"`
	NextDelivery       *NextDeliveryResponse `json:"nextDelivery,omitempty"`
	Pricing            *PricingResponse      `json:"pricing,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

type NextDeliveryResponse struct {
	Date   time.Time `json:"date"`
	Window string    `json:"window"`
}

type PricingResponse struct {
	BasePricePerWeek decimal.Decimal  `json:"basePricePerWeek"`
	DurationWeeks    int              `json:"durationWeeks"`
	Subtotal         decimal.Decimal  `json:"subtotal"`
	DiscountPercent  *decimal.Decimal `json:"discountPercent,omitempty"`
	Total            decimal.Decimal  `json:"total"`
}

type MealResponse struct {
	MealID      uuid.UUID       `json:"mealId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	Nutrition   plan.Nutrition  `json:"nutrition"`
	Price       decimal.Decimal `json:"price"`
	DietaryTags []string        `json:"dietaryTags"`
}

type CurrentMealResponse struct {
	SubscriptionID        uuid.UUID      `json:"subscriptionId"`
	Week                  int            `json:"week"`
	Day                   int            `json:"day"`
	Category              string         `json:"category"`
	Meals                 []MealResponse `json:"meals"`
	ScheduledDeliveryDate time.Time      `json:"scheduledDeliveryDate"`
	DeliveryWindow        string         `json:"deliveryWindow"`
	Status                string         `json:"status"`
}

type SlotResponse struct {
	Category              string         `json:"category"`
	Meals                 []MealResponse `json:"meals"`
	ScheduledDeliveryDate time.Time      `json:"scheduledDeliveryDate"`
	Status                string         `json:"status"`
	TimelineEntryID       *uuid.UUID     `json:"timelineEntryId,omitempty"`
}

type RecompileResponse struct {
	Recompiled int `json:"recompiled"`
}

type TimelineDayResponse struct {
	Date  time.Time      `json:"date"`
	Week  int            `json:"week"`
	Day   int            `json:"day"`
	Slots []SlotResponse `json:"slots"`
}

func FromSubscriptionView(v *queries.SubscriptionView) *SubscriptionResponse {
	resp := &SubscriptionResponse{
		ID:                 v.ID,
		CustomerID:         v.CustomerID,
		PlanID:             v.PlanID,
		Status:             v.Status,
		DurationWeeks:      v.DurationWeeks,
		StartDate:          v.StartDate,
		EndDate:            v.EndDate,
		ActivatedAt:        v.ActivatedAt,
		PausedAt:           v.PausedAt,
		PauseReason:        v.PauseReason,
		CancelledAt:        v.CancelledAt,
		SelectedCategories: v.SelectedCategories,
		DeliveryWindow:     v.DeliveryWindow,
		SnapshotState:      v.SnapshotState,
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
	}
	if v.NextDelivery != nil {
		resp.NextDelivery = &NextDeliveryResponse{
			Date:   v.NextDelivery.Date,
			Window: v.NextDelivery.Window,
		}
	}
	if v.Pricing != nil {
		resp.Pricing = &PricingResponse{
			BasePricePerWeek: v.Pricing.BasePricePerWeek,
			DurationWeeks:    v.Pricing.DurationWeeks,
			Subtotal:         v.Pricing.Subtotal,
			DiscountPercent:  v.Pricing.DiscountPercent,
			Total:            v.Pricing.Total,
		}
	}
	return resp
}

func FromCurrentMealView(v *queries.CurrentMealView) *CurrentMealResponse {
	return &CurrentMealResponse{
		SubscriptionID:        v.SubscriptionID,
		Week:                  v.Week,
		Day:                   v.Day,
		Category:              v.Category,
		Meals:                 fromMealViews(v.Meals),
		ScheduledDeliveryDate: v.ScheduledDeliveryDate,
		DeliveryWindow:        v.DeliveryWindow,
		Status:                v.Status,
	}
}

func FromTimeline(days []queries.DayView) []TimelineDayResponse {
	out := make([]TimelineDayResponse, 0, len(days))
	for _, d := range days {
		slots := make([]SlotResponse, 0, len(d.Slots))
		for _, s := range d.Slots {
			slots = append(slots, SlotResponse{
				Category:              s.Category,
				Meals:                 fromMealViews(s.Meals),
				ScheduledDeliveryDate: s.ScheduledDeliveryDate,
				Status:                s.Status,
				TimelineEntryID:       s.TimelineEntryID,
			})
		}
		out = append(out, TimelineDayResponse{
			Date:  d.Date,
			Week:  d.Week,
			Day:   d.Day,
			Slots: slots,
		})
	}
	return out
}

func fromMealViews(meals []queries.MealView) []MealResponse {
	out := make([]MealResponse, 0, len(meals))
	for _, m := range meals {
		out = append(out, MealResponse{
			MealID:      m.MealID,
			Name:        m.Name,
			Description: m.Description,
			ImageURL:    m.ImageURL,
			Nutrition:   m.Nutrition,
			Price:       m.Price,
			DietaryTags: m.DietaryTags,
		})
	}
	return out
}
