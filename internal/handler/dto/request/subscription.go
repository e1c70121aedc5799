package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateSubscriptionRequest struct {
	PlanID          uuid.UUID        `json:"plan_id" binding:"required"`
	StartDate       time.Time        `json:"start_date" binding:"required"`
	DurationWeeks   int              `json:"duration_weeks" binding:"required,min=1"`
	Categories      []string         `json:"categories" binding:"required,min=1"`
	DeliveryWindow  string           `json:"delivery_window" binding:"required"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
}

type PauseSubscriptionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type SkipMealRequest struct {
	Date   time.Time `json:"date" binding:"required"`
	Reason string    `json:"reason,omitempty"`
}
