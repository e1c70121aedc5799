package response

import (
	"time"

	"mealdrop-service/internal/usecase/queries"

	"github.com/google/uuid"
)

type DelegationResponse struct {
	ID             uuid.UUID               `json:"id"`
	SubscriptionID uuid.UUID               `json:"subscriptionId"`
	Entries        []TimelineEntryResponse `json:"entries"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

type TimelineEntryResponse struct {
	ID         uuid.UUID  `json:"id"`
	Ordinal    int        `json:"ordinal"`
	Date       time.Time  `json:"date"`
	Status     string     `json:"status"`
	ChefID     *uuid.UUID `json:"chefId,omitempty"`
	DriverID   *uuid.UUID `json:"driverId,omitempty"`
	SkipReason *string    `json:"skipReason,omitempty"`
}

func FromDelegationView(v *queries.DelegationView) *DelegationResponse {
	entries := make([]TimelineEntryResponse, 0, len(v.Entries))
	for _, e := range v.Entries {
		entries = append(entries, TimelineEntryResponse{
			ID:         e.ID,
			Ordinal:    e.Ordinal,
			Date:       e.Date,
			Status:     e.Status,
			ChefID:     e.ChefID,
			DriverID:   e.DriverID,
			SkipReason: e.SkipReason,
		})
	}
	return &DelegationResponse{
		ID:             v.ID,
		SubscriptionID: v.SubscriptionID,
		Entries:        entries,
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}
}
