package request

import "github.com/google/uuid"

// DeliveryCompletedRequest is the payload of the delivery-completed event
// posted by the driver app or the logistics webhook.
type DeliveryCompletedRequest struct {
	TimelineEntryID uuid.UUID `json:"timeline_entry_id" binding:"required"`
}

type AssignChefRequest struct {
	ChefID uuid.UUID `json:"chef_id" binding:"required"`
}

type AssignDriverRequest struct {
	DriverID uuid.UUID `json:"driver_id" binding:"required"`
}
