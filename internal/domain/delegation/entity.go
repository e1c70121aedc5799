package delegation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidEntryStatus = errors.New("invalid timeline entry status")
	ErrEntryNotFound      = errors.New("timeline entry not found")
	ErrEntryFinal         = errors.New("timeline entry is in a final state")
	ErrNoSlots            = errors.New("snapshot has no slots to delegate")
)

// EntryStatus tracks chef/driver handling of one delivery date. It is
// independent of the customer-facing slot statuses in the snapshot.
type EntryStatus string

const (
	EntryPending        EntryStatus = "pending"
	EntryScheduled      EntryStatus = "scheduled"
	EntryPreparing      EntryStatus = "preparing"
	EntryOutForDelivery EntryStatus = "out_for_delivery"
	EntryDelivered      EntryStatus = "delivered"
	EntrySkipped        EntryStatus = "skipped"
	EntryCancelled      EntryStatus = "cancelled"
)

func (s EntryStatus) Validate() error {
	switch s {
	case EntryPending, EntryScheduled, EntryPreparing, EntryOutForDelivery,
		EntryDelivered, EntrySkipped, EntryCancelled:
		return nil
	}
	return ErrInvalidEntryStatus
}

func (s EntryStatus) IsFinal() bool {
	return s == EntryDelivered || s == EntrySkipped || s == EntryCancelled
}

// TimelineEntry is one delivery date of the delegation, independently
// trackable. Entries exist before any chef or driver is assigned.
type TimelineEntry struct {
	ID         uuid.UUID   `json:"id"`
	Ordinal    int         `json:"ordinal"`
	Date       time.Time   `json:"date"`
	Status     EntryStatus `json:"status"`
	ChefID     *uuid.UUID  `json:"chef_id,omitempty"`
	DriverID   *uuid.UUID  `json:"driver_id,omitempty"`
	SkipReason *string     `json:"skip_reason,omitempty"`
}

// Delegation is the chef/driver-facing record derived from a snapshot: one
// timeline entry per distinct delivery date, ascending.
type Delegation struct {
	ID             uuid.UUID       `json:"id"`
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	Entries        []TimelineEntry `json:"entries"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Entry finds a timeline entry by id.
func (d *Delegation) Entry(id uuid.UUID) (*TimelineEntry, bool) {
	for i := range d.Entries {
		if d.Entries[i].ID == id {
			return &d.Entries[i], true
		}
	}
	return nil, false
}

// EntryOnDate finds the timeline entry for a calendar date.
func (d *Delegation) EntryOnDate(date time.Time) (*TimelineEntry, bool) {
	y, m, day := date.UTC().Date()
	for i := range d.Entries {
		ey, em, ed := d.Entries[i].Date.UTC().Date()
		if ey == y && em == m && ed == day {
			return &d.Entries[i], true
		}
	}
	return nil, false
}

// FirstEntry returns the earliest timeline entry. Entries are kept in
// ascending date order, so this is the head of the slice.
func (d *Delegation) FirstEntry() (*TimelineEntry, bool) {
	if len(d.Entries) == 0 {
		return nil, false
	}
	return &d.Entries[0], true
}

// IsFirstEntry reports whether the given entry id is the delegation's first
// delivery, the one whose completion activates the subscription.
func (d *Delegation) IsFirstEntry(id uuid.UUID) bool {
	first, ok := d.FirstEntry()
	return ok && first.ID == id
}

// MarkDelivered completes an entry. Completing an already-final entry fails
// so replayed delivery events do not double-advance the subscription.
func (d *Delegation) MarkDelivered(entryID uuid.UUID, now time.Time) error {
	e, ok := d.Entry(entryID)
	if !ok {
		return ErrEntryNotFound
	}
	if e.Status.IsFinal() {
		return ErrEntryFinal
	}
	e.Status = EntryDelivered
	d.UpdatedAt = now
	return nil
}

// MarkSkipped skips the entry for a date at the customer's request.
func (d *Delegation) MarkSkipped(date time.Time, now time.Time, reason string) error {
	e, ok := d.EntryOnDate(date)
	if !ok {
		return ErrEntryNotFound
	}
	if e.Status.IsFinal() {
		return ErrEntryFinal
	}
	e.Status = EntrySkipped
	if reason != "" {
		e.SkipReason = &reason
	}
	d.UpdatedAt = now
	return nil
}

// AssignChef sets or replaces the chef handling an entry.
func (d *Delegation) AssignChef(entryID, chefID uuid.UUID, now time.Time) error {
	e, ok := d.Entry(entryID)
	if !ok {
		return ErrEntryNotFound
	}
	e.ChefID = &chefID
	if e.Status == EntryPending {
		e.Status = EntryScheduled
	}
	d.UpdatedAt = now
	return nil
}

// AssignDriver sets or replaces the driver handling an entry.
func (d *Delegation) AssignDriver(entryID, driverID uuid.UUID, now time.Time) error {
	e, ok := d.Entry(entryID)
	if !ok {
		return ErrEntryNotFound
	}
	e.DriverID = &driverID
	d.UpdatedAt = now
	return nil
}
