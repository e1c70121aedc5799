package subscription

import (
	"strings"
	"time"

	"mealdrop-service/internal/domain/plan"
	"mealdrop-service/internal/domain/snapshot"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveredMeal is the audit marker for the most recently completed delivery.
type DeliveredMeal struct {
	Cursor Cursor    `json:"cursor"`
	At     time.Time `json:"at"`
}

// NextDelivery pairs the computed delivery date with the preferred window band.
type NextDelivery struct {
	Date   time.Time `json:"date"`
	Window string    `json:"window"`
}

type Subscription struct {
	id                 uuid.UUID
	customerID         uuid.UUID
	planID             uuid.UUID
	status             Status
	durationWeeks      int
	startDate          time.Time
	endDate            time.Time
	activatedAt        *time.Time
	pausedAt           *time.Time
	pauseReason        *string
	resumedAt          *time.Time
	cancelledAt        *time.Time
	selectedCategories []plan.MealCategory
	deliveryWindow     DeliveryWindow
	discountPercent    *decimal.Decimal
	cursor             Cursor
	cycle              int
	lastDelivered      *DeliveredMeal
	nextDelivery       *NextDelivery
	snapshotState      SnapshotState
	version            int64
	createdAt          time.Time
	updatedAt          time.Time
}

func NewSubscription(
	customerID, planID uuid.UUID,
	startDate time.Time,
	durationWeeks int,
	categories []plan.MealCategory,
	window DeliveryWindow,
	discount *decimal.Decimal,
	now time.Time,
) (*Subscription, error) {
	if durationWeeks < 1 {
		return nil, ErrInvalidDuration
	}
	if len(categories) == 0 {
		return nil, ErrEmptyCategories
	}
	for _, c := range categories {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	ordered := plan.SortCategories(categories)
	start := snapshot.DateOnly(startDate)

	return &Subscription{
		id:                 uuid.New(),
		customerID:         customerID,
		planID:             planID,
		status:             StatusPendingFirstDelivery,
		durationWeeks:      durationWeeks,
		startDate:          start,
		// Placeholder until activation restarts the clock from the first
		// completed delivery.
		endDate:            start.AddDate(0, 0, durationWeeks*7),
		selectedCategories: ordered,
		deliveryWindow:     window,
		// Agreed at signup; every compile of this subscription's snapshot
		// prices with it, including out-of-band recompiles.
		discountPercent: discount,
		cursor:          FirstCursor(ordered),
		cycle:           1,
		snapshotState:   SnapshotPending,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

func Reconstruct(
	id, customerID, planID uuid.UUID,
	status Status,
	durationWeeks int,
	startDate, endDate time.Time,
	activatedAt, pausedAt *time.Time,
	pauseReason *string,
	resumedAt, cancelledAt *time.Time,
	categories []plan.MealCategory,
	window DeliveryWindow,
	discount *decimal.Decimal,
	cursor Cursor,
	cycle int,
	lastDelivered *DeliveredMeal,
	nextDelivery *NextDelivery,
	snapshotState SnapshotState,
	version int64,
	createdAt, updatedAt time.Time,
) *Subscription {
	return &Subscription{
		id:                 id,
		customerID:         customerID,
		planID:             planID,
		status:             status,
		durationWeeks:      durationWeeks,
		startDate:          startDate,
		endDate:            endDate,
		activatedAt:        activatedAt,
		pausedAt:           pausedAt,
		pauseReason:        pauseReason,
		resumedAt:          resumedAt,
		cancelledAt:        cancelledAt,
		selectedCategories: categories,
		deliveryWindow:     window,
		discountPercent:    discount,
		cursor:             cursor,
		cycle:              cycle,
		lastDelivered:      lastDelivered,
		nextDelivery:       nextDelivery,
		snapshotState:      snapshotState,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// Activate starts the paid clock from the first completed delivery rather
// than the signup date: endDate is recomputed as activation + durationWeeks.
// Idempotent; re-activating an activated subscription is a no-op.
func (s *Subscription) Activate(now time.Time) error {
	if s.activatedAt != nil {
		return nil
	}
	if s.status.IsTerminal() {
		return ErrTerminalState
	}

	t := now
	s.activatedAt = &t
	s.status = StatusActive

	// endDate is only ever advanced, never retreated.
	if newEnd := snapshot.DateOnly(now).AddDate(0, 0, s.durationWeeks*7); newEnd.After(s.endDate) {
		s.endDate = newEnd
	}
	s.updatedAt = now
	return nil
}

func (s *Subscription) Pause(now time.Time, reason string) error {
	if s.status != StatusActive {
		return ErrNotActive
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrPauseReasonRequired
	}

	t := now
	s.status = StatusPaused
	s.pausedAt = &t
	s.pauseReason = &reason
	s.resumedAt = nil
	s.updatedAt = now
	return nil
}

// Resume extends endDate by the whole days spent paused (ceiling), so paused
// time is never counted against the customer.
func (s *Subscription) Resume(now time.Time) error {
	if s.status != StatusPaused || s.pausedAt == nil {
		return ErrNotPaused
	}

	if days := ceilDays(now.Sub(*s.pausedAt)); days > 0 {
		s.endDate = s.endDate.AddDate(0, 0, days)
	}

	t := now
	s.status = StatusActive
	s.resumedAt = &t
	s.pausedAt = nil
	s.pauseReason = nil
	s.updatedAt = now
	return nil
}

func (s *Subscription) Cancel(now time.Time) error {
	if s.status.IsTerminal() {
		return ErrTerminalState
	}

	t := now
	s.status = StatusCancelled
	s.cancelledAt = &t
	s.updatedAt = now
	return nil
}

// ExpireIfDue applies the passive expiry transition and reports whether it
// fired. Paused subscriptions are left alone; resume settles their end date.
func (s *Subscription) ExpireIfDue(now time.Time) bool {
	if s.status != StatusActive && s.status != StatusPendingFirstDelivery {
		return false
	}
	if !s.endDate.Before(now) {
		return false
	}
	s.status = StatusExpired
	s.updatedAt = now
	return true
}

// AdvanceCursor moves to the next meal after a completed delivery. The
// previous cursor is recorded as the last delivered meal before being
// overwritten, and the next scheduled delivery is recomputed.
func (s *Subscription) AdvanceCursor(snap *snapshot.Snapshot, now time.Time) error {
	if s.status.IsTerminal() {
		return ErrTerminalState
	}
	if len(snap.DeliveryDays) == 0 || len(snap.SelectedCategories) == 0 {
		return ErrSnapshotShapeMissing
	}

	prev := s.cursor
	s.lastDelivered = &DeliveredMeal{Cursor: prev, At: now}

	next, wrapped := prev.Next(snap.DurationWeeks, snap.DeliveryDays, snap.SelectedCategories)
	if wrapped {
		s.cycle++
	}
	s.cursor = next
	s.refreshNextDelivery(snap)
	s.updatedAt = now
	return nil
}

// CurrentSlot resolves the slot under the cursor, self-healing a stale cursor
// by forward scan. When healed is true the corrected cursor has been applied
// and should be persisted.
func (s *Subscription) CurrentSlot(snap *snapshot.Snapshot) (*snapshot.Slot, bool, error) {
	slot, corrected, healed, err := s.cursor.ResolveSlot(snap)
	if err != nil {
		return nil, false, err
	}
	if healed {
		s.cursor = corrected
		s.refreshNextDelivery(snap)
	}
	return slot, healed, nil
}

func (s *Subscription) refreshNextDelivery(snap *snapshot.Snapshot) {
	date := deliveryDateFor(snap, s.cycle, s.cursor.Week, s.cursor.Day)
	s.nextDelivery = &NextDelivery{
		Date:   date,
		Window: s.deliveryWindow.Band(),
	}
}

func (s *Subscription) MarkSnapshotReady(now time.Time) {
	s.snapshotState = SnapshotReady
	s.updatedAt = now
}

func (s *Subscription) MarkSnapshotIncomplete(now time.Time) {
	s.snapshotState = SnapshotIncomplete
	s.updatedAt = now
}

func (s *Subscription) IsActivated() bool {
	return s.activatedAt != nil
}

func (s *Subscription) ID() uuid.UUID                           { return s.id }
func (s *Subscription) CustomerID() uuid.UUID                   { return s.customerID }
func (s *Subscription) PlanID() uuid.UUID                       { return s.planID }
func (s *Subscription) Status() Status                          { return s.status }
func (s *Subscription) DurationWeeks() int                      { return s.durationWeeks }
func (s *Subscription) StartDate() time.Time                    { return s.startDate }
func (s *Subscription) EndDate() time.Time                      { return s.endDate }
func (s *Subscription) ActivatedAt() *time.Time                 { return s.activatedAt }
func (s *Subscription) PausedAt() *time.Time                    { return s.pausedAt }
func (s *Subscription) PauseReason() *string                    { return s.pauseReason }
func (s *Subscription) ResumedAt() *time.Time                   { return s.resumedAt }
func (s *Subscription) CancelledAt() *time.Time                 { return s.cancelledAt }
func (s *Subscription) SelectedCategories() []plan.MealCategory { return s.selectedCategories }
func (s *Subscription) DeliveryWindow() DeliveryWindow          { return s.deliveryWindow }
func (s *Subscription) DiscountPercent() *decimal.Decimal       { return s.discountPercent }
func (s *Subscription) Cursor() Cursor                          { return s.cursor }
func (s *Subscription) Cycle() int                              { return s.cycle }
func (s *Subscription) LastDelivered() *DeliveredMeal           { return s.lastDelivered }
func (s *Subscription) NextDelivery() *NextDelivery             { return s.nextDelivery }
func (s *Subscription) SnapshotState() SnapshotState            { return s.snapshotState }
func (s *Subscription) Version() int64                          { return s.version }
func (s *Subscription) CreatedAt() time.Time                    { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time                    { return s.updatedAt }

func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}
