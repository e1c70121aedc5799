package queries

import (
	"context"
	"log/slog"

	"mealdrop-service/internal/domain/delegation"
	"mealdrop-service/internal/domain/plan"
	"mealdrop-service/internal/domain/snapshot"
	"mealdrop-service/internal/domain/subscription"
	"mealdrop-service/internal/infra"
	"mealdrop-service/internal/pkg/clock"
	"mealdrop-service/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// DefaultTimelineDays bounds the look-ahead when the caller does not ask for
// a specific horizon.
const DefaultTimelineDays = 14

// Read-side ports. The infra repositories satisfy these structurally; the
// read side never takes a write dependency beyond the cursor-heal and lazy
// expiry write-backs, which are best-effort.
type SubscriptionStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error)
	Update(ctx context.Context, sub *subscription.Subscription) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*subscription.Subscription, error)
}

type SnapshotStore interface {
	FindBySubscription(ctx context.Context, subscriptionID uuid.UUID) (*snapshot.Snapshot, error)
}

type DelegationStore interface {
	FindBySubscription(ctx context.Context, subscriptionID uuid.UUID) (*delegation.Delegation, error)
}

type SubscriptionQueries struct {
	subs   SubscriptionStore
	snaps  SnapshotStore
	delegs DelegationStore
	clock  clock.Clock
}

func NewSubscriptionQueries(
	subs SubscriptionStore,
	snaps SnapshotStore,
	delegs DelegationStore,
	clk clock.Clock,
) *SubscriptionQueries {
	return &SubscriptionQueries{
		subs:   subs,
		snaps:  snaps,
		delegs: delegs,
		clock:  clk,
	}
}

func (q *SubscriptionQueries) GetSubscription(ctx context.Context, id uuid.UUID) (*SubscriptionView, error) {
	sub, err := q.loadSettled(ctx, id)
	if err != nil {
		return nil, err
	}

	view := toSubscriptionView(sub)
	// Pricing lives in the snapshot document; an incomplete snapshot just
	// leaves it off the view.
	if snap, err := q.snaps.FindBySubscription(ctx, id); err == nil {
		view.Pricing = &PricingView{
			BasePricePerWeek: snap.Pricing.BasePricePerWeek,
			DurationWeeks:    snap.Pricing.DurationWeeks,
			Subtotal:         snap.Pricing.Subtotal,
			DiscountPercent:  snap.Pricing.DiscountPercent,
			Total:            snap.Pricing.Total,
		}
	}
	return view, nil
}

func (q *SubscriptionQueries) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*SubscriptionView, error) {
	subs, err := q.subs.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return lo.Map(subs, func(sub *subscription.Subscription, _ int) *SubscriptionView {
		return toSubscriptionView(sub)
	}), nil
}

// GetCurrentMeal resolves the meal the cursor points at. A stale cursor is
// healed in place and the correction persisted, so the read has a write-back
// side effect by design of the recovery path.
func (q *SubscriptionQueries) GetCurrentMeal(ctx context.Context, id uuid.UUID) (*CurrentMealView, error) {
	sub, err := q.loadSettled(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status().IsTerminal() {
		return nil, errs.Mark(subscription.ErrTerminalState, errs.ErrNotInExpectedState)
	}
	snap, err := q.loadReadySnapshot(ctx, sub)
	if err != nil {
		return nil, err
	}

	slot, healed, err := sub.CurrentSlot(snap)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	if healed {
		slog.WarnContext(ctx, "subscription cursor healed",
			"subscription_id", id,
			"week", sub.Cursor().Week, "day", sub.Cursor().Day,
			"category", sub.Cursor().Category.String())
		q.persistBestEffort(ctx, sub)
	}

	return &CurrentMealView{
		SubscriptionID:        sub.ID(),
		Week:                  slot.Key.Week,
		Day:                   slot.Key.Day,
		Category:              slot.Key.Category.String(),
		Meals:                 toMealViews(slot.Meals),
		ScheduledDeliveryDate: slot.ScheduledDeliveryDate,
		DeliveryWindow:        sub.DeliveryWindow().Band(),
		Status:                string(slot.Status),
	}, nil
}

// GetTimeline walks the schedule forward from the cursor without moving it.
func (q *SubscriptionQueries) GetTimeline(ctx context.Context, id uuid.UUID, daysAhead int) ([]DayView, error) {
	if daysAhead <= 0 {
		daysAhead = DefaultTimelineDays
	}

	sub, err := q.loadSettled(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status().IsTerminal() {
		return nil, errs.Mark(subscription.ErrTerminalState, errs.ErrNotInExpectedState)
	}
	snap, err := q.loadReadySnapshot(ctx, sub)
	if err != nil {
		return nil, err
	}

	days := sub.UpcomingDays(snap, daysAhead)
	out := make([]DayView, 0, len(days))
	for _, d := range days {
		slots := make([]SlotView, 0, len(d.Slots))
		for _, s := range d.Slots {
			slots = append(slots, SlotView{
				Category:              s.Key.Category.String(),
				Meals:                 toMealViews(s.Meals),
				ScheduledDeliveryDate: s.ScheduledDeliveryDate,
				Status:                string(s.Status),
				TimelineEntryID:       s.TimelineEntryID,
			})
		}
		out = append(out, DayView{Date: d.Date, Week: d.Week, Day: d.Day, Slots: slots})
	}
	return out, nil
}

func (q *SubscriptionQueries) GetDelegation(ctx context.Context, id uuid.UUID) (*DelegationView, error) {
	deleg, err := q.delegs.FindBySubscription(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrDelegationNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	entries := lo.Map(deleg.Entries, func(e delegation.TimelineEntry, _ int) TimelineEntryView {
		return TimelineEntryView{
			ID:         e.ID,
			Ordinal:    e.Ordinal,
			Date:       e.Date,
			Status:     string(e.Status),
			ChefID:     e.ChefID,
			DriverID:   e.DriverID,
			SkipReason: e.SkipReason,
		}
	})
	return &DelegationView{
		ID:             deleg.ID,
		SubscriptionID: deleg.SubscriptionID,
		Entries:        entries,
		CreatedAt:      deleg.CreatedAt,
		UpdatedAt:      deleg.UpdatedAt,
	}, nil
}

// loadSettled loads the subscription and settles lazy expiry first, so every
// read reflects the time-derived status.
func (q *SubscriptionQueries) loadSettled(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	sub, err := q.subs.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrSubscriptionNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if sub.ExpireIfDue(q.clock.Now()) {
		q.persistBestEffort(ctx, sub)
	}
	return sub, nil
}

func (q *SubscriptionQueries) loadReadySnapshot(ctx context.Context, sub *subscription.Subscription) (*snapshot.Snapshot, error) {
	if sub.SnapshotState() != subscription.SnapshotReady {
		return nil, errs.Mark(errs.New("snapshot not compiled"), errs.ErrSnapshotIncomplete)
	}
	snap, err := q.snaps.FindBySubscription(ctx, sub.ID())
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrSnapshotNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return snap, nil
}

// persistBestEffort writes back a state settled during a read. A concurrent
// writer winning the version race is fine; the next read settles again.
func (q *SubscriptionQueries) persistBestEffort(ctx context.Context, sub *subscription.Subscription) {
	if err := q.subs.Update(ctx, sub); err != nil {
		slog.WarnContext(ctx, "read-side write-back skipped",
			"subscription_id", sub.ID(), "error", err)
	}
}

func toSubscriptionView(sub *subscription.Subscription) *SubscriptionView {
	var next *NextDeliveryView
	if nd := sub.NextDelivery(); nd != nil {
		next = &NextDeliveryView{Date: nd.Date, Window: nd.Window}
	}
	return &SubscriptionView{
		ID:            sub.ID(),
		CustomerID:    sub.CustomerID(),
		PlanID:        sub.PlanID(),
		Status:        sub.Status().String(),
		DurationWeeks: sub.DurationWeeks(),
		StartDate:     sub.StartDate(),
		EndDate:       sub.EndDate(),
		ActivatedAt:   sub.ActivatedAt(),
		PausedAt:      sub.PausedAt(),
		PauseReason:   sub.PauseReason(),
		CancelledAt:   sub.CancelledAt(),
		SelectedCategories: lo.Map(sub.SelectedCategories(),
			func(c plan.MealCategory, _ int) string { return c.String() }),
		DeliveryWindow: string(sub.DeliveryWindow()),
		SnapshotState:  string(sub.SnapshotState()),
		NextDelivery:   next,
		CreatedAt:      sub.CreatedAt(),
		UpdatedAt:      sub.UpdatedAt(),
	}
}

func toMealViews(meals []snapshot.MealDetail) []MealView {
	return lo.Map(meals, func(m snapshot.MealDetail, _ int) MealView {
		return MealView{
			MealID:      m.MealID,
			Name:        m.Name,
			Description: m.Description,
			ImageURL:    m.ImageURL,
			Nutrition:   m.Nutrition,
			Price:       m.Price,
			DietaryTags: m.DietaryTags,
		}
	})
}
