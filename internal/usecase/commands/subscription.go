package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mealdrop-service/internal/domain/delegation"
	"mealdrop-service/internal/domain/plan"
	"mealdrop-service/internal/domain/snapshot"
	"mealdrop-service/internal/domain/subscription"
	"mealdrop-service/internal/infra"
	"mealdrop-service/internal/pkg/clock"
	"mealdrop-service/internal/pkg/errs"
	"mealdrop-service/internal/pkg/lock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateSubscriptionInput struct {
	CustomerID      uuid.UUID
	PlanID          uuid.UUID
	StartDate       time.Time
	DurationWeeks   int
	Categories      []string
	DeliveryWindow  string
	DiscountPercent *decimal.Decimal
}

type SubscriptionCommands struct {
	tx       Transactor
	subs     SubscriptionRepository
	snaps    SnapshotRepository
	delegs   DelegationRepository
	notifs   NotificationRepository
	compiler *snapshot.Compiler
	locks    *lock.Keyed
	clock    clock.Clock
}

func NewSubscriptionCommands(
	tx Transactor,
	subs SubscriptionRepository,
	snaps SnapshotRepository,
	delegs DelegationRepository,
	notifs NotificationRepository,
	compiler *snapshot.Compiler,
	locks *lock.Keyed,
	clk clock.Clock,
) *SubscriptionCommands {
	return &SubscriptionCommands{
		tx:       tx,
		subs:     subs,
		snaps:    snaps,
		delegs:   delegs,
		notifs:   notifs,
		compiler: compiler,
		locks:    locks,
		clock:    clk,
	}
}

// Create registers a subscription and compiles its snapshot best-effort. A
// catalog outage degrades the snapshot to incomplete and queues a recompile;
// it never loses the subscription itself. Bad input or a missing plan still
// fails outright.
func (c *SubscriptionCommands) Create(ctx context.Context, in CreateSubscriptionInput) (uuid.UUID, error) {
	categories, err := parseCategories(in.Categories)
	if err != nil {
		return uuid.Nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	window, err := subscription.NewDeliveryWindow(in.DeliveryWindow)
	if err != nil {
		return uuid.Nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	now := c.clock.Now()
	sub, err := subscription.NewSubscription(
		in.CustomerID, in.PlanID, in.StartDate, in.DurationWeeks, categories, window, in.DiscountPercent, now,
	)
	if err != nil {
		return uuid.Nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	snap, deleg, err := c.compile(ctx, sub)
	if err != nil {
		return uuid.Nil, err
	}

	err = c.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := c.subs.Create(ctx, sub); err != nil {
			return err
		}
		if snap == nil {
			return nil
		}
		if err := c.snaps.Save(ctx, snap); err != nil {
			return err
		}
		return c.delegs.Save(ctx, deleg)
	})
	if err != nil {
		return uuid.Nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return sub.ID(), nil
}

// compile runs the snapshot pipeline for a new subscription. Returns nil
// snapshot when the compile degraded to incomplete.
func (c *SubscriptionCommands) compile(
	ctx context.Context,
	sub *subscription.Subscription,
) (*snapshot.Snapshot, *delegation.Delegation, error) {
	now := c.clock.Now()
	snap, err := c.compiler.Compile(ctx, compileInputFor(sub))
	switch {
	case err == nil:
	case errors.Is(err, errs.ErrPlanNotFound):
		return nil, nil, err
	case errors.Is(err, snapshot.ErrNoMatchingSlots),
		errors.Is(err, snapshot.ErrInvalidDiscount),
		errors.Is(err, snapshot.ErrInvalidDateRange),
		errors.Is(err, snapshot.ErrInvalidDuration),
		errors.Is(err, snapshot.ErrEmptyCategories):
		return nil, nil, errs.Mark(err, errs.ErrDomainValidation)
	default:
		// Catalog outage or meal drift: the subscription survives and the
		// recompile queue picks it up.
		slog.WarnContext(ctx, "snapshot compile degraded to incomplete",
			"subscription_id", sub.ID(), "error", err)
		sub.MarkSnapshotIncomplete(now)
		return nil, nil, nil
	}

	deleg, err := delegation.Generate(sub.ID(), snap, now)
	if err != nil {
		return nil, nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	sub.MarkSnapshotReady(now)
	return snap, deleg, nil
}

func (c *SubscriptionCommands) Pause(ctx context.Context, id uuid.UUID, reason string) error {
	return c.mutate(ctx, id, NotifySubscriptionPaused, func(sub *subscription.Subscription, now time.Time) error {
		return sub.Pause(now, reason)
	})
}

func (c *SubscriptionCommands) Resume(ctx context.Context, id uuid.UUID) error {
	return c.mutate(ctx, id, NotifySubscriptionResumed, func(sub *subscription.Subscription, now time.Time) error {
		return sub.Resume(now)
	})
}

func (c *SubscriptionCommands) Cancel(ctx context.Context, id uuid.UUID) error {
	return c.mutate(ctx, id, NotifySubscriptionCancelled, func(sub *subscription.Subscription, now time.Time) error {
		return sub.Cancel(now)
	})
}

// mutate is the shared lock-load-transition-save path for lifecycle commands.
// Expiry is settled lazily before the transition runs.
func (c *SubscriptionCommands) mutate(
	ctx context.Context,
	id uuid.UUID,
	notifyKind string,
	transition func(sub *subscription.Subscription, now time.Time) error,
) error {
	release := c.locks.Acquire(id)
	defer release()

	sub, err := c.subs.FindByID(ctx, id)
	if err != nil {
		return mapSubscriptionErr(err)
	}

	now := c.clock.Now()
	sub.ExpireIfDue(now)

	if err := transition(sub, now); err != nil {
		return errs.Mark(err, errs.ErrNotInExpectedState)
	}
	if err := c.subs.Update(ctx, sub); err != nil {
		return mapSubscriptionErr(err)
	}

	c.notify(ctx, sub.ID(), notifyKind, map[string]any{"status": sub.Status().String()})
	return nil
}

// SkipMeal skips every meal on the given delivery date. When the cursor sits
// on that date it advances past it, so progression never dwells on a skipped
// delivery.
func (c *SubscriptionCommands) SkipMeal(ctx context.Context, id uuid.UUID, date time.Time, reason string) error {
	release := c.locks.Acquire(id)
	defer release()

	sub, err := c.subs.FindByID(ctx, id)
	if err != nil {
		return mapSubscriptionErr(err)
	}
	now := c.clock.Now()
	sub.ExpireIfDue(now)
	if sub.Status().IsTerminal() {
		return errs.Mark(subscription.ErrTerminalState, errs.ErrNotInExpectedState)
	}

	snap, err := c.snaps.FindBySubscription(ctx, id)
	if err != nil {
		return mapSnapshotErr(err)
	}
	deleg, err := c.delegs.FindBySubscription(ctx, id)
	if err != nil {
		return mapDelegationErr(err)
	}

	day := snapshot.DateOnly(date)
	if err := deleg.MarkSkipped(day, now, reason); err != nil {
		return errs.Mark(err, errs.ErrNotInExpectedState)
	}
	for _, slot := range snap.SlotsOnDate(day) {
		if !slot.Status.IsFinal() {
			slot.Status = snapshot.SlotSkipped
		}
	}

	// One advance per selected category bounds the walk off the skipped date.
	for range snap.SelectedCategories {
		slot, _, err := sub.CurrentSlot(snap)
		if err != nil {
			break
		}
		if !snapshot.DateOnly(slot.ScheduledDeliveryDate).Equal(day) {
			break
		}
		if err := sub.AdvanceCursor(snap, now); err != nil {
			break
		}
	}

	err = c.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := c.subs.Update(ctx, sub); err != nil {
			return err
		}
		if err := c.snaps.Save(ctx, snap); err != nil {
			return err
		}
		return c.delegs.Save(ctx, deleg)
	})
	if err != nil {
		return mapSubscriptionErr(err)
	}
	return nil
}

// RecompileIncompleteSnapshots retries best-effort compiles that previously
// degraded. Failures are logged per subscription and do not stop the sweep.
func (c *SubscriptionCommands) RecompileIncompleteSnapshots(ctx context.Context, limit int) (int, error) {
	subs, err := c.subs.ListSnapshotIncomplete(ctx, limit)
	if err != nil {
		return 0, mapSubscriptionErr(err)
	}

	recompiled := 0
	for _, sub := range subs {
		if err := c.recompileOne(ctx, sub); err != nil {
			slog.WarnContext(ctx, "snapshot recompile failed",
				"subscription_id", sub.ID(), "error", err)
			continue
		}
		recompiled++
	}
	return recompiled, nil
}

func (c *SubscriptionCommands) recompileOne(ctx context.Context, stale *subscription.Subscription) error {
	release := c.locks.Acquire(stale.ID())
	defer release()

	sub, err := c.subs.FindByID(ctx, stale.ID())
	if err != nil {
		return mapSubscriptionErr(err)
	}
	if sub.SnapshotState() != subscription.SnapshotIncomplete {
		return nil
	}

	now := c.clock.Now()
	snap, err := c.compiler.Compile(ctx, compileInputFor(sub))
	if err != nil {
		return err
	}
	deleg, err := delegation.Generate(sub.ID(), snap, now)
	if err != nil {
		return err
	}
	sub.MarkSnapshotReady(now)

	return c.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := c.subs.Update(ctx, sub); err != nil {
			return err
		}
		if err := c.snaps.Save(ctx, snap); err != nil {
			return err
		}
		return c.delegs.Save(ctx, deleg)
	})
}

// compileInputFor derives the compile input from the aggregate, so the
// signup-time pricing terms survive into out-of-band recompiles.
func compileInputFor(sub *subscription.Subscription) snapshot.CompileInput {
	return snapshot.CompileInput{
		SubscriptionID:     sub.ID(),
		PlanID:             sub.PlanID(),
		StartDate:          sub.StartDate(),
		EndDate:            sub.EndDate(),
		DurationWeeks:      sub.DurationWeeks(),
		SelectedCategories: sub.SelectedCategories(),
		DiscountPercent:    sub.DiscountPercent(),
	}
}

// notify is fire-and-forget: a full outbox is worth a warning, not a failed
// customer operation.
func (c *SubscriptionCommands) notify(ctx context.Context, subscriptionID uuid.UUID, kind string, payload map[string]any) {
	job := NotificationJob{
		ID:             uuid.New(),
		SubscriptionID: subscriptionID,
		Kind:           kind,
		Payload:        payload,
		CreatedAt:      c.clock.Now(),
	}
	if err := c.notifs.Enqueue(ctx, job); err != nil {
		slog.WarnContext(ctx, "notification enqueue failed",
			"subscription_id", subscriptionID, "kind", kind, "error", err)
	}
}

func parseCategories(raw []string) ([]plan.MealCategory, error) {
	if len(raw) == 0 {
		return nil, subscription.ErrEmptyCategories
	}
	out := make([]plan.MealCategory, 0, len(raw))
	for _, r := range raw {
		c, err := plan.NewMealCategory(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func mapSubscriptionErr(err error) error {
	switch {
	case infra.IsKind(err, infra.KindNotFound):
		return errs.Mark(err, errs.ErrSubscriptionNotFound)
	case infra.IsKind(err, infra.KindConflict):
		return errs.Mark(err, errs.ErrNotInExpectedState)
	default:
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
}

func mapSnapshotErr(err error) error {
	if infra.IsKind(err, infra.KindNotFound) {
		return errs.Mark(err, errs.ErrSnapshotNotFound)
	}
	return errs.Mark(err, errs.ErrDatabaseOperationFailed)
}

func mapDelegationErr(err error) error {
	if infra.IsKind(err, infra.KindNotFound) {
		return errs.Mark(err, errs.ErrDelegationNotFound)
	}
	return errs.Mark(err, errs.ErrDatabaseOperationFailed)
}
