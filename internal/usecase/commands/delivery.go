package commands

import (
	"context"
	"errors"
	"log/slog"

	"mealdrop-service/internal/domain/delegation"
	"mealdrop-service/internal/domain/snapshot"
	"mealdrop-service/internal/infra"
	"mealdrop-service/internal/pkg/clock"
	"mealdrop-service/internal/pkg/errs"
	"mealdrop-service/internal/pkg/lock"

	"github.com/google/uuid"
)

type DeliveryCommands struct {
	tx     Transactor
	subs   SubscriptionRepository
	snaps  SnapshotRepository
	delegs DelegationRepository
	notifs NotificationRepository
	locks  *lock.Keyed
	clock  clock.Clock
}

func NewDeliveryCommands(
	tx Transactor,
	subs SubscriptionRepository,
	snaps SnapshotRepository,
	delegs DelegationRepository,
	notifs NotificationRepository,
	locks *lock.Keyed,
	clk clock.Clock,
) *DeliveryCommands {
	return &DeliveryCommands{
		tx:     tx,
		subs:   subs,
		snaps:  snaps,
		delegs: delegs,
		notifs: notifs,
		locks:  locks,
		clock:  clk,
	}
}

// OnCompleted processes a delivery-completed event for one timeline entry.
// Completing the first entry activates the subscription and restarts its end
// date from that moment. The cursor advances once per meal slot delivered.
// Replayed events are absorbed: an already-final entry is a no-op.
func (c *DeliveryCommands) OnCompleted(ctx context.Context, entryID uuid.UUID) error {
	// Resolve the owning subscription before taking its lock.
	probe, err := c.delegs.FindByTimelineEntry(ctx, entryID)
	if err != nil {
		return mapTimelineEntryErr(err)
	}
	subscriptionID := probe.SubscriptionID

	release := c.locks.Acquire(subscriptionID)
	defer release()

	// Reload under the lock; the probe may be stale by now.
	deleg, err := c.delegs.FindBySubscription(ctx, subscriptionID)
	if err != nil {
		return mapDelegationErr(err)
	}
	sub, err := c.subs.FindByID(ctx, subscriptionID)
	if err != nil {
		return mapSubscriptionErr(err)
	}
	snap, err := c.snaps.FindBySubscription(ctx, subscriptionID)
	if err != nil {
		return mapSnapshotErr(err)
	}

	now := c.clock.Now()
	if err := deleg.MarkDelivered(entryID, now); err != nil {
		if errors.Is(err, delegation.ErrEntryFinal) {
			slog.InfoContext(ctx, "delivery event replayed for final entry",
				"subscription_id", subscriptionID, "entry_id", entryID)
			return nil
		}
		if errors.Is(err, delegation.ErrEntryNotFound) {
			return errs.Mark(err, errs.ErrTimelineEntryNotFound)
		}
		return errs.Mark(err, errs.ErrNotInExpectedState)
	}

	activated := false
	if deleg.IsFirstEntry(entryID) && !sub.IsActivated() {
		if err := sub.Activate(now); err != nil {
			return errs.Mark(err, errs.ErrNotInExpectedState)
		}
		activated = true
	}

	slots := snap.SlotsForTimelineEntry(entryID)
	for _, slot := range slots {
		if !slot.Status.IsFinal() {
			slot.Status = snapshot.SlotDelivered
		}
	}
	// One cursor step per meal in the completed delivery.
	for range slots {
		if err := sub.AdvanceCursor(snap, now); err != nil {
			return errs.Mark(err, errs.ErrNotInExpectedState)
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

	c.enqueue(ctx, subscriptionID, NotifyDeliveryCompleted, map[string]any{
		"entry_id": entryID.String(),
		"meals":    len(slots),
	})
	if activated {
		c.enqueue(ctx, subscriptionID, NotifySubscriptionActivated, map[string]any{
			"activated_at": now,
			"end_date":     sub.EndDate(),
		})
	}
	return nil
}

// AssignChef routes a timeline entry to a chef.
func (c *DeliveryCommands) AssignChef(ctx context.Context, entryID, chefID uuid.UUID) error {
	return c.mutateEntry(ctx, entryID, func(deleg *delegation.Delegation) error {
		return deleg.AssignChef(entryID, chefID, c.clock.Now())
	})
}

// AssignDriver routes a timeline entry to a delivery driver.
func (c *DeliveryCommands) AssignDriver(ctx context.Context, entryID, driverID uuid.UUID) error {
	return c.mutateEntry(ctx, entryID, func(deleg *delegation.Delegation) error {
		return deleg.AssignDriver(entryID, driverID, c.clock.Now())
	})
}

func (c *DeliveryCommands) mutateEntry(ctx context.Context, entryID uuid.UUID, apply func(*delegation.Delegation) error) error {
	probe, err := c.delegs.FindByTimelineEntry(ctx, entryID)
	if err != nil {
		return mapTimelineEntryErr(err)
	}

	release := c.locks.Acquire(probe.SubscriptionID)
	defer release()

	deleg, err := c.delegs.FindBySubscription(ctx, probe.SubscriptionID)
	if err != nil {
		return mapDelegationErr(err)
	}
	if err := apply(deleg); err != nil {
		if errors.Is(err, delegation.ErrEntryNotFound) {
			return errs.Mark(err, errs.ErrTimelineEntryNotFound)
		}
		return errs.Mark(err, errs.ErrNotInExpectedState)
	}
	if err := c.delegs.Save(ctx, deleg); err != nil {
		return mapDelegationErr(err)
	}
	return nil
}

func (c *DeliveryCommands) enqueue(ctx context.Context, subscriptionID uuid.UUID, kind string, payload map[string]any) {
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

func mapTimelineEntryErr(err error) error {
	if infra.IsKind(err, infra.KindNotFound) {
		return errs.Mark(err, errs.ErrTimelineEntryNotFound)
	}
	return errs.Mark(err, errs.ErrDatabaseOperationFailed)
}
