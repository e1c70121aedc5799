package commands

import (
	"context"
	"time"

	"mealdrop-service/internal/domain/delegation"
	"mealdrop-service/internal/domain/snapshot"
	"mealdrop-service/internal/domain/subscription"

	"github.com/google/uuid"
)

// Transactor groups repository writes into one atomic unit.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *subscription.Subscription) error
	// FindByID loads the current row. The returned aggregate carries the row
	// version; Update enforces it optimistically.
	FindByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error)
	Update(ctx context.Context, sub *subscription.Subscription) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*subscription.Subscription, error)
	// ListSnapshotIncomplete feeds the compile retry path.
	ListSnapshotIncomplete(ctx context.Context, limit int) ([]*subscription.Subscription, error)
}

type SnapshotRepository interface {
	// Save upserts; recompiling an incomplete snapshot replaces the document.
	Save(ctx context.Context, snap *snapshot.Snapshot) error
	FindBySubscription(ctx context.Context, subscriptionID uuid.UUID) (*snapshot.Snapshot, error)
}

type DelegationRepository interface {
	Save(ctx context.Context, d *delegation.Delegation) error
	FindBySubscription(ctx context.Context, subscriptionID uuid.UUID) (*delegation.Delegation, error)
	FindByTimelineEntry(ctx context.Context, entryID uuid.UUID) (*delegation.Delegation, error)
}

// NotificationJob is an outbox row. Dispatch to the actual channel happens
// out of band; enqueue failures never fail the triggering operation.
type NotificationJob struct {
	ID             uuid.UUID
	SubscriptionID uuid.UUID
	Kind           string
	Payload        map[string]any
	CreatedAt      time.Time
}

const (
	NotifyDeliveryCompleted     = "delivery_completed"
	NotifySubscriptionActivated = "subscription_activated"
	NotifySubscriptionPaused    = "subscription_paused"
	NotifySubscriptionResumed   = "subscription_resumed"
	NotifySubscriptionCancelled = "subscription_cancelled"
)

type NotificationRepository interface {
	Enqueue(ctx context.Context, job NotificationJob) error
}
