package repository

import (
	"context"
	"errors"
	"time"

	"mealdrop-service/internal/domain/plan"
	"mealdrop-service/internal/domain/subscription"
	"mealdrop-service/internal/infra"
	"mealdrop-service/internal/infra/db"
	"mealdrop-service/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

var _ commands.SubscriptionRepository = (*SubscriptionRepository)(nil)

const subscriptionColumns = `
	id, customer_id, plan_id, status, duration_weeks,
	start_date, end_date, activated_at, paused_at, pause_reason,
	resumed_at, cancelled_at, selected_categories, delivery_window,
	discount_percent::text, cursor, cycle, last_delivered, next_delivery,
	snapshot_state, version, created_at, updated_at`

func (r *SubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	const query = `
		INSERT INTO subscriptions (
			id, customer_id, plan_id, status, duration_weeks,
			start_date, end_date, activated_at, paused_at, pause_reason,
			resumed_at, cancelled_at, selected_categories, delivery_window,
			discount_percent, cursor, cycle, last_delivered, next_delivery,
			snapshot_state, version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, 1, $21, $22
		)`

	_, err := db.Conn(ctx, r.pool).Exec(ctx, query,
		sub.ID(), sub.CustomerID(), sub.PlanID(), sub.Status().String(), sub.DurationWeeks(),
		sub.StartDate(), sub.EndDate(), sub.ActivatedAt(), sub.PausedAt(), sub.PauseReason(),
		sub.ResumedAt(), sub.CancelledAt(), categoryStrings(sub.SelectedCategories()), string(sub.DeliveryWindow()),
		decimalString(sub.DiscountPercent()), sub.Cursor(), sub.Cycle(), sub.LastDelivered(), sub.NextDelivery(),
		string(sub.SnapshotState()), sub.CreatedAt(), sub.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert subscription", err)
	}
	return nil
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	query := `SELECT` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	sub, err := scanSubscription(db.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, infra.WrapRepoErr("subscription not found", err, infra.KindNotFound)
	}
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find subscription", err)
	}
	return sub, nil
}

// Update writes the aggregate back under optimistic concurrency: the row must
// still carry the version the aggregate was loaded with, otherwise the write
// is rejected as a conflict.
func (r *SubscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	const query = `
		UPDATE subscriptions SET
			status = $2, end_date = $3, activated_at = $4, paused_at = $5,
			pause_reason = $6, resumed_at = $7, cancelled_at = $8,
			cursor = $9, cycle = $10, last_delivered = $11, next_delivery = $12,
			snapshot_state = $13, version = version + 1, updated_at = $14
		WHERE id = $1 AND version = $15`

	tag, err := db.Conn(ctx, r.pool).Exec(ctx, query,
		sub.ID(), sub.Status().String(), sub.EndDate(), sub.ActivatedAt(), sub.PausedAt(),
		sub.PauseReason(), sub.ResumedAt(), sub.CancelledAt(),
		sub.Cursor(), sub.Cycle(), sub.LastDelivered(), sub.NextDelivery(),
		string(sub.SnapshotState()), sub.UpdatedAt(), sub.Version(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update subscription", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("subscription version conflict", nil, infra.KindConflict)
	}
	return nil
}

func (r *SubscriptionRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*subscription.Subscription, error) {
	query := `SELECT` + subscriptionColumns + `
		FROM subscriptions
		WHERE customer_id = $1
		ORDER BY created_at DESC`

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, customerID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list subscriptions", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (r *SubscriptionRepository) ListSnapshotIncomplete(ctx context.Context, limit int) ([]*subscription.Subscription, error) {
	query := `SELECT` + subscriptionColumns + `
		FROM subscriptions
		WHERE snapshot_state = $1 AND status NOT IN ($2, $3)
		ORDER BY created_at
		LIMIT $4`

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query,
		string(subscription.SnapshotIncomplete),
		subscription.StatusCancelled.String(), subscription.StatusExpired.String(),
		limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list incomplete snapshots", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func scanSubscriptions(rows pgx.Rows) ([]*subscription.Subscription, error) {
	var subs []*subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan subscription", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read subscriptions", err)
	}
	return subs, nil
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var (
		id, customerID, planID uuid.UUID
		statusRaw, windowRaw   string
		durationWeeks, cycle   int
		startDate, endDate     time.Time
		activatedAt, pausedAt  *time.Time
		pauseReason            *string
		resumedAt, cancelledAt *time.Time
		categoriesRaw          []string
		discountRaw            *string
		cursor                 subscription.Cursor
		lastDelivered          *subscription.DeliveredMeal
		nextDelivery           *subscription.NextDelivery
		snapshotStateRaw       string
		version                int64
		createdAt, updatedAt   time.Time
	)

	err := row.Scan(
		&id, &customerID, &planID, &statusRaw, &durationWeeks,
		&startDate, &endDate, &activatedAt, &pausedAt, &pauseReason,
		&resumedAt, &cancelledAt, &categoriesRaw, &windowRaw,
		&discountRaw, &cursor, &cycle, &lastDelivered, &nextDelivery,
		&snapshotStateRaw, &version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	var discount *decimal.Decimal
	if discountRaw != nil {
		d, err := decimal.NewFromString(*discountRaw)
		if err != nil {
			return nil, err
		}
		discount = &d
	}

	status, err := subscription.NewStatus(statusRaw)
	if err != nil {
		return nil, err
	}
	window, err := subscription.NewDeliveryWindow(windowRaw)
	if err != nil {
		return nil, err
	}
	categories := make([]plan.MealCategory, 0, len(categoriesRaw))
	for _, raw := range categoriesRaw {
		cat, err := plan.NewMealCategory(raw)
		if err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}

	return subscription.Reconstruct(
		id, customerID, planID,
		status,
		durationWeeks,
		startDate, endDate,
		activatedAt, pausedAt,
		pauseReason,
		resumedAt, cancelledAt,
		categories,
		window,
		discount,
		cursor,
		cycle,
		lastDelivered,
		nextDelivery,
		subscription.SnapshotState(snapshotStateRaw),
		version,
		createdAt, updatedAt,
	), nil
}

func categoryStrings(cats []plan.MealCategory) []string {
	return lo.Map(cats, func(c plan.MealCategory, _ int) string { return c.String() })
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
