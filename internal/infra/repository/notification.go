package repository

import (
	"context"

	"mealdrop-service/internal/infra"
	"mealdrop-service/internal/infra/db"
	"mealdrop-service/internal/usecase/commands"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationRepository is the outbox: jobs are inserted here and a separate
// dispatcher drains them. Only the insert lives in this service.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

var _ commands.NotificationRepository = (*NotificationRepository)(nil)

func (r *NotificationRepository) Enqueue(ctx context.Context, job commands.NotificationJob) error {
	const query = `
		INSERT INTO notification_jobs (id, subscription_id, kind, payload, status, created_at)
		VALUES ($1, $2, $3, $4, 'pending', $5)`

	_, err := db.Conn(ctx, r.pool).Exec(ctx, query,
		job.ID, job.SubscriptionID, job.Kind, job.Payload, job.CreatedAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to enqueue notification job", err)
	}
	return nil
}
