package repository

import (
	"context"
	"errors"

	"mealdrop-service/internal/domain/snapshot"
	"mealdrop-service/internal/infra"
	"mealdrop-service/internal/infra/db"
	"mealdrop-service/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotRepository persists snapshots as whole JSONB documents keyed by
// subscription. The document is the unit of read and write; partial updates
// go through load-modify-save. Rows are removed by the subscription FK's
// ON DELETE CASCADE, never directly.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

var _ commands.SnapshotRepository = (*SnapshotRepository)(nil)

func (r *SnapshotRepository) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	const query = `
		INSERT INTO meal_plan_snapshots (subscription_id, document, state, compiled_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (subscription_id) DO UPDATE SET
			document = EXCLUDED.document,
			state = EXCLUDED.state,
			compiled_at = EXCLUDED.compiled_at,
			updated_at = now()`

	_, err := db.Conn(ctx, r.pool).Exec(ctx, query,
		snap.SubscriptionID, snap, string(snap.State), snap.CompiledAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to save snapshot", err)
	}
	return nil
}

func (r *SnapshotRepository) FindBySubscription(ctx context.Context, subscriptionID uuid.UUID) (*snapshot.Snapshot, error) {
	const query = `SELECT document FROM meal_plan_snapshots WHERE subscription_id = $1`

	var snap snapshot.Snapshot
	err := db.Conn(ctx, r.pool).QueryRow(ctx, query, subscriptionID).Scan(&snap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, infra.WrapRepoErr("snapshot not found", err, infra.KindNotFound)
	}
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find snapshot", err)
	}
	return &snap, nil
}
