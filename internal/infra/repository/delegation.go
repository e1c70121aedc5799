package repository

import (
	"context"
	"errors"

	"mealdrop-service/internal/domain/delegation"
	"mealdrop-service/internal/infra"
	"mealdrop-service/internal/infra/db"
	"mealdrop-service/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DelegationRepository stores one delegation document per subscription. The
// timeline entries live inside the document; entry lookups use a JSONB
// containment query.
type DelegationRepository struct {
	pool *pgxpool.Pool
}

func NewDelegationRepository(pool *pgxpool.Pool) *DelegationRepository {
	return &DelegationRepository{pool: pool}
}

var _ commands.DelegationRepository = (*DelegationRepository)(nil)

func (r *DelegationRepository) Save(ctx context.Context, d *delegation.Delegation) error {
	const query = `
		INSERT INTO delegations (id, subscription_id, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subscription_id) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at`

	_, err := db.Conn(ctx, r.pool).Exec(ctx, query,
		d.ID, d.SubscriptionID, d, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to save delegation", err)
	}
	return nil
}

func (r *DelegationRepository) FindBySubscription(ctx context.Context, subscriptionID uuid.UUID) (*delegation.Delegation, error) {
	const query = `SELECT document FROM delegations WHERE subscription_id = $1`

	var d delegation.Delegation
	err := db.Conn(ctx, r.pool).QueryRow(ctx, query, subscriptionID).Scan(&d)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, infra.WrapRepoErr("delegation not found", err, infra.KindNotFound)
	}
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find delegation", err)
	}
	return &d, nil
}

func (r *DelegationRepository) FindByTimelineEntry(ctx context.Context, entryID uuid.UUID) (*delegation.Delegation, error) {
	const query = `
		SELECT document FROM delegations
		WHERE document->'entries' @> jsonb_build_array(jsonb_build_object('id', $1::text))`

	var d delegation.Delegation
	err := db.Conn(ctx, r.pool).QueryRow(ctx, query, entryID.String()).Scan(&d)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, infra.WrapRepoErr("delegation not found for timeline entry", err, infra.KindNotFound)
	}
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find delegation by timeline entry", err)
	}
	return &d, nil
}
