package components

import (
	"mealdrop-service/internal/infra/catalog"
	"mealdrop-service/internal/infra/db"
	repo_impl "mealdrop-service/internal/infra/repository"
	"mealdrop-service/internal/usecase/commands"
	"mealdrop-service/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		fx.Annotate(
			db.NewTransactor,
			fx.As(new(commands.Transactor)),
		),
		fx.Annotate(
			repo_impl.NewSubscriptionRepository,
			fx.As(new(commands.SubscriptionRepository)),
			fx.As(new(queries.SubscriptionStore)),
		),
		fx.Annotate(
			repo_impl.NewSnapshotRepository,
			fx.As(new(commands.SnapshotRepository)),
			fx.As(new(queries.SnapshotStore)),
		),
		fx.Annotate(
			repo_impl.NewDelegationRepository,
			fx.As(new(commands.DelegationRepository)),
			fx.As(new(queries.DelegationStore)),
		),
		fx.Annotate(
			repo_impl.NewNotificationRepository,
			fx.As(new(commands.NotificationRepository)),
		),
		catalog.NewClient,
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
