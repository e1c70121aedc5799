package components

import (
	"mealdrop-service/internal/domain/snapshot"
	"mealdrop-service/internal/infra/catalog"
	"mealdrop-service/internal/pkg/clock"
	"mealdrop-service/internal/pkg/lock"
	"mealdrop-service/internal/usecase"
	"mealdrop-service/internal/usecase/commands"
	"mealdrop-service/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	lock.NewKeyed,
	func(client *catalog.Client, clk clock.Clock) *snapshot.Compiler {
		return snapshot.NewCompiler(client, clk)
	},
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewSubscriptionCommands,
		commands.NewDeliveryCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewSubscriptionQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)
