package components

import (
	"mealdrop-service/internal/handler"
	"mealdrop-service/internal/handler/api"
	"mealdrop-service/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewSubscriptionHandler,
		api.NewDeliveryHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
