package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"mealdrop-service/internal/handler/api"
	"mealdrop-service/internal/handler/middleware"
	"mealdrop-service/internal/pkg/config"
	"mealdrop-service/internal/usecase"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	subscriptionHandler *api.SubscriptionHandler,
	deliveryHandler *api.DeliveryHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, subscriptionHandler, deliveryHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	subscriptionHandler *api.SubscriptionHandler,
	deliveryHandler *api.DeliveryHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		subscriptions := apiGroup.Group("/subscriptions")
		subscriptions.Use(authMiddleware.RequireAuth())
		{
			addRoutes(subscriptions, []route{
				{Method: http.MethodPost, Path: "", Handler: subscriptionHandler.Create},
				{Method: http.MethodGet, Path: "", Handler: subscriptionHandler.List},
				{Method: http.MethodGet, Path: "/:id", Handler: subscriptionHandler.Get},
				{Method: http.MethodPost, Path: "/:id/pause", Handler: subscriptionHandler.Pause},
				{Method: http.MethodPost, Path: "/:id/resume", Handler: subscriptionHandler.Resume},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: subscriptionHandler.Cancel},
				{Method: http.MethodPost, Path: "/:id/skip", Handler: subscriptionHandler.Skip},
				{Method: http.MethodGet, Path: "/:id/current-meal", Handler: subscriptionHandler.CurrentMeal},
				{Method: http.MethodGet, Path: "/:id/timeline", Handler: subscriptionHandler.Timeline},
				{Method: http.MethodGet, Path: "/:id/delegation", Handler: subscriptionHandler.Delegation},
			})
		}

		deliveries := apiGroup.Group("/deliveries")
		deliveries.Use(authMiddleware.RequireAuth())
		deliveries.Use(authMiddleware.RequireRoleAtLeast(usecase.RoleStaff))
		{
			addRoutes(deliveries, []route{
				{Method: http.MethodPost, Path: "/complete", Handler: deliveryHandler.Complete},
				{Method: http.MethodPut, Path: "/:entryId/chef", Handler: deliveryHandler.AssignChef},
				{Method: http.MethodPut, Path: "/:entryId/driver", Handler: deliveryHandler.AssignDriver},
			})
		}

		admin := apiGroup.Group("/admin")
		admin.Use(authMiddleware.RequireAuth())
		admin.Use(authMiddleware.RequireRoleAtLeast(usecase.RoleAdmin))
		{
			addRoutes(admin, []route{
				{Method: http.MethodPost, Path: "/snapshots/recompile", Handler: subscriptionHandler.RecompileSnapshots},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
