package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appsvc "kanban-auth/internal/app"
	"kanban-auth/internal/bootstrap"
	"kanban-auth/internal/repository"
	"kanban-auth/internal/transport/http/handler"
	"kanban-auth/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(app.Logger))

	if app.Config.Metrics.Enabled {
		// A registry per router keeps repeated construction (tests) from
		// tripping duplicate registration on the global one.
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		router.Use(middleware.NewMetrics(app.Config.Metrics.Namespace, registry).Handler())
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	var boardCache appsvc.BoardCache
	if app.BoardCache != nil {
		boardCache = app.BoardCache
	}
	var publisher appsvc.EventPublisher
	if app.Publisher != nil {
		publisher = app.Publisher
	}

	store := repository.NewStore(app.DB)
	authService := appsvc.NewAuthService(store, appsvc.AuthOptions{
		JWTSecret:     app.Config.Auth.JWTSecret,
		JWTExpiration: app.Config.JWTExpiration(),
		BcryptCost:    app.Config.Auth.BcryptCost,
		Publisher:     publisher,
		BoardCache:    boardCache,
		Logger:        app.Logger,
	})
	boardService := appsvc.NewBoardService(store, boardCache, app.Logger)
	authHandler := handler.NewAuthHandler(authService, app.Logger)
	boardHandler := handler.NewBoardHandler(boardService, app.Logger)

	authRequired := middleware.AuthJWT(app.Config.Auth.JWTSecret)

	api := router.Group(app.Config.App.MountPrefix)
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(authRequired)
	protected.GET("/me", authHandler.Me)
	protected.PUT("/change-password", authHandler.ChangePassword)
	protected.DELETE("/delete-account", authHandler.DeleteAccount)

	boards := protected.Group("/boards")
	boards.GET("", boardHandler.ListBoards)
	boards.POST("", boardHandler.CreateBoard)
	boards.GET("/:id", boardHandler.GetBoard)
	boards.PUT("/:id", boardHandler.UpdateBoard)
	boards.PUT("/:id/columns", boardHandler.UpdateColumns)
	boards.DELETE("/:id", boardHandler.DeleteBoard)

	return router
}
