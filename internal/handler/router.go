package handler

import (
	"github.com/SergeiKhy/hashlink/internal/middleware"
	"github.com/SergeiKhy/hashlink/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(
	linkService service.LinkService,
	redirectService service.RedirectService,
	apiKeys map[string]string,
	logger *zap.Logger,
) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	linkHandler := NewLinkHandler(linkService, redirectService, logger)

	router.GET("/", Index)
	router.POST("/shorten", linkHandler.Shorten)

	// Listing every link is guarded when API keys are configured
	router.GET("/stats", middleware.RequireAPIKey(apiKeys), linkHandler.ListStats)
	router.GET("/stats/:code", linkHandler.GetStats)

	router.GET("/api/v1/health", HealthCheck)

	// Редирект (корневой путь)
	router.GET("/:code", linkHandler.Redirect)

	return router
}
