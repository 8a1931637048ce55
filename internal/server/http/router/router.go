package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/polkiloo/coursepay/internal/checkout"
	"github.com/polkiloo/coursepay/internal/server/http/handlers"
	"github.com/polkiloo/coursepay/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.Facade, health handlers.HealthChecker, gatherer prometheus.Gatherer, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest(middleware.MaxRequestBody))
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	checkoutHandler := handlers.NewCheckoutHandler(facade)
	supportHandler := handlers.NewSupportHandler(facade)
	assetsHandler := handlers.NewAssetsHandler(facade)
	healthHandler := handlers.NewHealthHandler(health)

	engine.GET(checkout.ScriptPath, assetsHandler.Script)
	engine.GET("/healthz", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := engine.Group("/api")
	checkoutGroup := api.Group("/checkout")
	checkoutGroup.Use(middleware.BearerToken())
	checkoutGroup.POST("", checkoutHandler.Start)
	checkoutGroup.GET("/:orderId", checkoutHandler.Status)
	checkoutGroup.POST("/:orderId/success", checkoutHandler.Success)
	checkoutGroup.POST("/:orderId/dismiss", checkoutHandler.Dismiss)

	api.GET("/support/attempts", supportHandler.Attempts)

	return engine
}
