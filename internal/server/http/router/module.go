package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/polkiloo/coursepay/internal/app"
	"github.com/polkiloo/coursepay/internal/storage/postgres"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Provide(newEngine)

type engineParams struct {
	fx.In

	Facade   *app.CheckoutFacade
	Storage  *postgres.Storage
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

func newEngine(p engineParams) *gin.Engine {
	return Setup(p.Facade, p.Storage, p.Gatherer, p.Logger)
}
