package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/coursepay/internal/adapter/backend"
	"github.com/polkiloo/coursepay/internal/adapter/events"
	"github.com/polkiloo/coursepay/internal/adapter/script"
	"github.com/polkiloo/coursepay/internal/adapter/widget"
	"github.com/polkiloo/coursepay/internal/app"
	"github.com/polkiloo/coursepay/internal/checkout"
	"github.com/polkiloo/coursepay/internal/config"
	"github.com/polkiloo/coursepay/internal/identity"
	"github.com/polkiloo/coursepay/internal/logger"
	"github.com/polkiloo/coursepay/internal/metrics"
	"github.com/polkiloo/coursepay/internal/server/http/router"
	"github.com/polkiloo/coursepay/internal/storage/postgres"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		postgres.Module,
		backend.Module,
		identity.Module,
		script.Module,
		widget.Module,
		events.Module,
		metrics.Module,
		checkout.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
