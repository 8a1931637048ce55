package identity

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/coursepay/internal/adapter/backend"
)

// Module provides buyer identity resolution via fx.
var Module = fx.Provide(newResolver)

type resolverParams struct {
	fx.In

	Backend *backend.HTTPClient
	Logger  *slog.Logger
}

func newResolver(p resolverParams) *Resolver {
	return NewResolver(p.Backend, p.Logger)
}
