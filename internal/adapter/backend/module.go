package backend

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/coursepay/internal/config"
)

// Module exposes backend REST client to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (*HTTPClient, error) {
	return NewHTTPClient(p.Config.BackendAddress, p.Logger)
}
