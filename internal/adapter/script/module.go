package script

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/coursepay/internal/config"
)

// Module provides the checkout script loader.
var Module = fx.Provide(newLoader)

type loaderParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newLoader(p loaderParams) (*Loader, error) {
	return NewLoader(p.Config.CheckoutScriptURL, p.Logger)
}
