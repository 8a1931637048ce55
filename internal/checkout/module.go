package checkout

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/coursepay/internal/adapter/backend"
	"github.com/polkiloo/coursepay/internal/adapter/script"
	"github.com/polkiloo/coursepay/internal/adapter/widget"
	"github.com/polkiloo/coursepay/internal/config"
	"github.com/polkiloo/coursepay/internal/identity"
)

// ScriptPath is where the browser fetches the cached gateway script.
const ScriptPath = "/assets/checkout.js"

// Module provides the checkout flow components.
var Module = fx.Provide(
	newRegistry,
	newInitiator,
	newWidgetFactory,
	newLauncher,
)

type registryParams struct {
	fx.In

	Config *config.Config
}

func newRegistry(p registryParams) *Registry {
	return NewRegistry(p.Config.SessionTTL)
}

type initiatorParams struct {
	fx.In

	Identity *identity.Resolver
	Backend  *backend.HTTPClient
	Logger   *slog.Logger
}

func newInitiator(p initiatorParams) *Initiator {
	return NewInitiator(p.Identity, p.Backend, p.Logger)
}

func newWidgetFactory(opener *widget.Opener) WidgetFactory {
	return func(orderID string) Widget { return opener.Overlay(orderID) }
}

type launcherParams struct {
	fx.In

	Config   *config.Config
	Scripts  *script.Loader
	Widgets  WidgetFactory
	Backend  *backend.HTTPClient
	Registry *Registry
	Observer Observer
	Logger   *slog.Logger
}

func newLauncher(p launcherParams) *Launcher {
	return NewLauncher(LauncherDeps{
		Scripts:  p.Scripts,
		Widgets:  p.Widgets,
		Status:   p.Backend,
		Verifier: p.Backend,
		Registry: p.Registry,
		Observer: p.Observer,
	}, LauncherConfig{
		Key:          p.Config.CheckoutKey,
		MerchantName: p.Config.MerchantName,
		ScriptURL:    ScriptPath,
		Currency:     p.Config.DefaultCurrency,
		Session: SessionConfig{
			RedirectURL:    p.Config.OrdersRedirectURL,
			PollInterval:   p.Config.StatusPollInterval,
			PollTimeout:    p.Config.StatusPollTimeout,
			TeardownDelays: p.Config.TeardownDelays,
		},
	}, p.Logger)
}
