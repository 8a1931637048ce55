package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/coursepay/internal/adapter/events"
	"github.com/polkiloo/coursepay/internal/adapter/script"
	"github.com/polkiloo/coursepay/internal/adapter/widget"
	"github.com/polkiloo/coursepay/internal/checkout"
	"github.com/polkiloo/coursepay/internal/config"
	"github.com/polkiloo/coursepay/internal/domain/repository"
	"github.com/polkiloo/coursepay/internal/metrics"
	"github.com/polkiloo/coursepay/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		newCheckoutFacade,
		fx.Annotate(newOutcomeRecorder, fx.As(new(checkout.Observer))),
		newHTTPServer,
		newSweeper,
	),
	fx.Invoke(registerLifecycle),
)

type facadeParams struct {
	fx.In

	Config    *config.Config
	Initiator *checkout.Initiator
	Launcher  *checkout.Launcher
	Registry  *checkout.Registry
	Attempts  repository.AttemptRepository
	Opener    *widget.Opener
	Scripts   *script.Loader
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

func newCheckoutFacade(p facadeParams) *CheckoutFacade {
	return NewCheckoutFacade(FacadeDeps{
		Orders:   p.Initiator,
		Launcher: p.Launcher,
		Registry: p.Registry,
		Attempts: p.Attempts,
		Overlays: p.Opener,
		Scripts:  p.Scripts,
		Metrics:  p.Metrics,
	}, FacadeConfig{
		FreeEnrollRedirectURL: p.Config.FreeEnrollRedirectURL,
		OrdersRedirectURL:     p.Config.OrdersRedirectURL,
	}, p.Logger)
}

type recorderParams struct {
	fx.In

	Metrics  *metrics.Metrics
	Attempts repository.AttemptRepository
	Producer *events.Producer
	Logger   *slog.Logger
}

func newOutcomeRecorder(p recorderParams) *OutcomeRecorder {
	return NewOutcomeRecorder(p.Metrics, p.Attempts, p.Producer, p.Logger)
}

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type sweeperParams struct {
	fx.In

	Registry *checkout.Registry
	Config   *config.Config
	Logger   *slog.Logger
}

func newSweeper(p sweeperParams) *worker.Sweeper {
	interval := p.Config.SessionTTL / 4
	return worker.NewSweeper(p.Registry, interval, p.Logger)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Sweeper    *worker.Sweeper
	Registry   *checkout.Registry
	Producer   *events.Producer
	Redis      *redis.Client
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting checkoutd", slog.String("addr", p.Server.Addr))
			if err := p.Redis.Ping(ctx).Err(); err != nil {
				p.Logger.Warn("redis unreachable at start", slog.String("error", err.Error()))
			}
			p.Producer.Start(context.WithoutCancel(ctx))
			p.Sweeper.Start(context.WithoutCancel(ctx))
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			err := p.Server.Shutdown(shutdownCtx)
			p.Sweeper.Stop()
			p.Registry.StopAll()
			p.Producer.Stop()
			if cerr := p.Redis.Close(); cerr != nil {
				p.Logger.Warn("close redis failed", slog.String("error", cerr.Error()))
			}

			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("checkoutd stopped")
			return nil
		},
	})
}
