package handlers

import (
	"context"

	"github.com/polkiloo/coursepay/internal/adapter/script"
	"github.com/polkiloo/coursepay/internal/app"
	"github.com/polkiloo/coursepay/internal/domain/model"
)

// CheckoutFacade describes checkout operations exposed via HTTP.
type CheckoutFacade interface {
	Start(ctx context.Context, courseID string, hints model.BuyerHints) (*app.StartResult, error)
	Success(ctx context.Context, orderID string, creds model.PaymentCredentials) (*app.StatusView, error)
	Dismiss(ctx context.Context, orderID string) (*app.StatusView, error)
	Status(ctx context.Context, orderID string) (*app.StatusView, error)
}

// SupportFacade serves attempt history lookups.
type SupportFacade interface {
	History(ctx context.Context, buyerID string, limit int) ([]model.Attempt, error)
}

// ScriptFacade serves the cached gateway script.
type ScriptFacade interface {
	Script(ctx context.Context) (*script.Script, error)
}

// Facade aggregates the full set of operations used across handlers.
type Facade interface {
	CheckoutFacade
	SupportFacade
	ScriptFacade
}

// HealthChecker reports dependency health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
