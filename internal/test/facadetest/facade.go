package facadetest

import (
	"context"
	"time"

	"github.com/polkiloo/coursepay/internal/adapter/script"
	"github.com/polkiloo/coursepay/internal/app"
	"github.com/polkiloo/coursepay/internal/checkout"
	"github.com/polkiloo/coursepay/internal/domain/model"
)

// FacadeStub implements HTTP facade with overridable behaviour.
type FacadeStub struct {
	StartFn   func(context.Context, string, model.BuyerHints) (*app.StartResult, error)
	SuccessFn func(context.Context, string, model.PaymentCredentials) (*app.StatusView, error)
	DismissFn func(context.Context, string) (*app.StatusView, error)
	StatusFn  func(context.Context, string) (*app.StatusView, error)
	HistoryFn func(context.Context, string, int) ([]model.Attempt, error)
	ScriptFn  func(context.Context) (*script.Script, error)
}

func (s FacadeStub) Start(ctx context.Context, courseID string, hints model.BuyerHints) (*app.StartResult, error) {
	if s.StartFn != nil {
		return s.StartFn(ctx, courseID, hints)
	}
	return &app.StartResult{
		OrderID: "order_" + courseID,
		Widget:  &checkout.WidgetConfig{Key: "rzp_test_key", AmountMinor: 50000, Currency: model.DefaultCurrency, OrderID: "order_" + courseID},
	}, nil
}

func (s FacadeStub) Success(ctx context.Context, orderID string, creds model.PaymentCredentials) (*app.StatusView, error) {
	if s.SuccessFn != nil {
		return s.SuccessFn(ctx, orderID, creds)
	}
	return &app.StatusView{OrderID: orderID, State: model.StateCompleted, RedirectURL: "/my-orders"}, nil
}

func (s FacadeStub) Dismiss(ctx context.Context, orderID string) (*app.StatusView, error) {
	if s.DismissFn != nil {
		return s.DismissFn(ctx, orderID)
	}
	return &app.StatusView{OrderID: orderID, State: model.StateAbandoned}, nil
}

func (s FacadeStub) Status(ctx context.Context, orderID string) (*app.StatusView, error) {
	if s.StatusFn != nil {
		return s.StatusFn(ctx, orderID)
	}
	return &app.StatusView{OrderID: orderID, State: model.StateAwaitingPayment, WidgetOpen: true}, nil
}

func (s FacadeStub) History(ctx context.Context, buyerID string, limit int) ([]model.Attempt, error) {
	if s.HistoryFn != nil {
		return s.HistoryFn(ctx, buyerID, limit)
	}
	return nil, nil
}

func (s FacadeStub) Script(ctx context.Context) (*script.Script, error) {
	if s.ScriptFn != nil {
		return s.ScriptFn(ctx)
	}
	return &script.Script{Body: []byte("checkout()"), ContentType: "application/javascript", FetchedAt: time.Now()}, nil
}

// HealthCheckerStub returns configured error.
type HealthCheckerStub struct {
	Err error
}

func (h HealthCheckerStub) HealthCheck(context.Context) error {
	return h.Err
}
