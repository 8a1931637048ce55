package checkout

import (
	"context"
	"time"

	"github.com/polkiloo/coursepay/internal/adapter/backend"
	"github.com/polkiloo/coursepay/internal/adapter/script"
	"github.com/polkiloo/coursepay/internal/domain/model"
)

// IdentityResolver derives the buyer from client supplied hints.
type IdentityResolver interface {
	Resolve(ctx context.Context, hints model.BuyerHints) (model.Buyer, error)
}

// OrderBackend is the part of the backend used to open an order.
type OrderBackend interface {
	GetCourse(ctx context.Context, courseID string) (*model.Course, error)
	CreateOrder(ctx context.Context, req backend.CreateOrderRequest) (*model.PaymentOrder, error)
}

// StatusChecker reports the authoritative order status.
type StatusChecker interface {
	OrderStatus(ctx context.Context, orderID string) (model.OrderStatus, error)
}

// Verifier validates gateway credentials with backend.
type Verifier interface {
	Verify(ctx context.Context, creds model.PaymentCredentials) error
}

// ScriptLoader makes the gateway checkout script available.
type ScriptLoader interface {
	Load(ctx context.Context) (*script.Script, error)
}

// Widget is the hosted checkout overlay of a single order.
type Widget interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	RemoveResidue(ctx context.Context) error
}

// WidgetFactory returns the widget handle for an order.
type WidgetFactory func(orderID string) Widget

// Observer is told about session activity. Calls are synchronous and must not block for long.
type Observer interface {
	Started(attempt model.Attempt)
	Triggered(orderID string, trigger model.Trigger, accepted bool)
	Verified(orderID string, took time.Duration, err error)
	Settled(attempt model.Attempt, trigger model.Trigger)
}

type noopObserver struct{}

func (noopObserver) Started(model.Attempt) {}
func (noopObserver) Triggered(string, model.Trigger, bool) {}
func (noopObserver) Verified(string, time.Duration, error) {}
func (noopObserver) Settled(model.Attempt, model.Trigger) {}
