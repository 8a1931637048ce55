package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/polkiloo/coursepay/internal/adapter/backend"
	"github.com/polkiloo/coursepay/internal/adapter/script"
	"github.com/polkiloo/coursepay/internal/checkout"
	domainErrors "github.com/polkiloo/coursepay/internal/domain/errors"
	"github.com/polkiloo/coursepay/internal/domain/model"
	"github.com/polkiloo/coursepay/internal/domain/repository"
)

// MessageFreeEnrollment is shown when a course needs no payment.
const MessageFreeEnrollment = "You are enrolled. No payment was needed."

// OrderCreator opens payment orders.
type OrderCreator interface {
	CreateOrder(ctx context.Context, courseID string, hints model.BuyerHints) (*model.PaymentOrder, model.Buyer, error)
}

// CheckoutLauncher opens the hosted widget for an order.
type CheckoutLauncher interface {
	Launch(ctx context.Context, order *model.PaymentOrder, buyer model.Buyer) (*checkout.Session, error)
}

// OverlayState reports whether the browser should show the widget.
type OverlayState interface {
	IsOpen(ctx context.Context, orderID string) (bool, error)
}

// ScriptSource serves the gateway checkout script.
type ScriptSource interface {
	Load(ctx context.Context) (*script.Script, error)
}

// StartMetrics counts start results.
type StartMetrics interface {
	Start(result string)
}

// StartResult is what the browser needs after starting checkout.
type StartResult struct {
	OrderID     string
	Free        bool
	RedirectURL string
	Message     string
	Widget      *checkout.WidgetConfig
}

// StatusView is the browser facing state of an attempt.
type StatusView struct {
	OrderID     string
	State       model.SessionState
	WidgetOpen  bool
	RedirectURL string
	Message     string
}

// FacadeConfig holds redirect targets.
type FacadeConfig struct {
	FreeEnrollRedirectURL string
	OrdersRedirectURL     string
}

// CheckoutFacade composes the checkout flow for the HTTP layer.
type CheckoutFacade struct {
	orders   OrderCreator
	launcher CheckoutLauncher
	registry *checkout.Registry
	attempts repository.AttemptRepository
	overlays OverlayState
	scripts  ScriptSource
	metrics  StartMetrics
	cfg      FacadeConfig
	logger   *slog.Logger
}

// FacadeDeps groups collaborators of CheckoutFacade.
type FacadeDeps struct {
	Orders   OrderCreator
	Launcher CheckoutLauncher
	Registry *checkout.Registry
	Attempts repository.AttemptRepository
	Overlays OverlayState
	Scripts  ScriptSource
	Metrics  StartMetrics
}

func NewCheckoutFacade(deps FacadeDeps, cfg FacadeConfig, logger *slog.Logger) *CheckoutFacade {
	return &CheckoutFacade{
		orders:   deps.Orders,
		launcher: deps.Launcher,
		registry: deps.Registry,
		attempts: deps.Attempts,
		overlays: deps.Overlays,
		scripts:  deps.Scripts,
		metrics:  deps.Metrics,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start creates the order and either redirects a free enrollment or opens checkout.
func (f *CheckoutFacade) Start(ctx context.Context, courseID string, hints model.BuyerHints) (*StartResult, error) {
	order, buyer, err := f.orders.CreateOrder(ctx, courseID, hints)
	if err != nil {
		f.metrics.Start(errorKind(err))
		return nil, err
	}

	if order.IsFree() {
		f.metrics.Start("free")
		f.recordFree(ctx, order, buyer)
		return &StartResult{
			OrderID:     order.OrderID,
			Free:        true,
			RedirectURL: f.cfg.FreeEnrollRedirectURL,
			Message:     MessageFreeEnrollment,
		}, nil
	}

	session, err := f.launcher.Launch(ctx, order, buyer)
	if err != nil {
		f.metrics.Start(errorKind(err))
		return nil, err
	}
	f.metrics.Start("widget")
	cfg := session.WidgetConfig()
	return &StartResult{OrderID: order.OrderID, Widget: &cfg}, nil
}

// Success relays the widget success handler.
func (f *CheckoutFacade) Success(ctx context.Context, orderID string, creds model.PaymentCredentials) (*StatusView, error) {
	session, ok := f.registry.Get(orderID)
	if !ok {
		return nil, domainErrors.ErrOrderNotFound
	}
	creds.OrderID = orderID
	if err := session.HandleSuccess(ctx, creds); err != nil {
		var unverified *domainErrors.PaidUnverifiedError
		if !errors.As(err, &unverified) {
			return nil, err
		}
	}
	return f.sessionView(ctx, session), nil
}

// Dismiss relays the widget dismiss handler.
func (f *CheckoutFacade) Dismiss(ctx context.Context, orderID string) (*StatusView, error) {
	session, ok := f.registry.Get(orderID)
	if !ok {
		return nil, domainErrors.ErrOrderNotFound
	}
	if err := session.HandleDismiss(ctx); err != nil {
		return nil, err
	}
	return f.sessionView(ctx, session), nil
}

// Status reports the attempt outcome, from memory or from the journal after eviction.
func (f *CheckoutFacade) Status(ctx context.Context, orderID string) (*StatusView, error) {
	if session, ok := f.registry.Get(orderID); ok {
		return f.sessionView(ctx, session), nil
	}

	attempt, err := f.attempts.GetByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, err
	}
	view := &StatusView{OrderID: attempt.OrderID, State: attempt.State, Message: attempt.Message}
	if attempt.State == model.StateCompleted {
		view.RedirectURL = f.cfg.OrdersRedirectURL
	}
	return view, nil
}

// History lists a buyer's recent attempts for support lookups.
func (f *CheckoutFacade) History(ctx context.Context, buyerID string, limit int) ([]model.Attempt, error) {
	return f.attempts.ListByBuyer(ctx, buyerID, limit)
}

// Script returns the gateway checkout script.
func (f *CheckoutFacade) Script(ctx context.Context) (*script.Script, error) {
	return f.scripts.Load(ctx)
}

func (f *CheckoutFacade) sessionView(ctx context.Context, s *checkout.Session) *StatusView {
	out := s.Outcome()
	view := &StatusView{
		OrderID:     s.OrderID(),
		State:       out.State,
		RedirectURL: out.RedirectURL,
		Message:     out.Message,
	}
	if out.State == model.StateAwaitingPayment {
		open, err := f.overlays.IsOpen(ctx, s.OrderID())
		if err != nil {
			f.logger.Warn("overlay state unavailable", slog.String("order", s.OrderID()), slog.String("error", err.Error()))
			open = true
		}
		view.WidgetOpen = open
	}
	return view
}

func (f *CheckoutFacade) recordFree(ctx context.Context, order *model.PaymentOrder, buyer model.Buyer) {
	now := time.Now()
	buyerID := buyer.UserID
	if buyerID == "" {
		buyerID = buyer.Email
	}
	err := f.attempts.Create(ctx, model.Attempt{
		OrderID:     order.OrderID,
		CourseID:    order.CourseID,
		BuyerID:     buyerID,
		AmountMinor: order.AmountMinor,
		Currency:    order.Currency,
		State:       model.StateCompleted,
		Message:     MessageFreeEnrollment,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		f.logger.Warn("journal free enrollment failed", slog.String("order", order.OrderID), slog.String("error", err.Error()))
	}
}

func errorKind(err error) string {
	var tooMany backend.TooManyRequestsError
	switch {
	case errors.As(err, &tooMany):
		return "rate_limited"
	case errors.Is(err, domainErrors.ErrIdentityUnresolved):
		return "identity"
	case errors.Is(err, domainErrors.ErrCourseNotFound), errors.Is(err, domainErrors.ErrCourseInactive):
		return "course"
	case errors.Is(err, domainErrors.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domainErrors.ErrGatewayUnavailable):
		return "gateway"
	case errors.Is(err, domainErrors.ErrCheckoutInProgress):
		return "in_progress"
	default:
		return "backend"
	}
}
