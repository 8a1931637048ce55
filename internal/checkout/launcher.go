package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainErrors "github.com/polkiloo/coursepay/internal/domain/errors"
	"github.com/polkiloo/coursepay/internal/domain/model"
	"github.com/polkiloo/coursepay/internal/money"
)

const defaultDescription = "Course enrollment"

// WidgetConfig is handed to the gateway checkout SDK in the browser.
// Amount is in minor units exactly as the order carries it.
type WidgetConfig struct {
	Key           string            `json:"key"`
	AmountMinor   int64             `json:"amount"`
	Currency      string            `json:"currency"`
	OrderID       string            `json:"order_id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	DisplayAmount string            `json:"display_amount"`
	ScriptURL     string            `json:"script_url"`
	Prefill       PrefillConfig     `json:"prefill"`
	Notes         map[string]string `json:"notes,omitempty"`
}

// PrefillConfig always carries all three keys; missing values are empty strings.
type PrefillConfig struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// LauncherConfig holds static checkout settings.
type LauncherConfig struct {
	Key          string
	MerchantName string
	ScriptURL    string
	Currency     string
	Session      SessionConfig
}

// Launcher opens the hosted checkout for a created order.
type Launcher struct {
	scripts  ScriptLoader
	widgets  WidgetFactory
	status   StatusChecker
	verifier Verifier
	registry *Registry
	observer Observer
	cfg      LauncherConfig
	logger   *slog.Logger
}

// LauncherDeps groups collaborators of Launcher.
type LauncherDeps struct {
	Scripts  ScriptLoader
	Widgets  WidgetFactory
	Status   StatusChecker
	Verifier Verifier
	Registry *Registry
	Observer Observer
}

func NewLauncher(deps LauncherDeps, cfg LauncherConfig, logger *slog.Logger) *Launcher {
	observer := deps.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	return &Launcher{
		scripts:  deps.Scripts,
		widgets:  deps.Widgets,
		status:   deps.Status,
		verifier: deps.Verifier,
		registry: deps.Registry,
		observer: observer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Launch loads the gateway script, opens the widget and starts watching for
// completion. It returns as soon as the widget is open.
func (l *Launcher) Launch(ctx context.Context, order *model.PaymentOrder, buyer model.Buyer) (*Session, error) {
	if order == nil || order.OrderID == "" {
		return nil, domainErrors.ErrOrderNotFound
	}
	if order.IsFree() {
		return nil, domainErrors.ErrFreeOrder
	}

	if _, err := l.scripts.Load(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if !errors.Is(err, domainErrors.ErrGatewayUnavailable) {
			err = fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, err)
		}
		l.logger.Error("checkout script unavailable", slog.String("order", order.OrderID), slog.String("error", err.Error()))
		return nil, err
	}

	widget := l.widgets(order.OrderID)
	s := newSession(*order, buyer, widget, l.status, l.verifier, l.observer, l.cfg.Session, l.logger)
	s.widgetConfig = l.widgetConfig(order, buyer)

	if err := l.registry.Add(s); err != nil {
		return nil, err
	}

	openCtx, cancel := context.WithTimeout(ctx, widgetCallTimeout)
	err := widget.Open(openCtx)
	cancel()
	if err != nil {
		l.registry.Remove(order.OrderID)
		s.teardown()
		s.Stop()
		return nil, fmt.Errorf("%w: open widget: %v", domainErrors.ErrGatewayUnavailable, err)
	}

	l.observer.Started(s.Attempt())
	s.start(ctx)
	l.logger.Info("checkout launched",
		slog.String("order", order.OrderID),
		slog.Int64("amount_minor", order.AmountMinor),
		slog.String("currency", order.Currency),
	)
	return s, nil
}

func (l *Launcher) widgetConfig(order *model.PaymentOrder, buyer model.Buyer) WidgetConfig {
	currency := order.Currency
	if currency == "" {
		currency = l.cfg.Currency
	}
	if currency == "" {
		currency = model.DefaultCurrency
	}
	description := order.CourseName
	if description == "" {
		description = defaultDescription
	}
	prefill := model.PrefillFrom(buyer)
	return WidgetConfig{
		Key:           l.cfg.Key,
		AmountMinor:   order.AmountMinor,
		Currency:      currency,
		OrderID:       order.OrderID,
		Name:          l.cfg.MerchantName,
		Description:   description,
		DisplayAmount: money.Format(order.AmountMinor, currency),
		ScriptURL:     l.cfg.ScriptURL,
		Prefill:       PrefillConfig{Name: prefill.Name, Email: prefill.Email, Contact: prefill.Contact},
		Notes:         map[string]string{"courseId": order.CourseID},
	}
}

