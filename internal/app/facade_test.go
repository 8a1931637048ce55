package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/polkiloo/coursepay/internal/adapter/backend"
	"github.com/polkiloo/coursepay/internal/checkout"
	domainErrors "github.com/polkiloo/coursepay/internal/domain/errors"
	"github.com/polkiloo/coursepay/internal/domain/model"
	testhelpers "github.com/polkiloo/coursepay/internal/test"
)

type facadeFixture struct {
	facade   *CheckoutFacade
	backend  *testhelpers.BackendStub
	widgets  *testhelpers.WidgetFactoryStub
	scripts  *testhelpers.ScriptLoaderStub
	registry *checkout.Registry
	attempts *testhelpers.AttemptRepositoryStub
	metrics  *testhelpers.MetricsStub
	events   *testhelpers.EventPublisherStub
}

func newFacadeFixture(t *testing.T, overlays OverlayState) *facadeFixture {
	t.Helper()
	f := &facadeFixture{
		backend:  &testhelpers.BackendStub{},
		widgets:  &testhelpers.WidgetFactoryStub{},
		scripts:  &testhelpers.ScriptLoaderStub{},
		registry: checkout.NewRegistry(time.Minute),
		attempts: testhelpers.NewAttemptRepositoryStub(),
		metrics:  &testhelpers.MetricsStub{},
		events:   &testhelpers.EventPublisherStub{},
	}
	logger := testLogger()
	recorder := NewOutcomeRecorder(f.metrics, f.attempts, f.events, logger)
	initiator := checkout.NewInitiator(testhelpers.IdentityStub{}, f.backend, logger)
	launcher := checkout.NewLauncher(checkout.LauncherDeps{
		Scripts:  f.scripts,
		Widgets:  func(orderID string) checkout.Widget { return f.widgets.For(orderID) },
		Status:   f.backend,
		Verifier: f.backend,
		Registry: f.registry,
		Observer: recorder,
	}, checkout.LauncherConfig{
		Key:     "rzp_test_key",
		Session: checkout.SessionConfig{RedirectURL: "/my-orders", PollInterval: time.Hour},
	}, logger)

	f.facade = NewCheckoutFacade(FacadeDeps{
		Orders:   initiator,
		Launcher: launcher,
		Registry: f.registry,
		Attempts: f.attempts,
		Overlays: overlays,
		Scripts:  f.scripts,
		Metrics:  f.metrics,
	}, FacadeConfig{FreeEnrollRedirectURL: "/enrollment/success", OrdersRedirectURL: "/my-orders"}, logger)
	t.Cleanup(f.registry.StopAll)
	return f
}

func TestStartOpensWidget(t *testing.T) {
	f := newFacadeFixture(t, testhelpers.OverlayStub{Open: true})

	res, err := f.facade.Start(context.Background(), "course_1", model.BuyerHints{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Free || res.Widget == nil || res.Widget.AmountMinor != 50000 || res.OrderID != "order_course_1" {
		t.Fatalf("unexpected start result %+v", res)
	}

	attempt, ok := f.attempts.Get("order_course_1")
	if !ok || attempt.State != model.StateAwaitingPayment || attempt.AmountMinor != 50000 {
		t.Fatalf("expected journaled attempt, got %+v ok=%v", attempt, ok)
	}
	if len(f.metrics.Starts) != 1 || f.metrics.Starts[0] != "widget" {
		t.Fatalf("unexpected start metrics %v", f.metrics.Starts)
	}
	if got := f.events.Published(); len(got) != 1 || got[0].State != "AWAITING_PAYMENT" {
		t.Fatalf("unexpected events %+v", got)
	}
}

func TestStartFreeCourseSkipsCheckout(t *testing.T) {
	f := newFacadeFixture(t, testhelpers.OverlayStub{})
	f.backend.GetCourseFn = func(_ context.Context, id string) (*model.Course, error) {
		return &model.Course{ID: id, Name: "Intro", Active: true}, nil
	}

	res, err := f.facade.Start(context.Background(), "course_free", model.BuyerHints{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Free || res.RedirectURL != "/enrollment/success" || res.Widget != nil {
		t.Fatalf("unexpected free result %+v", res)
	}
	if f.widgets.Created() != 0 || f.scripts.LoadCount() != 0 {
		t.Fatalf("free enrollment must not touch widget or loader: widgets=%d loads=%d", f.widgets.Created(), f.scripts.LoadCount())
	}
	if attempt, ok := f.attempts.Get(res.OrderID); !ok || attempt.State != model.StateCompleted {
		t.Fatalf("expected free enrollment journaled as completed, got %+v", attempt)
	}
	if f.registry.Len() != 0 {
		t.Fatal("free enrollment must not create a session")
	}
}

func TestStartErrorsAreCounted(t *testing.T) {
	f := newFacadeFixture(t, testhelpers.OverlayStub{})
	f.backend.CreateOrderFn = func(context.Context, backend.CreateOrderRequest) (*model.PaymentOrder, error) {
		return nil, domainErrors.ErrUnauthenticated
	}

	if _, err := f.facade.Start(context.Background(), "course_1", model.BuyerHints{}); !errors.Is(err, domainErrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if len(f.metrics.Starts) != 1 || f.metrics.Starts[0] != "unauthenticated" {
		t.Fatalf("unexpected start metrics %v", f.metrics.Starts)
	}
}

func TestSuccessCompletesAndJournals(t *testing.T) {
	f := newFacadeFixture(t, testhelpers.OverlayStub{Open: true})
	res, err := f.facade.Start(context.Background(), "course_1", model.BuyerHints{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	view, err := f.facade.Success(context.Background(), res.OrderID, model.PaymentCredentials{PaymentID: "pay_1", Signature: "sig"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.State != model.StateCompleted || view.RedirectURL != "/my-orders" || view.WidgetOpen {
		t.Fatalf("unexpected view %+v", view)
	}
	if attempt, _ := f.attempts.Get(res.OrderID); attempt.State != model.StateCompleted {
		t.Fatalf("expected journal completed, got %s", attempt.State)
	}
	if len(f.metrics.Outcomes) != 1 || f.metrics.Outcomes[0] != "COMPLETED" {
		t.Fatalf("unexpected outcomes %v", f.metrics.Outcomes)
	}
	published := f.events.Published()
	if len(published) != 2 || published[1].Trigger != "success" {
		t.Fatalf("unexpected events %+v", published)
	}
	if _, verify := f.backend.Counts(); verify != 1 {
		t.Fatalf("expected one verify, got %d", verify)
	}
}

func TestSuccessUnverifiedIsReportedInView(t *testing.T) {
	f := newFacadeFixture(t, testhelpers.OverlayStub{})
	f.backend.VerifyFn = func(context.Context, model.PaymentCredentials) error {
		return domainErrors.ErrBackendUnavailable
	}
	res, _ := f.facade.Start(context.Background(), "course_1", model.BuyerHints{})

	view, err := f.facade.Success(context.Background(), res.OrderID, model.PaymentCredentials{PaymentID: "pay_1", Signature: "sig"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.State != model.StateUnverified || view.RedirectURL != "" || view.Message != checkout.MessagePaidUnverified {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestSuccessErrors(t *testing.T) {
	f := newFacadeFixture(t, testhelpers.OverlayStub{})
	if _, err := f.facade.Success(context.Background(), "missing", model.PaymentCredentials{}); !errors.Is(err, domainErrors.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	res, _ := f.facade.Start(context.Background(), "course_1", model.BuyerHints{})
	if _, err := f.facade.Success(context.Background(), res.OrderID, model.PaymentCredentials{PaymentID: "pay"}); !errors.Is(err, domainErrors.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestDismissAbandons(t *testing.T) {
	f := newFacadeFixture(t, testhelpers.OverlayStub{})
	res, _ := f.facade.Start(context.Background(), "course_1", model.BuyerHints{})

	view, err := f.facade.Dismiss(context.Background(), res.OrderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.State != model.StateAbandoned || view.RedirectURL != "" {
		t.Fatalf("unexpected view %+v", view)
	}
	if _, err := f.facade.Dismiss(context.Background(), "missing"); !errors.Is(err, domainErrors.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	f := newFacadeFixture(t, testhelpers.OverlayStub{Err: errors.New("redis down")})
	res, _ := f.facade.Start(context.Background(), "course_1", model.BuyerHints{})

	view, err := f.facade.Status(context.Background(), res.OrderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.State != model.StateAwaitingPayment || !view.WidgetOpen {
		t.Fatalf("awaiting session should report open widget, got %+v", view)
	}

	if _, err := f.facade.Success(context.Background(), res.OrderID, model.PaymentCredentials{PaymentID: "p", Signature: "s"}); err != nil {
		t.Fatalf("success: %v", err)
	}
	f.registry.Remove(res.OrderID)

	view, err = f.facade.Status(context.Background(), res.OrderID)
	if err != nil {
		t.Fatalf("journal fallback failed: %v", err)
	}
	if view.State != model.StateCompleted || view.RedirectURL != "/my-orders" {
		t.Fatalf("unexpected journal view %+v", view)
	}

	if _, err := f.facade.Status(context.Background(), "missing"); !errors.Is(err, domainErrors.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestHistoryAndScript(t *testing.T) {
	f := newFacadeFixture(t, testhelpers.OverlayStub{})
	if _, err := f.facade.Start(context.Background(), "course_1", model.BuyerHints{}); err != nil {
		t.Fatalf("start: %v", err)
	}

	attempts, err := f.facade.History(context.Background(), "user_1", 10)
	if err != nil || len(attempts) != 1 {
		t.Fatalf("unexpected history %v err=%v", attempts, err)
	}

	s, err := f.facade.Script(context.Background())
	if err != nil || len(s.Body) == 0 {
		t.Fatalf("unexpected script %v err=%v", s, err)
	}
}

func TestErrorKind(t *testing.T) {
	cases := map[error]string{
		domainErrors.ErrIdentityUnresolved: "identity",
		domainErrors.ErrCourseInactive:     "course",
		domainErrors.ErrUnauthenticated:    "unauthenticated",
		domainErrors.ErrGatewayUnavailable: "gateway",
		domainErrors.ErrCheckoutInProgress: "in_progress",
		errors.New("boom"):                 "backend",

		backend.TooManyRequestsError{RetryAfter: time.Second}: "rate_limited",
	}
	for err, want := range cases {
		if got := errorKind(err); got != want {
			t.Fatalf("errorKind(%v) = %q, want %q", err, got, want)
		}
	}
}
