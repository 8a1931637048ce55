package checkout

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/polkiloo/coursepay/internal/domain/model"
	testhelpers "github.com/polkiloo/coursepay/internal/test"
)

const redirectURL = "/my-orders"

type fixture struct {
	backend  *testhelpers.BackendStub
	widgets  *testhelpers.WidgetFactoryStub
	scripts  *testhelpers.ScriptLoaderStub
	observer *testhelpers.ObserverRecorder
	registry *Registry
	launcher *Launcher
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func quietSession() SessionConfig {
	return SessionConfig{RedirectURL: redirectURL, PollInterval: time.Hour}
}

func newFixture(t *testing.T, cfg SessionConfig) *fixture {
	t.Helper()
	f := &fixture{
		backend:  &testhelpers.BackendStub{},
		widgets:  &testhelpers.WidgetFactoryStub{},
		scripts:  &testhelpers.ScriptLoaderStub{},
		observer: &testhelpers.ObserverRecorder{},
		registry: NewRegistry(time.Minute),
	}
	f.launcher = NewLauncher(LauncherDeps{
		Scripts:  f.scripts,
		Widgets:  func(orderID string) Widget { return f.widgets.For(orderID) },
		Status:   f.backend,
		Verifier: f.backend,
		Registry: f.registry,
		Observer: f.observer,
	}, LauncherConfig{Key: "rzp_test_key", MerchantName: "Academy", ScriptURL: "/assets/checkout.js", Session: cfg}, testLogger())
	t.Cleanup(f.registry.StopAll)
	return f
}

func (f *fixture) launch(t *testing.T, orderID string, amount int64) *Session {
	t.Helper()
	order := &model.PaymentOrder{OrderID: orderID, AmountMinor: amount, Currency: "INR", CourseID: "course_1", CourseName: "Go in Practice"}
	s, err := f.launcher.Launch(context.Background(), order, model.Buyer{UserID: "user_1", Email: "a@b.c"})
	if err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	return s
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("session %s did not settle, state %s", s.OrderID(), s.State())
	}
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal(msg)
		case <-time.After(2 * time.Millisecond):
		}
	}
}
