package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/coursepay/internal/adapter/events"
	"github.com/polkiloo/coursepay/internal/checkout"
	"github.com/polkiloo/coursepay/internal/config"
	testhelpers "github.com/polkiloo/coursepay/internal/test"
	"github.com/polkiloo/coursepay/internal/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newLifecycleParams(recorder *testhelpers.LifecycleRecorder, shutdowner *testhelpers.ShutdownerStub, server *http.Server) lifecycleParams {
	registry := checkout.NewRegistry(time.Minute)
	return lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     testLogger(),
		Server:     server,
		Sweeper:    worker.NewSweeper(registry, 10*time.Millisecond, testLogger()),
		Registry:   registry,
		Producer:   events.NewProducer([]string{"127.0.0.1:1"}, "checkout.test", 4, testLogger()),
		Redis:      redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1}),
		Config:     &config.Config{ShutdownTimeout: 100 * time.Millisecond},
	}
}

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{RunAddress: ":9999"}
	router := gin.New()
	server := newHTTPServer(serverParams{Config: cfg, Router: router})
	if server.Addr != ":9999" {
		t.Fatalf("expected address :9999, got %q", server.Addr)
	}
	if server.Handler != router {
		t.Fatalf("expected handler to be router")
	}
}

func TestNewSweeperUsesConfig(t *testing.T) {
	sweeper := newSweeper(sweeperParams{
		Registry: checkout.NewRegistry(time.Minute),
		Config:   &config.Config{SessionTTL: 20 * time.Minute},
		Logger:   testLogger(),
	})
	if sweeper == nil {
		t.Fatal("expected sweeper instance")
	}
}

func TestRegisterLifecycleStartStop(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}

	registerLifecycle(newLifecycleParams(recorder, shutdowner, server))

	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected one hook registered, got %d", len(recorder.Hooks))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := recorder.Start(ctx); err != nil {
		t.Fatalf("on start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = recorder.Stop(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected on stop to finish")
	}
}

func TestRegisterLifecycleShutdownOnServerError(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	server := &http.Server{Addr: "bad addr"}

	registerLifecycle(newLifecycleParams(recorder, shutdowner, server))

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("on start returned error: %v", err)
	}

	select {
	case <-shutdowner.Called:
	case <-time.After(time.Second):
		t.Fatal("expected shutdown to be triggered on server error")
	}

	_ = recorder.Stop(context.Background())
	if shutdowner.Count() != 1 {
		t.Fatalf("expected exactly one shutdown request, got %d", shutdowner.Count())
	}
}

func TestLifecycleRecorderRunsHooksInFxOrder(t *testing.T) {
	var order []string
	recorder := &testhelpers.LifecycleRecorder{}
	for _, name := range []string{"a", "b"} {
		recorder.Append(fx.Hook{
			OnStart: func(context.Context) error { order = append(order, "start "+name); return nil },
			OnStop:  func(context.Context) error { order = append(order, "stop "+name); return nil },
		})
	}
	recorder.Append(fx.Hook{})

	_ = recorder.Start(context.Background())
	_ = recorder.Stop(context.Background())

	want := []string{"start a", "start b", "stop b", "stop a"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected hook order %v", order)
	}
}

func TestShutdownerStub(t *testing.T) {
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	if err := shutdowner.Shutdown(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-shutdowner.Called:
	default:
		t.Fatal("expected shutdown notification")
	}
}
