package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stateOpen   = "open"
	stateClosed = "closed"
)

type store interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Key returns the redis key holding overlay state for an order.
func Key(orderID string) string {
	return "checkout:widget:" + orderID
}

// Opener hands out overlay handles bound to a single order.
type Opener struct {
	store  store
	ttl    time.Duration
	logger *slog.Logger
}

// NewOpener builds Opener. ttl bounds how long an overlay key may outlive its session.
func NewOpener(s store, ttl time.Duration, logger *slog.Logger) *Opener {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Opener{store: s, ttl: ttl, logger: logger}
}

// Overlay returns handle for the order's checkout overlay.
func (o *Opener) Overlay(orderID string) *Overlay {
	return &Overlay{opener: o, orderID: orderID, key: Key(orderID)}
}

// IsOpen reports whether the browser must currently show the overlay.
func (o *Opener) IsOpen(ctx context.Context, orderID string) (bool, error) {
	val, err := o.store.Get(ctx, Key(orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read overlay state: %w", err)
	}
	return val == stateOpen, nil
}

// Overlay is the server-side handle of one hosted checkout widget.
type Overlay struct {
	opener  *Opener
	orderID string
	key     string
}

func (w *Overlay) Open(ctx context.Context) error {
	return w.set(ctx, stateOpen)
}

func (w *Overlay) Close(ctx context.Context) error {
	return w.set(ctx, stateClosed)
}

// RemoveResidue drops every trace of the overlay so a stale open flag never lingers.
func (w *Overlay) RemoveResidue(ctx context.Context) error {
	if err := w.opener.store.Del(ctx, w.key).Err(); err != nil {
		return fmt.Errorf("remove overlay %s: %w", w.orderID, err)
	}
	return nil
}

func (w *Overlay) set(ctx context.Context, state string) error {
	if err := w.opener.store.Set(ctx, w.key, state, w.opener.ttl).Err(); err != nil {
		w.opener.logger.Warn("overlay state write failed",
			slog.String("order", w.orderID),
			slog.String("state", state),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("set overlay %s %s: %w", w.orderID, state, err)
	}
	return nil
}
