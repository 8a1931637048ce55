package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/coursepay/internal/domain/errors"
	"github.com/polkiloo/coursepay/internal/domain/model"
	testhelpers "github.com/polkiloo/coursepay/internal/test"
)

func newBareSession(orderID string) *Session {
	order := model.PaymentOrder{OrderID: orderID, AmountMinor: 100}
	b := &testhelpers.BackendStub{}
	return newSession(order, model.Buyer{UserID: "u"}, &testhelpers.WidgetStub{}, b, b, nil, quietSession(), testLogger())
}

func TestRegistryAddRejectsActiveDuplicate(t *testing.T) {
	r := NewRegistry(time.Minute)
	first := newBareSession("order_1")
	if err := r.Add(first); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Add(newBareSession("order_1")); !errors.Is(err, domainErrors.ErrCheckoutInProgress) {
		t.Fatalf("expected ErrCheckoutInProgress, got %v", err)
	}

	if err := first.HandleDismiss(context.Background()); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	replacement := newBareSession("order_1")
	if err := r.Add(replacement); err != nil {
		t.Fatalf("settled session must be replaceable: %v", err)
	}
	if got, _ := r.Get("order_1"); got != replacement {
		t.Fatal("expected replacement registered")
	}
}

func TestRegistryEvictsOnlyExpiredSettledSessions(t *testing.T) {
	r := NewRegistry(time.Minute)
	settled := newBareSession("order_settled")
	active := newBareSession("order_active")
	_ = r.Add(settled)
	_ = r.Add(active)

	if err := settled.HandleDismiss(context.Background()); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	if n := r.EvictExpired(time.Now()); n != 0 {
		t.Fatalf("nothing should expire yet, evicted %d", n)
	}
	if n := r.EvictExpired(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Fatalf("expected one eviction, got %d", n)
	}
	if _, ok := r.Get("order_settled"); ok {
		t.Fatal("settled session should be evicted")
	}
	if _, ok := r.Get("order_active"); !ok {
		t.Fatal("active session must never be evicted")
	}
	r.Remove("order_active")
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistryKeepsOrdersApart(t *testing.T) {
	r := NewRegistry(time.Minute)
	ids := make([]string, 0, 5)
	for range 5 {
		id := testhelpers.RandomOrderID()
		ids = append(ids, id)
		if err := r.Add(newBareSession(id)); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	if r.Len() != len(ids) {
		t.Fatalf("expected %d sessions, got %d", len(ids), r.Len())
	}
	for _, id := range ids {
		if s, ok := r.Get(id); !ok || s.OrderID() != id {
			t.Fatalf("session for %s not found", id)
		}
	}
	r.StopAll()
}
