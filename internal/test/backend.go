package test

import (
	"context"
	"sync"
	"time"

	"github.com/polkiloo/coursepay/internal/adapter/backend"
	"github.com/polkiloo/coursepay/internal/adapter/script"
	"github.com/polkiloo/coursepay/internal/domain/model"
)

// BackendStub simulates course backend; every call is counted.
type BackendStub struct {
	GetCourseFn   func(context.Context, string) (*model.Course, error)
	CreateOrderFn func(context.Context, backend.CreateOrderRequest) (*model.PaymentOrder, error)
	StatusFn      func(context.Context, string) (model.OrderStatus, error)
	VerifyFn      func(context.Context, model.PaymentCredentials) error

	mu            sync.Mutex
	CreateCalls   []backend.CreateOrderRequest
	StatusCalls   int
	VerifyCalls   int
	VerifiedCreds []model.PaymentCredentials
}

// GetCourse returns active 500.00 course unless overridden.
func (s *BackendStub) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	if s.GetCourseFn != nil {
		return s.GetCourseFn(ctx, id)
	}
	return &model.Course{ID: id, Name: "Course " + id, Active: true, PriceMinor: 50000}, nil
}

// CreateOrder echoes requested amount unless overridden.
func (s *BackendStub) CreateOrder(ctx context.Context, req backend.CreateOrderRequest) (*model.PaymentOrder, error) {
	s.mu.Lock()
	s.CreateCalls = append(s.CreateCalls, req)
	s.mu.Unlock()
	if s.CreateOrderFn != nil {
		return s.CreateOrderFn(ctx, req)
	}
	return &model.PaymentOrder{
		OrderID:     "order_" + req.CourseID,
		AmountMinor: req.AmountMinor,
		Currency:    model.DefaultCurrency,
		CourseID:    req.CourseID,
		Status:      model.OrderStatusCreated,
	}, nil
}

// OrderStatus reports CREATED unless overridden.
func (s *BackendStub) OrderStatus(ctx context.Context, orderID string) (model.OrderStatus, error) {
	s.mu.Lock()
	s.StatusCalls++
	s.mu.Unlock()
	if s.StatusFn != nil {
		return s.StatusFn(ctx, orderID)
	}
	return model.OrderStatusCreated, nil
}

// Verify accepts credentials unless overridden.
func (s *BackendStub) Verify(ctx context.Context, creds model.PaymentCredentials) error {
	s.mu.Lock()
	s.VerifyCalls++
	s.VerifiedCreds = append(s.VerifiedCreds, creds)
	s.mu.Unlock()
	if s.VerifyFn != nil {
		return s.VerifyFn(ctx, creds)
	}
	return nil
}

// Counts returns status and verify call counts.
func (s *BackendStub) Counts() (status, verify int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.StatusCalls, s.VerifyCalls
}

// IdentityStub resolves to a fixed buyer.
type IdentityStub struct {
	ResolveFn func(context.Context, model.BuyerHints) (model.Buyer, error)
}

func (s IdentityStub) Resolve(ctx context.Context, hints model.BuyerHints) (model.Buyer, error) {
	if s.ResolveFn != nil {
		return s.ResolveFn(ctx, hints)
	}
	return model.Buyer{UserID: "user_1", Email: "buyer@example.com", Name: "Buyer"}, nil
}

// ScriptLoaderStub counts loads.
type ScriptLoaderStub struct {
	LoadFn func(context.Context) (*script.Script, error)

	mu    sync.Mutex
	Calls int
}

func (s *ScriptLoaderStub) Load(ctx context.Context) (*script.Script, error) {
	s.mu.Lock()
	s.Calls++
	s.mu.Unlock()
	if s.LoadFn != nil {
		return s.LoadFn(ctx)
	}
	return &script.Script{Body: []byte("checkout()"), ContentType: "application/javascript", FetchedAt: time.Now()}, nil
}

// LoadCount returns number of Load calls.
func (s *ScriptLoaderStub) LoadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls
}
