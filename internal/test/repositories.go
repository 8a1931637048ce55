package test

import (
	"context"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/coursepay/internal/domain/errors"
	"github.com/polkiloo/coursepay/internal/domain/model"
)

// AttemptRepositoryStub stores attempts in-memory for tests.
type AttemptRepositoryStub struct {
	mu       sync.Mutex
	Attempts map[string]model.Attempt
	Err      error
}

// NewAttemptRepositoryStub constructs stub repository with initialized map.
func NewAttemptRepositoryStub() *AttemptRepositoryStub {
	return &AttemptRepositoryStub{Attempts: make(map[string]model.Attempt)}
}

func (s *AttemptRepositoryStub) Create(_ context.Context, a model.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.Attempts == nil {
		s.Attempts = make(map[string]model.Attempt)
	}
	s.Attempts[a.OrderID] = a
	return nil
}

func (s *AttemptRepositoryStub) UpdateState(_ context.Context, orderID string, state model.SessionState, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	a, ok := s.Attempts[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	a.State = state
	a.Message = message
	a.UpdatedAt = time.Now()
	s.Attempts[orderID] = a
	return nil
}

func (s *AttemptRepositoryStub) GetByOrder(_ context.Context, orderID string) (*model.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	a, ok := s.Attempts[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &a, nil
}

func (s *AttemptRepositoryStub) ListByBuyer(_ context.Context, buyerID string, limit int) ([]model.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []model.Attempt
	for _, a := range s.Attempts {
		if a.BuyerID == buyerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns stored attempt without error handling.
func (s *AttemptRepositoryStub) Get(orderID string) (model.Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Attempts[orderID]
	return a, ok
}
