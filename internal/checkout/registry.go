package checkout

import (
	"sync"
	"time"

	domainErrors "github.com/polkiloo/coursepay/internal/domain/errors"
)

// Registry keeps live sessions by order id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewRegistry builds Registry; settled sessions are kept for ttl after settling.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{sessions: make(map[string]*Session), ttl: ttl}
}

// Add registers s. A second session for an order that is still unsettled is rejected.
func (r *Registry) Add(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[s.OrderID()]; ok && !existing.State().Terminal() {
		return domainErrors.ErrCheckoutInProgress
	}
	r.sessions[s.OrderID()] = s
	return nil
}

func (r *Registry) Get(orderID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[orderID]
	return s, ok
}

func (r *Registry) Remove(orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, orderID)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictExpired drops sessions settled more than ttl before now and reports how many.
func (r *Registry) EvictExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, s := range r.sessions {
		settled := s.SettledAt()
		if settled.IsZero() || now.Sub(settled) < r.ttl {
			continue
		}
		delete(r.sessions, id)
		evicted++
	}
	return evicted
}

// StopAll halts background work of every session. Used on shutdown.
func (r *Registry) StopAll() {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		s.Stop()
	}
}
