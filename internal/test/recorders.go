package test

import (
	"context"
	"sync"
	"time"

	"github.com/polkiloo/coursepay/internal/adapter/events"
)

// MetricsStub records metric calls.
type MetricsStub struct {
	mu       sync.Mutex
	Starts   []string
	Triggers []string
	Outcomes []string
	Verifies []bool
	Sessions int
}

func (m *MetricsStub) Start(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Starts = append(m.Starts, result)
}

func (m *MetricsStub) SessionStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sessions++
}

func (m *MetricsStub) Trigger(trigger string, accepted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if accepted {
		m.Triggers = append(m.Triggers, trigger)
	}
}

func (m *MetricsStub) ObserveVerify(_ time.Duration, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Verifies = append(m.Verifies, ok)
}

func (m *MetricsStub) Outcome(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Outcomes = append(m.Outcomes, state)
}

// EventPublisherStub collects published envelopes.
type EventPublisherStub struct {
	mu        sync.Mutex
	Envelopes []events.Envelope
}

func (p *EventPublisherStub) Publish(env events.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Envelopes = append(p.Envelopes, env)
}

// Published returns a copy of collected envelopes.
func (p *EventPublisherStub) Published() []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Envelope(nil), p.Envelopes...)
}

// OverlayStub reports a fixed overlay state.
type OverlayStub struct {
	Open bool
	Err  error
}

func (o OverlayStub) IsOpen(context.Context, string) (bool, error) {
	return o.Open, o.Err
}
