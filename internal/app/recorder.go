package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/polkiloo/coursepay/internal/adapter/events"
	"github.com/polkiloo/coursepay/internal/domain/model"
	"github.com/polkiloo/coursepay/internal/domain/repository"
)

const journalTimeout = 3 * time.Second

// SessionMetrics is the metrics surface used by the recorder.
type SessionMetrics interface {
	SessionStarted()
	Trigger(trigger string, accepted bool)
	ObserveVerify(d time.Duration, ok bool)
	Outcome(state string)
}

// EventPublisher publishes outcome envelopes.
type EventPublisher interface {
	Publish(env events.Envelope)
}

// OutcomeRecorder fans session activity out to metrics, the journal and the event stream.
type OutcomeRecorder struct {
	metrics  SessionMetrics
	attempts repository.AttemptRepository
	events   EventPublisher
	logger   *slog.Logger
}

func NewOutcomeRecorder(metrics SessionMetrics, attempts repository.AttemptRepository, events EventPublisher, logger *slog.Logger) *OutcomeRecorder {
	return &OutcomeRecorder{metrics: metrics, attempts: attempts, events: events, logger: logger}
}

func (r *OutcomeRecorder) Started(a model.Attempt) {
	r.metrics.SessionStarted()

	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := r.attempts.Create(ctx, a); err != nil {
		r.logger.Warn("journal attempt failed", slog.String("order", a.OrderID), slog.String("error", err.Error()))
	}
	r.events.Publish(envelope(a, ""))
}

func (r *OutcomeRecorder) Triggered(_ string, trigger model.Trigger, accepted bool) {
	r.metrics.Trigger(string(trigger), accepted)
}

func (r *OutcomeRecorder) Verified(_ string, took time.Duration, err error) {
	r.metrics.ObserveVerify(took, err == nil)
}

func (r *OutcomeRecorder) Settled(a model.Attempt, trigger model.Trigger) {
	r.metrics.Outcome(a.State.String())

	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := r.attempts.UpdateState(ctx, a.OrderID, a.State, a.Message); err != nil {
		r.logger.Warn("journal outcome failed",
			slog.String("order", a.OrderID),
			slog.String("state", a.State.String()),
			slog.String("error", err.Error()),
		)
	}
	r.events.Publish(envelope(a, trigger))
}

func envelope(a model.Attempt, trigger model.Trigger) events.Envelope {
	return events.Envelope{
		OrderID:     a.OrderID,
		CourseID:    a.CourseID,
		BuyerID:     a.BuyerID,
		State:       a.State.String(),
		Trigger:     string(trigger),
		AmountMinor: a.AmountMinor,
		Currency:    a.Currency,
		Message:     a.Message,
		OccurredAt:  a.UpdatedAt.UTC(),
	}
}
