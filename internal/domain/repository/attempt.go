package repository

import (
	"context"

	"github.com/polkiloo/coursepay/internal/domain/model"
)

// AttemptRepository persists the journal of checkout attempts.
type AttemptRepository interface {
	Create(ctx context.Context, attempt model.Attempt) error
	UpdateState(ctx context.Context, orderID string, state model.SessionState, message string) error
	GetByOrder(ctx context.Context, orderID string) (*model.Attempt, error)
	ListByBuyer(ctx context.Context, buyerID string, limit int) ([]model.Attempt, error)
}
