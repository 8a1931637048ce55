package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/polkiloo/coursepay/internal/adapter/backend"
	domainErrors "github.com/polkiloo/coursepay/internal/domain/errors"
	"github.com/polkiloo/coursepay/internal/domain/model"
)

// Initiator resolves the buyer and registers a payment order for a course.
type Initiator struct {
	identity IdentityResolver
	backend  OrderBackend
	logger   *slog.Logger
}

func NewInitiator(identity IdentityResolver, backend OrderBackend, logger *slog.Logger) *Initiator {
	return &Initiator{identity: identity, backend: backend, logger: logger}
}

// CreateOrder returns the created order and the buyer it was created for.
// An order with a non-positive amount means the course is free and no payment follows.
func (i *Initiator) CreateOrder(ctx context.Context, courseID string, hints model.BuyerHints) (*model.PaymentOrder, model.Buyer, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return nil, model.Buyer{}, domainErrors.ErrCourseNotFound
	}

	buyer, err := i.identity.Resolve(ctx, hints)
	if err != nil {
		return nil, model.Buyer{}, err
	}

	course, err := i.backend.GetCourse(ctx, courseID)
	if err != nil {
		return nil, buyer, fmt.Errorf("lookup course %s: %w", courseID, err)
	}
	if !course.Active {
		return nil, buyer, domainErrors.ErrCourseInactive
	}

	order, err := i.backend.CreateOrder(ctx, backend.CreateOrderRequest{
		UserID:         buyer.UserID,
		Email:          buyer.Email,
		CourseID:       course.ID,
		AmountMinor:    course.PriceMinor,
		Token:          hints.Token,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return nil, buyer, fmt.Errorf("create order for course %s: %w", courseID, err)
	}
	order.CourseName = course.Name

	i.logger.Info("payment order created",
		slog.String("order", order.OrderID),
		slog.String("course", course.ID),
		slog.Int64("amount_minor", order.AmountMinor),
		slog.Bool("free", order.IsFree()),
	)
	return order, buyer, nil
}
