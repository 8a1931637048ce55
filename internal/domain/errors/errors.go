package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrIdentityUnresolved   = errors.New("buyer identity could not be resolved")
	ErrCourseNotFound       = errors.New("course not found")
	ErrCourseInactive       = errors.New("course is not active")
	ErrOrderNotFound        = errors.New("order not found")
	ErrUnauthenticated      = errors.New("buyer is not authenticated")
	ErrBackendUnavailable   = errors.New("backend unavailable")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	ErrFreeOrder            = errors.New("free order must not open checkout")
	ErrCheckoutInProgress   = errors.New("checkout already in progress")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidCredentials   = errors.New("invalid payment credentials")
	ErrPaymentNotConfirmed  = errors.New("payment not confirmed in time")
	ErrVerificationRejected = errors.New("payment verification rejected")
)

// PaidUnverifiedError reports a payment the gateway accepted but the backend
// could not verify. The buyer may have been charged without enrollment.
type PaidUnverifiedError struct {
	OrderID string
	Err     error
}

func (e *PaidUnverifiedError) Error() string {
	return fmt.Sprintf("payment for order %s received but not verified: %v", e.OrderID, e.Err)
}

func (e *PaidUnverifiedError) Unwrap() error {
	return e.Err
}
