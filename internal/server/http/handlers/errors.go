package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/coursepay/internal/adapter/backend"
	domainErrors "github.com/polkiloo/coursepay/internal/domain/errors"
	"github.com/polkiloo/coursepay/internal/server/http/dto"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{domainErrors.ErrIdentityUnresolved, http.StatusBadRequest, "identity_unresolved", "We could not identify your account. Please sign in again."},
	{domainErrors.ErrInvalidCredentials, http.StatusBadRequest, "invalid_credentials", "Payment confirmation was incomplete."},
	{domainErrors.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", "Please sign in to continue."},
	{domainErrors.ErrCourseNotFound, http.StatusNotFound, "course_not_found", "This course does not exist."},
	{domainErrors.ErrCourseInactive, http.StatusNotFound, "course_inactive", "This course is not available for enrollment."},
	{domainErrors.ErrOrderNotFound, http.StatusNotFound, "order_not_found", "We could not find this checkout."},
	{domainErrors.ErrCheckoutInProgress, http.StatusConflict, "checkout_in_progress", "A checkout for this order is already open."},
	{domainErrors.ErrFreeOrder, http.StatusConflict, "free_order", "This course needs no payment."},
	{domainErrors.ErrGatewayUnavailable, http.StatusServiceUnavailable, "gateway_unavailable", "The payment service is unavailable. Please try again shortly."},
	{domainErrors.ErrBackendUnavailable, http.StatusBadGateway, "backend_unavailable", "Something went wrong. Please try again."},
	{domainErrors.ErrInvalidAmount, http.StatusBadGateway, "backend_unavailable", "Something went wrong. Please try again."},
}

// writeError maps a domain error to a status code and user visible message.
func writeError(c *gin.Context, err error) {
	var tooMany backend.TooManyRequestsError
	if errors.As(err, &tooMany) {
		if tooMany.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(tooMany.RetryAfter.Seconds()))))
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{Error: "too_many_requests", Message: "Too many attempts. Please wait a moment."})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.AbortWithStatusJSON(m.status, dto.ErrorResponse{Error: m.code, Message: m.message})
			return
		}
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal", Message: "Something went wrong. Please try again."})
}
