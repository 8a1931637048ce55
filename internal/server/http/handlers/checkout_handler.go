package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/coursepay/internal/app"
	domainErrors "github.com/polkiloo/coursepay/internal/domain/errors"
	"github.com/polkiloo/coursepay/internal/domain/model"
	"github.com/polkiloo/coursepay/internal/server/http/dto"
	"github.com/polkiloo/coursepay/internal/server/http/middleware"
)

// CheckoutHandler relays the browser checkout flow to the facade.
type CheckoutHandler struct {
	facade CheckoutFacade
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(facade CheckoutFacade) *CheckoutHandler {
	return &CheckoutHandler{facade: facade}
}

// Start handles POST /api/checkout.
func (h *CheckoutHandler) Start(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "bad_request", Message: "Malformed checkout request."})
		return
	}
	courseID := strings.TrimSpace(req.CourseID)
	if courseID == "" {
		writeError(c, domainErrors.ErrCourseNotFound)
		return
	}

	hints := model.BuyerHints{Fields: req.Fields(), Token: middleware.Token(c)}
	res, err := h.facade.Start(c.Request.Context(), courseID, hints)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CheckoutResponse{
		OrderID:     res.OrderID,
		Free:        res.Free,
		RedirectURL: res.RedirectURL,
		Message:     res.Message,
		Widget:      res.Widget,
	})
}

// Success handles POST /api/checkout/:orderId/success.
func (h *CheckoutHandler) Success(c *gin.Context) {
	orderID := c.Param("orderId")
	var req dto.SuccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domainErrors.ErrInvalidCredentials)
		return
	}
	payloadOrder, paymentID, signature := req.Normalize()
	if payloadOrder != "" && payloadOrder != orderID {
		writeError(c, domainErrors.ErrInvalidCredentials)
		return
	}

	view, err := h.facade.Success(c.Request.Context(), orderID, model.PaymentCredentials{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: signature,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toStatusResponse(view))
}

// Dismiss handles POST /api/checkout/:orderId/dismiss.
func (h *CheckoutHandler) Dismiss(c *gin.Context) {
	view, err := h.facade.Dismiss(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toStatusResponse(view))
}

// Status handles GET /api/checkout/:orderId.
func (h *CheckoutHandler) Status(c *gin.Context) {
	view, err := h.facade.Status(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, toStatusResponse(view))
}

func toStatusResponse(view *app.StatusView) dto.StatusResponse {
	return dto.StatusResponse{
		OrderID:     view.OrderID,
		State:       view.State.String(),
		WidgetOpen:  view.WidgetOpen,
		RedirectURL: view.RedirectURL,
		Message:     view.Message,
	}
}
