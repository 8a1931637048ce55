package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/coursepay/internal/server/http/dto"
)

const maxHistoryLimit = 100

// SupportHandler serves attempt history to support staff.
type SupportHandler struct {
	facade SupportFacade
}

// NewSupportHandler constructs SupportHandler.
func NewSupportHandler(facade SupportFacade) *SupportHandler {
	return &SupportHandler{facade: facade}
}

// Attempts handles GET /api/support/attempts?buyer=...&limit=...
func (h *SupportHandler) Attempts(c *gin.Context) {
	buyer := strings.TrimSpace(c.Query("buyer"))
	if buyer == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "bad_request", Message: "buyer is required"})
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "bad_request", Message: "limit must be a positive number"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	attempts, err := h.facade.History(c.Request.Context(), buyer, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(attempts) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	response := make([]dto.AttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		response = append(response, dto.AttemptResponse{
			OrderID:     a.OrderID,
			CourseID:    a.CourseID,
			AmountMinor: a.AmountMinor,
			Currency:    a.Currency,
			State:       a.State.String(),
			Message:     a.Message,
			CreatedAt:   a.CreatedAt,
			UpdatedAt:   a.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, response)
}
