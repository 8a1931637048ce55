package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AssetsHandler serves the gateway checkout script from the process cache.
type AssetsHandler struct {
	facade ScriptFacade
}

// NewAssetsHandler constructs AssetsHandler.
func NewAssetsHandler(facade ScriptFacade) *AssetsHandler {
	return &AssetsHandler{facade: facade}
}

// Script handles GET /assets/checkout.js.
func (h *AssetsHandler) Script(c *gin.Context) {
	s, err := h.facade.Script(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, s.ContentType, s.Body)
}
