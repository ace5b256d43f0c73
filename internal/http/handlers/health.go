package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/breakdown-backend/internal/diagram"
)

type HealthHandler struct {
	lib diagram.Library
}

func NewHealthHandler(lib diagram.Library) *HealthHandler {
	return &HealthHandler{lib: lib}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Readyz reports whether the diagram renderer can take work.
func (h *HealthHandler) Readyz(c *gin.Context) {
	if h.lib != nil && !h.lib.Ready() {
		c.String(http.StatusServiceUnavailable, "diagram renderer not ready")
		return
	}
	c.String(http.StatusOK, "ok")
}
