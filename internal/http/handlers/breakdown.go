package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/breakdown-backend/internal/breakdown"
	"github.com/yungbote/breakdown-backend/internal/http/response"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

type BreakdownHandler struct {
	log *logger.Logger
	svc *breakdown.Service
}

func NewBreakdownHandler(log *logger.Logger, svc *breakdown.Service) *BreakdownHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &BreakdownHandler{log: log.With("handler", "BreakdownHandler"), svc: svc}
}

type explainRequest struct {
	Concept string `json:"concept"`
}

// POST /api/breakdown, POST /generate
func (h *BreakdownHandler) Explain(c *gin.Context) {
	var req explainRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Concept) == "" {
		response.RespondError(c, http.StatusBadRequest, breakdown.MissingConceptMessage)
		return
	}

	res, err := h.svc.Explain(c.Request.Context(), req.Concept)
	if err != nil {
		_ = c.Error(err)
		if breakdown.KindOf(err) == breakdown.KindValidation {
			response.RespondError(c, http.StatusBadRequest, breakdown.MissingConceptMessage)
			return
		}
		response.RespondStatus(c, http.StatusInternalServerError, h.svc.ErrorResult(req.Concept, err))
		return
	}
	response.RespondOK(c, res)
}
