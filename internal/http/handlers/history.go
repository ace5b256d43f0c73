package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/breakdown-backend/internal/history"
	"github.com/yungbote/breakdown-backend/internal/http/response"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

type HistoryHandler struct {
	log   *logger.Logger
	store history.Store
}

func NewHistoryHandler(log *logger.Logger, store history.Store) *HistoryHandler {
	if log == nil {
		log = logger.Nop()
	}
	if store == nil {
		store = history.Disabled{}
	}
	return &HistoryHandler{log: log.With("handler", "HistoryHandler"), store: store}
}

type historyList struct {
	Entries []history.Entry `json:"entries"`
}

// GET /api/history?limit=N
func (h *HistoryHandler) List(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	entries, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("history list failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "history unavailable")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	response.RespondOK(c, historyList{Entries: entries})
}

// GET /api/history/:id
func (h *HistoryHandler) Get(c *gin.Context) {
	e, err := h.store.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, history.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, err.Error())
	case err != nil:
		h.log.Error("history get failed", "id", c.Param("id"), "error", err)
		response.RespondError(c, http.StatusInternalServerError, "history unavailable")
	default:
		response.RespondOK(c, e)
	}
}
