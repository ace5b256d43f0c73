package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/breakdown-backend/internal/breakdown"
	"github.com/yungbote/breakdown-backend/internal/diagram"
	"github.com/yungbote/breakdown-backend/internal/display"
	"github.com/yungbote/breakdown-backend/internal/history"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

const (
	pageHistoryLimit = 10
	msgEnterConcept  = "Enter a concept to break down."
)

// PageHandler serves the HTML form page.
type PageHandler struct {
	log     *logger.Logger
	svc     *breakdown.Service
	history history.Store
	lib     diagram.Library
	opts    diagram.Options
	wait    time.Duration
}

func NewPageHandler(log *logger.Logger, svc *breakdown.Service, store history.Store, lib diagram.Library, opts diagram.Options, wait time.Duration) *PageHandler {
	if log == nil {
		log = logger.Nop()
	}
	if store == nil {
		store = history.Disabled{}
	}
	if lib == nil {
		lib = diagram.BrowserLibrary{}
	}
	return &PageHandler{
		log:     log.With("handler", "PageHandler"),
		svc:     svc,
		history: store,
		lib:     lib,
		opts:    opts,
		wait:    wait,
	}
}

// GET /
func (h *PageHandler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, display.Page{History: h.recent(c.Request.Context())})
}

// POST /
func (h *PageHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	concept := strings.TrimSpace(c.PostForm("concept"))
	if concept == "" {
		h.render(c, http.StatusBadRequest, display.Page{Error: msgEnterConcept, History: h.recent(ctx)})
		return
	}

	var surface *display.Surface
	res, err := h.svc.Explain(ctx, concept)
	if err != nil {
		_ = c.Error(err)
		surface = display.NewErrorSurface(h.svc.ErrorResult(concept, err))
	} else {
		surface = display.NewSurface(res, h.lib, h.opts)
	}
	defer surface.Close()

	if h.wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, h.wait)
		if err := surface.Wait(waitCtx); err != nil {
			h.log.Debug("diagrams still pending at render time", "concept", concept, "error", err)
		}
		cancel()
	}

	h.render(c, http.StatusOK, display.Page{
		Concept: concept,
		View:    surface.View(),
		History: h.recent(ctx),
	})
}

func (h *PageHandler) recent(ctx context.Context) []display.HistoryLink {
	entries, err := h.history.List(ctx, pageHistoryLimit)
	if err != nil {
		h.log.Warn("history list failed", "error", err)
		return nil
	}
	links := make([]display.HistoryLink, 0, len(entries))
	for _, e := range entries {
		links = append(links, display.HistoryLink{ID: e.ID, Concept: e.Concept})
	}
	return links
}

func (h *PageHandler) render(c *gin.Context, status int, p display.Page) {
	var buf bytes.Buffer
	if err := display.Render(&buf, p); err != nil {
		h.log.Error("render page failed", "error", err)
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
