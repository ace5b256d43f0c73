package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/breakdown-backend/internal/http/response"
)

// ModelLister is satisfied by *router.Router.
type ModelLister interface {
	ListModels() []string
}

type ModelsHandler struct {
	models ModelLister
}

func NewModelsHandler(models ModelLister) *ModelsHandler {
	return &ModelsHandler{models: models}
}

type modelInfo struct {
	ID string `json:"id"`
}

// GET /api/models
func (h *ModelsHandler) List(c *gin.Context) {
	out := []modelInfo{}
	if h.models != nil {
		for _, id := range h.models.ListModels() {
			out = append(out, modelInfo{ID: id})
		}
	}
	response.RespondOK(c, gin.H{"models": out})
}
