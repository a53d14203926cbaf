package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

// CheckpointHandler handles import checkpoint endpoints
type CheckpointHandler struct {
	BaseHandler
	checkpoints connector.CheckpointRepository
}

// NewCheckpointHandler creates a new CheckpointHandler
func NewCheckpointHandler(checkpoints connector.CheckpointRepository) *CheckpointHandler {
	return &CheckpointHandler{checkpoints: checkpoints}
}

// ListCheckpoints godoc
// @Summary      List unresolved checkpoints for a backend
// @Tags         checkpoints
// @Produce      json
// @Router       /backends/{id}/checkpoints [get]
func (h *CheckpointHandler) ListCheckpoints(c *gin.Context) {
	backendID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid backend ID")
		return
	}

	checkpoints, err := h.checkpoints.ListOpen(c.Request.Context(), backendID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]CheckpointResponse, 0, len(checkpoints))
	for i := range checkpoints {
		responses = append(responses, toCheckpointResponse(&checkpoints[i]))
	}

	h.Success(c, responses)
}

// ResolveCheckpoint godoc
// @Summary      Mark a checkpoint as handled
// @Tags         checkpoints
// @Produce      json
// @Router       /checkpoints/{id}/resolve [post]
func (h *CheckpointHandler) ResolveCheckpoint(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid checkpoint ID")
		return
	}

	if err := h.checkpoints.Resolve(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers all checkpoint routes
func (h *CheckpointHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/backends/:id/checkpoints", h.ListCheckpoints)
	rg.POST("/checkpoints/:id/resolve", h.ResolveCheckpoint)
}
