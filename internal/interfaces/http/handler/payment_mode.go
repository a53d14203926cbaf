package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

// PaymentModeHandler handles payment mode configuration endpoints
type PaymentModeHandler struct {
	BaseHandler
	modes connector.PaymentModeRepository
}

// NewPaymentModeHandler creates a new PaymentModeHandler
func NewPaymentModeHandler(modes connector.PaymentModeRepository) *PaymentModeHandler {
	return &PaymentModeHandler{modes: modes}
}

// GetPaymentMode godoc
// @Summary      Get the import rule configured for a payment mode name
// @Tags         payment-modes
// @Produce      json
// @Router       /payment-modes/{name} [get]
func (h *PaymentModeHandler) GetPaymentMode(c *gin.Context) {
	name := c.Param("name")

	mode, err := h.modes.FindByName(c.Request.Context(), name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if mode == nil {
		h.NotFound(c, "Payment mode not configured: "+name)
		return
	}

	h.Success(c, toPaymentModeResponse(mode))
}

// SavePaymentMode godoc
// @Summary      Configure the import rule for a payment mode name
// @Tags         payment-modes
// @Accept       json
// @Produce      json
// @Router       /payment-modes/{name} [put]
func (h *PaymentModeHandler) SavePaymentMode(c *gin.Context) {
	name := c.Param("name")

	var req SavePaymentModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rule := connector.ImportRule(req.Rule)
	if !rule.IsValid() {
		h.BadRequest(c, "Unknown import rule: "+req.Rule)
		return
	}

	// Updates keep the existing ID so bindings stay stable.
	mode, err := h.modes.FindByName(c.Request.Context(), name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	created := mode == nil
	if created {
		mode = &connector.PaymentMode{ID: uuid.New(), Name: name}
	}
	mode.Rule = rule
	mode.DaysBeforeCancel = req.DaysBeforeCancel

	if err := h.modes.Save(c.Request.Context(), mode); err != nil {
		h.HandleError(c, err)
		return
	}

	if created {
		h.Created(c, toPaymentModeResponse(mode))
		return
	}
	h.Success(c, toPaymentModeResponse(mode))
}

// RegisterRoutes registers all payment mode routes
func (h *PaymentModeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	modes := rg.Group("/payment-modes")
	{
		modes.GET("/:name", h.GetPaymentMode)
		modes.PUT("/:name", h.SavePaymentMode)
	}
}
