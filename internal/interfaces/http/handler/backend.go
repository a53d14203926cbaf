package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/guadaltech/connector-prestashop/internal/application/importer"
	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
	"github.com/guadaltech/connector-prestashop/internal/interfaces/http/dto"
)

// BackendHandler handles backend configuration and import trigger endpoints
type BackendHandler struct {
	BaseHandler
	backends connector.BackendRepository
	jobs     connector.JobScheduler
	dial     importer.AdapterDialer
}

// NewBackendHandler creates a new BackendHandler
func NewBackendHandler(backends connector.BackendRepository, jobs connector.JobScheduler, dial importer.AdapterDialer) *BackendHandler {
	return &BackendHandler{
		backends: backends,
		jobs:     jobs,
		dial:     dial,
	}
}

// ListBackends godoc
// @Summary      List configured backends
// @Tags         backends
// @Produce      json
// @Router       /backends [get]
func (h *BackendHandler) ListBackends(c *gin.Context) {
	backends, err := h.backends.FindAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]BackendResponse, 0, len(backends))
	for i := range backends {
		responses = append(responses, toBackendResponse(&backends[i]))
	}

	h.Success(c, responses)
}

// GetBackend godoc
// @Summary      Get a backend by ID
// @Tags         backends
// @Produce      json
// @Router       /backends/{id} [get]
func (h *BackendHandler) GetBackend(c *gin.Context) {
	id, ok := h.backendID(c)
	if !ok {
		return
	}

	backend, err := h.backends.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toBackendResponse(backend))
}

// CreateBackend godoc
// @Summary      Register a new shop backend
// @Tags         backends
// @Accept       json
// @Produce      json
// @Router       /backends [post]
func (h *BackendHandler) CreateBackend(c *gin.Context) {
	var req CreateBackendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	backend, err := connector.NewBackend(req.Name, req.Location, req.WebserviceKey, connector.APIVersion(req.Version))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.backends.Save(c.Request.Context(), backend); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toBackendResponse(backend))
}

// UpdateBackend godoc
// @Summary      Update a backend configuration
// @Tags         backends
// @Accept       json
// @Produce      json
// @Router       /backends/{id} [put]
func (h *BackendHandler) UpdateBackend(c *gin.Context) {
	id, ok := h.backendID(c)
	if !ok {
		return
	}

	var req UpdateBackendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	backend, err := h.backends.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if req.Name != nil {
		backend.Name = *req.Name
	}
	if req.Location != nil {
		backend.Location = *req.Location
	}
	if req.WebserviceKey != nil {
		backend.WebserviceKey = *req.WebserviceKey
	}
	if req.Version != nil {
		version := connector.APIVersion(*req.Version)
		if !version.IsValid() {
			h.BadRequest(c, "Unknown API version: "+*req.Version)
			return
		}
		backend.Version = version
	}
	if req.CompanyID != nil {
		backend.CompanyID = *req.CompanyID
	}
	if req.WarehouseID != nil {
		backend.WarehouseID = *req.WarehouseID
	}
	if req.PricelistID != nil {
		backend.PricelistID = *req.PricelistID
	}
	if req.SaleTeamID != nil {
		backend.SaleTeamID = req.SaleTeamID
	}
	if req.DiscountProductID != nil {
		backend.DiscountProductID = *req.DiscountProductID
	}
	if req.ShippingProductID != nil {
		backend.ShippingProductID = *req.ShippingProductID
	}
	if req.TaxesIncluded != nil {
		backend.TaxesIncluded = *req.TaxesIncluded
	}
	backend.UpdatedAt = time.Now()

	if err := h.backends.Save(c.Request.Context(), backend); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toBackendResponse(backend))
}

// CheckConnection godoc
// @Summary      Probe the remote webservice of a backend
// @Tags         backends
// @Produce      json
// @Router       /backends/{id}/check [post]
func (h *BackendHandler) CheckConnection(c *gin.Context) {
	id, ok := h.backendID(c)
	if !ok {
		return
	}

	backend, err := h.backends.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	adapter, err := h.dial(backend).AdapterFor(connector.ModelSaleOrder)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	response := ConnectionCheckResponse{
		BackendID: backend.ID,
		Location:  backend.Location,
		Reachable: true,
	}
	if err := adapter.Head(c.Request.Context()); err != nil {
		response.Reachable = false
		response.Error = err.Error()
	}

	h.Success(c, response)
}

// TriggerImport godoc
// @Summary      Enqueue a record or batch import for a backend
// @Tags         backends
// @Accept       json
// @Produce      json
// @Router       /backends/{id}/imports [post]
func (h *BackendHandler) TriggerImport(c *gin.Context) {
	id, ok := h.backendID(c)
	if !ok {
		return
	}

	var req TriggerImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	model := connector.Model(req.Model)
	if !model.IsValid() {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeModelNotSupported, "Unknown model: "+req.Model)
		return
	}

	// The backend must exist before a job referencing it is queued.
	if _, err := h.backends.FindByID(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	opts := connector.JobOptions{Priority: req.Priority, MaxRetries: req.MaxRetries}
	var err error
	if req.ExternalID != "" {
		err = h.jobs.EnqueueRecordImport(c.Request.Context(), id, model, req.ExternalID, opts)
	} else {
		err = h.jobs.EnqueueBatchImport(c.Request.Context(), id, model, req.Filters, opts)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, ImportQueuedResponse{
		BackendID:  id,
		Model:      req.Model,
		ExternalID: req.ExternalID,
		Filters:    req.Filters,
		QueuedAt:   time.Now(),
	})
}

// backendID parses the backend ID path parameter, writing the error response
// on failure.
func (h *BackendHandler) backendID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid backend ID")
		return uuid.Nil, false
	}
	return id, true
}

// RegisterRoutes registers all backend routes
func (h *BackendHandler) RegisterRoutes(rg *gin.RouterGroup) {
	backends := rg.Group("/backends")
	{
		backends.GET("", h.ListBackends)
		backends.POST("", h.CreateBackend)
		backends.GET("/:id", h.GetBackend)
		backends.PUT("/:id", h.UpdateBackend)
		backends.POST("/:id/check", h.CheckConnection)
		backends.POST("/:id/imports", h.TriggerImport)
	}
}
