package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	appinventory "github.com/usv008/pizza-inventory-system-sub003/internal/application/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// BatchHandler handles batch stock endpoints
type BatchHandler struct {
	BaseHandler
	batches      *appinventory.BatchService
	reservations *appinventory.ReservationService
}

// NewBatchHandler creates a BatchHandler
func NewBatchHandler(batches *appinventory.BatchService, reservations *appinventory.ReservationService) *BatchHandler {
	return &BatchHandler{
		batches:      batches,
		reservations: reservations,
	}
}

// AllocationPreviewRequest asks which batches would serve the quantities
type AllocationPreviewRequest struct {
	Items []AllocationPreviewItem `json:"items" binding:"required,min=1,dive"`
}

// AllocationPreviewItem is one product line of a preview request.
// A non-positive quantity is accepted; the allocator skips the line
// with a warning.
type AllocationPreviewItem struct {
	ProductID   string `json:"product_id" binding:"required,uuid"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// Get handles GET /batches/:id
func (h *BatchHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid batch ID")
		return
	}

	batch, err := h.batches.GetBatch(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// List handles GET /batches
func (h *BatchHandler) List(c *gin.Context) {
	req, err := bindListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Filters:  map[string]interface{}{},
	}
	if productID := c.Query("product_id"); productID != "" {
		filter.Filters["product_id"] = productID
	}
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	if c.Query("has_stock") == "true" {
		filter.Filters["has_stock"] = true
	}

	page, err := h.batches.ListBatches(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Expiring handles GET /batches/expiring?days=7
func (h *BatchHandler) Expiring(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.BadRequest(c, "days must be a positive integer")
			return
		}
		days = parsed
	}

	expiring, err := h.batches.Expiring(c.Request.Context(), days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expiring)
}

// PreviewAllocation handles POST /reservations/preview.
// It reports which batches would be selected without reserving anything.
func (h *BatchHandler) PreviewAllocation(c *gin.Context) {
	var req AllocationPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	allocReq, err := toAllocationRequest(req.Items)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.reservations.Preview(c.Request.Context(), allocReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func toAllocationRequest(items []AllocationPreviewItem) (inventory.AllocationRequest, error) {
	var req inventory.AllocationRequest
	for _, item := range items {
		productID, err := parseUUIDField(item.ProductID, "product_id")
		if err != nil {
			return req, err
		}
		req.Items = append(req.Items, inventory.AllocationRequestItem{
			ProductID:   productID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
		})
	}
	return req, nil
}

// RegisterRoutes registers batch and reservation preview routes
func (h *BatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	batches := rg.Group("/batches")
	{
		batches.GET("", h.List)
		batches.GET("/expiring", h.Expiring)
		batches.GET("/:id", h.Get)
	}
	rg.POST("/reservations/preview", h.PreviewAllocation)
}
