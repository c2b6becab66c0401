package handler

import (
	"github.com/gin-gonic/gin"
	appinventory "github.com/usv008/pizza-inventory-system-sub003/internal/application/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// WriteoffHandler handles stock writeoff endpoints
type WriteoffHandler struct {
	BaseHandler
	writeoffs *appinventory.WriteoffService
}

// NewWriteoffHandler creates a WriteoffHandler
func NewWriteoffHandler(writeoffs *appinventory.WriteoffService) *WriteoffHandler {
	return &WriteoffHandler{writeoffs: writeoffs}
}

// CreateWriteoffRequest is the request body for writing off batch stock
type CreateWriteoffRequest struct {
	Quantity    int    `json:"quantity" binding:"required,min=1"`
	Reason      string `json:"reason" binding:"required,oneof=EXPIRED DAMAGED QUALITY SHORTAGE OTHER"`
	Responsible string `json:"responsible" binding:"required,min=1,max=200"`
	Notes       string `json:"notes" binding:"max=1000"`
}

// Create handles POST /batches/:id/writeoff
func (h *WriteoffHandler) Create(c *gin.Context) {
	batchID, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid batch ID")
		return
	}

	var req CreateWriteoffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	writeoff, err := h.writeoffs.WriteOff(c.Request.Context(), appinventory.WriteoffInput{
		BatchID:     batchID,
		Quantity:    req.Quantity,
		Reason:      inventory.WriteoffReason(req.Reason),
		Responsible: req.Responsible,
		Notes:       req.Notes,
		PerformedBy: actor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, writeoff)
}

// Get handles GET /writeoffs/:id
func (h *WriteoffHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid writeoff ID")
		return
	}

	writeoff, err := h.writeoffs.GetWriteoff(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, writeoff)
}

// List handles GET /writeoffs
func (h *WriteoffHandler) List(c *gin.Context) {
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
	if reason := c.Query("reason"); reason != "" {
		filter.Filters["reason"] = reason
	}

	page, err := h.writeoffs.ListWriteoffs(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// RegisterRoutes registers writeoff routes. Creation lives under the
// batch because a writeoff always targets one batch.
func (h *WriteoffHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/batches/:id/writeoff", h.Create)

	writeoffs := rg.Group("/writeoffs")
	{
		writeoffs.GET("", h.List)
		writeoffs.GET("/:id", h.Get)
	}
}
