package handler

import (
	"github.com/gin-gonic/gin"
	appaudit "github.com/usv008/pizza-inventory-system-sub003/internal/application/audit"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// OperationsLogHandler exposes the audit trail
type OperationsLogHandler struct {
	BaseHandler
	audit *appaudit.Service
}

// NewOperationsLogHandler creates an OperationsLogHandler
func NewOperationsLogHandler(audit *appaudit.Service) *OperationsLogHandler {
	return &OperationsLogHandler{audit: audit}
}

// List handles GET /operations-log
func (h *OperationsLogHandler) List(c *gin.Context) {
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
	if entityType := c.Query("entity_type"); entityType != "" {
		filter.Filters["entity_type"] = entityType
	}
	if entityID := c.Query("entity_id"); entityID != "" {
		id, err := parseUUIDField(entityID, "entity_id")
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		filter.Filters["entity_id"] = id
	}
	if operation := c.Query("operation"); operation != "" {
		filter.Filters["operation"] = operation
	}

	page, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// RegisterRoutes registers operations log routes
func (h *OperationsLogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/operations-log", h.List)
}
