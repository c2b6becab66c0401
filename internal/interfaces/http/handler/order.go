package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	apporder "github.com/usv008/pizza-inventory-system-sub003/internal/application/order"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/order"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// OrderHandler handles order lifecycle endpoints
type OrderHandler struct {
	BaseHandler
	orders *apporder.Service
}

// NewOrderHandler creates an OrderHandler
func NewOrderHandler(orders *apporder.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// OrderItemRequest is one requested product line
type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest is the request body for creating an order
type CreateOrderRequest struct {
	CustomerName  string             `json:"customer_name" binding:"required,min=1,max=200"`
	CustomerPhone string             `json:"customer_phone" binding:"max=50"`
	DeliveryDate  *time.Time         `json:"delivery_date"`
	Notes         string             `json:"notes" binding:"max=1000"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateOrderItemsRequest is the request body for replacing order lines
type UpdateOrderItemsRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ChangeStatusRequest is the request body for a status transition
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Create handles POST /orders. The Idempotency-Key header makes
// retried requests safe.
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items, err := toItemInputs(req.Items)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orders.CreateOrder(c.Request.Context(), apporder.CreateOrderInput{
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		DeliveryDate:   req.DeliveryDate,
		Notes:          req.Notes,
		CreatedBy:      actor(c),
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
		Items:          items,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Get handles GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid order ID")
		return
	}

	o, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
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
		Search:   req.Search,
		Filters:  map[string]interface{}{},
	}
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}

	page, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// UpdateItems handles PUT /orders/:id
func (h *OrderHandler) UpdateItems(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid order ID")
		return
	}

	var req UpdateOrderItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items, err := toItemInputs(req.Items)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orders.UpdateItems(c.Request.Context(), id, items, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ChangeStatus handles POST /orders/:id/status
func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid order ID")
		return
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	o, err := h.orders.ChangeStatus(c.Request.Context(), id, order.Status(req.Status), actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Reserve handles POST /orders/:id/reserve. It re-runs stock
// reservation for the order lines, releasing any holds first.
func (h *OrderHandler) Reserve(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid order ID")
		return
	}

	result, err := h.orders.ReserveStock(c.Request.Context(), id, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Unreserve handles POST /orders/:id/unreserve. It releases every
// reservation the order holds without touching the order itself.
func (h *OrderHandler) Unreserve(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid order ID")
		return
	}

	o, err := h.orders.ReleaseStock(c.Request.Context(), id, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Delete handles DELETE /orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid order ID")
		return
	}

	if err := h.orders.DeleteOrder(c.Request.Context(), id, actor(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func toItemInputs(items []OrderItemRequest) ([]apporder.ItemInput, error) {
	inputs := make([]apporder.ItemInput, 0, len(items))
	for _, item := range items {
		productID, err := parseUUIDField(item.ProductID, "product_id")
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, apporder.ItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}
	return inputs, nil
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.PUT("/:id", h.UpdateItems)
		orders.POST("/:id/status", h.ChangeStatus)
		orders.POST("/:id/reserve", h.Reserve)
		orders.POST("/:id/unreserve", h.Unreserve)
		orders.DELETE("/:id", h.Delete)
	}
}
