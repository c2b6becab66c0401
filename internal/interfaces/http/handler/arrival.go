package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	appinventory "github.com/usv008/pizza-inventory-system-sub003/internal/application/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// ArrivalHandler handles incoming stock endpoints
type ArrivalHandler struct {
	BaseHandler
	arrivals *appinventory.ArrivalService
}

// NewArrivalHandler creates an ArrivalHandler
func NewArrivalHandler(arrivals *appinventory.ArrivalService) *ArrivalHandler {
	return &ArrivalHandler{arrivals: arrivals}
}

// ArrivalLineRequest is one incoming line of stock
type ArrivalLineRequest struct {
	ProductID  string     `json:"product_id" binding:"required,uuid"`
	Quantity   int        `json:"quantity" binding:"required,min=1"`
	BatchDate  *time.Time `json:"batch_date"`
	ExpiryDate *time.Time `json:"expiry_date"`
	Notes      string     `json:"notes" binding:"max=1000"`
}

// CreateArrivalRequest is the request body for registering an arrival
type CreateArrivalRequest struct {
	ArrivalDate *time.Time           `json:"arrival_date"`
	Supplier    string               `json:"supplier" binding:"max=200"`
	Notes       string               `json:"notes" binding:"max=1000"`
	Lines       []ArrivalLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ArrivalResponse bundles the document with the batches it created
type ArrivalResponse struct {
	Arrival interface{} `json:"arrival"`
	Batches interface{} `json:"batches"`
}

// Create handles POST /arrivals
func (h *ArrivalHandler) Create(c *gin.Context) {
	var req CreateArrivalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := appinventory.CreateArrivalInput{
		Supplier:  req.Supplier,
		CreatedBy: actor(c),
		Notes:     req.Notes,
	}
	if req.ArrivalDate != nil {
		input.ArrivalDate = *req.ArrivalDate
	}
	for _, line := range req.Lines {
		productID, err := parseUUIDField(line.ProductID, "product_id")
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		input.Lines = append(input.Lines, appinventory.ArrivalLineInput{
			ProductID:  productID,
			Quantity:   line.Quantity,
			BatchDate:  line.BatchDate,
			ExpiryDate: line.ExpiryDate,
			Notes:      line.Notes,
		})
	}

	arrival, batches, err := h.arrivals.CreateArrival(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ArrivalResponse{Arrival: arrival, Batches: batches})
}

// Get handles GET /arrivals/:id
func (h *ArrivalHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid arrival ID")
		return
	}

	arrival, err := h.arrivals.GetArrival(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, arrival)
}

// List handles GET /arrivals
func (h *ArrivalHandler) List(c *gin.Context) {
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
	if supplier := c.Query("supplier"); supplier != "" {
		filter.Filters["supplier"] = supplier
	}

	page, err := h.arrivals.ListArrivals(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// RegisterRoutes registers arrival routes
func (h *ArrivalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	arrivals := rg.Group("/arrivals")
	{
		arrivals.POST("", h.Create)
		arrivals.GET("", h.List)
		arrivals.GET("/:id", h.Get)
	}
}
