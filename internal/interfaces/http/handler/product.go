package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	appcatalog "github.com/usv008/pizza-inventory-system-sub003/internal/application/catalog"
	appinventory "github.com/usv008/pizza-inventory-system-sub003/internal/application/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/catalog"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// ProductHandler handles product catalog endpoints
type ProductHandler struct {
	BaseHandler
	products *appcatalog.ProductService
	batches  *appinventory.BatchService
}

// NewProductHandler creates a ProductHandler
func NewProductHandler(products *appcatalog.ProductService, batches *appinventory.BatchService) *ProductHandler {
	return &ProductHandler{
		products: products,
		batches:  batches,
	}
}

// CreateProductRequest is the request body for creating a product
type CreateProductRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=200"`
	Code         string `json:"code" binding:"required,min=1,max=50"`
	Category     string `json:"category" binding:"required,oneof=PIZZA HALF_PRODUCT INGREDIENT OTHER"`
	Price        string `json:"price" binding:"required"`
	PiecesPerBox int    `json:"pieces_per_box" binding:"required,min=1"`
	MinStock     int    `json:"min_stock" binding:"omitempty,min=0"`
	Notes        string `json:"notes" binding:"max=1000"`
}

// UpdateProductRequest is the request body for updating a product
type UpdateProductRequest struct {
	Name     string `json:"name" binding:"omitempty,min=1,max=200"`
	Price    string `json:"price" binding:"omitempty"`
	MinStock int    `json:"min_stock" binding:"omitempty,min=0"`
	Notes    string `json:"notes" binding:"max=1000"`
}

// SetActiveRequest is the request body for activating or deactivating a product
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		h.BadRequest(c, "invalid price format")
		return
	}

	product, err := h.products.CreateProduct(c.Request.Context(), appcatalog.CreateProductInput{
		Name:         req.Name,
		Code:         req.Code,
		Category:     catalog.ProductCategory(req.Category),
		Price:        price,
		PiecesPerBox: req.PiecesPerBox,
		MinStock:     req.MinStock,
		Notes:        req.Notes,
		PerformedBy:  actor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Get handles GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid product ID")
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
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
	if category := c.Query("category"); category != "" {
		filter.Filters["category"] = category
	}
	if active := c.Query("is_active"); active != "" {
		filter.Filters["is_active"] = active == "true"
	}
	if c.Query("below_min_stock") == "true" {
		filter.Filters["below_min_stock"] = true
	}

	page, err := h.products.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update handles PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid product ID")
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := appcatalog.UpdateProductInput{
		Name:        req.Name,
		MinStock:    req.MinStock,
		Notes:       req.Notes,
		PerformedBy: actor(c),
	}
	if req.Price != "" {
		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			h.BadRequest(c, "invalid price format")
			return
		}
		input.Price = price
	}

	product, err := h.products.UpdateProduct(c.Request.Context(), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// SetActive handles PATCH /products/:id/active
func (h *ProductHandler) SetActive(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid product ID")
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.products.SetActive(c.Request.Context(), id, *req.IsActive, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete handles DELETE /products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid product ID")
		return
	}

	if err := h.products.DeleteProduct(c.Request.Context(), id, actor(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Availability handles GET /products/:id/availability
func (h *ProductHandler) Availability(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid product ID")
		return
	}

	availability, err := h.batches.Availability(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, availability)
}

// Batches handles GET /products/:id/batches
func (h *ProductHandler) Batches(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid product ID")
		return
	}
	req, err := bindListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batches, err := h.batches.ListByProduct(c.Request.Context(), id, shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  "batch_date",
		OrderDir: "asc",
		Filters:  map[string]interface{}{},
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batches)
}

// RegisterRoutes registers product routes
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.POST("", h.Create)
		products.GET("", h.List)
		products.GET("/:id", h.Get)
		products.PUT("/:id", h.Update)
		products.PATCH("/:id/active", h.SetActive)
		products.DELETE("/:id", h.Delete)
		products.GET("/:id/availability", h.Availability)
		products.GET("/:id/batches", h.Batches)
	}
}
