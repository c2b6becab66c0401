package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// ProductCategory classifies what kind of item a product is
type ProductCategory string

const (
	CategoryPizza      ProductCategory = "PIZZA"
	CategoryHalfStuff  ProductCategory = "HALF_PRODUCT"
	CategoryIngredient ProductCategory = "INGREDIENT"
	CategoryOther      ProductCategory = "OTHER"
)

// IsValid checks if the category is one of the known values
func (c ProductCategory) IsValid() bool {
	switch c {
	case CategoryPizza, CategoryHalfStuff, CategoryIngredient, CategoryOther:
		return true
	}
	return false
}

// Product represents a sellable or producible item tracked in stock
type Product struct {
	shared.BaseEntity
	Name          string
	Code          string
	Category      ProductCategory
	Price         decimal.Decimal
	PiecesPerBox  int
	MinStock      int
	TotalStock    int
	ReservedStock int
	IsActive      bool
	Notes         string
}

// TableName returns the database table name
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new active product
func NewProduct(name, code string, category ProductCategory, price decimal.Decimal, piecesPerBox int) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "product name is required")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("unknown product category: %s", category))
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "product price cannot be negative")
	}
	if piecesPerBox < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "pieces per box cannot be negative")
	}

	return &Product{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         name,
		Code:         strings.TrimSpace(code),
		Category:     category,
		Price:        price,
		PiecesPerBox: piecesPerBox,
		IsActive:     true,
	}, nil
}

// AvailableStock returns the stock not held by reservations
func (p *Product) AvailableStock() int {
	available := p.TotalStock - p.ReservedStock
	if available < 0 {
		return 0
	}
	return available
}

// Boxes converts a piece quantity into whole boxes for this product
func (p *Product) Boxes(pieces int) int {
	if p.PiecesPerBox <= 0 {
		return 0
	}
	return pieces / p.PiecesPerBox
}

// IsBelowMinStock reports whether available stock dropped under the minimum level
func (p *Product) IsBelowMinStock() bool {
	return p.MinStock > 0 && p.AvailableStock() < p.MinStock
}

// AddStock increases total stock, e.g. on arrival
func (p *Product) AddStock(pieces int) error {
	if pieces <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "stock increase must be positive")
	}
	p.TotalStock += pieces
	p.Touch()
	return nil
}

// RemoveStock decreases total stock, e.g. on writeoff or shipment
func (p *Product) RemoveStock(pieces int) error {
	if pieces <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "stock decrease must be positive")
	}
	if pieces > p.TotalStock {
		return shared.ErrInsufficientStock
	}
	p.TotalStock -= pieces
	p.Touch()
	return nil
}

// Reserve moves stock into the reserved counter
func (p *Product) Reserve(pieces int) error {
	if pieces <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "reserve quantity must be positive")
	}
	p.ReservedStock += pieces
	p.Touch()
	return nil
}

// Release frees reserved stock, clamped so the counter never goes negative
func (p *Product) Release(pieces int) int {
	if pieces <= 0 {
		return 0
	}
	released := pieces
	if released > p.ReservedStock {
		released = p.ReservedStock
	}
	p.ReservedStock -= released
	p.Touch()
	return released
}

// Deactivate marks the product as no longer orderable
func (p *Product) Deactivate() {
	p.IsActive = false
	p.Touch()
}

// Activate marks the product as orderable again
func (p *Product) Activate() {
	p.IsActive = true
	p.Touch()
}
