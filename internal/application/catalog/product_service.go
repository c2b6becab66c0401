package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appaudit "github.com/usv008/pizza-inventory-system-sub003/internal/application/audit"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/audit"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/catalog"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// CreateProductInput describes a product to register
type CreateProductInput struct {
	Name         string
	Code         string
	Category     catalog.ProductCategory
	Price        decimal.Decimal
	PiecesPerBox int
	MinStock     int
	Notes        string
	PerformedBy  string
}

// UpdateProductInput describes editable product fields
type UpdateProductInput struct {
	Name        string
	Price       decimal.Decimal
	MinStock    int
	Notes       string
	PerformedBy string
}

// ProductService manages the product catalog
type ProductService struct {
	products catalog.ProductRepository
	auditor  *appaudit.Service
	logger   *zap.Logger
}

// NewProductService creates a ProductService
func NewProductService(products catalog.ProductRepository, auditor *appaudit.Service, logger *zap.Logger) *ProductService {
	return &ProductService{
		products: products,
		auditor:  auditor,
		logger:   logger,
	}
}

// CreateProduct registers a new product. Product codes are unique.
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*catalog.Product, error) {
	existing, err := s.products.FindByCode(ctx, input.Code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("product with code %s already exists", input.Code))
	}

	product, err := catalog.NewProduct(input.Name, input.Code, input.Category, input.Price, input.PiecesPerBox)
	if err != nil {
		return nil, err
	}
	product.MinStock = input.MinStock
	product.Notes = input.Notes

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "product", product.ID, audit.OperationCreate, input.PerformedBy, map[string]interface{}{
		"name": product.Name,
		"code": product.Code,
	})
	return product, nil
}

// UpdateProduct edits the mutable fields of a product
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*catalog.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		product.Name = input.Name
	}
	if !input.Price.IsZero() {
		if input.Price.IsNegative() {
			return nil, shared.NewDomainError("INVALID_INPUT", "product price cannot be negative")
		}
		product.Price = input.Price
	}
	if input.MinStock >= 0 {
		product.MinStock = input.MinStock
	}
	product.Notes = input.Notes
	product.Touch()

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "product", product.ID, audit.OperationUpdate, input.PerformedBy, map[string]interface{}{
		"name": product.Name,
	})
	return product, nil
}

// SetActive activates or deactivates a product
func (s *ProductService) SetActive(ctx context.Context, id uuid.UUID, active bool, performedBy string) (*catalog.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if active {
		product.Activate()
	} else {
		product.Deactivate()
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "product", product.ID, audit.OperationUpdate, performedBy, map[string]interface{}{
		"is_active": active,
	})
	return product, nil
}

// DeleteProduct removes a product from the catalog
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID, performedBy string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.Record(ctx, "product", id, audit.OperationDelete, performedBy, nil)
	return nil
}

// GetProduct returns one product
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return s.products.FindByID(ctx, id)
}

// GetByCode returns one product by its code
func (s *ProductService) GetByCode(ctx context.Context, code string) (*catalog.Product, error) {
	return s.products.FindByCode(ctx, code)
}

// ListProducts returns a page of products
func (s *ProductService) ListProducts(ctx context.Context, filter shared.Filter) (*shared.Paginated[catalog.Product], error) {
	products, err := s.products.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.products.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(products, total, filter.Page, filter.PageSize)
	return &page, nil
}
