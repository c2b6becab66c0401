package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
	"gorm.io/gorm"
)

// GormWriteoffRepository implements WriteoffRepository using GORM
type GormWriteoffRepository struct {
	db *gorm.DB
}

// NewGormWriteoffRepository creates a new GormWriteoffRepository
func NewGormWriteoffRepository(db *gorm.DB) *GormWriteoffRepository {
	return &GormWriteoffRepository{db: db}
}

// FindByID finds a writeoff by its ID
func (r *GormWriteoffRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Writeoff, error) {
	var writeoff inventory.Writeoff
	if err := conn(ctx, r.db).WithContext(ctx).First(&writeoff, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &writeoff, nil
}

// FindAll finds writeoffs matching the filter
func (r *GormWriteoffRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Writeoff, error) {
	var writeoffs []inventory.Writeoff
	query := r.applyConditions(conn(ctx, r.db).WithContext(ctx).Model(&inventory.Writeoff{}), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("writeoff_date DESC")
	}

	if err := query.Find(&writeoffs).Error; err != nil {
		return nil, err
	}
	return writeoffs, nil
}

// Count counts writeoffs matching the filter
func (r *GormWriteoffRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(conn(ctx, r.db).WithContext(ctx).Model(&inventory.Writeoff{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a writeoff
func (r *GormWriteoffRepository) Save(ctx context.Context, writeoff *inventory.Writeoff) error {
	return conn(ctx, r.db).WithContext(ctx).Save(writeoff).Error
}

func (r *GormWriteoffRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "batch_id":
			query = query.Where("batch_id = ?", value)
		case "reason":
			query = query.Where("reason = ?", value)
		}
	}
	return query
}

// Ensure GormWriteoffRepository implements WriteoffRepository
var _ inventory.WriteoffRepository = (*GormWriteoffRepository)(nil)
