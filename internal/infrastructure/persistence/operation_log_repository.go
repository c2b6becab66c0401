package persistence

import (
	"context"
	"strings"

	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/audit"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOperationLogRepository implements audit.Repository using GORM
type GormOperationLogRepository struct {
	db *gorm.DB
}

// NewGormOperationLogRepository creates a new GormOperationLogRepository
func NewGormOperationLogRepository(db *gorm.DB) *GormOperationLogRepository {
	return &GormOperationLogRepository{db: db}
}

// Save appends an entry to the operations log
func (r *GormOperationLogRepository) Save(ctx context.Context, entry *audit.OperationLog) error {
	return conn(ctx, r.db).WithContext(ctx).Create(entry).Error
}

// FindAll finds log entries matching the filter
func (r *GormOperationLogRepository) FindAll(ctx context.Context, filter shared.Filter) ([]audit.OperationLog, error) {
	var entries []audit.OperationLog
	query := r.applyConditions(conn(ctx, r.db).WithContext(ctx).Model(&audit.OperationLog{}), filter)

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
		query = query.Order("occurred_at DESC")
	}

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Count counts log entries matching the filter
func (r *GormOperationLogRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(conn(ctx, r.db).WithContext(ctx).Model(&audit.OperationLog{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormOperationLogRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "entity_type":
			query = query.Where("entity_type = ?", value)
		case "entity_id":
			query = query.Where("entity_id = ?", value)
		case "operation":
			query = query.Where("operation = ?", value)
		case "performed_by":
			query = query.Where("performed_by = ?", value)
		}
	}
	return query
}

// Ensure GormOperationLogRepository implements audit.Repository
var _ audit.Repository = (*GormOperationLogRepository)(nil)
