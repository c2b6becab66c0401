package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
	"gorm.io/gorm"
)

// GormArrivalRepository implements ArrivalRepository using GORM
type GormArrivalRepository struct {
	db *gorm.DB
}

// NewGormArrivalRepository creates a new GormArrivalRepository
func NewGormArrivalRepository(db *gorm.DB) *GormArrivalRepository {
	return &GormArrivalRepository{db: db}
}

// FindByID finds an arrival with its lines
func (r *GormArrivalRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Arrival, error) {
	var arrival inventory.Arrival
	if err := conn(ctx, r.db).WithContext(ctx).First(&arrival, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := conn(ctx, r.db).WithContext(ctx).
		Where("arrival_id = ?", id).
		Order("created_at ASC").
		Find(&arrival.Items).Error; err != nil {
		return nil, err
	}
	return &arrival, nil
}

// FindAll finds arrivals matching the filter (without lines)
func (r *GormArrivalRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Arrival, error) {
	var arrivals []inventory.Arrival
	query := conn(ctx, r.db).WithContext(ctx).Model(&inventory.Arrival{})

	if filter.Search != "" {
		query = query.Where("arrival_number LIKE ? OR supplier LIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}
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
		query = query.Order("arrival_date DESC, created_at DESC")
	}

	if err := query.Find(&arrivals).Error; err != nil {
		return nil, err
	}
	return arrivals, nil
}

// Count counts arrivals matching the filter
func (r *GormArrivalRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := conn(ctx, r.db).WithContext(ctx).Model(&inventory.Arrival{})
	if filter.Search != "" {
		query = query.Where("arrival_number LIKE ? OR supplier LIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the arrival document with all lines in one transaction
func (r *GormArrivalRepository) Save(ctx context.Context, arrival *inventory.Arrival) error {
	return conn(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := arrival.Items
		arrival.Items = nil
		if err := tx.Save(arrival).Error; err != nil {
			arrival.Items = items
			return err
		}
		arrival.Items = items

		for i := range items {
			items[i].ArrivalID = arrival.ID
		}
		if len(items) > 0 {
			if err := tx.Save(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CountByDate counts arrivals created on a calendar day
func (r *GormArrivalRepository) CountByDate(ctx context.Context, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var count int64
	if err := conn(ctx, r.db).WithContext(ctx).Model(&inventory.Arrival{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormArrivalRepository implements ArrivalRepository
var _ inventory.ArrivalRepository = (*GormArrivalRepository)(nil)
