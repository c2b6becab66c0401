package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/order"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with items and reservation lines
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := conn(ctx, r.db).WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadAssociations(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// FindByNumber finds an order by its number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var o order.Order
	if err := conn(ctx, r.db).WithContext(ctx).First(&o, "order_number = ?", orderNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadAssociations(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// FindAll finds orders matching the filter (headers only)
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var orders []order.Order
	query := r.applyConditions(conn(ctx, r.db).WithContext(ctx).Model(&order.Order{}), filter)

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
		query = query.Order("created_at DESC")
	}

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(conn(ctx, r.db).WithContext(ctx).Model(&order.Order{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the order header, items and reservation lines transactionally
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return conn(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, reservations := o.Items, o.Reservations
		o.Items, o.Reservations = nil, nil
		err := tx.Save(o).Error
		o.Items, o.Reservations = items, reservations
		if err != nil {
			return err
		}

		if len(o.Items) > 0 {
			if err := tx.Save(&o.Items).Error; err != nil {
				return err
			}
		}
		if len(o.Reservations) > 0 {
			if err := tx.Save(&o.Reservations).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceItems replaces all items and reservation lines of an order
func (r *GormOrderRepository) ReplaceItems(ctx context.Context, o *order.Order) error {
	return conn(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", o.ID).Delete(&order.ReservationLine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", o.ID).Delete(&order.Item{}).Error; err != nil {
			return err
		}

		items, reservations := o.Items, o.Reservations
		o.Items, o.Reservations = nil, nil
		err := tx.Save(o).Error
		o.Items, o.Reservations = items, reservations
		if err != nil {
			return err
		}

		if len(o.Items) > 0 {
			if err := tx.Create(&o.Items).Error; err != nil {
				return err
			}
		}
		if len(o.Reservations) > 0 {
			if err := tx.Create(&o.Reservations).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the order with its items and reservation lines
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&order.ReservationLine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&order.Item{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&order.Order{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// CountByDate counts orders created on a calendar day
func (r *GormOrderRepository) CountByDate(ctx context.Context, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var count int64
	if err := conn(ctx, r.db).WithContext(ctx).Model(&order.Order{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormOrderRepository) loadAssociations(ctx context.Context, o *order.Order) error {
	if err := conn(ctx, r.db).WithContext(ctx).
		Where("order_id = ?", o.ID).
		Order("created_at ASC").
		Find(&o.Items).Error; err != nil {
		return err
	}
	return conn(ctx, r.db).WithContext(ctx).
		Where("order_id = ?", o.ID).
		Order("created_at ASC").
		Find(&o.Reservations).Error
}

func (r *GormOrderRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("order_number LIKE ? OR customer_name LIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_name":
			query = query.Where("customer_name = ?", value)
		}
	}
	return query
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)
