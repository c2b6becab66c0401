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

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	var batch inventory.Batch
	if err := conn(ctx, r.db).WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByProduct finds all batches for a product
func (r *GormBatchRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.Batch, error) {
	var batches []inventory.Batch
	query := r.applyFilter(
		conn(ctx, r.db).WithContext(ctx).Model(&inventory.Batch{}).
			Where("product_id = ?", productID),
		filter,
	)
	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindAll finds batches matching the filter
func (r *GormBatchRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Batch, error) {
	var batches []inventory.Batch
	query := r.applyFilter(conn(ctx, r.db).WithContext(ctx).Model(&inventory.Batch{}), filter)
	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// Count counts batches matching the filter
func (r *GormBatchRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(conn(ctx, r.db).WithContext(ctx).Model(&inventory.Batch{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindAllocatable finds batches able to serve reservations, oldest first (FIFO)
func (r *GormBatchRepository) FindAllocatable(ctx context.Context, productID uuid.UUID, at time.Time) ([]inventory.Batch, error) {
	var batches []inventory.Batch
	if err := conn(ctx, r.db).WithContext(ctx).
		Where("product_id = ? AND status = ? AND available_quantity > 0", productID, inventory.BatchStatusActive).
		Where("expiry_date IS NULL OR expiry_date > ?", at).
		Order("batch_date ASC, created_at ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindExpiring finds unexpired batches with stock expiring within the given days
func (r *GormBatchRepository) FindExpiring(ctx context.Context, withinDays int, at time.Time) ([]inventory.Batch, error) {
	var batches []inventory.Batch
	threshold := at.AddDate(0, 0, withinDays)

	if err := conn(ctx, r.db).WithContext(ctx).
		Where("status = ? AND available_quantity > 0", inventory.BatchStatusActive).
		Where("expiry_date IS NOT NULL").
		Where("expiry_date > ? AND expiry_date <= ?", at, threshold).
		Order("expiry_date ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// Save creates or updates a batch
func (r *GormBatchRepository) Save(ctx context.Context, batch *inventory.Batch) error {
	return conn(ctx, r.db).WithContext(ctx).Save(batch).Error
}

// SaveAll creates or updates multiple batches
func (r *GormBatchRepository) SaveAll(ctx context.Context, batches []inventory.Batch) error {
	if len(batches) == 0 {
		return nil
	}
	return conn(ctx, r.db).WithContext(ctx).Save(&batches).Error
}

// ApplyReservation atomically moves quantity from available to reserved.
// The WHERE clause re-checks availability so a concurrent consumer cannot
// drive the counter negative; losing the race returns ErrConcurrencyConflict.
func (r *GormBatchRepository) ApplyReservation(ctx context.Context, batchID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "reservation quantity must be positive")
	}

	result := conn(ctx, r.db).WithContext(ctx).Model(&inventory.Batch{}).
		Where("id = ? AND available_quantity >= ?", batchID, quantity).
		Updates(map[string]interface{}{
			"available_quantity": gorm.Expr("available_quantity - ?", quantity),
			"reserved_quantity":  gorm.Expr("reserved_quantity + ?", quantity),
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := conn(ctx, r.db).WithContext(ctx).Model(&inventory.Batch{}).
			Where("id = ?", batchID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// ReleaseReservation moves up to quantity back from reserved to available.
// The CASE guard clamps the release to what is actually reserved, making
// repeated releases a no-op instead of driving reserved below zero.
func (r *GormBatchRepository) ReleaseReservation(ctx context.Context, batchID uuid.UUID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, nil
	}

	batch, err := r.FindByID(ctx, batchID)
	if err != nil {
		return 0, err
	}

	release := quantity
	if release > batch.ReservedQuantity {
		release = batch.ReservedQuantity
	}
	if release == 0 {
		return 0, nil
	}

	result := conn(ctx, r.db).WithContext(ctx).Model(&inventory.Batch{}).
		Where("id = ? AND reserved_quantity >= ?", batchID, release).
		Updates(map[string]interface{}{
			"reserved_quantity":  gorm.Expr("reserved_quantity - ?", release),
			"available_quantity": gorm.Expr("available_quantity + ?", release),
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrConcurrencyConflict
	}
	return release, nil
}

// ConsumeReserved removes reserved quantity permanently (shipment)
func (r *GormBatchRepository) ConsumeReserved(ctx context.Context, batchID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "consume quantity must be positive")
	}

	result := conn(ctx, r.db).WithContext(ctx).Model(&inventory.Batch{}).
		Where("id = ? AND reserved_quantity >= ?", batchID, quantity).
		Updates(map[string]interface{}{
			"reserved_quantity": gorm.Expr("reserved_quantity - ?", quantity),
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	// Drained batches move out of ACTIVE so allocation skips them
	return conn(ctx, r.db).WithContext(ctx).Model(&inventory.Batch{}).
		Where("id = ? AND available_quantity = 0 AND reserved_quantity = 0 AND status = ?",
			batchID, inventory.BatchStatusActive).
		Update("status", inventory.BatchStatusDepleted).Error
}

// Availability aggregates stock across the product's ACTIVE, unexpired
// batches. Fully reserved batches still count: their reserved quantity
// belongs in the totals even though allocation would skip them.
func (r *GormBatchRepository) Availability(ctx context.Context, productID uuid.UUID, at time.Time) (*inventory.ProductAvailability, error) {
	var row struct {
		TotalAvailable int
		TotalReserved  int
		BatchesCount   int
		NearestExpiry  *time.Time
	}

	err := conn(ctx, r.db).WithContext(ctx).Model(&inventory.Batch{}).
		Select("COALESCE(SUM(available_quantity), 0) AS total_available, "+
			"COALESCE(SUM(reserved_quantity), 0) AS total_reserved, "+
			"COUNT(*) AS batches_count, "+
			"MIN(expiry_date) AS nearest_expiry").
		Where("product_id = ? AND status = ?", productID, inventory.BatchStatusActive).
		Where("expiry_date IS NULL OR expiry_date > ?", at).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &inventory.ProductAvailability{
		ProductID:      productID,
		TotalAvailable: row.TotalAvailable,
		TotalReserved:  row.TotalReserved,
		BatchesCount:   row.BatchesCount,
		NearestExpiry:  row.NearestExpiry,
	}, nil
}

// applyFilter applies pagination, ordering and field filters to the query
func (r *GormBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyConditions(query, filter)

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
		query = query.Order("batch_date ASC, created_at ASC")
	}

	return query
}

// applyConditions applies field filters only, shared by Find and Count
func (r *GormBatchRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "has_stock":
			if value == true {
				query = query.Where("available_quantity > 0")
			}
		case "expired":
			if value == true {
				query = query.Where("expiry_date IS NOT NULL AND expiry_date <= ?", time.Now())
			}
		}
	}
	return query
}

// Ensure GormBatchRepository implements BatchRepository
var _ inventory.BatchRepository = (*GormBatchRepository)(nil)
