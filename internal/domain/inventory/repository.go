package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// ProductAvailability aggregates stock across one product's active batches
type ProductAvailability struct {
	ProductID      uuid.UUID  `json:"product_id"`
	TotalAvailable int        `json:"total_available"`
	TotalReserved  int        `json:"total_reserved"`
	BatchesCount   int        `json:"batches_count"`
	NearestExpiry  *time.Time `json:"nearest_expiry,omitempty"`
}

// BatchRepository defines persistence operations for batches
type BatchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]Batch, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Batch, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindAllocatable returns batches able to serve reservations for a
	// product, ordered oldest batch date first.
	FindAllocatable(ctx context.Context, productID uuid.UUID, at time.Time) ([]Batch, error)

	// FindExpiring returns unexpired batches with stock whose expiry date
	// falls within the given number of days.
	FindExpiring(ctx context.Context, withinDays int, at time.Time) ([]Batch, error)

	Save(ctx context.Context, batch *Batch) error
	SaveAll(ctx context.Context, batches []Batch) error

	// ApplyReservation atomically moves quantity from available to reserved.
	// The update is conditional on sufficient availability; when another
	// writer consumed the stock first, shared.ErrConcurrencyConflict is
	// returned and nothing changes.
	ApplyReservation(ctx context.Context, batchID uuid.UUID, quantity int) error

	// ReleaseReservation moves up to quantity back from reserved to
	// available, clamped so reserved never goes negative. Returns the
	// quantity actually released; releasing an already-released batch
	// returns 0 without error.
	ReleaseReservation(ctx context.Context, batchID uuid.UUID, quantity int) (int, error)

	// ConsumeReserved removes reserved quantity permanently (shipment)
	ConsumeReserved(ctx context.Context, batchID uuid.UUID, quantity int) error

	// Availability aggregates stock across the product's active,
	// unexpired batches, fully reserved ones included
	Availability(ctx context.Context, productID uuid.UUID, at time.Time) (*ProductAvailability, error)
}

// MovementRepository defines persistence operations for the stock ledger
type MovementRepository interface {
	Save(ctx context.Context, movement *StockMovement) error
	FindAll(ctx context.Context, filter shared.Filter) ([]StockMovement, error)
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
}

// WriteoffRepository defines persistence operations for writeoff documents
type WriteoffRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Writeoff, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Writeoff, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, writeoff *Writeoff) error
}

// ArrivalRepository defines persistence operations for arrival documents
type ArrivalRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Arrival, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Arrival, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, arrival *Arrival) error

	// CountByDate counts arrivals created on a calendar day, used for
	// per-day document numbering.
	CountByDate(ctx context.Context, day time.Time) (int64, error)
}
