package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// BatchStatus represents the lifecycle state of a production batch
type BatchStatus string

const (
	BatchStatusActive     BatchStatus = "ACTIVE"
	BatchStatusDepleted   BatchStatus = "DEPLETED"
	BatchStatusExpired    BatchStatus = "EXPIRED"
	BatchStatusWrittenOff BatchStatus = "WRITTEN_OFF"
)

// DefaultShelfLife is applied when an arrival line carries no expiry date
const DefaultShelfLife = 365 * 24 * time.Hour

// Batch represents a production batch of a single product.
// Quantity is the amount originally produced; AvailableQuantity and
// ReservedQuantity track the current split. Shipped stock is the remainder:
// quantity - available - reserved - written_off.
type Batch struct {
	shared.BaseEntity
	ProductID         uuid.UUID
	BatchNumber       string
	BatchDate         time.Time
	Quantity          int
	AvailableQuantity int
	ReservedQuantity  int
	WrittenOffQty     int
	ExpiryDate        *time.Time
	Status            BatchStatus
	ArrivalID         *uuid.UUID
	Notes             string
}

// TableName returns the database table name
func (Batch) TableName() string {
	return "batches"
}

// NewBatch creates an active batch with the full quantity available
func NewBatch(productID uuid.UUID, batchNumber string, batchDate time.Time, quantity int, expiryDate *time.Time) (*Batch, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "batch product is required")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "batch quantity must be positive")
	}
	if batchDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "batch date is required")
	}

	if expiryDate == nil {
		d := batchDate.Add(DefaultShelfLife)
		expiryDate = &d
	}

	return &Batch{
		BaseEntity:        shared.NewBaseEntity(),
		ProductID:         productID,
		BatchNumber:       batchNumber,
		BatchDate:         batchDate,
		Quantity:          quantity,
		AvailableQuantity: quantity,
		ExpiryDate:        expiryDate,
		Status:            BatchStatusActive,
	}, nil
}

// IsExpired reports whether the batch is past its expiry date at the given time
func (b *Batch) IsExpired(at time.Time) bool {
	return b.ExpiryDate != nil && !b.ExpiryDate.After(at)
}

// IsAllocatable reports whether the batch can serve new reservations
func (b *Batch) IsAllocatable(at time.Time) bool {
	return b.Status == BatchStatusActive && b.AvailableQuantity > 0 && !b.IsExpired(at)
}

// DaysUntilExpiry returns full days until expiry, negative when already expired.
// Returns false when the batch has no expiry date.
func (b *Batch) DaysUntilExpiry(at time.Time) (int, bool) {
	if b.ExpiryDate == nil {
		return 0, false
	}
	return int(b.ExpiryDate.Sub(at).Hours() / 24), true
}

// Reserve moves quantity from available to reserved
func (b *Batch) Reserve(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "reserve quantity must be positive")
	}
	if quantity > b.AvailableQuantity {
		return shared.ErrInsufficientStock
	}
	b.AvailableQuantity -= quantity
	b.ReservedQuantity += quantity
	b.Touch()
	return nil
}

// Release returns reserved quantity back to available.
// The release is clamped to the currently reserved amount, so releasing
// more than was reserved (or releasing twice) is a safe no-op for the excess.
func (b *Batch) Release(quantity int) int {
	if quantity <= 0 {
		return 0
	}
	released := quantity
	if released > b.ReservedQuantity {
		released = b.ReservedQuantity
	}
	b.ReservedQuantity -= released
	b.AvailableQuantity += released
	b.refreshStatus()
	b.Touch()
	return released
}

// ConsumeReserved removes reserved quantity permanently, e.g. on shipment
func (b *Batch) ConsumeReserved(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "consume quantity must be positive")
	}
	if quantity > b.ReservedQuantity {
		return shared.ErrInsufficientStock
	}
	b.ReservedQuantity -= quantity
	b.refreshStatus()
	b.Touch()
	return nil
}

// WriteOff removes available quantity permanently
func (b *Batch) WriteOff(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "writeoff quantity must be positive")
	}
	if quantity > b.AvailableQuantity {
		return shared.ErrInsufficientStock
	}
	b.AvailableQuantity -= quantity
	b.WrittenOffQty += quantity
	b.refreshStatus()
	b.Touch()
	return nil
}

// MarkExpired flags the batch as expired. The status is advisory:
// allocation always re-checks the expiry date itself.
func (b *Batch) MarkExpired() {
	b.Status = BatchStatusExpired
	b.Touch()
}

func (b *Batch) refreshStatus() {
	if b.Status != BatchStatusActive {
		return
	}
	if b.AvailableQuantity == 0 && b.ReservedQuantity == 0 {
		if b.WrittenOffQty == b.Quantity {
			b.Status = BatchStatusWrittenOff
		} else {
			b.Status = BatchStatusDepleted
		}
	}
}
