package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// MovementType classifies stock movements
type MovementType string

const (
	MovementArrival  MovementType = "ARRIVAL"
	MovementReserve  MovementType = "RESERVE"
	MovementRelease  MovementType = "RELEASE"
	MovementShipment MovementType = "SHIPMENT"
	MovementWriteoff MovementType = "WRITEOFF"
)

// StockMovement is one row in the append-only stock ledger.
// Quantity is signed: inflows positive, outflows negative.
type StockMovement struct {
	shared.BaseEntity
	ProductID    uuid.UUID
	BatchID      *uuid.UUID
	MovementType MovementType
	Quantity     int
	ReferenceID  *uuid.UUID
	Reference    string
	MovementDate time.Time
	CreatedBy    string
	Notes        string
}

// TableName returns the database table name
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a ledger entry dated now
func NewStockMovement(productID uuid.UUID, movementType MovementType, quantity int) *StockMovement {
	return &StockMovement{
		BaseEntity:   shared.NewBaseEntity(),
		ProductID:    productID,
		MovementType: movementType,
		Quantity:     quantity,
		MovementDate: time.Now(),
	}
}

// WithBatch attaches the source batch
func (m *StockMovement) WithBatch(batchID uuid.UUID) *StockMovement {
	m.BatchID = &batchID
	return m
}

// WithReference attaches the document that caused the movement
func (m *StockMovement) WithReference(refID uuid.UUID, ref string) *StockMovement {
	m.ReferenceID = &refID
	m.Reference = ref
	return m
}
