package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// Arrival is a goods receipt document. Its lines become batches; the whole
// document is committed transactionally, all lines or none.
type Arrival struct {
	shared.BaseEntity
	ArrivalNumber string
	ArrivalDate   time.Time
	Supplier      string
	CreatedBy     string
	Notes         string
	Items         []ArrivalItem
}

// TableName returns the database table name
func (Arrival) TableName() string {
	return "arrivals"
}

// ArrivalItem is a single received line
type ArrivalItem struct {
	shared.BaseEntity
	ArrivalID  uuid.UUID
	ProductID  uuid.UUID
	Quantity   int
	BatchDate  time.Time
	ExpiryDate *time.Time
	BatchID    *uuid.UUID
	Notes      string
}

// TableName returns the database table name
func (ArrivalItem) TableName() string {
	return "arrival_items"
}

// NewArrival creates an arrival document without lines
func NewArrival(arrivalNumber string, arrivalDate time.Time, supplier, createdBy string) *Arrival {
	return &Arrival{
		BaseEntity:    shared.NewBaseEntity(),
		ArrivalNumber: arrivalNumber,
		ArrivalDate:   arrivalDate,
		Supplier:      supplier,
		CreatedBy:     createdBy,
		Items:         []ArrivalItem{},
	}
}

// AddItem appends a received line to the document
func (a *Arrival) AddItem(productID uuid.UUID, quantity int, batchDate time.Time, expiryDate *time.Time, notes string) error {
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "arrival item requires a product")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "arrival item quantity must be positive")
	}
	if batchDate.IsZero() {
		batchDate = a.ArrivalDate
	}
	a.Items = append(a.Items, ArrivalItem{
		BaseEntity: shared.NewBaseEntity(),
		ArrivalID:  a.ID,
		ProductID:  productID,
		Quantity:   quantity,
		BatchDate:  batchDate,
		ExpiryDate: expiryDate,
		Notes:      notes,
	})
	return nil
}

// TotalQuantity sums all received lines
func (a *Arrival) TotalQuantity() int {
	total := 0
	for _, item := range a.Items {
		total += item.Quantity
	}
	return total
}
