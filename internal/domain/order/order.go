package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// Status represents the order lifecycle state
type Status string

const (
	StatusNew          Status = "NEW"
	StatusConfirmed    Status = "CONFIRMED"
	StatusInProduction Status = "IN_PRODUCTION"
	StatusReady        Status = "READY"
	StatusShipped      Status = "SHIPPED"
	StatusCompleted    Status = "COMPLETED"
	StatusCancelled    Status = "CANCELLED"
)

// IsValid checks if the status is one of the known values
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusConfirmed, StatusInProduction, StatusReady,
		StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// allowedTransitions is the forward path; CANCELLED is reachable from any
// non-terminal status and handled separately in CanTransitionTo.
var allowedTransitions = map[Status]Status{
	StatusNew:          StatusConfirmed,
	StatusConfirmed:    StatusInProduction,
	StatusInProduction: StatusReady,
	StatusReady:        StatusShipped,
	StatusShipped:      StatusCompleted,
}

// CanTransitionTo reports whether the status change is allowed
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return allowedTransitions[s] == next
}

// Order is a customer order for produced goods
type Order struct {
	shared.BaseEntity
	OrderNumber   string
	CustomerName  string
	CustomerPhone string
	Status        Status
	DeliveryDate  *time.Time
	CreatedBy     string
	Notes         string
	Items         []Item
	Reservations  []ReservationLine
}

// TableName returns the database table name
func (Order) TableName() string {
	return "orders"
}

// Item is a single ordered product line. Name and price are snapshots taken
// at order time so later catalog edits do not rewrite history.
type Item struct {
	shared.BaseEntity
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	Boxes       int
	Price       decimal.Decimal
}

// TableName returns the database table name
func (Item) TableName() string {
	return "order_items"
}

// ReservationLine records quantity held on a specific batch for an order item
type ReservationLine struct {
	shared.BaseEntity
	OrderID     uuid.UUID
	OrderItemID uuid.UUID
	ProductID   uuid.UUID
	BatchID     uuid.UUID
	Quantity    int
}

// TableName returns the database table name
func (ReservationLine) TableName() string {
	return "order_reservations"
}

// NewOrder creates an order in NEW status without lines
func NewOrder(orderNumber, customerName, createdBy string) (*Order, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "customer name is required")
	}
	return &Order{
		BaseEntity:   shared.NewBaseEntity(),
		OrderNumber:  orderNumber,
		CustomerName: customerName,
		Status:       StatusNew,
		CreatedBy:    createdBy,
		Items:        []Item{},
		Reservations: []ReservationLine{},
	}, nil
}

// AddItem appends an order line
func (o *Order) AddItem(productID uuid.UUID, productName string, quantity, boxes int, price decimal.Decimal) error {
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "order item requires a product")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "order item quantity must be positive")
	}
	o.Items = append(o.Items, Item{
		BaseEntity:  shared.NewBaseEntity(),
		OrderID:     o.ID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		Boxes:       boxes,
		Price:       price,
	})
	o.Touch()
	return nil
}

// ReplaceItems swaps all order lines, dropping existing reservations.
// The caller is responsible for releasing the old reservations first.
func (o *Order) ReplaceItems(items []Item) {
	for i := range items {
		items[i].OrderID = o.ID
	}
	o.Items = items
	o.Reservations = []ReservationLine{}
	o.Touch()
}

// AddReservation records a batch hold for an order item
func (o *Order) AddReservation(orderItemID, productID, batchID uuid.UUID, quantity int) {
	o.Reservations = append(o.Reservations, ReservationLine{
		BaseEntity:  shared.NewBaseEntity(),
		OrderID:     o.ID,
		OrderItemID: orderItemID,
		ProductID:   productID,
		BatchID:     batchID,
		Quantity:    quantity,
	})
}

// ChangeStatus moves the order to the next status if the transition is legal
func (o *Order) ChangeStatus(next Status) error {
	if !next.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("unknown order status: %s", next))
	}
	if !o.Status.CanTransitionTo(next) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("cannot change order status from %s to %s", o.Status, next))
	}
	o.Status = next
	o.Touch()
	return nil
}

// TotalQuantity sums ordered pieces across lines
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// TotalAmount sums line prices times quantities
func (o *Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
