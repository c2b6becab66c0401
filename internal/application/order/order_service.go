package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	appaudit "github.com/usv008/pizza-inventory-system-sub003/internal/application/audit"
	appinventory "github.com/usv008/pizza-inventory-system-sub003/internal/application/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/audit"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/catalog"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/order"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrDuplicateRequest is returned when an idempotency key was already used
var ErrDuplicateRequest = shared.NewDomainError("DUPLICATE_REQUEST", "request with this idempotency key was already processed")

// ItemInput is one requested product line
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput describes a new customer order
type CreateOrderInput struct {
	CustomerName   string
	CustomerPhone  string
	DeliveryDate   *time.Time
	Notes          string
	CreatedBy      string
	IdempotencyKey string
	Items          []ItemInput
}

// Result bundles an order with the allocation outcome of its reservations.
// Allocation warnings carry shortage information; they never fail the call.
type Result struct {
	Order      *order.Order                `json:"order"`
	Allocation *inventory.AllocationResult `json:"allocation,omitempty"`
	Apply      *appinventory.ApplySummary  `json:"apply,omitempty"`
}

// Service manages the order lifecycle. Creating or editing an order
// reserves stock batch by batch through the reservation service;
// cancelling releases it and shipping consumes it.
type Service struct {
	orders       order.Repository
	products     catalog.ProductRepository
	reservations *appinventory.ReservationService
	idempotency  shared.IdempotencyStore
	idemCfg      shared.IdempotencyConfig
	auditor      *appaudit.Service
	logger       *zap.Logger
	now          func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an order Service
func NewService(
	orders order.Repository,
	products catalog.ProductRepository,
	reservations *appinventory.ReservationService,
	idempotency shared.IdempotencyStore,
	idemCfg shared.IdempotencyConfig,
	auditor *appaudit.Service,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		orders:       orders,
		products:     products,
		reservations: reservations,
		idempotency:  idempotency,
		idemCfg:      idemCfg,
		auditor:      auditor,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder registers an order and reserves stock for every line.
// Shortage does not fail the call; the order is created with partial
// reservations and the warnings report what is missing.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*Result, error) {
	if len(input.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "order has no items")
	}

	claimedKey := ""
	if input.IdempotencyKey != "" && s.idemCfg.Enabled {
		fresh, err := s.idempotency.MarkProcessed(ctx, input.IdempotencyKey, s.idemCfg.TTL)
		if err != nil {
			s.logger.Warn("idempotency check failed, proceeding", zap.Error(err))
		} else if !fresh {
			return nil, ErrDuplicateRequest
		} else {
			claimedKey = input.IdempotencyKey
		}
	}
	// When the order is not created the key is freed again, so the
	// client's retry with the same key is not a false duplicate
	releaseClaim := func() {
		if claimedKey == "" {
			return
		}
		if err := s.idempotency.Forget(ctx, claimedKey); err != nil {
			s.logger.Warn("idempotency key not released", zap.Error(err))
		}
	}

	number, err := s.nextOrderNumber(ctx)
	if err != nil {
		releaseClaim()
		return nil, err
	}

	o, err := order.NewOrder(number, input.CustomerName, input.CreatedBy)
	if err != nil {
		releaseClaim()
		return nil, err
	}
	o.CustomerPhone = input.CustomerPhone
	o.DeliveryDate = input.DeliveryDate
	o.Notes = input.Notes

	if err := s.addItems(ctx, o, input.Items); err != nil {
		releaseClaim()
		return nil, err
	}

	allocation, apply, err := s.reserve(ctx, o, input.CreatedBy)
	if err != nil {
		releaseClaim()
		return nil, err
	}

	if err := s.orders.Save(ctx, o); err != nil {
		// Put the reserved quantity back before reporting the failure
		if _, relErr := s.reservations.Release(ctx, reservationLines(o), o.ID, o.OrderNumber, input.CreatedBy); relErr != nil {
			s.logger.Error("compensating release failed",
				zap.String("order_number", o.OrderNumber),
				zap.Error(relErr))
		}
		releaseClaim()
		return nil, err
	}

	s.auditor.Record(ctx, "order", o.ID, audit.OperationCreate, input.CreatedBy, map[string]interface{}{
		"order_number":  o.OrderNumber,
		"customer_name": o.CustomerName,
		"total_pieces":  o.TotalQuantity(),
		"reserved":      allocation.Summary.TotalReserved,
		"shortage":      allocation.Summary.Shortage,
	})
	s.logger.Info("order created",
		zap.String("order_number", o.OrderNumber),
		zap.Int("items", len(o.Items)),
		zap.Int("shortage", allocation.Summary.Shortage))

	return &Result{Order: o, Allocation: allocation, Apply: apply}, nil
}

// UpdateItems replaces the order lines. Existing reservations are
// released first, then stock is reserved again for the new lines.
func (s *Service) UpdateItems(ctx context.Context, id uuid.UUID, items []ItemInput, performedBy string) (*Result, error) {
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "order has no items")
	}

	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusNew && o.Status != order.StatusConfirmed {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("order %s cannot be edited in status %s", o.OrderNumber, o.Status))
	}

	if _, err := s.reservations.Release(ctx, reservationLines(o), o.ID, o.OrderNumber, performedBy); err != nil {
		return nil, err
	}

	o.ReplaceItems(nil)
	if err := s.addItems(ctx, o, items); err != nil {
		return nil, err
	}

	allocation, apply, err := s.reserve(ctx, o, performedBy)
	if err != nil {
		return nil, err
	}

	if err := s.orders.ReplaceItems(ctx, o); err != nil {
		if _, relErr := s.reservations.Release(ctx, reservationLines(o), o.ID, o.OrderNumber, performedBy); relErr != nil {
			s.logger.Error("compensating release failed",
				zap.String("order_number", o.OrderNumber),
				zap.Error(relErr))
		}
		return nil, err
	}

	s.auditor.Record(ctx, "order", o.ID, audit.OperationUpdate, performedBy, map[string]interface{}{
		"order_number": o.OrderNumber,
		"total_pieces": o.TotalQuantity(),
		"shortage":     allocation.Summary.Shortage,
	})
	return &Result{Order: o, Allocation: allocation, Apply: apply}, nil
}

// ReserveStock re-runs stock reservation for the order lines without
// changing them. Existing holds are released first, then allocation runs
// fresh, so operators can retry after new stock arrives.
func (s *Service) ReserveStock(ctx context.Context, id uuid.UUID, performedBy string) (*Result, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusNew && o.Status != order.StatusConfirmed {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("order %s cannot be re-reserved in status %s", o.OrderNumber, o.Status))
	}

	if _, err := s.reservations.Release(ctx, reservationLines(o), o.ID, o.OrderNumber, performedBy); err != nil {
		return nil, err
	}
	o.Reservations = []order.ReservationLine{}

	allocation, apply, err := s.reserve(ctx, o, performedBy)
	if err != nil {
		return nil, err
	}
	if err := s.orders.ReplaceItems(ctx, o); err != nil {
		if _, relErr := s.reservations.Release(ctx, reservationLines(o), o.ID, o.OrderNumber, performedBy); relErr != nil {
			s.logger.Error("compensating release failed",
				zap.String("order_number", o.OrderNumber),
				zap.Error(relErr))
		}
		return nil, err
	}

	s.auditor.Record(ctx, "order", o.ID, audit.OperationReserve, performedBy, map[string]interface{}{
		"order_number": o.OrderNumber,
		"reserved":     allocation.Summary.TotalReserved,
		"shortage":     allocation.Summary.Shortage,
	})
	return &Result{Order: o, Allocation: allocation, Apply: apply}, nil
}

// ReleaseStock releases every reservation the order holds while keeping
// the order itself. The order can be re-reserved later.
func (s *Service) ReleaseStock(ctx context.Context, id uuid.UUID, performedBy string) (*order.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusShipped || o.Status == order.StatusCompleted {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("order %s reservations cannot be released in status %s", o.OrderNumber, o.Status))
	}

	released, err := s.reservations.Release(ctx, reservationLines(o), o.ID, o.OrderNumber, performedBy)
	if err != nil {
		return nil, err
	}
	o.Reservations = []order.ReservationLine{}
	if err := s.orders.ReplaceItems(ctx, o); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "order", o.ID, audit.OperationRelease, performedBy, map[string]interface{}{
		"order_number": o.OrderNumber,
		"released":     released.TotalReleased,
	})
	return o, nil
}

// ChangeStatus moves the order along its lifecycle. Cancelling releases
// all reservations; shipping consumes them permanently.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, next order.Status, performedBy string) (*order.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := o.Status
	if err := o.ChangeStatus(next); err != nil {
		return nil, err
	}

	switch next {
	case order.StatusCancelled:
		if _, err := s.reservations.Release(ctx, reservationLines(o), o.ID, o.OrderNumber, performedBy); err != nil {
			return nil, err
		}
		o.Reservations = []order.ReservationLine{}
		if err := s.orders.ReplaceItems(ctx, o); err != nil {
			return nil, err
		}
	case order.StatusShipped:
		if err := s.reservations.Consume(ctx, reservationLines(o), o.ID, o.OrderNumber, performedBy); err != nil {
			return nil, err
		}
		if err := s.orders.Save(ctx, o); err != nil {
			return nil, err
		}
	default:
		if err := s.orders.Save(ctx, o); err != nil {
			return nil, err
		}
	}

	op := audit.OperationStatusChange
	if next == order.StatusShipped {
		op = audit.OperationShipment
	}
	s.auditor.Record(ctx, "order", o.ID, op, performedBy, map[string]interface{}{
		"order_number": o.OrderNumber,
		"from":         string(previous),
		"to":           string(next),
	})
	return o, nil
}

// DeleteOrder removes an order and releases whatever it still holds.
// Shipped and completed orders are history and cannot be deleted.
func (s *Service) DeleteOrder(ctx context.Context, id uuid.UUID, performedBy string) error {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if o.Status == order.StatusShipped || o.Status == order.StatusCompleted {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("order %s cannot be deleted in status %s", o.OrderNumber, o.Status))
	}

	if _, err := s.reservations.Release(ctx, reservationLines(o), o.ID, o.OrderNumber, performedBy); err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}

	s.auditor.Record(ctx, "order", o.ID, audit.OperationDelete, performedBy, map[string]interface{}{
		"order_number": o.OrderNumber,
	})
	return nil
}

// GetOrder returns one order with items and reservations
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return s.orders.FindByID(ctx, id)
}

// GetByNumber returns one order by its number
func (s *Service) GetByNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	return s.orders.FindByNumber(ctx, orderNumber)
}

// ListOrders returns a page of order headers
func (s *Service) ListOrders(ctx context.Context, filter shared.Filter) (*shared.Paginated[order.Order], error) {
	orders, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.orders.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(orders, total, filter.Page, filter.PageSize)
	return &page, nil
}

// nextOrderNumber builds the YYYYMMDD-NNN number from today's order count
func (s *Service) nextOrderNumber(ctx context.Context) (string, error) {
	today := s.now()
	count, err := s.orders.CountByDate(ctx, today)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%03d", today.Format("20060102"), count+1), nil
}

// addItems resolves products and appends snapshot lines to the order
func (s *Service) addItems(ctx context.Context, o *order.Order, items []ItemInput) error {
	for _, item := range items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("product %s is not active", product.Name))
		}
		if err := o.AddItem(product.ID, product.Name, item.Quantity, product.Boxes(item.Quantity), product.Price); err != nil {
			return err
		}
	}
	return nil
}

// reserve allocates stock for the order lines and records the holds
func (s *Service) reserve(ctx context.Context, o *order.Order, performedBy string) (*inventory.AllocationResult, *appinventory.ApplySummary, error) {
	req := inventory.AllocationRequest{}
	for _, item := range o.Items {
		req.Items = append(req.Items, inventory.AllocationRequestItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
		})
	}

	allocation, apply, err := s.reservations.Reserve(ctx, req, o.ID, o.OrderNumber, performedBy)
	if err != nil {
		return nil, nil, err
	}

	itemsByProduct := make(map[uuid.UUID]*order.Item, len(o.Items))
	for i := range o.Items {
		itemsByProduct[o.Items[i].ProductID] = &o.Items[i]
	}
	for _, alloc := range allocation.Allocations {
		item, ok := itemsByProduct[alloc.ProductID]
		if !ok {
			continue
		}
		for _, sel := range alloc.Selections {
			o.AddReservation(item.ID, alloc.ProductID, sel.BatchID, sel.Quantity)
		}
	}
	return allocation, apply, nil
}

func reservationLines(o *order.Order) []appinventory.ReservationLine {
	lines := make([]appinventory.ReservationLine, 0, len(o.Reservations))
	for _, r := range o.Reservations {
		lines = append(lines, appinventory.ReservationLine{
			ProductID: r.ProductID,
			BatchID:   r.BatchID,
			Quantity:  r.Quantity,
		})
	}
	return lines
}
