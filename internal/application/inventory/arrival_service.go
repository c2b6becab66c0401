package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	appaudit "github.com/usv008/pizza-inventory-system-sub003/internal/application/audit"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/audit"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/catalog"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// ArrivalLineInput describes one incoming line of stock
type ArrivalLineInput struct {
	ProductID  uuid.UUID
	Quantity   int
	BatchDate  *time.Time // defaults to the arrival date
	ExpiryDate *time.Time // defaults to batch date plus shelf life
	Notes      string
}

// CreateArrivalInput describes an arrival document to register
type CreateArrivalInput struct {
	ArrivalDate time.Time
	Supplier    string
	CreatedBy   string
	Notes       string
	Lines       []ArrivalLineInput
}

// ArrivalService registers incoming stock. Each arrival line becomes a
// new batch; the document, its batches, the ledger entries and the
// product counters are written in one transaction.
type ArrivalService struct {
	arrivals  inventory.ArrivalRepository
	batches   inventory.BatchRepository
	products  catalog.ProductRepository
	movements inventory.MovementRepository
	tx        shared.TransactionManager
	auditor   *appaudit.Service
	logger    *zap.Logger
	now       func() time.Time
}

// ArrivalOption configures an ArrivalService
type ArrivalOption func(*ArrivalService)

// WithArrivalClock overrides the time source, for tests
func WithArrivalClock(now func() time.Time) ArrivalOption {
	return func(s *ArrivalService) {
		s.now = now
	}
}

// NewArrivalService creates an ArrivalService
func NewArrivalService(
	arrivals inventory.ArrivalRepository,
	batches inventory.BatchRepository,
	products catalog.ProductRepository,
	movements inventory.MovementRepository,
	tx shared.TransactionManager,
	auditor *appaudit.Service,
	logger *zap.Logger,
	opts ...ArrivalOption,
) *ArrivalService {
	s := &ArrivalService{
		arrivals:  arrivals,
		batches:   batches,
		products:  products,
		movements: movements,
		tx:        tx,
		auditor:   auditor,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateArrival registers the document and creates one batch per line.
// All lines land or none do.
func (s *ArrivalService) CreateArrival(ctx context.Context, input CreateArrivalInput) (*inventory.Arrival, []inventory.Batch, error) {
	if len(input.Lines) == 0 {
		return nil, nil, shared.NewDomainError("INVALID_INPUT", "arrival has no lines")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, nil, shared.NewDomainError("INVALID_INPUT", "arrival line quantity must be positive")
		}
	}

	arrivalDate := input.ArrivalDate
	if arrivalDate.IsZero() {
		arrivalDate = s.now()
	}

	productsByID := make(map[uuid.UUID]*catalog.Product, len(input.Lines))
	for _, line := range input.Lines {
		if _, ok := productsByID[line.ProductID]; ok {
			continue
		}
		product, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, nil, err
		}
		if !product.IsActive {
			return nil, nil, shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("product %s is not active", product.Name))
		}
		productsByID[line.ProductID] = product
	}

	var (
		arrival *inventory.Arrival
		batches []inventory.Batch
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		count, err := s.arrivals.CountByDate(ctx, s.now())
		if err != nil {
			return err
		}
		number := fmt.Sprintf("ARR-%s-%03d", s.now().Format("20060102"), count+1)

		arrival = inventory.NewArrival(number, arrivalDate, input.Supplier, input.CreatedBy)
		arrival.Notes = input.Notes
		for _, line := range input.Lines {
			batchDate := arrivalDate
			if line.BatchDate != nil {
				batchDate = *line.BatchDate
			}
			if err := arrival.AddItem(line.ProductID, line.Quantity, batchDate, line.ExpiryDate, line.Notes); err != nil {
				return err
			}
		}
		if err := s.arrivals.Save(ctx, arrival); err != nil {
			return err
		}

		batches = make([]inventory.Batch, 0, len(arrival.Items))
		for i := range arrival.Items {
			item := &arrival.Items[i]
			batch, err := inventory.NewBatch(
				item.ProductID,
				fmt.Sprintf("%s-%02d", number, i+1),
				item.BatchDate,
				item.Quantity,
				item.ExpiryDate,
			)
			if err != nil {
				return err
			}
			batch.ArrivalID = &arrival.ID
			batch.Notes = item.Notes
			batches = append(batches, *batch)
		}
		if err := s.batches.SaveAll(ctx, batches); err != nil {
			return err
		}

		for i := range arrival.Items {
			item := &arrival.Items[i]
			batch := &batches[i]
			item.BatchID = &batch.ID

			movement := inventory.NewStockMovement(item.ProductID, inventory.MovementArrival, item.Quantity).
				WithBatch(batch.ID).
				WithReference(arrival.ID, number)
			movement.CreatedBy = input.CreatedBy
			if err := s.movements.Save(ctx, movement); err != nil {
				return err
			}
			if err := s.products.AdjustStock(ctx, item.ProductID, item.Quantity, 0); err != nil {
				return err
			}
		}
		// Persist the batch backlinks set on the items
		return s.arrivals.Save(ctx, arrival)
	})
	if err != nil {
		return nil, nil, err
	}

	s.auditor.Record(ctx, "arrival", arrival.ID, audit.OperationArrival, input.CreatedBy, map[string]interface{}{
		"arrival_number": arrival.ArrivalNumber,
		"supplier":       arrival.Supplier,
		"lines":          len(arrival.Items),
		"total_quantity": arrival.TotalQuantity(),
	})
	s.logger.Info("arrival registered",
		zap.String("arrival_number", arrival.ArrivalNumber),
		zap.Int("lines", len(arrival.Items)),
		zap.Int("total_quantity", arrival.TotalQuantity()))
	return arrival, batches, nil
}

// GetArrival returns one arrival with its lines
func (s *ArrivalService) GetArrival(ctx context.Context, id uuid.UUID) (*inventory.Arrival, error) {
	return s.arrivals.FindByID(ctx, id)
}

// ListArrivals returns a page of arrival documents
func (s *ArrivalService) ListArrivals(ctx context.Context, filter shared.Filter) (*shared.Paginated[inventory.Arrival], error) {
	arrivals, err := s.arrivals.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.arrivals.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(arrivals, total, filter.Page, filter.PageSize)
	return &page, nil
}
