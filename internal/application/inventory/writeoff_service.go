package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	appaudit "github.com/usv008/pizza-inventory-system-sub003/internal/application/audit"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/audit"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/catalog"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// WriteoffInput describes stock to remove from a batch
type WriteoffInput struct {
	BatchID     uuid.UUID
	Quantity    int
	Reason      inventory.WriteoffReason
	Responsible string
	Notes       string
	PerformedBy string
}

// WriteoffService removes spoiled or damaged stock from a batch. The
// batch update, the writeoff document, the ledger entry and the product
// counter move together in one transaction.
type WriteoffService struct {
	writeoffs inventory.WriteoffRepository
	batches   inventory.BatchRepository
	products  catalog.ProductRepository
	movements inventory.MovementRepository
	tx        shared.TransactionManager
	auditor   *appaudit.Service
	logger    *zap.Logger
	now       func() time.Time
}

// WriteoffOption configures a WriteoffService
type WriteoffOption func(*WriteoffService)

// WithWriteoffClock overrides the time source, for tests
func WithWriteoffClock(now func() time.Time) WriteoffOption {
	return func(s *WriteoffService) {
		s.now = now
	}
}

// NewWriteoffService creates a WriteoffService
func NewWriteoffService(
	writeoffs inventory.WriteoffRepository,
	batches inventory.BatchRepository,
	products catalog.ProductRepository,
	movements inventory.MovementRepository,
	tx shared.TransactionManager,
	auditor *appaudit.Service,
	logger *zap.Logger,
	opts ...WriteoffOption,
) *WriteoffService {
	s := &WriteoffService{
		writeoffs: writeoffs,
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

// WriteOff removes quantity from the batch's available stock. Reserved
// quantity is never touched; a batch fully consumed by reservations
// cannot be written off until the reservations are released.
func (s *WriteoffService) WriteOff(ctx context.Context, input WriteoffInput) (*inventory.Writeoff, error) {
	var writeoff *inventory.Writeoff

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		batch, err := s.batches.FindByID(ctx, input.BatchID)
		if err != nil {
			return err
		}
		if err := batch.WriteOff(input.Quantity); err != nil {
			return err
		}
		if err := s.batches.Save(ctx, batch); err != nil {
			return err
		}

		writeoff, err = inventory.NewWriteoff(batch.ProductID, batch.ID, input.Quantity, input.Reason, input.Responsible)
		if err != nil {
			return err
		}
		writeoff.Notes = input.Notes
		writeoff.WriteoffDate = s.now()
		if err := s.writeoffs.Save(ctx, writeoff); err != nil {
			return err
		}

		movement := inventory.NewStockMovement(batch.ProductID, inventory.MovementWriteoff, -input.Quantity).
			WithBatch(batch.ID).
			WithReference(writeoff.ID, "WRITEOFF")
		movement.CreatedBy = input.PerformedBy
		movement.Notes = input.Notes
		if err := s.movements.Save(ctx, movement); err != nil {
			return err
		}
		return s.products.AdjustStock(ctx, batch.ProductID, -input.Quantity, 0)
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "writeoff", writeoff.ID, audit.OperationWriteoff, input.PerformedBy, map[string]interface{}{
		"batch_id": input.BatchID.String(),
		"quantity": input.Quantity,
		"reason":   string(input.Reason),
	})
	s.logger.Info("stock written off",
		zap.String("batch_id", input.BatchID.String()),
		zap.Int("quantity", input.Quantity),
		zap.String("reason", string(input.Reason)))
	return writeoff, nil
}

// GetWriteoff returns one writeoff document
func (s *WriteoffService) GetWriteoff(ctx context.Context, id uuid.UUID) (*inventory.Writeoff, error) {
	return s.writeoffs.FindByID(ctx, id)
}

// ListWriteoffs returns a page of writeoff documents
func (s *WriteoffService) ListWriteoffs(ctx context.Context, filter shared.Filter) (*shared.Paginated[inventory.Writeoff], error) {
	writeoffs, err := s.writeoffs.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.writeoffs.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(writeoffs, total, filter.Page, filter.PageSize)
	return &page, nil
}
