package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/catalog"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// ApplySummary aggregates the outcome of applying an allocation to storage
type ApplySummary struct {
	TotalApplied   int      `json:"total_applied"`
	BatchesUpdated int      `json:"batches_updated"`
	ErrorsCount    int      `json:"errors_count"`
	Errors         []string `json:"errors,omitempty"`
}

// ReleaseSummary aggregates a reservation release
type ReleaseSummary struct {
	TotalReleased  int `json:"total_released"`
	BatchesUpdated int `json:"batches_updated"`
}

// ReservationLine identifies reserved quantity on one batch
type ReservationLine struct {
	ProductID uuid.UUID
	BatchID   uuid.UUID
	Quantity  int
}

// ReservationService runs FIFO allocation against live batch stock.
// Reads and conditional writes for a product happen under that product's
// lock, so concurrent requests cannot both allocate the same quantity.
type ReservationService struct {
	batches   inventory.BatchRepository
	products  catalog.ProductRepository
	movements inventory.MovementRepository
	allocator *inventory.FIFOAllocator
	locks     *productLocks
	logger    *zap.Logger
	now       func() time.Time
}

// ReservationOption configures a ReservationService
type ReservationOption func(*ReservationService)

// WithReservationClock overrides the time source, for tests
func WithReservationClock(now func() time.Time) ReservationOption {
	return func(s *ReservationService) {
		s.now = now
	}
}

// NewReservationService creates a ReservationService
func NewReservationService(
	batches inventory.BatchRepository,
	products catalog.ProductRepository,
	movements inventory.MovementRepository,
	logger *zap.Logger,
	opts ...ReservationOption,
) *ReservationService {
	s := &ReservationService{
		batches:   batches,
		products:  products,
		movements: movements,
		allocator: inventory.NewFIFOAllocator(),
		locks:     newProductLocks(),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preview runs the allocation without touching stock
func (s *ReservationService) Preview(ctx context.Context, req inventory.AllocationRequest) (*inventory.AllocationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	at := s.now()
	candidates, err := s.loadCandidates(ctx, req, at)
	if err != nil {
		return nil, err
	}
	return s.allocator.Allocate(req, candidates, at)
}

// Reserve allocates and applies reservations for the request. Shortages
// surface as warnings on the result; per-batch apply failures (a concurrent
// request winning the same quantity) are collected in the summary instead
// of failing the whole call.
func (s *ReservationService) Reserve(ctx context.Context, req inventory.AllocationRequest, refID uuid.UUID, reference, performedBy string) (*inventory.AllocationResult, *ApplySummary, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}
	unlock := s.locks.lockAll(ids)
	defer unlock()

	at := s.now()
	candidates, err := s.loadCandidates(ctx, req, at)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.allocator.Allocate(req, candidates, at)
	if err != nil {
		return nil, nil, err
	}

	summary := &ApplySummary{}
	for i := range result.Allocations {
		alloc := &result.Allocations[i]
		applied := 0
		kept := alloc.Selections[:0]

		for _, sel := range alloc.Selections {
			if err := s.batches.ApplyReservation(ctx, sel.BatchID, sel.Quantity); err != nil {
				summary.ErrorsCount++
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("партія %s: %s", sel.BatchNumber, applyErrorText(err)))
				s.logger.Warn("batch reservation not applied",
					zap.String("batch_id", sel.BatchID.String()),
					zap.Int("quantity", sel.Quantity),
					zap.Error(err))
				continue
			}
			kept = append(kept, sel)
			applied += sel.Quantity
			summary.BatchesUpdated++

			movement := inventory.NewStockMovement(alloc.ProductID, inventory.MovementReserve, -sel.Quantity).
				WithBatch(sel.BatchID).
				WithReference(refID, reference)
			movement.CreatedBy = performedBy
			if err := s.movements.Save(ctx, movement); err != nil {
				s.logger.Warn("stock movement not recorded", zap.Error(err))
			}
		}

		// Selections that lost the race come back as shortage
		lost := alloc.Reserved - applied
		alloc.Selections = kept
		alloc.Reserved = applied
		alloc.Shortage += lost
		result.Summary.TotalReserved -= lost
		result.Summary.Shortage += lost
		summary.TotalApplied += applied

		if applied > 0 {
			if err := s.products.AdjustStock(ctx, alloc.ProductID, 0, applied); err != nil {
				s.logger.Warn("product reserved counter not adjusted",
					zap.String("product_id", alloc.ProductID.String()),
					zap.Error(err))
			}
		}
	}
	result.Summary.BatchesAllocated = summary.BatchesUpdated

	return result, summary, nil
}

// Release returns reserved quantity back to available. Quantities are
// clamped to what each batch still holds reserved, so releasing the same
// lines twice is a no-op.
func (s *ReservationService) Release(ctx context.Context, lines []ReservationLine, refID uuid.UUID, reference, performedBy string) (*ReleaseSummary, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	unlock := s.locks.lockAll(ids)
	defer unlock()

	summary := &ReleaseSummary{}
	for _, line := range lines {
		released, err := s.batches.ReleaseReservation(ctx, line.BatchID, line.Quantity)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return summary, err
		}
		if released == 0 {
			continue
		}
		summary.TotalReleased += released
		summary.BatchesUpdated++

		movement := inventory.NewStockMovement(line.ProductID, inventory.MovementRelease, released).
			WithBatch(line.BatchID).
			WithReference(refID, reference)
		movement.CreatedBy = performedBy
		if err := s.movements.Save(ctx, movement); err != nil {
			s.logger.Warn("stock movement not recorded", zap.Error(err))
		}
		if err := s.products.AdjustStock(ctx, line.ProductID, 0, -released); err != nil {
			s.logger.Warn("product reserved counter not adjusted",
				zap.String("product_id", line.ProductID.String()),
				zap.Error(err))
		}
	}
	return summary, nil
}

// Consume permanently removes reserved quantity (shipment). Unlike
// Release this is strict: the reserved quantity must still be there.
func (s *ReservationService) Consume(ctx context.Context, lines []ReservationLine, refID uuid.UUID, reference, performedBy string) error {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	unlock := s.locks.lockAll(ids)
	defer unlock()

	for _, line := range lines {
		if err := s.batches.ConsumeReserved(ctx, line.BatchID, line.Quantity); err != nil {
			return err
		}

		movement := inventory.NewStockMovement(line.ProductID, inventory.MovementShipment, -line.Quantity).
			WithBatch(line.BatchID).
			WithReference(refID, reference)
		movement.CreatedBy = performedBy
		if err := s.movements.Save(ctx, movement); err != nil {
			s.logger.Warn("stock movement not recorded", zap.Error(err))
		}
		if err := s.products.AdjustStock(ctx, line.ProductID, -line.Quantity, -line.Quantity); err != nil {
			s.logger.Warn("product counters not adjusted",
				zap.String("product_id", line.ProductID.String()),
				zap.Error(err))
		}
	}
	return nil
}

func (s *ReservationService) loadCandidates(ctx context.Context, req inventory.AllocationRequest, at time.Time) (map[uuid.UUID][]inventory.Batch, error) {
	candidates := make(map[uuid.UUID][]inventory.Batch, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			continue
		}
		batches, err := s.batches.FindAllocatable(ctx, item.ProductID, at)
		if err != nil {
			return nil, err
		}
		candidates[item.ProductID] = batches
	}
	return candidates, nil
}

func applyErrorText(err error) string {
	switch {
	case errors.Is(err, shared.ErrConcurrencyConflict):
		return "кількість вже зарезервована іншим замовленням"
	case errors.Is(err, shared.ErrNotFound):
		return "партію не знайдено"
	default:
		return err.Error()
	}
}
