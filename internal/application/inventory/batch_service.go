package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// ExpiryUrgency ranks how soon an expiring batch needs attention
type ExpiryUrgency string

const (
	UrgencyCritical ExpiryUrgency = "critical" // 3 days or less
	UrgencyWarning  ExpiryUrgency = "warning"  // 7 days or less
	UrgencyNotice   ExpiryUrgency = "notice"
)

// ExpiringBatch is a batch approaching its expiry date
type ExpiringBatch struct {
	Batch    inventory.Batch `json:"batch"`
	DaysLeft int             `json:"days_left"`
	Urgency  ExpiryUrgency   `json:"urgency"`
}

// BatchService exposes read operations over batch stock
type BatchService struct {
	batches inventory.BatchRepository
	logger  *zap.Logger
	now     func() time.Time
}

// BatchOption configures a BatchService
type BatchOption func(*BatchService)

// WithBatchClock overrides the time source, for tests
func WithBatchClock(now func() time.Time) BatchOption {
	return func(s *BatchService) {
		s.now = now
	}
}

// NewBatchService creates a BatchService
func NewBatchService(batches inventory.BatchRepository, logger *zap.Logger, opts ...BatchOption) *BatchService {
	s := &BatchService{
		batches: batches,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetBatch returns one batch. Batches past their expiry date are
// reported as EXPIRED even when the stored status is stale.
func (s *BatchService) GetBatch(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if batch.Status == inventory.BatchStatusActive && batch.IsExpired(s.now()) {
		batch.MarkExpired()
	}
	return batch, nil
}

// ListBatches returns a page of batches
func (s *BatchService) ListBatches(ctx context.Context, filter shared.Filter) (*shared.Paginated[inventory.Batch], error) {
	batches, err := s.batches.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.batches.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(batches, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListByProduct returns batches of one product
func (s *BatchService) ListByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.Batch, error) {
	return s.batches.FindByProduct(ctx, productID, filter)
}

// Expiring returns batches with stock expiring within the given days,
// soonest first, each tagged with an urgency level
func (s *BatchService) Expiring(ctx context.Context, withinDays int) ([]ExpiringBatch, error) {
	if withinDays <= 0 {
		withinDays = 7
	}
	at := s.now()

	batches, err := s.batches.FindExpiring(ctx, withinDays, at)
	if err != nil {
		return nil, err
	}

	expiring := make([]ExpiringBatch, 0, len(batches))
	for _, b := range batches {
		days, ok := b.DaysUntilExpiry(at)
		if !ok {
			continue
		}
		expiring = append(expiring, ExpiringBatch{
			Batch:    b,
			DaysLeft: days,
			Urgency:  urgencyFor(days),
		})
	}
	return expiring, nil
}

// Availability aggregates stock across the product's active batches
func (s *BatchService) Availability(ctx context.Context, productID uuid.UUID) (*inventory.ProductAvailability, error) {
	return s.batches.Availability(ctx, productID, s.now())
}

func urgencyFor(daysLeft int) ExpiryUrgency {
	switch {
	case daysLeft <= 3:
		return UrgencyCritical
	case daysLeft <= 7:
		return UrgencyWarning
	default:
		return UrgencyNotice
	}
}
