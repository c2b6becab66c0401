package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	shared.Repository[Product]

	FindByCode(ctx context.Context, code string) (*Product, error)

	// AdjustStock atomically applies deltas to the stock counters.
	// reservedDelta may be negative on release; the implementation must
	// guarantee counters never drop below zero.
	AdjustStock(ctx context.Context, id uuid.UUID, totalDelta, reservedDelta int) error
}
