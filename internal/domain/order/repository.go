package order

import (
	"context"
	"time"

	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// Repository defines persistence operations for orders.
// Save persists the order together with its items and reservation lines.
type Repository interface {
	shared.Repository[Order]

	FindByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// ReplaceItems replaces all items and reservation lines of an order in
	// one transaction.
	ReplaceItems(ctx context.Context, order *Order) error

	// CountByDate counts orders created on a calendar day, used for the
	// YYYYMMDD-NNN order numbering.
	CountByDate(ctx context.Context, day time.Time) (int64, error)
}
