package audit

import (
	"context"

	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// Repository defines persistence operations for the operations log
type Repository interface {
	Save(ctx context.Context, entry *OperationLog) error
	FindAll(ctx context.Context, filter shared.Filter) ([]OperationLog, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
