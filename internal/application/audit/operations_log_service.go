package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/audit"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// Service writes and reads the operations log. Recording is best effort:
// a failed audit write is logged and swallowed so it never fails the
// business operation it describes.
type Service struct {
	repo   audit.Repository
	logger *zap.Logger
}

// NewService creates an audit Service
func NewService(repo audit.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends an entry to the operations log
func (s *Service) Record(ctx context.Context, entityType string, entityID uuid.UUID, operation audit.Operation, performedBy string, details map[string]interface{}) {
	entry := audit.NewOperationLog(entityType, entityID, operation, performedBy)

	if len(details) > 0 {
		payload, err := json.Marshal(details)
		if err != nil {
			s.logger.Warn("audit details not serializable", zap.Error(err))
		} else {
			entry = entry.WithDetails(string(payload))
		}
	}

	if err := s.repo.Save(ctx, entry); err != nil {
		s.logger.Warn("operation not recorded in audit log",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID.String()),
			zap.String("operation", string(operation)),
			zap.Error(err))
	}
}

// List returns a page of log entries
func (s *Service) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[audit.OperationLog], error) {
	def := shared.DefaultFilter()
	if filter.Page <= 0 {
		filter.Page = def.Page
	}
	if filter.PageSize <= 0 {
		filter.PageSize = def.PageSize
	}

	entries, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(entries, total, filter.Page, filter.PageSize)
	return &page, nil
}
