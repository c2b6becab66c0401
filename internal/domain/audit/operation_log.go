package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// Operation names the action recorded in the log
type Operation string

const (
	OperationCreate       Operation = "CREATE"
	OperationUpdate       Operation = "UPDATE"
	OperationDelete       Operation = "DELETE"
	OperationStatusChange Operation = "STATUS_CHANGE"
	OperationReserve      Operation = "RESERVE"
	OperationRelease      Operation = "RELEASE"
	OperationWriteoff     Operation = "WRITEOFF"
	OperationArrival      Operation = "ARRIVAL"
	OperationShipment     Operation = "SHIPMENT"
)

// OperationLog is a single audit trail entry.
// Details holds a free-form JSON payload describing the change.
type OperationLog struct {
	shared.BaseEntity
	EntityType  string
	EntityID    uuid.UUID
	Operation   Operation
	PerformedBy string
	Details     string
	OccurredAt  time.Time
}

// TableName returns the database table name
func (OperationLog) TableName() string {
	return "operations_log"
}

// NewOperationLog creates a log entry dated now
func NewOperationLog(entityType string, entityID uuid.UUID, op Operation, performedBy string) *OperationLog {
	return &OperationLog{
		BaseEntity:  shared.NewBaseEntity(),
		EntityType:  entityType,
		EntityID:    entityID,
		Operation:   op,
		PerformedBy: performedBy,
		OccurredAt:  time.Now(),
	}
}

// WithDetails attaches a JSON payload describing the change
func (l *OperationLog) WithDetails(details string) *OperationLog {
	l.Details = details
	return l
}
