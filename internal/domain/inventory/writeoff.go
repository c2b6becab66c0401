package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// WriteoffReason classifies why stock was written off
type WriteoffReason string

const (
	WriteoffReasonExpired  WriteoffReason = "EXPIRED"
	WriteoffReasonDamaged  WriteoffReason = "DAMAGED"
	WriteoffReasonQuality  WriteoffReason = "QUALITY"
	WriteoffReasonShortage WriteoffReason = "SHORTAGE"
	WriteoffReasonOther    WriteoffReason = "OTHER"
)

// IsValid checks if the reason is one of the known values
func (r WriteoffReason) IsValid() bool {
	switch r {
	case WriteoffReasonExpired, WriteoffReasonDamaged, WriteoffReasonQuality,
		WriteoffReasonShortage, WriteoffReasonOther:
		return true
	}
	return false
}

// Writeoff is a document recording stock removed from a specific batch
type Writeoff struct {
	shared.BaseEntity
	ProductID    uuid.UUID
	BatchID      uuid.UUID
	Quantity     int
	Reason       WriteoffReason
	Responsible  string
	WriteoffDate time.Time
	Notes        string
}

// TableName returns the database table name
func (Writeoff) TableName() string {
	return "writeoffs"
}

// NewWriteoff creates a writeoff document
func NewWriteoff(productID, batchID uuid.UUID, quantity int, reason WriteoffReason, responsible string) (*Writeoff, error) {
	if productID == uuid.Nil || batchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "writeoff requires product and batch")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "writeoff quantity must be positive")
	}
	if !reason.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown writeoff reason")
	}
	if strings.TrimSpace(responsible) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "writeoff responsible person is required")
	}

	return &Writeoff{
		BaseEntity:   shared.NewBaseEntity(),
		ProductID:    productID,
		BatchID:      batchID,
		Quantity:     quantity,
		Reason:       reason,
		Responsible:  strings.TrimSpace(responsible),
		WriteoffDate: time.Now(),
	}, nil
}
