package handler

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// parseUUIDField parses a UUID string from a request body field
func parseUUIDField(value, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("%s is not a valid UUID", field))
	}
	return id, nil
}
