package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// AllocationRequestItem asks for a quantity of one product
type AllocationRequestItem struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
}

// AllocationRequest asks for quantities across products
type AllocationRequest struct {
	Items []AllocationRequestItem
}

// Validate checks the request for structural problems. Non-positive
// quantities are not an error here; Allocate skips them with a warning.
func (r *AllocationRequest) Validate() error {
	if len(r.Items) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "allocation request has no items")
	}
	seen := make(map[uuid.UUID]bool, len(r.Items))
	for _, item := range r.Items {
		if item.ProductID == uuid.Nil {
			return shared.NewDomainError("INVALID_INPUT", "allocation item has no product")
		}
		if seen[item.ProductID] {
			return shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("product %s appears more than once in allocation request", item.ProductID))
		}
		seen[item.ProductID] = true
	}
	return nil
}

// BatchSelection is one slice of an allocation taken from a single batch
type BatchSelection struct {
	BatchID     uuid.UUID `json:"batch_id"`
	BatchNumber string    `json:"batch_number"`
	BatchDate   time.Time `json:"batch_date"`
	Quantity    int       `json:"quantity"`
}

// ProductAllocation is the allocation outcome for one product
type ProductAllocation struct {
	ProductID   uuid.UUID        `json:"product_id"`
	ProductName string           `json:"product_name"`
	Requested   int              `json:"requested"`
	Reserved    int              `json:"reserved"`
	Shortage    int              `json:"shortage"`
	Selections  []BatchSelection `json:"selections"`
}

// AllocationSummary aggregates an allocation run
type AllocationSummary struct {
	TotalRequested   int `json:"total_requested"`
	TotalReserved    int `json:"total_reserved"`
	Shortage         int `json:"shortage"`
	ProductsCount    int `json:"products_count"`
	BatchesAllocated int `json:"batches_allocated"`
}

// AllocationResult is the outcome of a FIFO allocation run.
// Shortages are reported through Warnings; they never fail the run.
type AllocationResult struct {
	Allocations []ProductAllocation `json:"allocations"`
	Warnings    []string            `json:"warnings"`
	Summary     AllocationSummary   `json:"summary"`
}

// HasShortage reports whether any product could not be fully covered
func (r *AllocationResult) HasShortage() bool {
	return r.Summary.Shortage > 0
}

// FIFOAllocator distributes requested quantities across batches oldest-first.
// It is pure: callers load candidate batches and persist the outcome.
type FIFOAllocator struct{}

// NewFIFOAllocator creates a FIFO allocator
func NewFIFOAllocator() *FIFOAllocator {
	return &FIFOAllocator{}
}

// Allocate runs the allocation for every item in the request.
// batchesByProduct holds the candidate batches per product; ineligible
// batches (expired, depleted, zero available) are filtered out here, so
// callers may pass unfiltered sets. Items with a non-positive quantity
// are skipped with a warning; they never fail the other items.
func (a *FIFOAllocator) Allocate(req AllocationRequest, batchesByProduct map[uuid.UUID][]Batch, at time.Time) (*AllocationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result := &AllocationResult{
		Allocations: make([]ProductAllocation, 0, len(req.Items)),
		Warnings:    []string{},
	}

	for _, item := range req.Items {
		if item.Quantity <= 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Товар %s: кількість 0, пропущено", item.ProductName))
			continue
		}
		alloc := a.allocateProduct(item, batchesByProduct[item.ProductID], at)
		result.Allocations = append(result.Allocations, alloc)

		result.Summary.TotalRequested += alloc.Requested
		result.Summary.TotalReserved += alloc.Reserved
		result.Summary.Shortage += alloc.Shortage
		result.Summary.BatchesAllocated += len(alloc.Selections)

		if alloc.Shortage > 0 {
			if len(alloc.Selections) == 0 {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Товар %s: немає доступних партій", alloc.ProductName))
			} else {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Товар %s: недостатньо партій (не вистачає %d шт)", alloc.ProductName, alloc.Shortage))
			}
		}
	}

	result.Summary.ProductsCount = len(result.Allocations)
	return result, nil
}

// allocateProduct walks eligible batches oldest-first and greedily takes
// min(remaining, available) until the request is covered or batches run out
func (a *FIFOAllocator) allocateProduct(item AllocationRequestItem, batches []Batch, at time.Time) ProductAllocation {
	alloc := ProductAllocation{
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Requested:   item.Quantity,
		Selections:  []BatchSelection{},
	}

	eligible := make([]Batch, 0, len(batches))
	for _, b := range batches {
		if b.IsAllocatable(at) {
			eligible = append(eligible, b)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].BatchDate.Equal(eligible[j].BatchDate) {
			return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
		}
		return eligible[i].BatchDate.Before(eligible[j].BatchDate)
	})

	remaining := item.Quantity
	for _, b := range eligible {
		if remaining == 0 {
			break
		}
		take := remaining
		if take > b.AvailableQuantity {
			take = b.AvailableQuantity
		}
		alloc.Selections = append(alloc.Selections, BatchSelection{
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			BatchDate:   b.BatchDate,
			Quantity:    take,
		})
		remaining -= take
	}

	alloc.Reserved = item.Quantity - remaining
	alloc.Shortage = remaining
	return alloc
}
