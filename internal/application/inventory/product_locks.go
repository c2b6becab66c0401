package inventory

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// productLocks serializes reservation traffic per product. Allocation
// reads batch state and then applies conditional updates; holding the
// product lock between the read and the writes keeps two orders for the
// same product from allocating the same batch quantity.
type productLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newProductLocks() *productLocks {
	return &productLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (p *productLocks) get(id uuid.UUID) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[id] = lock
	}
	return lock
}

// lockAll acquires locks for every product in a deterministic order and
// returns an unlock function. Sorting by ID prevents deadlock when two
// requests cover overlapping product sets.
func (p *productLocks) lockAll(ids []uuid.UUID) func() {
	unique := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	sorted := make([]uuid.UUID, 0, len(unique))
	for id := range unique {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	acquired := make([]*sync.Mutex, 0, len(sorted))
	for _, id := range sorted {
		lock := p.get(id)
		lock.Lock()
		acquired = append(acquired, lock)
	}
	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
}
