package order

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/audit"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/catalog"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/order"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// fakeOrderRepository is an in-memory order.Repository
type fakeOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order

	// saveErr, when set, is returned by Save instead of storing
	saveErr error
}

func newFakeOrderRepository() *fakeOrderRepository {
	return &fakeOrderRepository{orders: make(map[uuid.UUID]*order.Order)}
}

func cloneOrder(o *order.Order) *order.Order {
	copied := *o
	copied.Items = append([]order.Item(nil), o.Items...)
	copied.Reservations = append([]order.ReservationLine(nil), o.Reservations...)
	return &copied
}

func (f *fakeOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		return cloneOrder(o), nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeOrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNumber == orderNumber {
			return cloneOrder(o), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []order.Order
	for _, o := range f.orders {
		out = append(out, *cloneOrder(o))
	}
	return out, nil
}

func (f *fakeOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.orders)), nil
}

func (f *fakeOrderRepository) Save(ctx context.Context, o *order.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.orders[o.ID] = cloneOrder(o)
	return nil
}

func (f *fakeOrderRepository) ReplaceItems(ctx context.Context, o *order.Order) error {
	return f.Save(ctx, o)
}

func (f *fakeOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

func (f *fakeOrderRepository) CountByDate(ctx context.Context, day time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.orders)), nil
}

var _ order.Repository = (*fakeOrderRepository)(nil)

// fakeProductRepository is an in-memory catalog.ProductRepository
type fakeProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*catalog.Product
}

func newFakeProductRepository() *fakeProductRepository {
	return &fakeProductRepository{products: make(map[uuid.UUID]*catalog.Product)}
}

func (f *fakeProductRepository) put(p *catalog.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *p
	f.products[p.ID] = &copied
}

func (f *fakeProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeProductRepository) FindByCode(ctx context.Context, code string) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.Code == code {
			copied := *p
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []catalog.Product
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.products)), nil
}

func (f *fakeProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	f.put(product)
	return nil
}

func (f *fakeProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, totalDelta, reservedDelta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.TotalStock += totalDelta
	if p.TotalStock < 0 {
		p.TotalStock = 0
	}
	p.ReservedStock += reservedDelta
	if p.ReservedStock < 0 {
		p.ReservedStock = 0
	}
	return nil
}

var _ catalog.ProductRepository = (*fakeProductRepository)(nil)

// fakeBatchRepository is an in-memory inventory.BatchRepository
type fakeBatchRepository struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*inventory.Batch
}

func newFakeBatchRepository() *fakeBatchRepository {
	return &fakeBatchRepository{batches: make(map[uuid.UUID]*inventory.Batch)}
}

func (f *fakeBatchRepository) put(b *inventory.Batch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *b
	f.batches[b.ID] = &copied
}

func (f *fakeBatchRepository) get(id uuid.UUID) *inventory.Batch {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.batches[id]; ok {
		copied := *b
		return &copied
	}
	return nil
}

func (f *fakeBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	if b := f.get(id); b != nil {
		return b, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeBatchRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.Batch, error) {
	return nil, nil
}

func (f *fakeBatchRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Batch, error) {
	return nil, nil
}

func (f *fakeBatchRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return 0, nil
}

func (f *fakeBatchRepository) FindAllocatable(ctx context.Context, productID uuid.UUID, at time.Time) ([]inventory.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []inventory.Batch
	for _, b := range f.batches {
		if b.ProductID == productID && b.IsAllocatable(at) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBatchRepository) FindExpiring(ctx context.Context, withinDays int, at time.Time) ([]inventory.Batch, error) {
	return nil, nil
}

func (f *fakeBatchRepository) Save(ctx context.Context, batch *inventory.Batch) error {
	f.put(batch)
	return nil
}

func (f *fakeBatchRepository) SaveAll(ctx context.Context, batches []inventory.Batch) error {
	for i := range batches {
		f.put(&batches[i])
	}
	return nil
}

func (f *fakeBatchRepository) ApplyReservation(ctx context.Context, batchID uuid.UUID, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[batchID]
	if !ok {
		return shared.ErrNotFound
	}
	if b.AvailableQuantity < quantity {
		return shared.ErrConcurrencyConflict
	}
	b.AvailableQuantity -= quantity
	b.ReservedQuantity += quantity
	return nil
}

func (f *fakeBatchRepository) ReleaseReservation(ctx context.Context, batchID uuid.UUID, quantity int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[batchID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	release := quantity
	if release > b.ReservedQuantity {
		release = b.ReservedQuantity
	}
	b.ReservedQuantity -= release
	b.AvailableQuantity += release
	return release, nil
}

func (f *fakeBatchRepository) ConsumeReserved(ctx context.Context, batchID uuid.UUID, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[batchID]
	if !ok {
		return shared.ErrNotFound
	}
	if b.ReservedQuantity < quantity {
		return shared.ErrConcurrencyConflict
	}
	b.ReservedQuantity -= quantity
	return nil
}

func (f *fakeBatchRepository) Availability(ctx context.Context, productID uuid.UUID, at time.Time) (*inventory.ProductAvailability, error) {
	return &inventory.ProductAvailability{ProductID: productID}, nil
}

var _ inventory.BatchRepository = (*fakeBatchRepository)(nil)

// fakeMovementRepository discards ledger entries
type fakeMovementRepository struct{}

func (fakeMovementRepository) Save(ctx context.Context, movement *inventory.StockMovement) error {
	return nil
}

func (fakeMovementRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockMovement, error) {
	return nil, nil
}

func (fakeMovementRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	return nil, nil
}

var _ inventory.MovementRepository = fakeMovementRepository{}

// fakeAuditRepository discards audit entries
type fakeAuditRepository struct{}

func (fakeAuditRepository) Save(ctx context.Context, entry *audit.OperationLog) error {
	return nil
}

func (fakeAuditRepository) FindAll(ctx context.Context, filter shared.Filter) ([]audit.OperationLog, error) {
	return nil, nil
}

func (fakeAuditRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return 0, nil
}

var _ audit.Repository = fakeAuditRepository{}

// fakeIdempotencyStore remembers processed keys in memory
type fakeIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{keys: make(map[string]bool)}
}

func (f *fakeIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[key], nil
}

func (f *fakeIdempotencyStore) Forget(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
	return nil
}

func (f *fakeIdempotencyStore) Close() error {
	return nil
}

var _ shared.IdempotencyStore = (*fakeIdempotencyStore)(nil)
