package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/audit"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/catalog"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
)

// fakeBatchRepository is an in-memory BatchRepository for service tests
type fakeBatchRepository struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*inventory.Batch

	// applyErr, when set, is returned by ApplyReservation for that batch
	applyErr map[uuid.UUID]error
}

func newFakeBatchRepository() *fakeBatchRepository {
	return &fakeBatchRepository{
		batches:  make(map[uuid.UUID]*inventory.Batch),
		applyErr: make(map[uuid.UUID]error),
	}
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
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []inventory.Batch
	for _, b := range f.batches {
		if b.ProductID == productID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBatchRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []inventory.Batch
	for _, b := range f.batches {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBatchRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.batches)), nil
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
	f.mu.Lock()
	defer f.mu.Unlock()
	threshold := at.AddDate(0, 0, withinDays)
	var out []inventory.Batch
	for _, b := range f.batches {
		if b.Status != inventory.BatchStatusActive || b.AvailableQuantity == 0 || b.ExpiryDate == nil {
			continue
		}
		if b.ExpiryDate.After(at) && !b.ExpiryDate.After(threshold) {
			out = append(out, *b)
		}
	}
	return out, nil
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
	if err, ok := f.applyErr[batchID]; ok {
		return err
	}
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
	f.mu.Lock()
	defer f.mu.Unlock()
	avail := &inventory.ProductAvailability{ProductID: productID}
	for _, b := range f.batches {
		if b.ProductID != productID || b.Status != inventory.BatchStatusActive || b.IsExpired(at) {
			continue
		}
		avail.TotalAvailable += b.AvailableQuantity
		avail.TotalReserved += b.ReservedQuantity
		avail.BatchesCount++
		if b.ExpiryDate != nil && (avail.NearestExpiry == nil || b.ExpiryDate.Before(*avail.NearestExpiry)) {
			expiry := *b.ExpiryDate
			avail.NearestExpiry = &expiry
		}
	}
	return avail, nil
}

var _ inventory.BatchRepository = (*fakeBatchRepository)(nil)

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
	if _, ok := f.products[id]; !ok {
		return shared.ErrNotFound
	}
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

// fakeMovementRepository records ledger entries in memory
type fakeMovementRepository struct {
	mu        sync.Mutex
	movements []inventory.StockMovement
}

func newFakeMovementRepository() *fakeMovementRepository {
	return &fakeMovementRepository{}
}

func (f *fakeMovementRepository) Save(ctx context.Context, movement *inventory.StockMovement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movements = append(f.movements, *movement)
	return nil
}

func (f *fakeMovementRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]inventory.StockMovement(nil), f.movements...), nil
}

func (f *fakeMovementRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []inventory.StockMovement
	for _, m := range f.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMovementRepository) ofType(t inventory.MovementType) []inventory.StockMovement {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []inventory.StockMovement
	for _, m := range f.movements {
		if m.MovementType == t {
			out = append(out, m)
		}
	}
	return out
}

var _ inventory.MovementRepository = (*fakeMovementRepository)(nil)

// fakeWriteoffRepository records writeoff documents in memory
type fakeWriteoffRepository struct {
	mu        sync.Mutex
	writeoffs map[uuid.UUID]*inventory.Writeoff
}

func newFakeWriteoffRepository() *fakeWriteoffRepository {
	return &fakeWriteoffRepository{writeoffs: make(map[uuid.UUID]*inventory.Writeoff)}
}

func (f *fakeWriteoffRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Writeoff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.writeoffs[id]; ok {
		copied := *w
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeWriteoffRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Writeoff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []inventory.Writeoff
	for _, w := range f.writeoffs {
		out = append(out, *w)
	}
	return out, nil
}

func (f *fakeWriteoffRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.writeoffs)), nil
}

func (f *fakeWriteoffRepository) Save(ctx context.Context, writeoff *inventory.Writeoff) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *writeoff
	f.writeoffs[writeoff.ID] = &copied
	return nil
}

var _ inventory.WriteoffRepository = (*fakeWriteoffRepository)(nil)

// fakeArrivalRepository records arrival documents in memory
type fakeArrivalRepository struct {
	mu       sync.Mutex
	arrivals map[uuid.UUID]*inventory.Arrival
}

func newFakeArrivalRepository() *fakeArrivalRepository {
	return &fakeArrivalRepository{arrivals: make(map[uuid.UUID]*inventory.Arrival)}
}

func (f *fakeArrivalRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Arrival, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.arrivals[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeArrivalRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Arrival, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []inventory.Arrival
	for _, a := range f.arrivals {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeArrivalRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.arrivals)), nil
}

func (f *fakeArrivalRepository) Save(ctx context.Context, arrival *inventory.Arrival) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *arrival
	copied.Items = append([]inventory.ArrivalItem(nil), arrival.Items...)
	f.arrivals[arrival.ID] = &copied
	return nil
}

func (f *fakeArrivalRepository) CountByDate(ctx context.Context, day time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.arrivals)), nil
}

var _ inventory.ArrivalRepository = (*fakeArrivalRepository)(nil)

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

// fakeTxManager runs the function without a real transaction
type fakeTxManager struct{}

func (fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ shared.TransactionManager = fakeTxManager{}
