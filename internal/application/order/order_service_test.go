package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appaudit "github.com/usv008/pizza-inventory-system-sub003/internal/application/audit"
	appinventory "github.com/usv008/pizza-inventory-system-sub003/internal/application/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/catalog"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/order"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

type orderFixture struct {
	orders      *fakeOrderRepository
	products    *fakeProductRepository
	batches     *fakeBatchRepository
	idempotency *fakeIdempotencyStore
	service     *Service
}

func newOrderFixture(t *testing.T, now time.Time) *orderFixture {
	t.Helper()
	f := &orderFixture{
		orders:      newFakeOrderRepository(),
		products:    newFakeProductRepository(),
		batches:     newFakeBatchRepository(),
		idempotency: newFakeIdempotencyStore(),
	}
	logger := zap.NewNop()
	reservations := appinventory.NewReservationService(
		f.batches, f.products, fakeMovementRepository{}, logger,
		appinventory.WithReservationClock(func() time.Time { return now }),
	)
	auditor := appaudit.NewService(fakeAuditRepository{}, logger)
	f.service = NewService(
		f.orders, f.products, reservations,
		f.idempotency, shared.IdempotencyConfig{TTL: time.Hour, Enabled: true},
		auditor, logger,
		WithClock(func() time.Time { return now }),
	)
	return f
}

func (f *orderFixture) addProduct(t *testing.T, name string, code string) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(name, code, catalog.CategoryPizza, decimal.NewFromInt(185), 10)
	require.NoError(t, err)
	f.products.put(product)
	return product
}

func (f *orderFixture) addBatch(t *testing.T, productID uuid.UUID, batchDate time.Time, quantity int) *inventory.Batch {
	t.Helper()
	batch, err := inventory.NewBatch(productID, "B-"+uuid.NewString()[:8], batchDate, quantity, nil)
	require.NoError(t, err)
	f.batches.put(batch)
	return batch
}

func TestOrderServiceCreateOrderReservesStock(t *testing.T) {
	now := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, now)
	product := f.addProduct(t, "Пепероні", "PZ-001")
	older := f.addBatch(t, product.ID, now.AddDate(0, 0, -10), 10)
	newer := f.addBatch(t, product.ID, now.AddDate(0, 0, -5), 10)

	result, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "Кафе Марія",
		CreatedBy:    "tester",
		Items:        []ItemInput{{ProductID: product.ID, Quantity: 15}},
	})
	require.NoError(t, err)

	o := result.Order
	assert.Equal(t, "20260420-001", o.OrderNumber)
	assert.Equal(t, order.StatusNew, o.Status)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Пепероні", o.Items[0].ProductName)
	assert.Equal(t, 1, o.Items[0].Boxes)

	require.Len(t, o.Reservations, 2)
	assert.Equal(t, older.ID, o.Reservations[0].BatchID)
	assert.Equal(t, 10, o.Reservations[0].Quantity)
	assert.Equal(t, newer.ID, o.Reservations[1].BatchID)
	assert.Equal(t, 5, o.Reservations[1].Quantity)
	assert.Equal(t, o.Items[0].ID, o.Reservations[0].OrderItemID)

	assert.False(t, result.Allocation.HasShortage())
	assert.Equal(t, 15, result.Apply.TotalApplied)

	saved, err := f.orders.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Len(t, saved.Reservations, 2)
}

func TestOrderServiceCreateOrderNumbersPerDay(t *testing.T) {
	now := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, now)
	product := f.addProduct(t, "Пепероні", "PZ-001")
	f.addBatch(t, product.ID, now.AddDate(0, 0, -10), 100)

	for i, want := range []string{"20260420-001", "20260420-002", "20260420-003"} {
		result, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
			CustomerName: "Кафе Марія",
			CreatedBy:    "tester",
			Items:        []ItemInput{{ProductID: product.ID, Quantity: i + 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, want, result.Order.OrderNumber)
	}

	found, err := f.service.GetByNumber(context.Background(), "20260420-002")
	require.NoError(t, err)
	assert.Equal(t, "20260420-002", found.OrderNumber)
}

func TestOrderServiceCreateOrderWithShortageSucceedsWithWarning(t *testing.T) {
	now := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, now)
	product := f.addProduct(t, "Гавайська", "PZ-002")
	f.addBatch(t, product.ID, now.AddDate(0, 0, -10), 5)

	result, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "Кафе Марія",
		CreatedBy:    "tester",
		Items:        []ItemInput{{ProductID: product.ID, Quantity: 12}},
	})
	require.NoError(t, err)

	assert.True(t, result.Allocation.HasShortage())
	require.Len(t, result.Allocation.Warnings, 1)
	assert.Equal(t, "Товар Гавайська: недостатньо партій (не вистачає 7 шт)", result.Allocation.Warnings[0])
	assert.Len(t, result.Order.Reservations, 1)
}

func TestOrderServiceCreateOrderIdempotencyKey(t *testing.T) {
	now := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, now)
	product := f.addProduct(t, "Пепероні", "PZ-001")
	f.addBatch(t, product.ID, now.AddDate(0, 0, -10), 100)

	input := CreateOrderInput{
		CustomerName:   "Кафе Марія",
		CreatedBy:      "tester",
		IdempotencyKey: "req-42",
		Items:          []ItemInput{{ProductID: product.ID, Quantity: 5}},
	}

	_, err := f.service.CreateOrder(context.Background(), input)
	require.NoError(t, err)

	_, err = f.service.CreateOrder(context.Background(), input)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestOrderServiceIdempotencyKeyFreedWhenSaveFails(t *testing.T) {
	now := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, now)
	product := f.addProduct(t, "Пепероні", "PZ-001")
	batch := f.addBatch(t, product.ID, now.AddDate(0, 0, -10), 20)

	input := CreateOrderInput{
		CustomerName:   "Кафе Марія",
		CreatedBy:      "tester",
		IdempotencyKey: "req-7",
		Items:          []ItemInput{{ProductID: product.ID, Quantity: 5}},
	}

	f.orders.saveErr = errors.New("connection lost")
	_, err := f.service.CreateOrder(context.Background(), input)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateRequest)
	assert.Zero(t, f.batches.get(batch.ID).ReservedQuantity)

	// The retry with the same key must not be treated as a duplicate
	f.orders.saveErr = nil
	result, err := f.service.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "20260420-001", result.Order.OrderNumber)
	assert.Equal(t, 5, f.batches.get(batch.ID).ReservedQuantity)
}

func TestOrderServiceReserveStockRetriesAfterNewArrival(t *testing.T) {
	now := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, now)
	product := f.addProduct(t, "Пепероні", "PZ-001")
	short := f.addBatch(t, product.ID, now.AddDate(0, 0, -10), 5)

	created, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "Кафе Марія",
		CreatedBy:    "tester",
		Items:        []ItemInput{{ProductID: product.ID, Quantity: 12}},
	})
	require.NoError(t, err)
	assert.True(t, created.Allocation.HasShortage())

	// New stock arrives and the operator re-runs the reservation
	fresh := f.addBatch(t, product.ID, now.AddDate(0, 0, -1), 20)

	result, err := f.service.ReserveStock(context.Background(), created.Order.ID, "tester")
	require.NoError(t, err)
	assert.False(t, result.Allocation.HasShortage())
	assert.Equal(t, 12, result.Allocation.Summary.TotalReserved)
	require.Len(t, result.Order.Reservations, 2)
	assert.Equal(t, 5, f.batches.get(short.ID).ReservedQuantity)
	assert.Equal(t, 7, f.batches.get(fresh.ID).ReservedQuantity)
}

func TestOrderServiceReserveStockForbiddenInProduction(t *testing.T) {
	now := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, now)
	product := f.addProduct(t, "Пепероні", "PZ-001")
	f.addBatch(t, product.ID, now.AddDate(0, 0, -10), 20)

	created, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "Кафе Марія",
		CreatedBy:    "tester",
		Items:        []ItemInput{{ProductID: product.ID, Quantity: 5}},
	})
	require.NoError(t, err)
	id := created.Order.ID

	_, err = f.service.ChangeStatus(context.Background(), id, order.StatusConfirmed, "tester")
	require.NoError(t, err)
	_, err = f.service.ChangeStatus(context.Background(), id, order.StatusInProduction, "tester")
	require.NoError(t, err)

	_, err = f.service.ReserveStock(context.Background(), id, "tester")
	assert.Error(t, err)
}

func TestOrderServiceReleaseStockFreesHolds(t *testing.T) {
	now := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, now)
	product := f.addProduct(t, "Пепероні", "PZ-001")
	batch := f.addBatch(t, product.ID, now.AddDate(0, 0, -10), 20)

	created, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "Кафе Марія",
		CreatedBy:    "tester",
		Items:        []ItemInput{{ProductID: product.ID, Quantity: 8}},
	})
	require.NoError(t, err)

	released, err := f.service.ReleaseStock(context.Background(), created.Order.ID, "tester")
	require.NoError(t, err)
	assert.Equal(t, order.StatusNew, released.Status)
	assert.Empty(t, released.Reservations)
	assert.Equal(t, 20, f.batches.get(batch.ID).AvailableQuantity)
	assert.Zero(t, f.batches.get(batch.ID).ReservedQuantity)
}

func TestOrderServiceCancelReleasesReservations(t *testing.T) {
	now := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, now)
	product := f.addProduct(t, "Пепероні", "PZ-001")
	batch := f.addBatch(t, product.ID, now.AddDate(0, 0, -10), 20)

	result, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "Кафе Марія",
		CreatedBy:    "tester",
		Items:        []ItemInput{{ProductID: product.ID, Quantity: 8}},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, f.batches.get(batch.ID).ReservedQuantity)

	cancelled, err := f.service.ChangeStatus(context.Background(), result.Order.ID, order.StatusCancelled, "tester")
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)
	assert.Empty(t, cancelled.Reservations)

	assert.Equal(t, 20, f.batches.get(batch.ID).AvailableQuantity)
	assert.Zero(t, f.batches.get(batch.ID).ReservedQuantity)
}

func TestOrderServiceShipConsumesReservations(t *testing.T) {
	now := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, now)
	product := f.addProduct(t, "Пепероні", "PZ-001")
	product.TotalStock = 20
	f.products.put(product)
	batch := f.addBatch(t, product.ID, now.AddDate(0, 0, -10), 20)

	result, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "Кафе Марія",
		CreatedBy:    "tester",
		Items:        []ItemInput{{ProductID: product.ID, Quantity: 8}},
	})
	require.NoError(t, err)
	id := result.Order.ID

	for _, status := range []order.Status{
		order.StatusConfirmed, order.StatusInProduction, order.StatusReady, order.StatusShipped,
	} {
		_, err = f.service.ChangeStatus(context.Background(), id, status, "tester")
		require.NoError(t, err)
	}

	stored := f.batches.get(batch.ID)
	assert.Equal(t, 12, stored.AvailableQuantity)
	assert.Zero(t, stored.ReservedQuantity)

	updated, err := f.products.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, updated.TotalStock)
	assert.Zero(t, updated.ReservedStock)
}

func TestOrderServiceRejectsIllegalTransition(t *testing.T) {
	now := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, now)
	product := f.addProduct(t, "Пепероні", "PZ-001")
	f.addBatch(t, product.ID, now.AddDate(0, 0, -10), 20)

	result, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "Кафе Марія",
		CreatedBy:    "tester",
		Items:        []ItemInput{{ProductID: product.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	_, err = f.service.ChangeStatus(context.Background(), result.Order.ID, order.StatusShipped, "tester")
	assert.Error(t, err)
}

func TestOrderServiceUpdateItemsReReserves(t *testing.T) {
	now := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, now)
	pepperoni := f.addProduct(t, "Пепероні", "PZ-001")
	hawaiian := f.addProduct(t, "Гавайська", "PZ-002")
	pepperoniBatch := f.addBatch(t, pepperoni.ID, now.AddDate(0, 0, -10), 20)
	hawaiianBatch := f.addBatch(t, hawaiian.ID, now.AddDate(0, 0, -10), 20)

	created, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "Кафе Марія",
		CreatedBy:    "tester",
		Items:        []ItemInput{{ProductID: pepperoni.ID, Quantity: 10}},
	})
	require.NoError(t, err)

	updated, err := f.service.UpdateItems(context.Background(), created.Order.ID,
		[]ItemInput{{ProductID: hawaiian.ID, Quantity: 6}}, "tester")
	require.NoError(t, err)

	require.Len(t, updated.Order.Items, 1)
	assert.Equal(t, hawaiian.ID, updated.Order.Items[0].ProductID)
	require.Len(t, updated.Order.Reservations, 1)
	assert.Equal(t, hawaiianBatch.ID, updated.Order.Reservations[0].BatchID)

	// The old hold is gone, the new one in place
	assert.Zero(t, f.batches.get(pepperoniBatch.ID).ReservedQuantity)
	assert.Equal(t, 6, f.batches.get(hawaiianBatch.ID).ReservedQuantity)
}

func TestOrderServiceUpdateItemsForbiddenInProduction(t *testing.T) {
	now := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, now)
	product := f.addProduct(t, "Пепероні", "PZ-001")
	f.addBatch(t, product.ID, now.AddDate(0, 0, -10), 20)

	created, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "Кафе Марія",
		CreatedBy:    "tester",
		Items:        []ItemInput{{ProductID: product.ID, Quantity: 5}},
	})
	require.NoError(t, err)
	id := created.Order.ID

	_, err = f.service.ChangeStatus(context.Background(), id, order.StatusConfirmed, "tester")
	require.NoError(t, err)
	_, err = f.service.ChangeStatus(context.Background(), id, order.StatusInProduction, "tester")
	require.NoError(t, err)

	_, err = f.service.UpdateItems(context.Background(), id,
		[]ItemInput{{ProductID: product.ID, Quantity: 2}}, "tester")
	assert.Error(t, err)
}

func TestOrderServiceDeleteReleasesAndForbidsShipped(t *testing.T) {
	now := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, now)
	product := f.addProduct(t, "Пепероні", "PZ-001")
	batch := f.addBatch(t, product.ID, now.AddDate(0, 0, -10), 20)

	created, err := f.service.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName: "Кафе Марія",
		CreatedBy:    "tester",
		Items:        []ItemInput{{ProductID: product.ID, Quantity: 9}},
	})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteOrder(context.Background(), created.Order.ID, "tester"))
	assert.Equal(t, 20, f.batches.get(batch.ID).AvailableQuantity)

	_, err = f.service.GetOrder(context.Background(), created.Order.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
