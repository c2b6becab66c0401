package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/inventory"
	"github.com/usv008/pizza-inventory-system-sub003/internal/domain/shared"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockBatchRepository creates a GormBatchRepository with a mocked SQL connection
func newMockBatchRepository(t *testing.T) (*GormBatchRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormBatchRepository(gormDB), mock, mockDB
}

func batchRows(ids ...uuid.UUID) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "product_id", "batch_number", "batch_date",
		"quantity", "available_quantity", "reserved_quantity", "status",
	})
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range ids {
		rows.AddRow(id, uuid.New(), "BATCH-001", base.AddDate(0, 0, i), 100, 60, 10, inventory.BatchStatusActive)
	}
	return rows
}

func TestGormBatchRepository_FindByID(t *testing.T) {
	t.Run("finds existing batch", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		batchID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "batches" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(batchID, 1).
			WillReturnRows(batchRows(batchID))

		batch, err := repo.FindByID(context.Background(), batchID)

		assert.NoError(t, err)
		assert.NotNil(t, batch)
		assert.Equal(t, batchID, batch.ID)
		assert.Equal(t, 60, batch.AvailableQuantity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent batch", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		batchID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "batches" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(batchID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		batch, err := repo.FindByID(context.Background(), batchID)

		assert.Error(t, err)
		assert.Nil(t, batch)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBatchRepository_FindAllocatable(t *testing.T) {
	t.Run("orders batches oldest first", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		older := uuid.New()
		newer := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT \* FROM "batches" WHERE \(product_id = \$1 AND status = \$2 AND available_quantity > 0\) AND \(expiry_date IS NULL OR expiry_date > \$3\) ORDER BY batch_date ASC, created_at ASC`).
			WithArgs(productID, inventory.BatchStatusActive, now).
			WillReturnRows(batchRows(older, newer))

		batches, err := repo.FindAllocatable(context.Background(), productID, now)

		assert.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Equal(t, older, batches[0].ID)
		assert.Equal(t, newer, batches[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBatchRepository_ApplyReservation(t *testing.T) {
	t.Run("moves quantity from available to reserved", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		batchID := uuid.New()

		mock.ExpectExec(`UPDATE "batches" SET .* WHERE id = \$4 AND available_quantity >= \$5`).
			WithArgs(10, 10, sqlmock.AnyArg(), batchID, 10).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ApplyReservation(context.Background(), batchID, 10)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns conflict when available is insufficient", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		batchID := uuid.New()

		mock.ExpectExec(`UPDATE "batches" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "batches" WHERE id = \$1`).
			WithArgs(batchID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := repo.ApplyReservation(context.Background(), batchID, 999)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing batch", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		batchID := uuid.New()

		mock.ExpectExec(`UPDATE "batches" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "batches" WHERE id = \$1`).
			WithArgs(batchID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		err := repo.ApplyReservation(context.Background(), batchID, 10)

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects non-positive quantity without touching the database", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		err := repo.ApplyReservation(context.Background(), uuid.New(), 0)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBatchRepository_ReleaseReservation(t *testing.T) {
	t.Run("clamps release to the reserved amount", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		batchID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "batches" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(batchID, 1).
			WillReturnRows(batchRows(batchID)) // reserved_quantity = 10
		mock.ExpectExec(`UPDATE "batches" SET .* WHERE id = \$4 AND reserved_quantity >= \$5`).
			WithArgs(10, 10, sqlmock.AnyArg(), batchID, 10).
			WillReturnResult(sqlmock.NewResult(0, 1))

		released, err := repo.ReleaseReservation(context.Background(), batchID, 25)

		assert.NoError(t, err)
		assert.Equal(t, 10, released)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("releasing with nothing reserved is a no-op", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		batchID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "available_quantity", "reserved_quantity", "status"}).
			AddRow(batchID, 60, 0, inventory.BatchStatusActive)

		mock.ExpectQuery(`SELECT \* FROM "batches" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(batchID, 1).
			WillReturnRows(rows)

		released, err := repo.ReleaseReservation(context.Background(), batchID, 5)

		assert.NoError(t, err)
		assert.Equal(t, 0, released)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-positive quantity returns zero without queries", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		released, err := repo.ReleaseReservation(context.Background(), uuid.New(), -1)

		assert.NoError(t, err)
		assert.Equal(t, 0, released)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBatchRepository_ConsumeReserved(t *testing.T) {
	t.Run("consumes reserved quantity and refreshes status", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		batchID := uuid.New()

		mock.ExpectExec(`UPDATE "batches" SET .* WHERE id = \$3 AND reserved_quantity >= \$4`).
			WithArgs(5, sqlmock.AnyArg(), batchID, 5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE "batches" SET .* WHERE id = \$3 AND available_quantity = 0 AND reserved_quantity = 0 AND status = \$4`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.ConsumeReserved(context.Background(), batchID, 5)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns conflict when reserved is insufficient", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "batches" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.ConsumeReserved(context.Background(), uuid.New(), 50)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBatchRepository_Availability(t *testing.T) {
	t.Run("aggregates active stock including fully reserved batches", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		now := time.Now()
		expiry := now.AddDate(0, 0, 14)

		rows := sqlmock.NewRows([]string{"total_available", "total_reserved", "batches_count", "nearest_expiry"}).
			AddRow(120, 30, 3, expiry)

		// No available_quantity predicate: a batch whose stock is all
		// reserved must still contribute to the totals
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(available_quantity\), 0\) AS total_available, .* FROM "batches" WHERE \(?product_id = \$1 AND status = \$2\)? AND \(expiry_date IS NULL OR expiry_date > \$3\)`).
			WithArgs(productID, inventory.BatchStatusActive, now).
			WillReturnRows(rows)

		availability, err := repo.Availability(context.Background(), productID, now)

		assert.NoError(t, err)
		require.NotNil(t, availability)
		assert.Equal(t, productID, availability.ProductID)
		assert.Equal(t, 120, availability.TotalAvailable)
		assert.Equal(t, 30, availability.TotalReserved)
		assert.Equal(t, 3, availability.BatchesCount)
		require.NotNil(t, availability.NearestExpiry)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns zeroes when the product has no active batches", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows([]string{"total_available", "total_reserved", "batches_count", "nearest_expiry"}).
			AddRow(0, 0, 0, nil)

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(available_quantity\), 0\) AS total_available, .* FROM "batches"`).
			WithArgs(productID, inventory.BatchStatusActive, now).
			WillReturnRows(rows)

		availability, err := repo.Availability(context.Background(), productID, now)

		assert.NoError(t, err)
		require.NotNil(t, availability)
		assert.Equal(t, 0, availability.TotalAvailable)
		assert.Nil(t, availability.NearestExpiry)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
