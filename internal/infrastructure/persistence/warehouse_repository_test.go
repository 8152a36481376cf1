package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var warehouseColumns = []string{"id", "created_at", "updated_at", "status", "deactivated_at", "deactivation_reason", "code", "name"}

// newMockWarehouseRepository creates a GormWarehouseRepository with a mocked SQL connection
func newMockWarehouseRepository(t *testing.T) (*GormWarehouseRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormWarehouseRepository(gormDB), mock, mockDB
}

func TestNewGormWarehouseRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockWarehouseRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormWarehouseRepository_FindByID(t *testing.T) {
	t.Run("finds existing warehouse", func(t *testing.T) {
		repo, mock, mockDB := newMockWarehouseRepository(t)
		defer mockDB.Close()

		warehouseID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(warehouseColumns).
			AddRow(warehouseID, now, now, "active", nil, "", "central", "Central")

		mock.ExpectQuery(`SELECT \* FROM "warehouses" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(warehouseID, 1).
			WillReturnRows(rows)

		warehouse, err := repo.FindByID(context.Background(), warehouseID)

		require.NoError(t, err)
		assert.Equal(t, warehouseID, warehouse.ID)
		assert.True(t, warehouse.IsCentral())
		assert.True(t, warehouse.IsActive())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps a missing row to ErrNotFound", func(t *testing.T) {
		repo, mock, mockDB := newMockWarehouseRepository(t)
		defer mockDB.Close()

		warehouseID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "warehouses" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(warehouseID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		warehouse, err := repo.FindByID(context.Background(), warehouseID)

		assert.Nil(t, warehouse)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("passes other errors through", func(t *testing.T) {
		repo, mock, mockDB := newMockWarehouseRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "warehouses"`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.FindByID(context.Background(), uuid.New())

		require.Error(t, err)
		assert.NotErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormWarehouseRepository_FindByCode(t *testing.T) {
	repo, mock, mockDB := newMockWarehouseRepository(t)
	defer mockDB.Close()

	now := time.Now()
	deactivatedAt := now.Add(-time.Hour)
	rows := sqlmock.NewRows(warehouseColumns).
		AddRow(uuid.New(), now, now, "deactivated", deactivatedAt, "closed for winter", "terrace", "Terrace")

	// Codes are normalized before the lookup
	mock.ExpectQuery(`SELECT \* FROM "warehouses" WHERE code = \$1 ORDER BY .* LIMIT .*`).
		WithArgs("terrace", 1).
		WillReturnRows(rows)

	warehouse, err := repo.FindByCode(context.Background(), "  Terrace ")

	require.NoError(t, err)
	assert.Equal(t, "terrace", warehouse.Code)
	assert.False(t, warehouse.IsActive())
	deactivated, ok := warehouse.Lifecycle.(inventory.Deactivated)
	require.True(t, ok)
	assert.Equal(t, "closed for winter", deactivated.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormWarehouseRepository_FindAll(t *testing.T) {
	repo, mock, mockDB := newMockWarehouseRepository(t)
	defer mockDB.Close()

	now := time.Now()
	rows := sqlmock.NewRows(warehouseColumns).
		AddRow(uuid.New(), now, now, "active", nil, "", "bar", "Bar").
		AddRow(uuid.New(), now, now, "active", nil, "", "central", "Central")

	mock.ExpectQuery(`SELECT \* FROM "warehouses" ORDER BY code ASC`).
		WillReturnRows(rows)

	warehouses, err := repo.FindAll(context.Background())

	require.NoError(t, err)
	require.Len(t, warehouses, 2)
	assert.Equal(t, "bar", warehouses[0].Code)
	assert.Equal(t, "central", warehouses[1].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormWarehouseRepository_Save(t *testing.T) {
	repo, mock, mockDB := newMockWarehouseRepository(t)
	defer mockDB.Close()

	warehouse, err := inventory.NewWarehouse("bar", "Bar")
	require.NoError(t, err)

	mock.ExpectExec(`UPDATE "warehouses" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "warehouses"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Save(context.Background(), warehouse)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
