package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/orderhook/internal/infrastructure/config"
	"github.com/erp/orderhook/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
)

func TestOpen_AppliesPoolLimits(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()

	db, err := Open(&config.DatabaseConfig{MaxOpenConns: 9, MaxIdleConns: 3, ConnMaxLifetime: 5},
		WithDialector(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"})),
	)
	require.NoError(t, err)

	sqlDB, err := db.SQL()
	require.NoError(t, err)
	assert.Equal(t, 9, sqlDB.Stats().MaxOpenConnections)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_PingFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(assert.AnError)
	mock.ExpectClose()

	_, err = Open(&config.DatabaseConfig{},
		WithDialector(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"})),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")
}

func TestOpen_SQLiteWithoutPing(t *testing.T) {
	db, err := Open(&config.DatabaseConfig{MaxOpenConns: 1},
		WithDialector(sqlite.Open(":memory:")),
		WithoutPing(),
	)
	require.NoError(t, err)

	require.NoError(t, db.DB.AutoMigrate(models.All()...))
	assert.NoError(t, db.PingContext(context.Background()))

	require.NoError(t, db.Close())
	assert.Error(t, db.PingContext(context.Background()))
}

func TestDatabase_Uninitialized(t *testing.T) {
	var db *Database

	_, err := db.SQL()
	assert.ErrorIs(t, err, ErrDatabaseNotInitialized)
	assert.ErrorIs(t, db.PingContext(context.Background()), ErrDatabaseNotInitialized)
	assert.ErrorIs(t, db.Close(), ErrDatabaseNotInitialized)
	assert.ErrorIs(t, (&Database{}).Close(), ErrDatabaseNotInitialized)
}
