package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDriverFor(t *testing.T) {
	tests := map[string]Driver{
		"postgres://u:p@localhost:5432/shop":     Postgres,
		"postgresql://u@db/shop?sslmode=require": Postgres,
		"host=localhost user=shop dbname=shop":   Postgres,
		"file:shopbooks.db?_foreign_keys=on":     SQLite,
		"file::memory:?cache=shared":             SQLite,
		"shopbooks.db":                           SQLite,
	}
	for dsn, want := range tests {
		assert.Equal(t, want, DriverFor(dsn), dsn)
	}
}

func TestOpenAndMigrate(t *testing.T) {
	db, err := Open("file:migrate_test?mode=memory&cache=shared", zaptest.NewLogger(t))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "migrations are repeatable")

	for _, table := range []string{"sales", "sale_items", "payments", "inventory", "expenses"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
