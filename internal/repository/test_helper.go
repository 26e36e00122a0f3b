package repository

import (
	"testing"

	"github.com/nimasrn/loyalty-engine/pkg/db"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *db.DB {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	d := db.FromGorm(conn)
	require.NoError(t, d.AutoMigrate(&CustomerEntity{}, &TransactionEntity{}))
	return d
}
