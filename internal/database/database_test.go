package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfkeeper/m/internal/config"
)

func Test_Connect_SQLiteEnablesForeignKeys(t *testing.T) {
	db, err := Connect(config.DriverSQLite, filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	defer db.Close()

	var enabled int
	require.NoError(t, db.Get(&enabled, `PRAGMA foreign_keys`))
	assert.Equal(t, 1, enabled)
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

func Test_Connect_UnknownDriver(t *testing.T) {
	_, err := Connect("oracle", "dsn")
	assert.ErrorContains(t, err, "unsupported")
}
