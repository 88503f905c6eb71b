package database

import (
	"path/filepath"
	"testing"

	"github.com/lyrion-studio/lyrion-api/config"
	"github.com/lyrion-studio/lyrion-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemory_Migrates(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)

	for _, model := range []any{&models.Order{}, &models.AccessCode{}, &models.ProcessedEvent{}, &models.SessionDocument{}} {
		assert.True(t, db.Migrator().HasTable(model))
	}
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lyrion.db")
	db, err := Open(config.Database{Driver: "sqlite", SQLitePath: path})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable(&models.OrderItem{}))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.Database{Driver: "mysql"})
	assert.Error(t, err)
}
