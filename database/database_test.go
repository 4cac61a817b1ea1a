package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sopdesk/logger"
	"sopdesk/models"
)

func TestOpen_MemoryDatabasesAreIsolated(t *testing.T) {
	log := logger.NewNop()

	first, err := Open("sqlite", MemoryDSN, "silent", log)
	require.NoError(t, err)
	require.NoError(t, Migrate(first))
	require.NoError(t, first.Create(&models.Tag{Name: "safety"}).Error)

	second, err := Open("sqlite", MemoryDSN, "silent", log)
	require.NoError(t, err)
	require.NoError(t, Migrate(second))

	var count int64
	require.NoError(t, second.Model(&models.Tag{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOpen_FileDatabaseCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sopdesk.db")

	db, err := Open("sqlite", path, "silent", logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	assert.FileExists(t, path)
	assert.NoError(t, Ping(context.Background(), db, time.Second))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x", "silent", logger.NewNop())
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	assert.EqualValues(t, 1, parseLogLevel("silent"))
	assert.EqualValues(t, 2, parseLogLevel("error"))
	assert.EqualValues(t, 3, parseLogLevel("anything"))
	assert.EqualValues(t, 4, parseLogLevel("INFO"))
}

func TestOpen_LoggerAtEveryLevel(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, SlowQueryThreshold)
	for _, level := range []string{"silent", "error", "warn", "info"} {
		db, err := Open("sqlite", MemoryDSN, level, logger.NewNop())
		require.NoError(t, err, level)
		require.NoError(t, Migrate(db), level)
		assert.NotNil(t, db.Config.Logger, level)
	}
}
