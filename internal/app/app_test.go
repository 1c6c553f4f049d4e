package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordStore_Memory(t *testing.T) {
	cfg := &config.Config{RecordStore: config.RecordStoreConfig{Driver: config.DriverMemory}}
	records, c, err := newRecordStore(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	assert.Nil(t, records)
	assert.Nil(t, c)
}

func TestOptionalCollaboratorsDisabled(t *testing.T) {
	log := logger.NewNop()

	cache, c, err := newImageCache(context.Background(), &config.RedisConfig{}, log)
	require.NoError(t, err)
	assert.Nil(t, cache)
	assert.Nil(t, c)

	pub, c, err := newPublisher(&config.NATSConfig{}, log)
	require.NoError(t, err)
	assert.Nil(t, pub)
	assert.Nil(t, c)

	assert.Nil(t, newClaimMailer(&config.SMTPConfig{}, log))
}

func TestLoadFixture_Missing(t *testing.T) {
	assert.Empty(t, loadFixture(filepath.Join(t.TempDir(), "none.json"), logger.NewNop()))
}

func TestSeed(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(fixture, []byte(`[
  {"id": 7, "author": "Ann", "imageurl": "https://cdn.example/7.jpg", "location": "Hall", "description": "Scarf", "createdAt": "2024-01-05"}
]`), 0o600))

	cfg := &config.Config{
		RecordStore: config.RecordStoreConfig{Driver: config.DriverSQLite, Table: "items"},
		SQLite:      config.SQLiteConfig{Path: filepath.Join(dir, "lf.db")},
		Fixture:     config.FixtureConfig{Path: fixture},
	}
	n, err := Seed(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cfg.RecordStore.Driver = config.DriverMemory
	_, err = Seed(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}
