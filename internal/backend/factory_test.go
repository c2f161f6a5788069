package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brewtrack/internal/config"
	"brewtrack/internal/core"
	"brewtrack/internal/log"
	"brewtrack/internal/storage"
	"brewtrack/internal/store/memory"
	"brewtrack/internal/store/rest"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	require.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	require.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "x.db",
		DataDir:      "seed",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "x.db", cfg.SQLiteDBPath)
	assert.Equal(t, "seed", cfg.DataDirectory)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"remote without url", Config{Type: RemoteBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "Validate() error = %v", err)
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"memory", "remote", "sqlite"}, GetBackendTypeStrings())
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(log.Discard())

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, res.Gateway)
		assert.Nil(t, res.Cleanup)
		assert.NoError(t, res.Close())
	})

	t.Run("remote", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: RemoteBackend, APIBaseURL: rest.DefaultBaseURL})
		require.NoError(t, err)
		assert.IsType(t, &rest.Client{}, res.Gateway)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "brew.db")
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
		require.NoError(t, err)
		assert.IsType(t, &storage.SQLiteRepository{}, res.Gateway)
		require.NotNil(t, res.Cleanup)

		task, err := res.Gateway.CreateTask(ctx, core.NewTask{Name: "Mash", Owner: "Teja", Status: core.StatusPending})
		require.NoError(t, err)
		assert.NotZero(t, task.ID)
		assert.NoError(t, res.Close())
	})

	t.Run("suggestions from data directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "seed_owners.txt"), []byte("Ravi\n"), 0o644))
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: dir})
		require.NoError(t, err)
		assert.Equal(t, []string{"Ravi"}, res.Suggestions.Owners)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := f.CreateBackend(ctx, Config{Type: "sheets"})
		assert.Error(t, err)
	})
}
