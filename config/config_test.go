package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collaborax/database"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.BlobBackend)
	assert.Equal(t, database.DefaultKey, cfg.StoreKey)
	assert.Equal(t, "collaborax_currentUser", cfg.SessionKey)
	assert.Zero(t, cfg.SessionTTL)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigValidates(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")

	t.Setenv("BLOB_BACKEND", "s3")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("BLOB_BACKEND", "memory")
	t.Setenv("ENCRYPTION_KEY", "too-short")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "collaborax.yaml")
	require.NoError(t, os.WriteFile(path, []byte("blob_backend: memory\nstore_key: custom_db\nsession_ttl: 2h\nlog_format: json\n"), 0o600))

	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SESSION_TTL_HOURS", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.BlobBackend)
	assert.Equal(t, "custom_db", cfg.StoreKey)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "s", cfg.SessionSecret)
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	SetupLogging(&Config{LogLevel: "debug", LogFormat: "json"})
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	SetupLogging(&Config{LogLevel: "nonsense"})
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

func TestConnectStore(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{
		BlobBackend:   "file",
		DataDir:       t.TempDir(),
		StoreKey:      database.DefaultKey,
		EncryptionKey: "0123456789abcdef",
	}

	store, blobs, err := ConnectStore(ctx, cfg)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Initialize(ctx))

	_, ok := blobs.(*database.EncryptedBlobStore)
	assert.True(t, ok)

	_, err = os.Stat(filepath.Join(cfg.DataDir, database.DefaultKey))
	assert.NoError(t, err)
}
