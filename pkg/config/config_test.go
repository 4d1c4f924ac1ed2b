package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, StorageLocal, cfg.Uploads.Driver)
	assert.Equal(t, int64(10*1024*1024), cfg.Uploads.MaxFileSizeBytes)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 12, cfg.JWT.BcryptCost)
	assert.Equal(t, AuditStorePostgres, cfg.Audit.Store)
	assert.False(t, cfg.Events.Enabled)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "MinIO")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("JWT_EXPIRATION", "not-a-duration")
	t.Setenv("UPLOADS_MAX_FILE_SIZE", "0")
	t.Setenv("CACHE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMinIO, cfg.Uploads.Driver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Events.Brokers)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, int64(10*1024*1024), cfg.Uploads.MaxFileSizeBytes)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
}
