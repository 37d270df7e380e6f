package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg := LoadEnv()

	assert.Equal(t, "memory", cfg.Server.StoreDriver)
	assert.Equal(t, ":8080", cfg.Server.HTTPPort)
	assert.Equal(t, 10*time.Second, cfg.Production.TxTimeout)
	assert.Equal(t, 3, cfg.Production.MaxRetries)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Redis.Addr)
	require.NoError(t, cfg.Validate())
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PRODUCTION_TX_TIMEOUT", "250ms")
	t.Setenv("PRODUCTION_TX_MAX_RETRIES", "not-a-number")
	t.Setenv("REDIS_LOCK_TTL", "2s")

	cfg := LoadEnv()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Production.TxTimeout)
	assert.Equal(t, 3, cfg.Production.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Redis.LockTTL)
}

func TestValidate(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		cfg := LoadEnv()
		cfg.Server.StoreDriver = "sqlite"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad timezone", func(t *testing.T) {
		cfg := LoadEnv()
		cfg.Server.StoreDriver = "memory"
		cfg.Report.Timezone = "Mars/Olympus"
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		cfg := LoadEnv()
		cfg.Server.StoreDriver = "memory"
		cfg.Production.TxTimeout = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("nil", func(t *testing.T) {
		var cfg *Config
		assert.Error(t, cfg.Validate())
	})
}
