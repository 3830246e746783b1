package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ALLOW_NEGATIVE_INVENTORY", "AUTO_CREATE_INVENTORY_RECORDS", "DB_DRIVER", "KAFKA_BROKERS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.False(t, cfg.AllowNegativeInventory)
	assert.True(t, cfg.AutoCreateInventoryRecords)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 10, cfg.DefaultReorderPoint)
	assert.Equal(t, 50, cfg.DefaultReorderQuantity)
	assert.Equal(t, 50, cfg.DefaultPageSize)
	assert.Equal(t, 1000, cfg.MaxPageSize)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ALLOW_NEGATIVE_INVENTORY", "true")
	t.Setenv("AUTO_CREATE_INVENTORY_RECORDS", "false")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")

	cfg := Load()

	assert.True(t, cfg.AllowNegativeInventory)
	assert.False(t, cfg.AutoCreateInventoryRecords)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
}

func TestGetEnvAsBool_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_FLAG", "maybe")
	assert.True(t, getEnvAsBool("SOME_FLAG", true))
}
