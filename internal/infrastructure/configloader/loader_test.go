package configloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Setenv(EnvRedisURL, "")
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 5*time.Minute, cfg.JobInterval("normal"))
	assert.Equal(t, time.Hour, cfg.JobInterval("cronjob"))
	assert.Equal(t, 30*time.Second, cfg.JobInterval("realtime"))
	assert.Equal(t, 30, cfg.TokenPriceSvc.MaxTokensPerBatchRequest)
	assert.Equal(t, cfg.DEXScreener.RequestTimeoutMillis, cfg.TokenPriceSvc.RequestTimeoutMillis)
	assert.Equal(t, time.Hour, cfg.CacheTTL())
}

func TestParse_FileValuesWin(t *testing.T) {
	t.Setenv(EnvRedisURL, "")
	cfg, err := Parse([]byte(`
cache:
  driver: lru
  lruSize: 42
jobs:
  intervalSeconds:
    realtime: 5
networks:
  - id: sui
    rpcURL: http://localhost:9000
`))
	require.NoError(t, err)

	assert.Equal(t, "lru", cfg.Cache.Driver)
	assert.Equal(t, 42, cfg.Cache.LRUSize)
	assert.Equal(t, 5*time.Second, cfg.JobInterval("realtime"))
	assert.Equal(t, 300*time.Second, cfg.JobInterval("normal"))
	require.Len(t, cfg.Networks, 1)
	assert.Equal(t, "http://localhost:9000", cfg.Networks[0].RPCURL)
}

func TestParse_RedisURLFromEnv(t *testing.T) {
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv(EnvRedisURL, "")

	_, err := Parse([]byte("cache:\n  driver: redis\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("cache:\n  driver: disk\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("networks:\n  - rpcURL: http://x\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("server: [oops"))
	assert.Error(t, err)
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	assert.Equal(t, DefaultConfigPath, PathFromEnv())
	t.Setenv(EnvConfigPath, "/etc/aggregator.yml")
	assert.Equal(t, "/etc/aggregator.yml", PathFromEnv())
}
