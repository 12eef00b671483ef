package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
)

const validConfigYAML = `
server:
  host: "127.0.0.1"
  port: 8081
  read_timeout: 5s
log:
  level: debug
  format: console
storage:
  driver: redis
redis:
  addr: "localhost:6380"
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
cache:
  enabled: true
  ttl: 2m
oracle:
  mode: remote
  endpoint: "http://validator:8000/validate"
batch:
  workers: 4
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	cfg, err := Load(WithConfigPath(createTempConfigFile(t, validConfigYAML)))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, logging.LevelDebug, cfg.Log.Level)
	assert.Equal(t, StorageRedis, cfg.Storage.Driver)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, OracleRemote, cfg.Oracle.Mode)
	assert.Equal(t, 4, cfg.Batch.Workers)
	// defaults for unset fields
	assert.Equal(t, DefaultWriteTimeout, cfg.Server.WriteTimeout)
	assert.Equal(t, DefaultKafkaGroupID, cfg.Kafka.GroupID)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	_, err := Load(WithConfigPath(createTempConfigFile(t, "invalid_yaml: [")))
	assert.ErrorIs(t, err, ErrConfigParseError)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	_, err := Load(WithConfigPath(createTempConfigFile(t, "storage:\n  driver: cassandra\n")))
	assert.ErrorIs(t, err, ErrConfigValidation)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CHEMENV_SERVER_PORT", "9999")
	t.Setenv("CHEMENV_REDIS_ADDR", "redis-host:6379")
	t.Setenv("CHEMENV_SERVER_GRPC_PORT", "9090")

	cfg, err := Load(WithConfigPath(createTempConfigFile(t, validConfigYAML)))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.GRPCPort)
	assert.Equal(t, "redis-host:6379", cfg.Redis.Addr)
}

func TestLoadFromEnv_NoFile(t *testing.T) {
	t.Setenv("CHEMENV_STORAGE_DRIVER", "postgres")
	t.Setenv("CHEMENV_POSTGRES_USER", "chem")
	t.Setenv("CHEMENV_BATCH_WORKERS", "3")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, "chem", cfg.Postgres.User)
	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.Equal(t, DefaultPostgresDBName, cfg.Postgres.DBName)
}

func TestLoad_CustomPrefix(t *testing.T) {
	t.Setenv("CHEMTEST_SERVER_PORT", "7070")
	cfg, err := Load(WithEnvPrefix("CHEMTEST"))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestMustLoad_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLoad(WithConfigPath("/nonexistent/chemenv.yaml")) })
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := createTempConfigFile(t, "server:\n  port: 8001\n")

	var port atomic.Int64
	require.NoError(t, Watch(path, logging.NewNopLogger(), func(c *Config) {
		port.Store(int64(c.Server.Port))
	}))

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8002\n"), 0o644))
	assert.Eventually(t, func() bool { return port.Load() == 8002 }, 5*time.Second, 50*time.Millisecond)
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(filepath.Join(t.TempDir(), "nope.yaml"), logging.NewNopLogger(), func(*Config) {})
	assert.ErrorIs(t, err, ErrConfigParseError)
}

//Personal.AI order the ending
