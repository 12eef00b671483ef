package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemenv/internal/config"
)

// validConfig returns a Config that passes Validate.
func validConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestConfig_Validate_Defaults(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_Failures(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"port zero", func(c *config.Config) { c.Server.Port = 0 }, "server.port"},
		{"port too high", func(c *config.Config) { c.Server.Port = 70000 }, "server.port"},
		{"grpc port negative", func(c *config.Config) { c.Server.GRPCPort = -1 }, "server.grpc_port"},
		{"grpc port clash", func(c *config.Config) { c.Server.GRPCPort = c.Server.Port }, "server.grpc_port"},
		{"log level", func(c *config.Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *config.Config) { c.Log.Format = "xml" }, "log.format"},
		{"storage driver", func(c *config.Config) { c.Storage.Driver = "mongo" }, "storage.driver"},
		{"redis addr", func(c *config.Config) {
			c.Storage.Driver = config.StorageRedis
			c.Redis.Addr = ""
		}, "redis.addr"},
		{"postgres user", func(c *config.Config) { c.Storage.Driver = config.StoragePostgres }, "postgres.user"},
		{"redis db", func(c *config.Config) { c.Redis.DB = -1 }, "redis.db"},
		{"cache without redis", func(c *config.Config) {
			c.Cache.Enabled = true
			c.Redis.Addr = ""
		}, "cache.enabled"},
		{"kafka brokers", func(c *config.Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = nil
		}, "kafka.brokers"},
		{"neo4j uri", func(c *config.Config) {
			c.Storage.Driver = config.StorageNeo4j
			c.Neo4j.URI = ""
		}, "neo4j.uri"},
		{"archive driver", func(c *config.Config) { c.Archive.Driver = "tape" }, "archive.driver"},
		{"minio bucket", func(c *config.Config) {
			c.Archive.Driver = config.ArchiveMinIO
			c.Archive.MinIO.Bucket = ""
		}, "archive.minio.bucket"},
		{"search driver", func(c *config.Config) { c.Search.Driver = "solr" }, "search.driver"},
		{"opensearch addresses", func(c *config.Config) {
			c.Search.Driver = config.SearchOpenSearch
			c.Search.OpenSearch.Addresses = nil
		}, "search.opensearch.addresses"},
		{"oracle mode", func(c *config.Config) { c.Oracle.Mode = "magic" }, "oracle.mode"},
		{"oracle endpoint", func(c *config.Config) { c.Oracle.Mode = config.OracleRemote }, "oracle.endpoint"},
		{"batch workers", func(c *config.Config) { c.Batch.Workers = -2 }, "batch.workers"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestConfig_Validate_PostgresComplete(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Storage.Driver = config.StoragePostgres
	cfg.Postgres.User = "chemenv"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_ExternalDrivers(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Storage.Driver = config.StorageNeo4j
	cfg.Archive.Driver = config.ArchiveMinIO
	cfg.Search.Driver = config.SearchOpenSearch
	assert.NoError(t, cfg.Validate())
}

func TestServerConfig_Addr(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "127.0.0.1:9000", config.ServerConfig{Host: "127.0.0.1", Port: 9000}.Addr())
	assert.Equal(t, "127.0.0.1:9090", config.ServerConfig{Host: "127.0.0.1", GRPCPort: 9090}.GRPCAddr())
}

//Personal.AI order the ending
