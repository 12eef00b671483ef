package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerHost, cfg.Server.Host)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, OracleSyntax, cfg.Oracle.Mode)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Kafka.Brokers)
	assert.Equal(t, DefaultBatchWorkers, cfg.Batch.Workers)
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.TTL)
	assert.Equal(t, ArchiveMemory, cfg.Archive.Driver)
	assert.Equal(t, DefaultMinIOBucket, cfg.Archive.MinIO.Bucket)
	assert.Equal(t, SearchMemory, cfg.Search.Driver)
	assert.Equal(t, DefaultSearchIndex, cfg.Search.OpenSearch.Index)
	assert.Equal(t, DefaultNeo4jURI, cfg.Neo4j.URI)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Storage.Driver = StorageRedis
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, StorageRedis, cfg.Storage.Driver)
}

func TestApplyDefaults_RateLimitBurst(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	assert.Zero(t, cfg.Server.RateLimitBurst, "no burst while rate limiting is off")

	cfg = &Config{}
	cfg.Server.RateLimitRPS = 5
	ApplyDefaults(cfg)
	assert.Equal(t, DefaultRateLimitBurst, cfg.Server.RateLimitBurst)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

//Personal.AI order the ending
