package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodyBytes    = 1 << 20
	DefaultRateLimitBurst  = 20

	DefaultLogLevel  = logging.LevelInfo
	DefaultLogFormat = "json"

	DefaultStorageDriver = StorageMemory

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPoolSize  = 10
	DefaultRedisKeyPrefix = "chemenv:"
	DefaultRedisLockTTL   = 10 * time.Second

	DefaultPostgresHost     = "localhost"
	DefaultPostgresPort     = 5432
	DefaultPostgresDBName   = "chemenv"
	DefaultPostgresSSLMode  = "disable"
	DefaultPostgresMaxConns = 10

	DefaultNeo4jURI               = "bolt://localhost:7687"
	DefaultNeo4jUser              = "neo4j"
	DefaultNeo4jDatabase          = "neo4j"
	DefaultNeo4jMaxPoolSize       = 50
	DefaultNeo4jConnectionTimeout = 5 * time.Second

	DefaultArchiveDriver = ArchiveMemory
	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "chemenv-revisions"
	DefaultSearchDriver  = SearchMemory
	DefaultSearchAddress = "http://localhost:9200"
	DefaultSearchIndex   = "chemenv-environments"
	DefaultSearchTimeout = 10 * time.Second

	DefaultKafkaBroker   = "localhost:9092"
	DefaultKafkaGroupID  = "chemenv-worker"
	DefaultKafkaClientID = "chemenv"
	DefaultKafkaRetries  = 3

	DefaultCacheTTL = 10 * time.Minute

	DefaultOracleMode    = OracleSyntax
	DefaultOracleTimeout = 5 * time.Second

	DefaultMetricsNamespace = "chemenv"
	DefaultMetricsPath      = "/metrics"

	DefaultBatchWorkers  = 8
	DefaultBatchMaxItems = 1000
)

// ApplyDefaults fills every zero-value field in cfg with its default. Values
// already set are left unchanged so explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.RateLimitRPS > 0 && cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = DefaultRateLimitBurst
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Storage ───────────────────────────────────────────────────────────────
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultStorageDriver
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.LockTTL == 0 {
		cfg.Redis.LockTTL = DefaultRedisLockTTL
	}
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = DefaultPostgresHost
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Postgres.DBName == "" {
		cfg.Postgres.DBName = DefaultPostgresDBName
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if cfg.Postgres.MaxOpenConns == 0 {
		cfg.Postgres.MaxOpenConns = DefaultPostgresMaxConns
	}

	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Neo4j.User == "" {
		cfg.Neo4j.User = DefaultNeo4jUser
	}
	if cfg.Neo4j.Database == "" {
		cfg.Neo4j.Database = DefaultNeo4jDatabase
	}
	if cfg.Neo4j.MaxConnectionPoolSize == 0 {
		cfg.Neo4j.MaxConnectionPoolSize = DefaultNeo4jMaxPoolSize
	}
	if cfg.Neo4j.ConnectionTimeout == 0 {
		cfg.Neo4j.ConnectionTimeout = DefaultNeo4jConnectionTimeout
	}

	// ── Archive / search ──────────────────────────────────────────────────────
	if cfg.Archive.Driver == "" {
		cfg.Archive.Driver = DefaultArchiveDriver
	}
	if cfg.Archive.MinIO.Endpoint == "" {
		cfg.Archive.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.Archive.MinIO.Bucket == "" {
		cfg.Archive.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.Search.Driver == "" {
		cfg.Search.Driver = DefaultSearchDriver
	}
	if len(cfg.Search.OpenSearch.Addresses) == 0 {
		cfg.Search.OpenSearch.Addresses = []string{DefaultSearchAddress}
	}
	if cfg.Search.OpenSearch.Index == "" {
		cfg.Search.OpenSearch.Index = DefaultSearchIndex
	}
	if cfg.Search.OpenSearch.RequestTimeout == 0 {
		cfg.Search.OpenSearch.RequestTimeout = DefaultSearchTimeout
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.ClientID == "" {
		cfg.Kafka.ClientID = DefaultKafkaClientID
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = DefaultKafkaRetries
	}

	// ── Cache / oracle / metrics / batch ──────────────────────────────────────
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Oracle.Mode == "" {
		cfg.Oracle.Mode = DefaultOracleMode
	}
	if cfg.Oracle.Timeout == 0 {
		cfg.Oracle.Timeout = DefaultOracleTimeout
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = DefaultBatchWorkers
	}
	if cfg.Batch.MaxItems == 0 {
		cfg.Batch.MaxItems = DefaultBatchMaxItems
	}
}

// bindEnvs declares every mapstructure key of iface to viper so that
// CHEMENV_* variables are honoured even when no config file mentions the key.
func bindEnvs(v *viper.Viper, iface interface{}, parts ...string) {
	t := reflect.TypeOf(iface)
	val := reflect.ValueOf(iface)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		path := append(append([]string(nil), parts...), tag)
		if field.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), path...)
			continue
		}
		_ = v.BindEnv(strings.Join(path, "."))
	}
}

//Personal.AI order the ending
