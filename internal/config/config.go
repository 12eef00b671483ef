// Package config defines the configuration structures for chemenv. Loading
// lives in loader.go and defaults in defaults.go; this file holds only plain
// data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	RateLimitRPS    float64       `mapstructure:"rate_limit_rps"` // 0 disables
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
	GRPCPort        int           `mapstructure:"grpc_port"` // 0 disables the gRPC listener
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// GRPCAddr returns host:grpc_port for the gRPC listener.
func (s ServerConfig) GRPCAddr() string { return fmt.Sprintf("%s:%d", s.Host, s.GRPCPort) }

// Storage drivers.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageNeo4j    = "neo4j"
)

// StorageConfig selects the environment repository backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // memory | redis | postgres | neo4j
}

// RedisConfig holds Redis connection parameters. Redis backs the redis
// storage driver, the analysis cache and the mutation lock.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	LockTTL      time.Duration `mapstructure:"lock_ttl"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// Neo4jConfig holds graph database parameters for storage.driver=neo4j.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
	Database              string        `mapstructure:"database"`
}

// Archive drivers.
const (
	ArchiveNone   = "none"
	ArchiveMemory = "memory"
	ArchiveMinIO  = "minio"
)

// ArchiveConfig selects where environment revisions are archived.
type ArchiveConfig struct {
	Driver string      `mapstructure:"driver"` // none | memory | minio
	MinIO  MinIOConfig `mapstructure:"minio"`
}

// MinIOConfig holds object storage parameters for archive.driver=minio.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Search drivers.
const (
	SearchNone       = "none"
	SearchMemory     = "memory"
	SearchOpenSearch = "opensearch"
)

// SearchConfig selects the environment search index.
type SearchConfig struct {
	Driver     string           `mapstructure:"driver"` // none | memory | opensearch
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
}

// OpenSearchConfig holds cluster parameters for search.driver=opensearch.
type OpenSearchConfig struct {
	Addresses          []string      `mapstructure:"addresses"`
	User               string        `mapstructure:"user"`
	Password           string        `mapstructure:"password"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	Index              string        `mapstructure:"index"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
}

// KafkaConfig holds event-bus parameters. When Enabled is false events are
// dropped by a no-op publisher.
type KafkaConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Brokers           []string      `mapstructure:"brokers"`
	GroupID           string        `mapstructure:"group_id"`
	ClientID          string        `mapstructure:"client_id"`
	BatchSize         int           `mapstructure:"batch_size"`
	BatchTimeout      time.Duration `mapstructure:"batch_timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	AutoCreateTopics  bool          `mapstructure:"auto_create_topics"`
	NumPartitions     int           `mapstructure:"num_partitions"`
	ReplicationFactor int           `mapstructure:"replication_factor"`
}

// CacheConfig controls the analysis result cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// Oracle modes.
const (
	OracleSyntax = "syntax"
	OracleRemote = "remote"
	OracleNone   = "none"
)

// OracleConfig selects the well-formedness checker applied to rendered output.
type OracleConfig struct {
	Mode     string        `mapstructure:"mode"` // syntax | remote | none
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MetricsConfig controls Prometheus exposition.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// BatchConfig bounds batch analysis.
type BatchConfig struct {
	Workers  int `mapstructure:"workers"`
	MaxItems int `mapstructure:"max_items"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure. Every component reads its
// settings from the relevant sub-struct.
type Config struct {
	Server   ServerConfig      `mapstructure:"server"`
	Log      logging.LogConfig `mapstructure:"log"`
	Storage  StorageConfig     `mapstructure:"storage"`
	Redis    RedisConfig       `mapstructure:"redis"`
	Postgres PostgresConfig    `mapstructure:"postgres"`
	Neo4j    Neo4jConfig       `mapstructure:"neo4j"`
	Archive  ArchiveConfig     `mapstructure:"archive"`
	Search   SearchConfig      `mapstructure:"search"`
	Kafka    KafkaConfig       `mapstructure:"kafka"`
	Cache    CacheConfig       `mapstructure:"cache"`
	Oracle   OracleConfig      `mapstructure:"oracle"`
	Metrics  MetricsConfig     `mapstructure:"metrics"`
	Batch    BatchConfig       `mapstructure:"batch"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of a fully-populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}

	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("config: server.grpc_port %d is out of range [0, 65535]", c.Server.GRPCPort)
	}
	if c.Server.GRPCPort != 0 && c.Server.GRPCPort == c.Server.Port {
		return fmt.Errorf("config: server.grpc_port must differ from server.port")
	}

	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("config: server.rate_limit_rps must be >= 0")
	}

	if _, err := logging.ParseLevel(string(c.Log.Level)); err != nil {
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required for storage.driver=redis")
		}
	case StoragePostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("config: postgres.host is required for storage.driver=postgres")
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("config: postgres.user is required for storage.driver=postgres")
		}
		if c.Postgres.DBName == "" {
			return fmt.Errorf("config: postgres.db_name is required for storage.driver=postgres")
		}
	case StorageNeo4j:
		if c.Neo4j.URI == "" {
			return fmt.Errorf("config: neo4j.uri is required for storage.driver=neo4j")
		}
	default:
		return fmt.Errorf("config: storage.driver %q is invalid; expected memory|redis|postgres|neo4j", c.Storage.Driver)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}
	if c.Cache.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when cache.enabled")
	}

	switch c.Archive.Driver {
	case ArchiveNone, ArchiveMemory:
	case ArchiveMinIO:
		if c.Archive.MinIO.Endpoint == "" {
			return fmt.Errorf("config: archive.minio.endpoint is required for archive.driver=minio")
		}
		if c.Archive.MinIO.Bucket == "" {
			return fmt.Errorf("config: archive.minio.bucket is required for archive.driver=minio")
		}
	default:
		return fmt.Errorf("config: archive.driver %q is invalid; expected none|memory|minio", c.Archive.Driver)
	}

	switch c.Search.Driver {
	case SearchNone, SearchMemory:
	case SearchOpenSearch:
		if len(c.Search.OpenSearch.Addresses) == 0 {
			return fmt.Errorf("config: search.opensearch.addresses must contain at least one address")
		}
		if c.Search.OpenSearch.Index == "" {
			return fmt.Errorf("config: search.opensearch.index is required for search.driver=opensearch")
		}
	default:
		return fmt.Errorf("config: search.driver %q is invalid; expected none|memory|opensearch", c.Search.Driver)
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.GroupID == "" {
			return fmt.Errorf("config: kafka.group_id is required")
		}
	}

	switch c.Oracle.Mode {
	case OracleSyntax, OracleNone:
	case OracleRemote:
		if c.Oracle.Endpoint == "" {
			return fmt.Errorf("config: oracle.endpoint is required for oracle.mode=remote")
		}
	default:
		return fmt.Errorf("config: oracle.mode %q is invalid; expected syntax|remote|none", c.Oracle.Mode)
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("config: batch.workers must be >= 1, got %d", c.Batch.Workers)
	}
	if c.Batch.MaxItems < 1 {
		return fmt.Errorf("config: batch.max_items must be >= 1, got %d", c.Batch.MaxItems)
	}
	return nil
}

//Personal.AI order the ending
