package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
)

// EnvPrefix is the environment variable prefix used by all settings.
const EnvPrefix = "CHEMENV"

// Load failures, distinguishable with errors.Is.
var (
	ErrConfigFileNotFound = errors.New("config: file not found")
	ErrConfigParseError   = errors.New("config: parse error")
	ErrConfigValidation   = errors.New("config: validation failed")
)

type loadOptions struct {
	path      string
	envPrefix string
}

// LoadOption customises Load.
type LoadOption func(*loadOptions)

// WithConfigPath reads the YAML file at path before applying env overrides.
func WithConfigPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// WithEnvPrefix replaces the CHEMENV prefix; used by tests.
func WithEnvPrefix(prefix string) LoadOption {
	return func(o *loadOptions) { o.envPrefix = prefix }
}

// newViper builds a Viper instance with YAML file type, the env prefix,
// automatic env binding and a "." → "_" key replacer so that "redis.addr"
// resolves to CHEMENV_REDIS_ADDR.
func newViper(prefix string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvs(v, Config{})
	return v
}

// Load reads the optional config file, merges CHEMENV_* environment overrides,
// applies defaults and validates the result.
func Load(opts ...LoadOption) (*Config, error) {
	o := loadOptions{envPrefix: EnvPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	v := newViper(o.envPrefix)
	if o.path != "" {
		if _, err := os.Stat(o.path); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrConfigFileNotFound, o.path, err)
		}
		v.SetConfigFile(o.path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrConfigParseError, o.path, err)
		}
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from CHEMENV_* variables and defaults only.
func LoadFromEnv() (*Config, error) {
	return Load()
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	return cfg, nil
}

// MustLoad is Load that panics; for main() where a config failure is fatal.
func MustLoad(opts ...LoadOption) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

// Watch re-reads the file at path whenever it changes on disk and passes the
// new Config to onChange. Invalid revisions are logged and skipped. Callers
// should apply only settings that are safe to change at runtime (log level).
func Watch(path string, log logging.Logger, onChange func(*Config)) error {
	v := newViper(EnvPrefix)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrConfigParseError, path, err)
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			log.WithError(err).Warn("config reload rejected", logging.String("file", e.Name))
			return
		}
		log.Info("config reloaded", logging.String("file", e.Name))
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

//Personal.AI order the ending
