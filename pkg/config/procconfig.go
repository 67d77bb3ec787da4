package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProcessConfig is the on-disk process bring-up configuration for either
// daemon: store endpoints, the collector's socket bind address, the
// session cache's admission limit, and the TTL bootstrap retry
// parameters (SPEC_FULL §AMBIENT).
type ProcessConfig struct {
	StoreEndpoints    []string      `yaml:"store_endpoints"`
	Keyspace          string        `yaml:"keyspace"`
	BindAddress       string        `yaml:"bind_address"`
	SessionCacheLimit int           `yaml:"session_cache_limit"`
	TTLBootstrap      TTLBootstrap  `yaml:"ttl_bootstrap"`
	RedisAddress      string        `yaml:"redis_address"`
}

// TTLBootstrap configures the bounded retry loop that reads the
// system-object row for TTLs at startup (spec §7).
type TTLBootstrap struct {
	Attempts int           `yaml:"attempts"`
	Sleep    time.Duration `yaml:"sleep"`
}

// LoadProcessConfig parses a process config YAML file and fills in
// defaults for any zero-valued field: the teacher's LoadTopology load
// step, with defaults applied where LoadTopology validates instead.
func LoadProcessConfig(path string) (*ProcessConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading process config: %w", err)
	}

	var cfg ProcessConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing process config YAML: %w", err)
	}
	applyProcessConfigDefaults(&cfg)
	return &cfg, nil
}

func applyProcessConfigDefaults(cfg *ProcessConfig) {
	if cfg.Keyspace == "" {
		cfg.Keyspace = "ContrailAnalytics"
	}
	if cfg.BindAddress == "" {
		cfg.BindAddress = ":6514"
	}
	if cfg.SessionCacheLimit <= 0 {
		cfg.SessionCacheLimit = 100000
	}
	if cfg.RedisAddress == "" {
		cfg.RedisAddress = "localhost:6379"
	}
	if cfg.TTLBootstrap.Attempts <= 0 {
		cfg.TTLBootstrap.Attempts = 12
	}
	if cfg.TTLBootstrap.Sleep <= 0 {
		cfg.TTLBootstrap.Sleep = 5 * time.Second
	}
}
