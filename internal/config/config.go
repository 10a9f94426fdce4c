// Package config loads the server configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/rill/internal/runs"
	"github.com/aretw0/rill/internal/runtime"
)

// Archive backends selectable in the config file.
const (
	ArchiveNone   = "none"
	ArchiveMemory = "memory"
	ArchiveSQLite = "sqlite"
	ArchiveRedis  = "redis"
)

// Config is the full server configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Engine struct {
		IterationLimit int `yaml:"iteration_limit"`
		MaxRuns        int `yaml:"max_runs"`
	} `yaml:"engine"`

	Archive struct {
		Backend string `yaml:"backend"` // none, memory, sqlite, redis
		SQLite  struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
		Redis struct {
			Addr     string        `yaml:"addr"`
			Password string        `yaml:"password"`
			DB       int           `yaml:"db"`
			TTL      time.Duration `yaml:"ttl"`
		} `yaml:"redis"`
	} `yaml:"archive"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates a configuration file.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	switch cfg.Archive.Backend {
	case ArchiveNone, ArchiveMemory, ArchiveSQLite, ArchiveRedis:
	default:
		return Config{}, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
	if cfg.Archive.Backend == ArchiveSQLite && cfg.Archive.SQLite.Path == "" {
		return Config{}, fmt.Errorf("archive backend sqlite requires archive.sqlite.path")
	}
	if cfg.Archive.Backend == ArchiveRedis && cfg.Archive.Redis.Addr == "" {
		return Config{}, fmt.Errorf("archive backend redis requires archive.redis.addr")
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Engine.IterationLimit <= 0 {
		c.Engine.IterationLimit = runtime.DefaultIterationLimit
	}
	if c.Engine.MaxRuns == 0 {
		c.Engine.MaxRuns = runs.DefaultMaxRuns
	}
	if c.Archive.Backend == "" {
		c.Archive.Backend = ArchiveNone
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
