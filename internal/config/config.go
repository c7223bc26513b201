package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Resources holds default sandbox resource limits as human-readable specs.
// Translation to runtime units happens in internal/resource; unparsable
// specs degrade to documented defaults.
type Resources struct {
	Memory  string `yaml:"memory"`  // e.g. "4g"
	CPUs    string `yaml:"cpus"`    // e.g. "2" or "0.5"
	Storage string `yaml:"storage"` // e.g. "10g", empty = unlimited
}

type Config struct {
	Listen string `yaml:"listen"`
	APIKey string `yaml:"api_key"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	BaseImage     string `yaml:"base_image"`
	FallbackImage string `yaml:"fallback_image"`
	NetworkMode   string `yaml:"network_mode"`

	Capacity     int `yaml:"capacity"`       // max concurrently active sandboxes
	WarmPoolSize int `yaml:"warm_pool_size"` // target, not a guarantee

	HealthIntervalSeconds    int `yaml:"health_interval_seconds"`
	ReconcileIntervalSeconds int `yaml:"reconcile_interval_seconds"`
	StopTimeoutSeconds       int `yaml:"stop_timeout_seconds"`

	JournalPath string `yaml:"journal_path"`

	Resources Resources `yaml:"resources"`
}

func Load(yamlPath string) (*Config, error) {
	cfg := &Config{
		Listen:                   "127.0.0.1:8080",
		RedisAddr:                "127.0.0.1:6379",
		BaseImage:                "sandpool-base:latest",
		FallbackImage:            "debian:bookworm-slim",
		NetworkMode:              "bridge",
		Capacity:                 20,
		WarmPoolSize:             3,
		HealthIntervalSeconds:    30,
		ReconcileIntervalSeconds: 300,
		StopTimeoutSeconds:       30,
		JournalPath:              "./sandpool.db",
		Resources: Resources{
			Memory: "4g",
			CPUs:   "2",
		},
	}

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SANDPOOL_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("SANDPOOL_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("SANDPOOL_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("SANDPOOL_REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("SANDPOOL_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RedisDB = n
		}
	}
	if v := os.Getenv("SANDPOOL_BASE_IMAGE"); v != "" {
		cfg.BaseImage = v
	}
	if v := os.Getenv("SANDPOOL_FALLBACK_IMAGE"); v != "" {
		cfg.FallbackImage = v
	}
	if v := os.Getenv("SANDPOOL_NETWORK_MODE"); v != "" {
		cfg.NetworkMode = v
	}
	if v := os.Getenv("SANDPOOL_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Capacity = n
		}
	}
	if v := os.Getenv("SANDPOOL_WARM_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WarmPoolSize = n
		}
	}
	if v := os.Getenv("SANDPOOL_HEALTH_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HealthIntervalSeconds = n
		}
	}
	if v := os.Getenv("SANDPOOL_RECONCILE_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ReconcileIntervalSeconds = n
		}
	}
	if v := os.Getenv("SANDPOOL_STOP_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StopTimeoutSeconds = n
		}
	}
	if v := os.Getenv("SANDPOOL_JOURNAL_PATH"); v != "" {
		cfg.JournalPath = v
	}
	if v := os.Getenv("SANDPOOL_MEMORY"); v != "" {
		cfg.Resources.Memory = v
	}
	if v := os.Getenv("SANDPOOL_CPUS"); v != "" {
		cfg.Resources.CPUs = v
	}
	if v := os.Getenv("SANDPOOL_STORAGE"); v != "" {
		cfg.Resources.Storage = v
	}
}
