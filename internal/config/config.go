// Package config provides configuration loading and validation for stashd.
// Supports YAML files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for stashd.
type Config struct {
	Metadata      MetadataConfig      `yaml:"metadata"`
	ObjectStore   ObjectStoreConfig   `yaml:"objectStore"`
	Reaper        ReaperConfig        `yaml:"reaper"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// MetadataConfig configures the Oxia-backed metadata store.
type MetadataConfig struct {
	OxiaEndpoint string `yaml:"oxiaEndpoint" env:"STASHD_OXIA_ENDPOINT"`
	Namespace    string `yaml:"namespace" env:"STASHD_OXIA_NAMESPACE"`

	// NumDomains is the number of hash domains backup records are
	// partitioned into. Must match the value used when records were written.
	NumDomains int `yaml:"numDomains" env:"STASHD_NUM_DOMAINS"`
}

// ObjectStoreConfig configures the S3-compatible object store holding backup blobs.
type ObjectStoreConfig struct {
	Endpoint     string `yaml:"endpoint" env:"STASHD_S3_ENDPOINT"`
	Bucket       string `yaml:"bucket" env:"STASHD_S3_BUCKET"`
	Region       string `yaml:"region" env:"STASHD_S3_REGION"`
	AccessKey    string `yaml:"accessKey" env:"STASHD_S3_ACCESS_KEY"`
	SecretKey    string `yaml:"secretKey" env:"STASHD_S3_SECRET_KEY"`
	UsePathStyle bool   `yaml:"usePathStyle" env:"STASHD_S3_PATH_STYLE"`
}

// ReaperConfig configures an expiration run.
type ReaperConfig struct {
	// Segments is the number of parallel scan segments. Any value >= 1
	// yields the same candidate set; it only changes scan parallelism.
	Segments int `yaml:"segments" env:"STASHD_REAPER_SEGMENTS"`

	// GracePeriodSeconds is how long a backup may go unrefreshed before
	// it becomes eligible for removal. Default: 60 days.
	GracePeriodSeconds int64 `yaml:"gracePeriodSeconds" env:"STASHD_REAPER_GRACE_PERIOD"`

	// MaxConcurrency caps the number of in-flight backup removals.
	MaxConcurrency int `yaml:"maxConcurrency" env:"STASHD_REAPER_MAX_CONCURRENCY"`

	// DryRun exercises the full scan and accounting path without deleting
	// anything. Destructive runs are opt-in.
	DryRun bool `yaml:"dryRun" env:"STASHD_REAPER_DRY_RUN"`
}

// ObservabilityConfig configures logging and metrics.
type ObservabilityConfig struct {
	MetricsAddr string `yaml:"metricsAddr" env:"STASHD_METRICS_ADDR"`
	LogLevel    string `yaml:"logLevel" env:"STASHD_LOG_LEVEL"`
	LogFormat   string `yaml:"logFormat" env:"STASHD_LOG_FORMAT"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Metadata: MetadataConfig{
			OxiaEndpoint: "localhost:6648",
			Namespace:    "stash",
			NumDomains:   256,
		},
		ObjectStore: ObjectStoreConfig{
			Region: "us-east-1",
		},
		Reaper: ReaperConfig{
			Segments:           1,
			GracePeriodSeconds: 60 * 24 * 60 * 60, // 60 days
			MaxConcurrency:     16,
			DryRun:             true,
		},
		Observability: ObservabilityConfig{
			MetricsAddr: ":9090",
			LogLevel:    "info",
			LogFormat:   "json",
		},
	}
}

// Load returns the default configuration with environment overrides applied.
func Load() (*Config, error) {
	cfg := Default()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a YAML file, then applies
// environment overrides. Fields omitted from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the reaper cannot run with.
func (c *Config) Validate() error {
	if c.Metadata.NumDomains < 1 {
		return fmt.Errorf("config: metadata.numDomains must be >= 1, got %d", c.Metadata.NumDomains)
	}
	if c.Reaper.Segments < 1 {
		return fmt.Errorf("config: reaper.segments must be >= 1, got %d", c.Reaper.Segments)
	}
	if c.Reaper.MaxConcurrency < 1 {
		return fmt.Errorf("config: reaper.maxConcurrency must be >= 1, got %d", c.Reaper.MaxConcurrency)
	}
	if c.Reaper.GracePeriodSeconds < 0 {
		return fmt.Errorf("config: reaper.gracePeriodSeconds must be >= 0, got %d", c.Reaper.GracePeriodSeconds)
	}
	return nil
}

func (c *Config) applyEnv() {
	envString(&c.Metadata.OxiaEndpoint, "STASHD_OXIA_ENDPOINT")
	envString(&c.Metadata.Namespace, "STASHD_OXIA_NAMESPACE")
	envInt(&c.Metadata.NumDomains, "STASHD_NUM_DOMAINS")

	envString(&c.ObjectStore.Endpoint, "STASHD_S3_ENDPOINT")
	envString(&c.ObjectStore.Bucket, "STASHD_S3_BUCKET")
	envString(&c.ObjectStore.Region, "STASHD_S3_REGION")
	envString(&c.ObjectStore.AccessKey, "STASHD_S3_ACCESS_KEY")
	envString(&c.ObjectStore.SecretKey, "STASHD_S3_SECRET_KEY")
	envBool(&c.ObjectStore.UsePathStyle, "STASHD_S3_PATH_STYLE")

	envInt(&c.Reaper.Segments, "STASHD_REAPER_SEGMENTS")
	envInt64(&c.Reaper.GracePeriodSeconds, "STASHD_REAPER_GRACE_PERIOD")
	envInt(&c.Reaper.MaxConcurrency, "STASHD_REAPER_MAX_CONCURRENCY")
	envBool(&c.Reaper.DryRun, "STASHD_REAPER_DRY_RUN")

	envString(&c.Observability.MetricsAddr, "STASHD_METRICS_ADDR")
	envString(&c.Observability.LogLevel, "STASHD_LOG_LEVEL")
	envString(&c.Observability.LogFormat, "STASHD_LOG_FORMAT")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt64(dst *int64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
