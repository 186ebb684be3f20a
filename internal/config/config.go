// Package config provides unified configuration for the Tesser client and
// its embedded engine.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tesserdb/tesser/internal/errors"
)

// Config holds the configuration for a Tesser client instance.
type Config struct {
	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Transaction configuration
	Transaction TransactionConfig `json:"transaction" yaml:"transaction"`

	// Storage configuration for blob spill and snapshots
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Trigger notification configuration
	Trigger TriggerConfig `json:"trigger" yaml:"trigger"`

	// PartitionCount is the number of affinity hash slots
	PartitionCount int `json:"partition_count" yaml:"partition_count"`
}

// TransactionConfig holds transaction behavior settings.
type TransactionConfig struct {
	// Timeout is how long a manual-commit transaction may stay open
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// BlobSpillThreshold is the payload size in bytes above which blob
	// payloads are offloaded to object storage
	BlobSpillThreshold int `json:"blob_spill_threshold" yaml:"blob_spill_threshold"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// TriggerConfig holds trigger notification settings.
type TriggerConfig struct {
	// Timeout bounds each notification delivery attempt
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/tesser",
		Transaction: TransactionConfig{
			Timeout: 5 * time.Minute,
		},
		Storage: StorageConfig{
			Type:               "local",
			Path:               "",
			BlobSpillThreshold: 1 << 20,
		},
		Trigger: TriggerConfig{
			Timeout: 10 * time.Second,
		},
		PartitionCount: 128,
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/tesser"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "storage")
	}
}

// SnapshotPath returns the path to the snapshot database.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, "snapshot.db")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.NewValidationError(errors.CodeInvalidConfig, "data_dir is required")
	}
	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return errors.Newf(errors.ErrCategoryValidation, errors.CodeInvalidConfig,
			"invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}
	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return errors.NewValidationError(errors.CodeInvalidConfig,
			"s3.bucket is required when storage type is s3")
	}
	if c.Transaction.Timeout <= 0 {
		return errors.NewValidationError(errors.CodeInvalidConfig,
			"transaction.timeout must be positive")
	}
	if c.PartitionCount < 1 {
		return errors.Newf(errors.ErrCategoryValidation, errors.CodeInvalidConfig,
			"partition_count must be at least 1, got %d", c.PartitionCount)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the TESSER_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("TESSER_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TESSER_TRANSACTION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Transaction.Timeout = d
		}
	}
	if v := os.Getenv("TESSER_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("TESSER_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("TESSER_BLOB_SPILL_THRESHOLD"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Storage.BlobSpillThreshold)
	}
	if v := os.Getenv("TESSER_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("TESSER_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("TESSER_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("TESSER_TRIGGER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Trigger.Timeout = d
		}
	}
	if v := os.Getenv("TESSER_PARTITION_COUNT"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.PartitionCount)
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.Storage.Path} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
