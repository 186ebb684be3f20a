package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join(cfg.DataDir, "storage"), cfg.Storage.Path)
	assert.Equal(t, filepath.Join(cfg.DataDir, "snapshot.db"), cfg.SnapshotPath())
}

func TestValidate(t *testing.T) {
	t.Run("missing data dir", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DataDir = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad storage type", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Storage.Type = "gcs"
		assert.Error(t, cfg.Validate())
	})

	t.Run("s3 needs bucket", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Storage.Type = "s3"
		assert.Error(t, cfg.Validate())
		cfg.Storage.S3.Bucket = "tesser-data"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Transaction.Timeout = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad partition count", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.PartitionCount = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "tesser.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
data_dir: /var/lib/tesser
transaction:
  timeout: 90s
storage:
  type: s3
  s3:
    bucket: tesser-data
    region: eu-west-1
`), 0644))

	cfg, err := LoadFromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/tesser", cfg.DataDir)
	assert.Equal(t, 90*time.Second, cfg.Transaction.Timeout)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "tesser-data", cfg.Storage.S3.Bucket)
	// Untouched fields keep their defaults.
	assert.Equal(t, 128, cfg.PartitionCount)

	jsonPath := filepath.Join(dir, "tesser.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"partition_count": 32}`), 0644))
	cfg, err = LoadFromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.PartitionCount)

	_, err = LoadFromFile(filepath.Join(dir, "tesser.toml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TESSER_DATA_DIR", "/tmp/tesser-test")
	t.Setenv("TESSER_TRANSACTION_TIMEOUT", "45s")
	t.Setenv("TESSER_STORAGE_TYPE", "s3")
	t.Setenv("TESSER_S3_BUCKET", "override")
	t.Setenv("TESSER_PARTITION_COUNT", "64")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)
	assert.Equal(t, "/tmp/tesser-test", cfg.DataDir)
	assert.Equal(t, 45*time.Second, cfg.Transaction.Timeout)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "override", cfg.Storage.S3.Bucket)
	assert.Equal(t, 64, cfg.PartitionCount)
}
