package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 1024, cfg.Index.DocTableBuckets)
	assert.True(t, cfg.Index.Validate)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "index.complete", cfg.Kafka.Topics.IndexComplete)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
index:
  indexBuckets: 64
  validate: false
search:
  indexFiles: [a.idx, b.idx]
redis:
  enabled: true
  cacheTTL: 5s
`), 0o644))
	t.Setenv("SP_SERVER_PORT", "9999")
	t.Setenv("SP_INDEX_VALIDATE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Index.IndexBuckets)
	assert.Equal(t, 1024, cfg.Index.DocTableBuckets)
	assert.True(t, cfg.Index.Validate)
	assert.Equal(t, []string{"a.idx", "b.idx"}, cfg.Search.IndexFiles)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadRejectsBadLimits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  defaultLimit: 50\n  maxResults: 10\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "searcher.yaml"))
	require.NoError(t, err)

	want := defaultConfig()
	want.Search.IndexFiles = []string{"data/corpus.idx"}
	assert.Equal(t, want, cfg)
	assert.Equal(t, 5*time.Minute, cfg.Postgres.ConnMaxLifetime)
}
