package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Query, cfg.Query)
	assert.Equal(t, 250, cfg.Query.LowZoomLimit)
	assert.Equal(t, 1000, cfg.Query.HighZoomLimit)
	assert.Equal(t, 14, cfg.Query.HighZoomThreshold)
}

func TestLoadAppliesDefaultsForMissingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  driver: sqlite
  dsn: file:dev.db
query:
  high_zoom_limit: 1500
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 1500, cfg.Query.HighZoomLimit)
	assert.Equal(t, 250, cfg.Query.LowZoomLimit)
	assert.Equal(t, time.Minute, cfg.Cache.TileTTL())
	assert.NotEmpty(t, cfg.Server.CORSOrigins)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://db/listings")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "postgres://db/listings", cfg.Database.DSN)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"badYAML":   "server: [",
		"badDriver": "database:\n  driver: oracle\n",
		"badLimits": "query:\n  low_zoom_limit: 2000\n  high_zoom_limit: 100\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
