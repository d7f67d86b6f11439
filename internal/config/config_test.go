package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultSimilarityWeight, cfg.Learning.SimilarityWeight)
	assert.Equal(t, DefaultMinRepeat, cfg.Learning.MinRepeat)
	assert.Equal(t, DefaultProfileBackend, cfg.ProfileStore.Backend)
	assert.Equal(t, DefaultDateLayouts, cfg.Learning.DateLayouts)
	assert.Equal(t, DefaultLockTimeout, cfg.Learning.LockTimeout)
}

func TestLoadFromEnvOverride(t *testing.T) {
	t.Setenv("PRODOCUX_SERVER_PORT", "9999")
	t.Setenv("PRODOCUX_PROFILE_STORE_DIR", "/tmp/profiles")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "/tmp/profiles", cfg.ProfileStore.Dir)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8181
  mode: debug
learning:
  apply_threshold: 0.8
  lock_timeout: 10s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 0.8, cfg.Learning.ApplyThreshold)
	assert.Equal(t, 10*time.Second, cfg.Learning.LockTimeout)
	// Unset fields still get defaults.
	assert.Equal(t, DefaultMinRepeat, cfg.Learning.MinRepeat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadWeights(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Learning.SimilarityWeight = 0.9
	cfg.Learning.PatternWeight = 0.9
	cfg.Learning.RepetitionWeight = 0.9

	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadMode(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Server.Mode = "production"

	require.Error(t, cfg.Validate())
}
