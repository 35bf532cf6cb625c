package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.Clusters)
	assert.Equal(t, "rgb", cfg.Space)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 50, cfg.BarHeight)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Clusters = 8
	cfg.Space = "lab"
	cfg.Catalog = "/tmp/catalog.db"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"clusters": 12}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Clusters)
	assert.Equal(t, Default().BarHeight, cfg.BarHeight)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvClusters, "9")
	t.Setenv(EnvSpace, "HSL")
	t.Setenv(EnvSeed, "-3")
	t.Setenv(EnvCatalog, "/data/palettes.db")

	cfg := Default()
	cfg.SeedMode = "content"
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, 9, cfg.Clusters)
	assert.Equal(t, "HSL", cfg.Space)
	assert.Equal(t, int64(-3), cfg.Seed)
	assert.Equal(t, "manual", cfg.SeedMode)
	assert.Equal(t, "/data/palettes.db", cfg.Catalog)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvInvalid(t *testing.T) {
	t.Setenv(EnvClusters, "many")
	cfg := Default()
	assert.Error(t, cfg.ApplyEnv())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"clusters", func(c *Config) { c.Clusters = 0 }},
		{"space", func(c *Config) { c.Space = "hsv" }},
		{"seed mode", func(c *Config) { c.SeedMode = "lucky" }},
		{"iterations", func(c *Config) { c.MaxIterations = 0 }},
		{"dimension", func(c *Config) { c.MaxDimension = -1 }},
		{"bar", func(c *Config) { c.BarHeight = 0 }},
		{"progress", func(c *Config) { c.ProgressStep = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPathHonoursEnv(t *testing.T) {
	t.Setenv(EnvConfig, "/etc/kpalette.json")
	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/etc/kpalette.json", p)
}
