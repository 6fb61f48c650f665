package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "rules-v1", cfg.ModelVersion)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.True(t, cfg.ExposeTraces)
	assert.False(t, cfg.Headless)
	assert.NotEmpty(t, cfg.DataDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ROCKBURST_PORT", "9090")
	t.Setenv("ROCKBURST_MODEL_VERSION", "forest-v1")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "forest-v1", cfg.ModelVersion)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rockburst.yaml")
	content := "port: 7000\ndata_dir: " + dir + "\nlog_format: json\nexpose_traces: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.ExposeTraces)
	assert.Equal(t, filepath.Join(dir, "rockburst.db"), cfg.DBPath())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestFlagsWin(t *testing.T) {
	t.Setenv("ROCKBURST_PORT", "9090")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 8080, "")
	flags.String("data-dir", "", "")
	require.NoError(t, flags.Parse([]string{"--port", "6000"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Port)
}

func TestValidate(t *testing.T) {
	base := Config{Port: 8080, DataDir: "/tmp", ModelVersion: "rules-v1", LogFormat: "console"}
	require.NoError(t, base.Validate())

	bad := base
	bad.Port = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.LogFormat = "xml"
	assert.Error(t, bad.Validate())

	bad = base
	bad.ModelVersion = ""
	assert.Error(t, bad.Validate())
}
