package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.DataDir)
	assert.Equal(t, "loader.jar", cfg.LoaderFile)
	assert.True(t, cfg.AutoSelectLaunched)
	assert.Equal(t, 10*time.Second, cfg.ScanInterval)
	assert.Equal(t, 256, cfg.SubscriberBuffer)
	assert.Equal(t, logrus.InfoLevel, cfg.Logger().GetLevel())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weave.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"data_dir": "/srv/weave",
		"auto_select_launched": false,
		"scan_interval": "2s",
		"log_level": "debug"
	}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/weave", cfg.DataDir)
	assert.False(t, cfg.AutoSelectLaunched)
	assert.Equal(t, 2*time.Second, cfg.ScanInterval)
	assert.Equal(t, logrus.DebugLevel, cfg.Logger().GetLevel())
}

func TestLoadTOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weave.toml")
	require.NoError(t, os.WriteFile(path, []byte("loader_file = \"weave-loader.jar\"\nsubscriber_buffer = 16\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "weave-loader.jar", cfg.LoaderFile)
	assert.Equal(t, 16, cfg.SubscriberBuffer)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("WEAVE_SCAN_INTERVAL", "0s")
	t.Setenv("WEAVE_DATA_DIR", "/tmp/w")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.ScanInterval)
	assert.Equal(t, "/tmp/w", cfg.DataDir)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weave.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log_level": "loud"}`), 0o600))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"scan_interval": "-1s"}`), 0o600))
	_, err = Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
