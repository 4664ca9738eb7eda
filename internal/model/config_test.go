package model_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perchapp/perch/internal/model"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := model.LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))

	require.NoError(t, err)
	assert.False(t, cfg.Configured())
	assert.Equal(t, 45, cfg.Engine.PollIntervalSec)
	assert.Equal(t, 6, cfg.Engine.ToastTTLSec)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	cfg.Server.BaseURL = "https://perch.example.com"
	cfg.Server.AccountID = "u1"
	cfg.Server.Handle = "me"
	cfg.Engine.PollIntervalSec = 30

	require.NoError(t, model.SaveConfig(path, cfg))

	loaded, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, loaded.Configured())
	assert.Equal(t, "https://perch.example.com", loaded.Server.BaseURL)
	assert.Equal(t, "u1", loaded.Server.AccountID)
	assert.Equal(t, 30, loaded.Engine.PollIntervalSec)
	assert.Equal(t, 6, loaded.Engine.ToastTTLSec, "unset keys keep defaults")
}

func TestLoadConfigRejectsNonPositiveTuning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	cfg.Engine.PollIntervalSec = -5
	cfg.Engine.ToastTTLSec = 0
	require.NoError(t, model.SaveConfig(path, cfg))

	loaded, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 45, loaded.Engine.PollIntervalSec)
	assert.Equal(t, 6, loaded.Engine.ToastTTLSec)
}
