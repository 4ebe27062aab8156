package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
db_path: /var/lib/fintrack/app.db
listen_addr: ":9090"
locale: ru
modal_exit_delay: 150ms
session:
  short_ttl: 12h
  long_ttl: 168h
  sweep_interval: 5m
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/fintrack/app.db", cfg.DBPath)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "ru", cfg.Locale)
	assert.Equal(t, 150*time.Millisecond, time.Duration(cfg.ModalExitDelay))
	assert.Equal(t, 12*time.Hour, time.Duration(cfg.Session.ShortTTL))
	assert.Equal(t, 7*24*time.Hour, time.Duration(cfg.Session.LongTTL))
	assert.Equal(t, 5*time.Minute, time.Duration(cfg.Session.SweepInterval))

	// Unset keys keep their defaults
	assert.Equal(t, "web", cfg.WebDir)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "listen_addr: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, "modal_exit_delay: soon")
	_, err := Load(path)
	assert.Error(t, err)
}
