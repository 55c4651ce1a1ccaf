package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
  allowedOrigins: ["http://localhost:5173"]
log:
  level: debug
  pretty: true
redis:
  addr: localhost:6379
  sessionTtl: 12h
postgres:
  url: postgres://circuit@localhost/circuit
game:
  autoAdvanceDelay: 2s
  passwordCost: 11
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "12h", cfg.Redis.SessionTTL)
	assert.Equal(t, "postgres://circuit@localhost/circuit", cfg.Postgres.URL)
	assert.Equal(t, "2s", cfg.Game.AutoAdvanceDelay)
	assert.Equal(t, 11, cfg.Game.PasswordCost)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Postgres.URL)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDurationOr(t *testing.T) {
	assert.Equal(t, 3*time.Second, DurationOr("", 3*time.Second))
	assert.Equal(t, 3*time.Second, DurationOr("soon", 3*time.Second))
	assert.Equal(t, 3*time.Second, DurationOr("-1s", 3*time.Second))
	assert.Equal(t, 1500*time.Millisecond, DurationOr("1.5s", 3*time.Second))
}
