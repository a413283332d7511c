package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "tutorly.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path: /var/lib/tutorly.db
http_addr: ":9090"
log:
  level: debug
  format: json
tutor:
  break_threshold_minutes: 40
  assessment: false
registry:
  max_sessions: 10
  idle_ttl: 45m
`), 0o644))
	t.Setenv("TUTORLY_HTTP_ADDR", ":7070")
	t.Setenv("TUTORLY_SWEEP_INTERVAL", "10s")
	t.Setenv("TUTORLY_MAX_DRAIN_STEPS", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.DBPath = "/var/lib/tutorly.db"
	want.HTTPAddr = ":7070"
	want.Log.Level = "debug"
	want.Log.Format = "json"
	want.Tutor.BreakThresholdMinutes = 40
	want.Tutor.Assessment = false
	want.Registry.MaxSessions = 10
	want.Registry.IdleTTL = 45 * time.Minute
	want.Registry.SweepInterval = 10 * time.Second
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TUTORLY_OUTLINE_DIR=/srv/outlines\nTUTORLY_ASSESSMENT=off\n"), 0o644))
	t.Setenv("TUTORLY_OUTLINE_DIR", "")
	os.Unsetenv("TUTORLY_OUTLINE_DIR")
	t.Setenv("TUTORLY_ASSESSMENT", "")
	os.Unsetenv("TUTORLY_ASSESSMENT")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/srv/outlines", cfg.OutlineDir)
	assert.False(t, cfg.Tutor.Assessment)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("log: [nope"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	t.Setenv("TUTORLY_MAX_SESSIONS", "0")
	_, err = Load("")
	assert.ErrorContains(t, err, "registry.max_sessions")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.HTTPAddr = "" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"zero break threshold", func(c *Config) { c.Tutor.BreakThresholdMinutes = 0 }},
		{"zero drain steps", func(c *Config) { c.Tutor.MaxDrainSteps = 0 }},
		{"negative ttl", func(c *Config) { c.Registry.IdleTTL = -time.Second }},
		{"zero sweep", func(c *Config) { c.Registry.SweepInterval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}
