package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestParse_Normalizes(t *testing.T) {
	cfg, err := Parse([]byte("listen: \":9000\"\nmax_range_days: 5000\nrate_limit:\n  rps: 4\n"))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, 366, cfg.MaxRangeDays)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, defaultDBPath, cfg.DBPath)
	assert.Empty(t, cfg.ReminderCron)
	assert.Nil(t, cfg.BasicAuth)
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"bad yaml":              "listen: [",
		"bad timezone":          "timezone: Mars/Olympus",
		"half basic auth":       "basic_auth:\n  username: admin\n",
		"telegram without chat": "telegram:\n  token: abc\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.Local, (&Config{Timezone: "Local"}).Location())
	assert.Equal(t, "Europe/Berlin", (&Config{Timezone: "Europe/Berlin"}).Location().String())
	assert.Equal(t, time.Local, (&Config{Timezone: "nope"}).Location())
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(path, DefaultConfig()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, func(c *Config) { got <- c }) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	cfg := DefaultConfig()
	cfg.Listen = ":9999"
	require.NoError(t, Save(path, cfg))

	select {
	case c := <-got:
		assert.Equal(t, ":9999", c.Listen)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	assert.NoError(t, <-done)
}
