package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// No config.yaml in the test working directory: defaults must carry.
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "https://tienda.mercadona.es/api", cfg.API.BaseURL)
	require.Equal(t, 3, cfg.API.MaxAttempts)
	require.Equal(t, 4, cfg.API.MaxWorkers)
	require.Equal(t, 200, cfg.API.DelayMs)
	require.Equal(t, "data", cfg.Snapshot.OutDir)
	require.True(t, cfg.Snapshot.SkipUnchanged)
	require.False(t, cfg.Redis.Enabled)
	require.False(t, cfg.Database.Enabled)
	require.False(t, cfg.Publish.Enabled)
}

func TestValidate(t *testing.T) {
	valid := Config{
		API:      APIConfig{BaseURL: "https://example.test/api", MaxWorkers: 4, MaxAttempts: 3},
		Snapshot: SnapshotConfig{OutDir: "data"},
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }, "base_url"},
		{"zero workers", func(c *Config) { c.API.MaxWorkers = 0 }, "max_workers"},
		{"zero attempts", func(c *Config) { c.API.MaxAttempts = 0 }, "max_attempts"},
		{"empty out dir", func(c *Config) { c.Snapshot.OutDir = "" }, "out_dir"},
		{"publish without dataset", func(c *Config) { c.Publish.Enabled = true }, "publish.dataset"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}
