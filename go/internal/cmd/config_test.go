package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Orchestrator.BidCountdown)
	assert.Equal(t, 15*time.Second, cfg.Orchestrator.StealCountdown)
	assert.Equal(t, 85, cfg.Tiers.HighMin)
	assert.Equal(t, "data", cfg.DataDir)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
orchestrator:
  bid_countdown: 8s
tiers:
  high_min: 90
data_dir: /var/lib/auction
discord:
  channel_id: "123456789012345678"
  guild_ids: ["987654321098765432"]
`), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8*time.Second, cfg.Orchestrator.BidCountdown)
	assert.Equal(t, 15*time.Second, cfg.Orchestrator.StealCountdown)
	assert.Equal(t, 90, cfg.Tiers.HighMin)
	assert.Equal(t, 75, cfg.Tiers.MidMin)
	assert.Equal(t, "/var/lib/auction", cfg.DataDir)

	channel, guilds, err := cfg.discordIDs()
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(123456789012345678), channel)
	assert.Equal(t, []snowflake.ID{987654321098765432}, guilds)
}

func TestLoadConfigRejectsZeroCountdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("orchestrator:\n  steal_countdown: 0s\n"), 0o644))
	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	e, err := loadEnv()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", e.StoreDriver)
	assert.Equal(t, "config.yaml", e.ConfigPath)
}
