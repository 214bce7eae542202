package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/auctionhouse/go/internal/auction/events/natspub"
	"github.com/mcdev12/auctionhouse/go/internal/auction/orchestrator"
	"github.com/mcdev12/auctionhouse/go/internal/auction/queue"
)

// Env holds the process settings read from the environment.
type Env struct {
	ConfigPath   string `env:"AUCTION_CONFIG" envDefault:"config.yaml"`
	Port         string `env:"PORT" envDefault:"8080"`
	StoreDriver  string `env:"STORE_DRIVER" envDefault:"file"` // file, sqlite or postgres
	DiscordToken string `env:"DISCORD_TOKEN"`
	SyncCommands bool   `env:"SYNC_COMMANDS" envDefault:"false"`
	NATSURL      string `env:"NATS_URL"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"console"` // console or json
}

// Config holds the tunables read from the YAML file.
type Config struct {
	Orchestrator orchestrator.Config `yaml:"orchestrator"`
	Tiers        queue.Tiers         `yaml:"tiers"`

	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
	JournalDir string `yaml:"journal_dir"`

	Discord struct {
		ChannelID string   `yaml:"channel_id"`
		GuildIDs  []string `yaml:"guild_ids"`
	} `yaml:"discord"`

	NATS natspub.Config `yaml:"nats"`
}

func defaultConfig() Config {
	return Config{
		Orchestrator: orchestrator.DefaultConfig(),
		Tiers:        queue.DefaultTiers(),
		DataDir:      "data",
		SQLitePath:   "data/auction.db",
		JournalDir:   "data/journal",
		NATS:         natspub.DefaultConfig(),
	}
}

func loadEnv() (Env, error) {
	e, err := env.ParseAs[Env]()
	if err != nil {
		return Env{}, fmt.Errorf("parse environment: %w", err)
	}
	return e, nil
}

// loadConfig reads path over the defaults. A missing file leaves the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", path).Msg("config file not found, using defaults")
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Orchestrator.BidCountdown <= 0 || cfg.Orchestrator.StealCountdown <= 0 {
		return cfg, errors.New("countdowns must be positive")
	}
	return cfg, nil
}

// discordIDs parses the configured snowflakes.
func (c Config) discordIDs() (channel snowflake.ID, guilds []snowflake.ID, err error) {
	if c.Discord.ChannelID != "" {
		if channel, err = snowflake.Parse(c.Discord.ChannelID); err != nil {
			return 0, nil, fmt.Errorf("channel_id: %w", err)
		}
	}
	for _, g := range c.Discord.GuildIDs {
		id, err := snowflake.Parse(g)
		if err != nil {
			return 0, nil, fmt.Errorf("guild_ids: %w", err)
		}
		guilds = append(guilds, id)
	}
	return channel, guilds, nil
}
