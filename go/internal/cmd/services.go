package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionhouse/go/internal/auction/discordbot"
	"github.com/mcdev12/auctionhouse/go/internal/auction/engine"
	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
	"github.com/mcdev12/auctionhouse/go/internal/auction/events/natspub"
	"github.com/mcdev12/auctionhouse/go/internal/auction/gateway"
	"github.com/mcdev12/auctionhouse/go/internal/auction/journal"
	"github.com/mcdev12/auctionhouse/go/internal/auction/orchestrator"
	"github.com/mcdev12/auctionhouse/go/internal/auction/store"
)

type Services struct {
	Store        store.Store
	Orchestrator *orchestrator.Orchestrator
	Gateway      *gateway.Service
	Journal      *journal.Writer
	Metrics      *events.MetricPublisher
	NATS         *natspub.Publisher // nil without NATS_URL
	Bot          *discordbot.Bot    // nil without DISCORD_TOKEN
}

func setupServices(ctx context.Context, e Env, cfg Config) (*Services, error) {
	// Store → engine → orchestrator → publishers (journal, gateway, NATS, bot)
	st, err := setupStore(ctx, e, cfg)
	if err != nil {
		return nil, err
	}
	s := &Services{Store: st}

	s.Journal = journal.NewWriter(cfg.JournalDir, "auction")
	pubs := events.Fanout{s.Journal}

	if e.NATSURL != "" {
		natsCfg := cfg.NATS
		natsCfg.URL = e.NATSURL
		if s.NATS, err = natspub.New(ctx, natsCfg); err != nil {
			s.Close()
			return nil, err
		}
		pubs = append(pubs, s.NATS)
	}

	// The gateway and bot read from the orchestrator, so it is created before
	// them and reaches them through these late-bound publishers.
	var (
		gw  *gateway.Service
		bot *discordbot.Bot
	)
	pubs = append(pubs, events.PublisherFunc(func(ctx context.Context, env events.Envelope) error {
		return gw.Publisher().Publish(ctx, env)
	}))
	if e.DiscordToken != "" {
		pubs = append(pubs, events.PublisherFunc(func(ctx context.Context, env events.Envelope) error {
			return bot.Publish(ctx, env)
		}))
	}

	s.Metrics = events.NewMetricPublisher(pubs)
	eng := engine.New(cfg.Tiers, nil)
	s.Orchestrator = orchestrator.New(st, eng, s.Metrics, cfg.Orchestrator)

	health := gateway.HealthSources{Publisher: s.Metrics}
	if s.NATS != nil {
		health.NATS = s.NATS
	}
	gw = gateway.NewService(gateway.DefaultConnectionConfig(), s.Orchestrator, health)
	s.Gateway = gw

	if e.DiscordToken != "" {
		channel, guilds, err := cfg.discordIDs()
		if err != nil {
			s.Close()
			return nil, err
		}
		bot, err = discordbot.New(discordbot.Config{
			Token:        e.DiscordToken,
			ChannelID:    channel,
			GuildIDs:     guilds,
			SyncCommands: e.SyncCommands,
		}, s.Orchestrator)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Bot = bot
	} else {
		log.Warn().Msg("DISCORD_TOKEN not set, running without the chat bot")
	}
	return s, nil
}

// Close releases the store and publishers.
func (s *Services) Close() error {
	var errs []error
	if s.NATS != nil {
		errs = append(errs, s.NATS.Close())
	}
	if s.Journal != nil {
		errs = append(errs, s.Journal.Close())
	}
	if s.Store != nil {
		errs = append(errs, s.Store.Close())
	}
	return errors.Join(errs...)
}
