// Package discordbot is the chat front end: slash commands that drive the
// orchestrator and a publisher that announces auction events in a channel.
package discordbot

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
	"github.com/mcdev12/auctionhouse/go/internal/auction/orchestrator"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// commandTimeout keeps replies inside Discord's three second window.
const commandTimeout = 2500 * time.Millisecond

// Auction is the orchestrator surface the bot drives.
type Auction interface {
	Nominate(ctx context.Context, player string) error
	Bid(ctx context.Context, manager string, amount int64) error
	Unsold(ctx context.Context) error
	Draft(ctx context.Context, manager, player string) error
	Steal(ctx context.Context, manager string) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Reset(ctx context.Context) error
	Undo(ctx context.Context) error
	StartAutoAuction(ctx context.Context) error
	StartDraft(ctx context.Context) error
	AddManager(ctx context.Context, name string, budget int64) error
	RemoveManager(ctx context.Context, name string) error
	SetCap(ctx context.Context, limit int) error
	EditItem(ctx context.Context, p models.Player) error
	Retain(ctx context.Context, player, manager string) error

	Status(ctx context.Context) (orchestrator.Status, error)
	Team(ctx context.Context, name string) (models.Manager, error)
	Items(ctx context.Context) ([]models.Player, error)
	Item(ctx context.Context, name string) (orchestrator.ItemInfo, error)
}

type Config struct {
	Token string
	// ChannelID receives announcements. When zero, the channel of the most
	// recent command is used.
	ChannelID    snowflake.ID
	GuildIDs     []snowflake.ID
	SyncCommands bool
}

type Bot struct {
	cfg     Config
	auction Auction
	client  bot.Client

	lastChannel atomic.Uint64
}

var _ events.Publisher = (*Bot)(nil)

// New builds the bot and its command router. The gateway is opened by Start.
func New(cfg Config, a Auction) (*Bot, error) {
	b := &Bot{cfg: cfg, auction: a}

	client, err := disgo.New(cfg.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds)),
		bot.WithEventListeners(b.router()),
	)
	if err != nil {
		return nil, fmt.Errorf("create discord client: %w", err)
	}
	b.client = client
	return b, nil
}

func (b *Bot) router() *handler.Mux {
	h := handler.New()
	routes := map[string]handler.CommandHandler{
		"reset":         b.handleReset,
		"undo":          b.handleUndo,
		"addmanager":    b.handleAddManager,
		"removemanager": b.handleRemoveManager,
		"setcap":        b.handleSetCap,
		"pause":         b.handlePause,
		"resume":        b.handleResume,
		"unsold":        b.handleUnsold,
		"editplayer":    b.handleEditPlayer,
		"listplayers":   b.handleListPlayers,
		"playerinfo":    b.handlePlayerInfo,
		"nominate":      b.handleNominate,
		"bid":           b.handleBid,
		"autoauction":   b.handleAutoAuction,
		"startdraft":    b.handleStartDraft,
		"draft":         b.handleDraft,
		"steal":         b.handleSteal,
		"status":        b.handleStatus,
		"team":          b.handleTeam,
		"retain":        b.handleRetain,
	}
	for name, fn := range routes {
		h.Command("/"+name, b.wrap(name, fn))
	}
	return h
}

// Start syncs commands if configured, opens the gateway and blocks until ctx
// is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.cfg.SyncCommands {
		if err := handler.SyncCommands(b.client, Commands, b.cfg.GuildIDs); err != nil {
			return fmt.Errorf("sync commands: %w", err)
		}
		log.Info().Int("commands", len(Commands)).Int("guilds", len(b.cfg.GuildIDs)).Msg("slash commands synced")
	}
	if err := b.client.OpenGateway(ctx); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	log.Info().Msg("discord bot is running")

	<-ctx.Done()
	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	b.client.Close(closeCtx)
	log.Info().Msg("discord bot stopped")
	return nil
}

// Publish announces an auction event in the announcement channel.
func (b *Bot) Publish(ctx context.Context, env events.Envelope) error {
	msg, ok := Announce(env.Event)
	if !ok {
		return nil
	}
	channel := b.cfg.ChannelID
	if channel == 0 {
		channel = snowflake.ID(b.lastChannel.Load())
	}
	if channel == 0 {
		log.Debug().Str("event_type", string(env.EventType)).Msg("no announcement channel yet")
		return nil
	}
	if _, err := b.client.Rest().CreateMessage(channel, discord.MessageCreate{Content: msg}); err != nil {
		return fmt.Errorf("announce %s: %w", env.EventType, err)
	}
	return nil
}

// wrap adds the admin check, logging, panic recovery and error replies.
func (b *Bot) wrap(name string, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) (err error) {
		start := time.Now()
		user := e.User()
		logger := log.With().
			Str("command", name).
			Str("user_id", user.ID.String()).
			Str("user_name", user.Username).
			Logger()

		defer func() {
			if r := recover(); r != nil {
				logger.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("command panicked")
				err = reply(e, "An unexpected error occurred. Please check the logs.", true)
			}
		}()

		if b.cfg.ChannelID == 0 {
			b.lastChannel.Store(uint64(e.ChannelID()))
		}
		if adminCommands[name] && !isAdmin(e) {
			logger.Warn().Msg("command denied")
			return reply(e, "🚫 You do not have permission to use this command.", true)
		}

		if err := h(e); err != nil {
			msg, known := ReplyFor(err)
			if known {
				logger.Info().Str("reason", err.Error()).Dur("took", time.Since(start)).Msg("command rejected")
			} else {
				logger.Error().Err(err).Dur("took", time.Since(start)).Msg("command failed")
			}
			return reply(e, msg, true)
		}
		logger.Info().Dur("took", time.Since(start)).Msg("command completed")
		return nil
	}
}

func isAdmin(e *handler.CommandEvent) bool {
	m := e.Member()
	return m != nil && m.Permissions.Has(discord.PermissionAdministrator)
}

// callerName is the name a member is known by in the auction: server nickname,
// then global display name, then username.
func callerName(e *handler.CommandEvent) string {
	var nick *string
	if m := e.Member(); m != nil {
		nick = m.Nick
	}
	u := e.User()
	return effectiveName(nick, u.GlobalName, u.Username)
}

func effectiveName(nick, global *string, username string) string {
	if nick != nil && *nick != "" {
		return *nick
	}
	if global != nil && *global != "" {
		return *global
	}
	return username
}

func reply(e *handler.CommandEvent, content string, ephemeral bool) error {
	msg := discord.MessageCreate{Content: content}
	if ephemeral {
		msg.Flags = discord.MessageFlagEphemeral
	}
	return e.CreateMessage(msg)
}

func replyEmbed(e *handler.CommandEvent, embed discord.Embed, ephemeral bool) error {
	msg := discord.MessageCreate{Embeds: []discord.Embed{embed}}
	if ephemeral {
		msg.Flags = discord.MessageFlagEphemeral
	}
	return e.CreateMessage(msg)
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

// ack runs an action whose outcome is announced in the channel and confirms it
// privately to the caller.
func ack(e *handler.CommandEvent, action func(ctx context.Context) error) error {
	ctx, cancel := commandContext()
	defer cancel()
	if err := action(ctx); err != nil {
		return err
	}
	return reply(e, "✅ Done.", true)
}
