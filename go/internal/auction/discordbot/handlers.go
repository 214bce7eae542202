package discordbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/handler"

	"github.com/mcdev12/auctionhouse/go/internal/auction/engine"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

func (b *Bot) handleReset(e *handler.CommandEvent) error {
	return ack(e, b.auction.Reset)
}

func (b *Bot) handleUndo(e *handler.CommandEvent) error {
	return ack(e, b.auction.Undo)
}

func (b *Bot) handleAddManager(e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	budget, err := FromMillions(int64(data.Int("budget_in_millions")))
	if err != nil {
		return err
	}
	return ack(e, func(ctx context.Context) error {
		return b.auction.AddManager(ctx, data.String("name"), budget)
	})
}

func (b *Bot) handleRemoveManager(e *handler.CommandEvent) error {
	name := e.SlashCommandInteractionData().String("name")
	return ack(e, func(ctx context.Context) error {
		return b.auction.RemoveManager(ctx, name)
	})
}

func (b *Bot) handleSetCap(e *handler.CommandEvent) error {
	limit := e.SlashCommandInteractionData().Int("cap")
	return ack(e, func(ctx context.Context) error {
		return b.auction.SetCap(ctx, limit)
	})
}

func (b *Bot) handlePause(e *handler.CommandEvent) error {
	return ack(e, b.auction.Pause)
}

func (b *Bot) handleResume(e *handler.CommandEvent) error {
	return ack(e, b.auction.Resume)
}

func (b *Bot) handleUnsold(e *handler.CommandEvent) error {
	return ack(e, b.auction.Unsold)
}

func (b *Bot) handleEditPlayer(e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	price, err := FromMillions(int64(data.Int("base_price")))
	if err != nil {
		return err
	}
	p := models.Player{
		Name:      data.String("name"),
		Team:      data.String("team"),
		BasePrice: price,
	}
	if rating, ok := data.OptInt("rating"); ok {
		p.Rating = &rating
	}
	return ack(e, func(ctx context.Context) error {
		return b.auction.EditItem(ctx, p)
	})
}

func (b *Bot) handleListPlayers(e *handler.CommandEvent) error {
	ctx, cancel := commandContext()
	defer cancel()
	players, err := b.auction.Items(ctx)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		return reply(e, "Player database is empty. Use `/editplayer` to add players.", true)
	}
	return replyEmbed(e, ItemList(players), true)
}

func (b *Bot) handlePlayerInfo(e *handler.CommandEvent) error {
	name := e.SlashCommandInteractionData().String("name")
	ctx, cancel := commandContext()
	defer cancel()
	info, err := b.auction.Item(ctx, name)
	if err != nil {
		return err
	}
	if info.Player == nil {
		msg := fmt.Sprintf("❌ Player **%s** not found in the database.", name)
		if len(info.Suggestions) > 0 {
			msg += " Did you mean: " + strings.Join(info.Suggestions, ", ") + "?"
		}
		return reply(e, msg, true)
	}
	return replyEmbed(e, ItemCard(*info.Player), false)
}

func (b *Bot) handleNominate(e *handler.CommandEvent) error {
	name := e.SlashCommandInteractionData().String("name")
	return b.withSuggestions(e, name, func(ctx context.Context) error {
		return b.auction.Nominate(ctx, name)
	})
}

func (b *Bot) handleBid(e *handler.CommandEvent) error {
	amount, err := FromMillions(int64(e.SlashCommandInteractionData().Int("amount_in_millions")))
	if err != nil {
		return err
	}
	manager := callerName(e)
	return ack(e, func(ctx context.Context) error {
		return b.auction.Bid(ctx, manager, amount)
	})
}

func (b *Bot) handleAutoAuction(e *handler.CommandEvent) error {
	return ack(e, b.auction.StartAutoAuction)
}

func (b *Bot) handleStartDraft(e *handler.CommandEvent) error {
	return ack(e, b.auction.StartDraft)
}

func (b *Bot) handleDraft(e *handler.CommandEvent) error {
	name := e.SlashCommandInteractionData().String("name")
	manager := callerName(e)
	return b.withSuggestions(e, name, func(ctx context.Context) error {
		return b.auction.Draft(ctx, manager, name)
	})
}

func (b *Bot) handleSteal(e *handler.CommandEvent) error {
	manager := callerName(e)
	return ack(e, func(ctx context.Context) error {
		return b.auction.Steal(ctx, manager)
	})
}

func (b *Bot) handleStatus(e *handler.CommandEvent) error {
	ctx, cancel := commandContext()
	defer cancel()
	st, err := b.auction.Status(ctx)
	if err != nil {
		return err
	}
	return replyEmbed(e, StatusBoard(st, time.Now()), len(st.State.Managers) == 0)
}

func (b *Bot) handleTeam(e *handler.CommandEvent) error {
	name := e.SlashCommandInteractionData().String("name")
	ctx, cancel := commandContext()
	defer cancel()
	m, err := b.auction.Team(ctx, name)
	if err != nil {
		return err
	}
	st, err := b.auction.Status(ctx)
	if err != nil {
		return err
	}
	return replyEmbed(e, TeamReport(m, st.State.ItemCap), false)
}

func (b *Bot) handleRetain(e *handler.CommandEvent) error {
	data := e.SlashCommandInteractionData()
	player, manager := data.String("player_name"), data.String("manager_name")
	return ack(e, func(ctx context.Context) error {
		return b.auction.Retain(ctx, player, manager)
	})
}

// withSuggestions runs a command naming a player and, when the player is not
// in the catalog, replies with close matches instead of the bare error.
func (b *Bot) withSuggestions(e *handler.CommandEvent, name string, action func(ctx context.Context) error) error {
	ctx, cancel := commandContext()
	defer cancel()
	err := action(ctx)
	if err == nil {
		return reply(e, "✅ Done.", true)
	}
	if !errors.Is(err, engine.ErrItemNotFound) {
		return err
	}
	info, lookupErr := b.auction.Item(ctx, name)
	if lookupErr != nil || len(info.Suggestions) == 0 {
		return err
	}
	return reply(e, fmt.Sprintf("❌ Player **%s** not found. Did you mean: %s?", name, strings.Join(info.Suggestions, ", ")), true)
}
