package discordbot

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/dustin/go-humanize"

	"github.com/mcdev12/auctionhouse/go/internal/auction/engine"
	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
	"github.com/mcdev12/auctionhouse/go/internal/auction/orchestrator"
	"github.com/mcdev12/auctionhouse/go/internal/auction/store"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// Million is the unit chat amounts are entered in.
const Million int64 = 1_000_000

const (
	colorGreen = 0x57F287
	colorBlue  = 0x3498DB
	colorGold  = 0xF1C40F

	// Discord rejects embed descriptions and field values beyond these.
	maxDescription = 4000
	maxFieldValue  = 1024
)

// FromMillions converts a chat amount to whole currency units.
func FromMillions(m int64) (int64, error) {
	if m <= 0 {
		return 0, fmt.Errorf("%w: %d", engine.ErrInvalidAmount, m)
	}
	if m > (1<<63-1)/Million {
		return 0, fmt.Errorf("%w: %d is too large", engine.ErrInvalidAmount, m)
	}
	return m * Million, nil
}

// Money renders an amount like $1,250,000.
func Money(amount int64) string {
	return "$" + humanize.Comma(amount)
}

// Announce turns an auction event into a channel message. Events nobody
// needs to see return false.
func Announce(e events.Event) (string, bool) {
	switch p := e.Payload.(type) {
	case events.PlayerPayload:
		switch e.Type {
		case events.PlayerNominated:
			return fmt.Sprintf("🔨 **%s** (%s) is on the block! Opening price **%s**. Use `/bid` to make an offer.",
				p.Player.Name, p.Player.Team, Money(p.Player.BasePrice)), true
		case events.PlayerUnsold:
			return fmt.Sprintf("❌ **%s** goes unsold.", p.Player.Name), true
		case events.PlayerEdited:
			return fmt.Sprintf("✅ **Player Database Updated!**\n**%s** (Team: %s, Base Price: %s)",
				p.Player.Name, p.Player.Team, Money(p.Player.BasePrice)), true
		}
	case events.BidPayload:
		switch e.Type {
		case events.BidPlaced:
			return fmt.Sprintf("🔥 **New High Bid!** **%s** bids **%s** for **%s**.", p.Manager, Money(p.Amount), p.Player), true
		case events.StealStarted:
			return fmt.Sprintf("💰 **STEAL!** **%s** steals the pick on **%s** at **%s**. The auction is now live!",
				p.Manager, p.Player, Money(p.Amount)), true
		}
	case events.SoldPayload:
		return fmt.Sprintf("💸 **SOLD! %s** joins **%s** for **%s**!\n**%s** has **%s** remaining.",
			p.Player, p.Manager, Money(p.Price), p.Manager, Money(p.RemainingBudget)), true
	case events.ManagerPayload:
		switch e.Type {
		case events.BudgetExhausted:
			return fmt.Sprintf("🚨 **%s** has no money left! 🚨", p.Name), true
		case events.ManagerAdded:
			return fmt.Sprintf("✅ Manager **%s** added with a budget of **%s**.", p.Name, Money(p.Budget)), true
		case events.ManagerRemoved:
			return fmt.Sprintf("🗑️ Manager **%s** has been removed.", p.Name), true
		}
	case events.DraftStartedPayload:
		return fmt.Sprintf("🚨 **%d MANAGERS** have no money! **DRAFT MODE INITIATED!** 🚨\nDraft order: %s",
			p.ZeroBudget, strings.Join(p.Order, ", ")), true
	case events.DraftTurnPayload:
		switch e.Type {
		case events.DraftTurn:
			return fmt.Sprintf("It is **Pick #%d**.\n**%s**, you are on the clock! Use `/draft` to pick a player.", p.Pick, p.Manager), true
		case events.DraftSkipped:
			return fmt.Sprintf("Skipping **%s** (team full).", p.Manager), true
		}
	case events.DraftPickPayload:
		switch e.Type {
		case events.DraftPicked:
			return fmt.Sprintf("**%s** selects **%s**.\nAnyone can `/steal` this player for **%s**!",
				p.Manager, p.Player, Money(p.StealPrice)), true
		case events.DraftFinalized:
			return fmt.Sprintf("✅ **NOT STOLEN!** **%s** officially joins **%s**'s team!", p.Player, p.Manager), true
		}
	case events.VoidPayload:
		return fmt.Sprintf("⚠️ Countdown for **%s** voided: %s.", p.Player, p.Reason), true
	case events.PhasePayload:
		switch e.Type {
		case events.AuctionPaused:
			return "⏸️ **The auction is paused.**", true
		case events.AuctionResumed:
			return fmt.Sprintf("▶️ **The auction resumes!** (%s)", p.Phase), true
		case events.AuctionUndone:
			return fmt.Sprintf("↩️ **Last action undone.** The auction is %s.", p.Phase), true
		}
	case events.CapPayload:
		return fmt.Sprintf("✅ Player cap set to **%d**.", p.Cap), true
	case events.RetainedPayload:
		return fmt.Sprintf("✅ **%s** has retained **%s**!", p.Manager, p.Player), true
	case events.QueuePayload:
		switch e.Type {
		case events.QueueBuilt:
			return fmt.Sprintf("🎲 Auto auction started with **%d** players in the queue.", p.Size), true
		case events.QueueSkipped:
			return "", false
		}
	case events.ResetPayload:
		if p.CatalogRestored {
			return "🔄 **The auction has been reset.** The player database was restored.", true
		}
		return "🔄 **The auction has been reset.**", true
	case events.CountdownPayload:
		if p.Countdown == "steal" {
			return fmt.Sprintf("⏳ **%d seconds** to steal **%s** from **%s**.", p.Seconds, p.Player, p.Manager), true
		}
		return fmt.Sprintf("⏳ Going once, going twice... **%d seconds** to outbid **%s**.", p.Seconds, p.Manager), true
	case nil:
		switch e.Type {
		case events.DraftCompleted:
			return "🎉 **All teams are full! The draft is complete!** 🎉", true
		case events.QueueExhausted:
			return "🏁 **The auction queue is empty.**", true
		}
	}
	return "", false
}

// ReplyFor maps a command error to the message shown to the user. ok is false
// for unexpected errors, which get a generic reply.
func ReplyFor(err error) (msg string, ok bool) {
	switch {
	case errors.Is(err, engine.ErrBidTooLow):
		return "❌ Your bid must be higher than the current bid.", true
	case errors.Is(err, engine.ErrInsufficientFunds):
		return "❌ You don't have enough money for that.", true
	case errors.Is(err, engine.ErrRosterFull):
		return "❌ That team is already full.", true
	case errors.Is(err, engine.ErrAlreadyHighBidder):
		return "❌ You already hold the top bid.", true
	case errors.Is(err, engine.ErrNotYourTurn):
		return "❌ It's not your turn to draft.", true
	case errors.Is(err, engine.ErrItemNotFound):
		return fmt.Sprintf("❌ Player %s not found in the database.", detail(err)), true
	case errors.Is(err, engine.ErrManagerNotFound):
		return fmt.Sprintf("❌ Manager not found: %s.", detail(err)), true
	case errors.Is(err, engine.ErrDuplicateManager):
		return "❌ That manager already exists.", true
	case errors.Is(err, engine.ErrInvalidCap):
		return "❌ The cap must be a positive number no smaller than any team's current squad.", true
	case errors.Is(err, engine.ErrAlreadyRetained):
		return "⚠️ That manager has already retained a player! Use `/undo` to fix.", true
	case errors.Is(err, engine.ErrInvalidAmount):
		return "❌ Amounts must be positive.", true
	case errors.Is(err, engine.ErrInvalidName):
		return "❌ A name is required.", true
	case errors.Is(err, engine.ErrCatalogEmpty):
		return "❌ There are no players left to auction.", true
	case errors.Is(err, engine.ErrDraftNotTriggered):
		return fmt.Sprintf("ℹ️ Not enough managers are out of money to start a draft (%s).", detail(err)), true
	case errors.Is(err, engine.ErrWrongPhase):
		return fmt.Sprintf("❌ You can't do that right now (%s).", detail(err)), true
	case errors.Is(err, store.ErrNoBackupAvailable):
		return "❌ Nothing to undo.", true
	case errors.Is(err, orchestrator.ErrStopped):
		return "❌ The auction is shutting down.", true
	}
	return "An unexpected error occurred. Please check the logs.", false
}

// detail strips the sentinel text and keeps the context wrapped around it.
func detail(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

// StatusBoard renders the live board: phase, the block, and every manager
// from the richest down.
func StatusBoard(st orchestrator.Status, now time.Time) discord.Embed {
	s := st.State
	embed := discord.Embed{
		Title: fmt.Sprintf("Auction - Live Status (%s)", s.Phase),
		Color: colorGreen,
	}
	if len(s.Managers) == 0 {
		embed.Description = "No managers in the auction. Use `/addmanager` to get started."
		return embed
	}

	var desc []string
	if ob := s.OnBlock; ob != nil {
		line := fmt.Sprintf("**On the block:** %s at %s", ob.Player.Name, Money(ob.CurrentBid))
		if ob.CurrentBidder != "" {
			line += " by " + managerName(s, ob.CurrentBidder)
		} else if ob.Drafter != "" {
			line += ", drafted by " + managerName(s, ob.Drafter)
		}
		desc = append(desc, line)
	}
	if left, ok := st.Remaining(now); ok {
		desc = append(desc, fmt.Sprintf("**Countdown:** %ds left", int(left.Round(time.Second)/time.Second)))
	}
	if key, ok := s.OnTheClock(); ok && s.Phase == models.PhaseDrafting {
		desc = append(desc, "**On the clock:** "+managerName(s, key))
	}
	desc = append(desc, fmt.Sprintf("**Players left:** %d", st.CatalogSize))
	embed.Description = strings.Join(desc, "\n")

	managers := make([]*models.Manager, 0, len(s.Managers))
	for _, m := range s.Managers {
		managers = append(managers, m)
	}
	sort.SliceStable(managers, func(i, j int) bool {
		if managers[i].Budget != managers[j].Budget {
			return managers[i].Budget > managers[j].Budget
		}
		return models.Key(managers[i].Name) < models.Key(managers[j].Name)
	})
	inline := true
	for _, m := range managers {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:   "Manager: " + m.Name,
			Value:  fmt.Sprintf("**Budget:** %s\n**Players:** %d / %d", Money(m.Budget), m.Holdings(), s.ItemCap),
			Inline: &inline,
		})
	}
	return embed
}

// TeamReport renders one manager's squad.
func TeamReport(m models.Manager, itemCap int) discord.Embed {
	inline, block := true, false
	retained := "None"
	if m.RetainedPlayer != "" {
		retained = "**" + m.RetainedPlayer + "**"
	}

	var squad []string
	if m.RetainedPlayer != "" {
		squad = append(squad, fmt.Sprintf("• **%s** (Retained)", m.RetainedPlayer))
	}
	for _, p := range m.Players {
		squad = append(squad, "• "+p)
	}
	list := "No players yet."
	if len(squad) > 0 {
		list = truncate(strings.Join(squad, "\n"), maxFieldValue)
	}

	return discord.Embed{
		Title: "Squad Report: " + m.Name,
		Color: colorBlue,
		Fields: []discord.EmbedField{
			{Name: "Retained Player", Value: retained, Inline: &inline},
			{Name: "Remaining Budget", Value: "**" + Money(m.Budget) + "**", Inline: &inline},
			{Name: "Total Spent", Value: Money(m.Spent), Inline: &inline},
			{Name: fmt.Sprintf("Full Squad (%d / %d players)", m.Holdings(), itemCap), Value: list, Inline: &block},
		},
	}
}

// ItemList renders the catalog.
func ItemList(players []models.Player) discord.Embed {
	lines := make([]string, len(players))
	for i, p := range players {
		lines[i] = fmt.Sprintf("• **%s** (Team: %s, Base: %s)", p.Name, p.Team, Money(p.BasePrice))
	}
	desc := strings.Join(lines, "\n")
	if len(desc) > maxDescription {
		desc = cutLines(desc, maxDescription-len("\n...and many more.")) + "\n...and many more."
	}
	return discord.Embed{Title: "Available Players", Color: colorGold, Description: desc}
}

// ItemCard renders a single player.
func ItemCard(p models.Player) discord.Embed {
	inline := true
	fields := []discord.EmbedField{
		{Name: "Real Team", Value: p.Team, Inline: &inline},
		{Name: "Base Price", Value: Money(p.BasePrice), Inline: &inline},
	}
	if p.Rating != nil {
		fields = append(fields, discord.EmbedField{Name: "Rating", Value: fmt.Sprint(*p.Rating), Inline: &inline})
	}
	return discord.Embed{Title: p.Name, Color: colorBlue, Fields: fields}
}

func managerName(s *models.AuctionState, key string) string {
	if m, ok := s.Managers[key]; ok {
		return m.Name
	}
	return key
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return cutLines(s, n-len("\n...")) + "\n..."
}

// cutLines keeps the whole lines of s that fit in n bytes.
func cutLines(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if i := strings.LastIndex(s[:n], "\n"); i >= 0 {
		return s[:i]
	}
	return strings.ToValidUTF8(s[:n], "")
}
