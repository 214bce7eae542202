package discordbot

import "github.com/disgoorg/disgo/discord"

// adminCommands may only be used by guild administrators.
var adminCommands = map[string]bool{
	"reset":         true,
	"undo":          true,
	"addmanager":    true,
	"removemanager": true,
	"setcap":        true,
	"pause":         true,
	"resume":        true,
	"unsold":        true,
	"editplayer":    true,
	"startdraft":    true,
	"autoauction":   true,
	"retain":        true,
}

func nameOption(name, description string) discord.ApplicationCommandOptionString {
	return discord.ApplicationCommandOptionString{Name: name, Description: description, Required: true}
}

// Commands is the slash command set synced to Discord.
var Commands = []discord.ApplicationCommandCreate{
	discord.SlashCommandCreate{Name: "reset", Description: "Resets the entire auction. (Admin Only)"},
	discord.SlashCommandCreate{Name: "undo", Description: "Undoes the last transaction. (Admin Only)"},
	discord.SlashCommandCreate{
		Name:        "addmanager",
		Description: "Adds a new manager to the auction.",
		Options: []discord.ApplicationCommandOption{
			nameOption("name", "The manager's name"),
			discord.ApplicationCommandOptionInt{
				Name:        "budget_in_millions",
				Description: "The starting budget (e.g., 1000)",
				Required:    true,
			},
		},
	},
	discord.SlashCommandCreate{
		Name:        "removemanager",
		Description: "Removes a manager from the auction.",
		Options:     []discord.ApplicationCommandOption{nameOption("name", "The name of the manager to remove")},
	},
	discord.SlashCommandCreate{
		Name:        "setcap",
		Description: "Sets the player cap for all teams.",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionInt{
				Name:        "cap",
				Description: "The max number of players per team (e.g., 18)",
				Required:    true,
			},
		},
	},
	discord.SlashCommandCreate{Name: "pause", Description: "Pauses the current auction countdown."},
	discord.SlashCommandCreate{Name: "resume", Description: "Resumes a paused auction."},
	discord.SlashCommandCreate{Name: "unsold", Description: "Marks the player on the block as unsold."},
	discord.SlashCommandCreate{
		Name:        "editplayer",
		Description: "Add or edit a player in the player database.",
		Options: []discord.ApplicationCommandOption{
			nameOption("name", "Player's full name"),
			nameOption("team", "Player's real-life team"),
			discord.ApplicationCommandOptionInt{
				Name:        "base_price",
				Description: "Base price in millions (e.g., 10)",
				Required:    true,
			},
			discord.ApplicationCommandOptionInt{
				Name:        "rating",
				Description: "Player rating, used to tier the auto auction queue",
			},
		},
	},
	discord.SlashCommandCreate{Name: "listplayers", Description: "Lists all available players from the database."},
	discord.SlashCommandCreate{
		Name:        "playerinfo",
		Description: "Gets the info for one player.",
		Options:     []discord.ApplicationCommandOption{nameOption("name", "Player's name")},
	},
	discord.SlashCommandCreate{
		Name:        "nominate",
		Description: "Nominate a player for auction!",
		Options:     []discord.ApplicationCommandOption{nameOption("name", "The name of the player to nominate")},
	},
	discord.SlashCommandCreate{
		Name:        "bid",
		Description: "Place a bid on the current player.",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionInt{
				Name:        "amount_in_millions",
				Description: "Your bid amount (e.g., 50)",
				Required:    true,
			},
		},
	},
	discord.SlashCommandCreate{Name: "autoauction", Description: "Shuffles the player database into a queue and auctions it. (Admin Only)"},
	discord.SlashCommandCreate{Name: "startdraft", Description: "Manually start the draft. (Admin Only)"},
	discord.SlashCommandCreate{
		Name:        "draft",
		Description: "Draft a player when it's your turn.",
		Options:     []discord.ApplicationCommandOption{nameOption("name", "The name of the player you are drafting")},
	},
	discord.SlashCommandCreate{Name: "steal", Description: "Steal the currently drafted player and start an auction!"},
	discord.SlashCommandCreate{Name: "status", Description: "Displays the current auction board."},
	discord.SlashCommandCreate{
		Name:        "team",
		Description: "Shows the full squad for one manager.",
		Options:     []discord.ApplicationCommandOption{nameOption("name", "The name of the manager")},
	},
	discord.SlashCommandCreate{
		Name:        "retain",
		Description: "Retains one player for a team. (Admin Only)",
		Options: []discord.ApplicationCommandOption{
			nameOption("player_name", "The name of the player to retain"),
			nameOption("manager_name", "The manager who is retaining"),
		},
	},
}
