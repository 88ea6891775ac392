package commands

import (
	"github.com/bwmarrin/discordgo"

	"github.com/parley-bot/parley/internal/discord"
)

// HelpCommands implements the /help command.
type HelpCommands struct{}

// NewHelpCommands creates the help command set.
func NewHelpCommands() *HelpCommands {
	return &HelpCommands{}
}

// Register wires the help command into the router.
func (c *HelpCommands) Register(router *discord.CommandRouter) {
	router.RegisterCommand("help", c.Definition(), c.handleHelp)
}

// Definition returns the slash command definition.
func (c *HelpCommands) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "help",
		Description: "Show what the bot can do",
	}
}

func (c *HelpCommands) handleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	embed := &discordgo.MessageEmbed{
		Title:       "Parley",
		Description: "Mention me in a text channel to chat, or invite me to a voice channel and just talk.",
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Voice",
				Value: "`/join` connect to a voice channel\n" +
					"`/leave` disconnect\n" +
					"`/voicestatus` connection status\n" +
					"`/togglevoice` enable or disable voice (admin)",
			},
			{
				Name: "Chat",
				Value: "`/persona set|show` switch or inspect the persona\n" +
					"`/enqueue` queue a message\n" +
					"`/send` send your queue as one prompt\n" +
					"`/viewqueue` show your queue\n" +
					"`/clearqueue` discard your queue\n" +
					"`/clearhistory` forget this channel's conversation",
			},
			{
				Name: "Other",
				Value: "`/draw` generate an image\n" +
					"`/reasoning set|get` tune reasoning effort",
			},
		},
	}
	discord.RespondEmbed(s, i, embed)
}
