// Package commands implements the bot's slash commands.
package commands

import "github.com/bwmarrin/discordgo"

// stringOption returns a top-level string option value, or "".
func stringOption(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

// channelOption returns a top-level channel option ID, or "".
func channelOption(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionChannel {
			return opt.Value.(string)
		}
	}
	return ""
}

// subcommandStringOption returns a string option nested under the invoked
// subcommand, or "".
func subcommandStringOption(i *discordgo.InteractionCreate, name string) string {
	opts := i.ApplicationCommandData().Options
	if len(opts) == 0 || opts[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return ""
	}
	for _, opt := range opts[0].Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}
