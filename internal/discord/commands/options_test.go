package commands

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func commandInteraction(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: opts,
			},
		},
	}
}

func TestStringOption(t *testing.T) {
	t.Parallel()

	i := commandInteraction("enqueue",
		&discordgo.ApplicationCommandInteractionDataOption{
			Name:  "message",
			Type:  discordgo.ApplicationCommandOptionString,
			Value: "hello there",
		},
	)

	if got := stringOption(i, "message"); got != "hello there" {
		t.Errorf("stringOption() = %q, want %q", got, "hello there")
	}
	if got := stringOption(i, "missing"); got != "" {
		t.Errorf("stringOption(missing) = %q, want empty", got)
	}
}

func TestChannelOption(t *testing.T) {
	t.Parallel()

	i := commandInteraction("join",
		&discordgo.ApplicationCommandInteractionDataOption{
			Name:  "channel",
			Type:  discordgo.ApplicationCommandOptionChannel,
			Value: "voice-123",
		},
	)

	if got := channelOption(i, "channel"); got != "voice-123" {
		t.Errorf("channelOption() = %q, want %q", got, "voice-123")
	}
	if got := channelOption(i, "other"); got != "" {
		t.Errorf("channelOption(other) = %q, want empty", got)
	}
}

func TestSubcommandStringOption(t *testing.T) {
	t.Parallel()

	i := commandInteraction("reasoning",
		&discordgo.ApplicationCommandInteractionDataOption{
			Name: "set",
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{
					Name:  "level",
					Type:  discordgo.ApplicationCommandOptionString,
					Value: "high",
				},
			},
		},
	)

	if got := subcommandStringOption(i, "level"); got != "high" {
		t.Errorf("subcommandStringOption() = %q, want %q", got, "high")
	}
	if got := subcommandStringOption(i, "missing"); got != "" {
		t.Errorf("subcommandStringOption(missing) = %q, want empty", got)
	}

	// No subcommand at all.
	flat := commandInteraction("send")
	if got := subcommandStringOption(flat, "level"); got != "" {
		t.Errorf("subcommandStringOption(no subcommand) = %q, want empty", got)
	}
}
