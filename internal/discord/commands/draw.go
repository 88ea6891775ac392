package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/parley-bot/parley/internal/discord"
	"github.com/parley-bot/parley/pkg/provider/image"
)

const drawTimeout = 3 * time.Minute

// DrawCommands implements the image generation slash command.
type DrawCommands struct {
	gen image.Generator
}

// NewDrawCommands creates the draw command set.
func NewDrawCommands(gen image.Generator) *DrawCommands {
	return &DrawCommands{gen: gen}
}

// Register wires the draw command into the router.
func (c *DrawCommands) Register(router *discord.CommandRouter) {
	router.RegisterCommand("draw", c.Definition(), c.handleDraw)
}

// Definition returns the slash command definition.
func (c *DrawCommands) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "draw",
		Description: "Generate an image from a prompt",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "prompt",
				Description: "What to draw",
				Required:    true,
			},
		},
	}
}

func (c *DrawCommands) handleDraw(s *discordgo.Session, i *discordgo.InteractionCreate) {
	prompt := stringOption(i, "prompt")
	if prompt == "" {
		discord.RespondEphemeral(s, i, "Give me something to draw.")
		return
	}

	// Image generation takes well past the 3 second interaction deadline.
	discord.DeferReply(s, i, false)

	ctx, cancel := context.WithTimeout(context.Background(), drawTimeout)
	defer cancel()

	data, mimeType, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		discord.FollowUp(s, i, fmt.Sprintf("Error: %v", err))
		return
	}
	discord.FollowUpFile(s, i, "parley-draw.png", mimeType, data)
}
