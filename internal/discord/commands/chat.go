package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/parley-bot/parley/internal/chat"
	"github.com/parley-bot/parley/internal/discord"
	"github.com/parley-bot/parley/internal/settings"
)

const sendQueueTimeout = 2 * time.Minute

// ChatCommands implements the text chat slash commands.
type ChatCommands struct {
	svc      *chat.Service
	settings settings.Store
	perms    *discord.PermissionChecker
}

// NewChatCommands creates the chat command set.
func NewChatCommands(svc *chat.Service, store settings.Store, perms *discord.PermissionChecker) *ChatCommands {
	return &ChatCommands{svc: svc, settings: store, perms: perms}
}

// Register wires the chat commands into the router.
func (c *ChatCommands) Register(router *discord.CommandRouter) {
	router.RegisterCommand("persona/set", c.personaDefinition(), c.handlePersonaSet)
	router.RegisterHandler("persona/show", c.handlePersonaShow)
	router.RegisterAutocomplete("persona/set", c.autocompletePersona)

	router.RegisterCommand("enqueue", c.enqueueDefinition(), c.handleEnqueue)
	router.RegisterCommand("send", c.sendDefinition(), c.handleSend)
	router.RegisterCommand("viewqueue", c.viewQueueDefinition(), c.handleViewQueue)
	router.RegisterCommand("clearqueue", c.clearQueueDefinition(), c.handleClearQueue)

	router.RegisterCommand("reasoning/set", c.reasoningDefinition(), c.handleReasoningSet)
	router.RegisterHandler("reasoning/get", c.handleReasoningGet)

	router.RegisterCommand("clearhistory", c.clearHistoryDefinition(), c.handleClearHistory)
}

func (c *ChatCommands) personaDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "persona",
		Description: "Manage the bot's persona for this channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set",
				Description: "Switch to a different persona",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:         discordgo.ApplicationCommandOptionString,
						Name:         "name",
						Description:  "Persona name",
						Required:     true,
						Autocomplete: true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "show",
				Description: "Show the active persona",
			},
		},
	}
}

func (c *ChatCommands) enqueueDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "enqueue",
		Description: "Add a message to your queue without sending it",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "message",
				Description: "Message to queue",
				Required:    true,
			},
		},
	}
}

func (c *ChatCommands) sendDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "send",
		Description: "Send your queued messages as one prompt",
	}
}

func (c *ChatCommands) viewQueueDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "viewqueue",
		Description: "Show your queued messages",
	}
}

func (c *ChatCommands) clearQueueDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "clearqueue",
		Description: "Discard your queued messages",
	}
}

func (c *ChatCommands) reasoningDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "reasoning",
		Description: "Manage the reasoning effort used for this channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set",
				Description: "Set the reasoning effort",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "level",
						Description: "Reasoning effort level",
						Required:    true,
						Choices:     reasoningChoices(),
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "get",
				Description: "Show the current reasoning effort",
			},
		},
	}
}

func (c *ChatCommands) clearHistoryDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "clearhistory",
		Description: "Forget the conversation history for this channel",
	}
}

func reasoningChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(settings.Efforts))
	for _, effort := range settings.Efforts {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  effort,
			Value: effort,
		})
	}
	return choices
}

func (c *ChatCommands) handlePersonaSet(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := subcommandStringOption(i, "name")
	persona, err := c.svc.SetPersona(i.ChannelID, name, c.perms.IsAdmin(i))
	if err != nil {
		discord.RespondError(s, i, err)
		return
	}
	discord.RespondPublic(s, i, fmt.Sprintf("Now chatting as **%s**. History cleared.", persona.Name))
}

func (c *ChatCommands) handlePersonaShow(s *discordgo.Session, i *discordgo.InteractionCreate) {
	persona := c.svc.ActivePersona(i.ChannelID)
	discord.RespondEphemeral(s, i, fmt.Sprintf("Active persona: **%s**", persona.Name))
}

func (c *ChatCommands) autocompletePersona(s *discordgo.Session, i *discordgo.InteractionCreate) {
	partial := strings.ToLower(subcommandStringOption(i, "name"))

	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, name := range c.svc.PersonaNames(c.perms.IsAdmin(i)) {
		if partial != "" && !strings.Contains(name, partial) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  name,
			Value: name,
		})
	}
	discord.RespondChoices(s, i, choices)
}

func (c *ChatCommands) handleEnqueue(s *discordgo.Session, i *discordgo.InteractionCreate) {
	text := stringOption(i, "message")
	if err := c.svc.Enqueue(callerID(i), i.ChannelID, text); err != nil {
		discord.RespondError(s, i, err)
		return
	}
	queued := len(c.svc.QueuedMessages(callerID(i), i.ChannelID))
	discord.RespondEphemeral(s, i, fmt.Sprintf("Queued. You have %d message(s) waiting.", queued))
}

func (c *ChatCommands) handleSend(s *discordgo.Session, i *discordgo.InteractionCreate) {
	discord.DeferReply(s, i, false)

	ctx, cancel := context.WithTimeout(context.Background(), sendQueueTimeout)
	defer cancel()

	reply, err := c.svc.SendQueue(ctx, callerID(i), i.ChannelID, callerName(i))
	if err != nil {
		discord.FollowUp(s, i, fmt.Sprintf("Error: %v", err))
		return
	}
	discord.FollowUp(s, i, reply)
}

func (c *ChatCommands) handleViewQueue(s *discordgo.Session, i *discordgo.InteractionCreate) {
	queued := c.svc.QueuedMessages(callerID(i), i.ChannelID)
	if len(queued) == 0 {
		discord.RespondEphemeral(s, i, "Your queue is empty.")
		return
	}

	var b strings.Builder
	for n, msg := range queued {
		fmt.Fprintf(&b, "%d. %s\n", n+1, msg)
	}
	discord.RespondEphemeral(s, i, b.String())
}

func (c *ChatCommands) handleClearQueue(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cleared := c.svc.ClearQueue(callerID(i), i.ChannelID)
	discord.RespondEphemeral(s, i, fmt.Sprintf("Discarded %d queued message(s).", cleared))
}

func (c *ChatCommands) handleReasoningSet(s *discordgo.Session, i *discordgo.InteractionCreate) {
	effort, err := settings.ValidateEffort(subcommandStringOption(i, "level"))
	if err != nil {
		discord.RespondError(s, i, err)
		return
	}
	if err := c.settings.SetReasoningEffort(context.Background(), i.ChannelID, effort); err != nil {
		discord.RespondError(s, i, err)
		return
	}
	discord.RespondPublic(s, i, fmt.Sprintf("Reasoning effort set to **%s**.", effort))
}

func (c *ChatCommands) handleReasoningGet(s *discordgo.Session, i *discordgo.InteractionCreate) {
	effort, err := c.settings.ReasoningEffort(context.Background(), i.ChannelID)
	if err != nil {
		discord.RespondError(s, i, err)
		return
	}
	if effort == "" {
		effort = "provider default"
	}
	discord.RespondEphemeral(s, i, fmt.Sprintf("Reasoning effort: **%s**", effort))
}

func (c *ChatCommands) handleClearHistory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	c.svc.ClearHistory(i.ChannelID)
	discord.RespondPublic(s, i, "Conversation history cleared.")
}

func callerID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func callerName(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return ""
}
