package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/parley-bot/parley/internal/discord"
	"github.com/parley-bot/parley/internal/voice"
)

// VoiceCommands implements the voice channel slash commands.
type VoiceCommands struct {
	manager *voice.Manager
	perms   *discord.PermissionChecker
}

// NewVoiceCommands creates the voice command set.
func NewVoiceCommands(manager *voice.Manager, perms *discord.PermissionChecker) *VoiceCommands {
	return &VoiceCommands{manager: manager, perms: perms}
}

// Register wires the voice commands into the router.
func (c *VoiceCommands) Register(router *discord.CommandRouter) {
	router.RegisterCommand("join", c.joinDefinition(), c.handleJoin)
	router.RegisterCommand("leave", c.leaveDefinition(), c.handleLeave)
	router.RegisterCommand("voicestatus", c.statusDefinition(), c.handleStatus)
	router.RegisterCommand("togglevoice", c.toggleDefinition(), c.handleToggle)
}

func (c *VoiceCommands) joinDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "join",
		Description: "Join a voice channel and start listening",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionChannel,
				Name:        "channel",
				Description: "Voice channel to join (defaults to yours)",
				ChannelTypes: []discordgo.ChannelType{
					discordgo.ChannelTypeGuildVoice,
				},
			},
		},
	}
}

func (c *VoiceCommands) leaveDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "leave",
		Description: "Leave the current voice channel",
	}
}

func (c *VoiceCommands) statusDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "voicestatus",
		Description: "Show the voice connection status for this server",
	}
}

func (c *VoiceCommands) toggleDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "togglevoice",
		Description: "Enable or disable voice features (admin only)",
	}
}

func (c *VoiceCommands) handleJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !c.manager.Enabled() {
		discord.RespondEphemeral(s, i, "Voice features are currently disabled.")
		return
	}

	channelID := channelOption(i, "channel")
	if channelID == "" {
		channelID = c.callerVoiceChannel(s, i)
	}
	if channelID == "" {
		discord.RespondEphemeral(s, i, "Join a voice channel first, or pass one with the channel option.")
		return
	}

	if err := c.manager.Join(context.Background(), i.GuildID, channelID); err != nil {
		discord.RespondError(s, i, err)
		return
	}
	discord.RespondPublic(s, i, fmt.Sprintf("Joined <#%s>.", channelID))
}

func (c *VoiceCommands) handleLeave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := c.manager.Leave(i.GuildID); err != nil {
		discord.RespondError(s, i, err)
		return
	}
	discord.RespondPublic(s, i, "Left the voice channel.")
}

func (c *VoiceCommands) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	st := c.manager.Status(i.GuildID)

	channel := "none"
	if st.ChannelID != "" {
		channel = fmt.Sprintf("<#%s>", st.ChannelID)
	}
	embed := &discordgo.MessageEmbed{
		Title: "Voice Status",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Enabled", Value: yesNo(st.Enabled), Inline: true},
			{Name: "Connected", Value: yesNo(st.Connected), Inline: true},
			{Name: "Channel", Value: channel, Inline: true},
			{Name: "Auto-join", Value: yesNo(st.AutoJoin), Inline: true},
			{Name: "Listening", Value: yesNo(st.Listening), Inline: true},
			{Name: "Playing", Value: yesNo(st.Playing), Inline: true},
		},
	}
	discord.RespondEmbed(s, i, embed)
}

func (c *VoiceCommands) handleToggle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !c.perms.IsAdmin(i) {
		discord.RespondEphemeral(s, i, "Only admins can toggle voice features.")
		return
	}

	if c.manager.ToggleEnabled() {
		discord.RespondPublic(s, i, "Voice features enabled.")
	} else {
		discord.RespondPublic(s, i, "Voice features disabled.")
	}
}

// callerVoiceChannel resolves the invoking user's current voice channel from
// the session state cache. Returns "" when the user is not in voice.
func (c *VoiceCommands) callerVoiceChannel(s *discordgo.Session, i *discordgo.InteractionCreate) string {
	if i.Member == nil || s.State == nil {
		return ""
	}
	vs, err := s.State.VoiceState(i.GuildID, i.Member.User.ID)
	if err != nil || vs == nil {
		return ""
	}
	return vs.ChannelID
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
