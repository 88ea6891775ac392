package voice

import (
	"context"
	"errors"
	"log/slog"
)

// HandlePresence reacts to a user moving between voice channels. When voice
// and auto-join are enabled, the manager follows the first user into a
// channel and leaves once the last non-bot user is gone. Bot users are
// ignored entirely, including the manager's own account.
func (m *Manager) HandlePresence(ctx context.Context, ev PresenceEvent) {
	if ev.Bot {
		return
	}
	if !m.Enabled() || !m.cfg.AutoJoin {
		return
	}

	if ev.JoinedChannelID != "" {
		m.autoJoin(ctx, ev)
	}
	if ev.LeftChannelID != "" {
		m.autoLeave(ev)
	}
}

// autoJoin follows a user into their voice channel unless the manager is
// already connected somewhere in the guild.
func (m *Manager) autoJoin(ctx context.Context, ev PresenceEvent) {
	if m.ConnectedChannel(ev.GuildID) != "" {
		return
	}

	err := m.Join(ctx, ev.GuildID, ev.JoinedChannelID)
	switch {
	case errors.Is(err, ErrAlreadyConnected):
		// Lost the race with another presence event; fine.
	case err != nil:
		slog.Warn("voice: auto-join failed",
			"guild_id", ev.GuildID, "channel_id", ev.JoinedChannelID, "error", err)
	default:
		slog.Info("voice: auto-joined channel",
			"guild_id", ev.GuildID, "channel_id", ev.JoinedChannelID, "user_id", ev.UserID)
	}
}

// autoLeave leaves the channel once no non-bot members remain in it.
// Without a roster the member count is unknowable, so the manager stays.
func (m *Manager) autoLeave(ev PresenceEvent) {
	if m.roster == nil {
		return
	}
	if m.ConnectedChannel(ev.GuildID) != ev.LeftChannelID {
		return
	}

	remaining, err := m.roster.NonBotMembers(ev.GuildID, ev.LeftChannelID)
	if err != nil {
		slog.Warn("voice: roster lookup failed",
			"guild_id", ev.GuildID, "channel_id", ev.LeftChannelID, "error", err)
		return
	}
	if remaining > 0 {
		return
	}

	if err := m.Leave(ev.GuildID); err != nil && !errors.Is(err, ErrNotConnected) {
		slog.Warn("voice: auto-leave failed", "guild_id", ev.GuildID, "error", err)
	} else {
		slog.Info("voice: auto-left empty channel",
			"guild_id", ev.GuildID, "channel_id", ev.LeftChannelID)
	}
}
