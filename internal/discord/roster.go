package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/parley-bot/parley/internal/voice"
)

// StateRoster implements [voice.Roster] on top of the discordgo session
// state cache. The gateway keeps the cache current through voice state
// events, so lookups never hit the REST API.
type StateRoster struct {
	session *discordgo.Session
}

var _ voice.Roster = (*StateRoster)(nil)

// NonBotMembers counts the non-bot users currently in the voice channel.
// Members missing from the state cache are counted as humans; overcounting
// only delays an auto-leave, undercounting would cut conversations short.
func (r *StateRoster) NonBotMembers(guildID, channelID string) (int, error) {
	guild, err := r.session.State.Guild(guildID)
	if err != nil {
		return 0, fmt.Errorf("discord: guild %s not in state: %w", guildID, err)
	}

	count := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID {
			continue
		}
		member, err := r.session.State.Member(guildID, vs.UserID)
		if err != nil || member.User == nil {
			count++
			continue
		}
		if !member.User.Bot {
			count++
		}
	}
	return count, nil
}
