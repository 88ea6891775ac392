package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/parley-bot/parley/internal/chat"
	"github.com/parley-bot/parley/internal/upload"
	"github.com/parley-bot/parley/internal/voice"
)

// chatTimeout bounds one completion, including any attachment uploads.
const chatTimeout = 2 * time.Minute

// RegisterVoiceHandlers forwards voice state updates to the voice manager
// as presence events.
func (b *Bot) RegisterVoiceHandlers(manager *voice.Manager) {
	session := b.Session()
	selfID := session.State.User.ID

	session.AddHandler(func(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		if v.UserID == selfID {
			return
		}
		ev := presenceFromUpdate(v, b.isBotUser(s, v))
		if ev.JoinedChannelID == "" && ev.LeftChannelID == "" {
			return
		}
		go manager.HandlePresence(context.Background(), ev)
	})
}

// RegisterChatHandler replies to messages that mention the bot. Attachments
// are uploaded to the OpenAI Files API when an uploader is configured and
// referenced from the prompt.
func (b *Bot) RegisterChatHandler(svc *chat.Service, uploader *upload.Uploader) {
	session := b.Session()
	selfID := session.State.User.ID

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		if !isMentioned(m.Message, selfID) {
			return
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
			defer cancel()

			content := stripMention(m.Content, selfID)
			if content == "" && len(m.Attachments) == 0 {
				return
			}
			content = b.appendAttachments(ctx, uploader, m.Message, content)

			// Typing indicator while the model works.
			_ = s.ChannelTyping(m.ChannelID)

			reply, err := svc.Respond(ctx, m.ChannelID, m.Author.Username, content)
			if err != nil {
				slog.Warn("discord: chat reply failed", "channel_id", m.ChannelID, "error", err)
				return
			}
			if _, err := s.ChannelMessageSendReply(m.ChannelID, reply, m.Reference()); err != nil {
				slog.Warn("discord: send reply failed", "channel_id", m.ChannelID, "error", err)
			}
		}()
	})
}

// appendAttachments uploads the message's attachments and appends file
// references to the prompt. Failures degrade to the bare prompt.
func (b *Bot) appendAttachments(ctx context.Context, uploader *upload.Uploader, m *discordgo.Message, content string) string {
	if uploader == nil || len(m.Attachments) == 0 {
		return content
	}

	urls := make([]string, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		urls = append(urls, a.URL)
	}

	var refs []string
	for _, res := range uploader.UploadURLs(ctx, urls) {
		if res.Err != nil {
			continue
		}
		refs = append(refs, fmt.Sprintf("[attached file %s, id %s]", res.Filename, res.FileID))
	}
	if len(refs) == 0 {
		return content
	}
	return strings.TrimSpace(content + "\n" + strings.Join(refs, "\n"))
}

// isBotUser resolves whether the update's user is a bot, preferring the
// payload's member over the state cache.
func (b *Bot) isBotUser(s *discordgo.Session, v *discordgo.VoiceStateUpdate) bool {
	if v.Member != nil && v.Member.User != nil {
		return v.Member.User.Bot
	}
	member, err := s.State.Member(v.GuildID, v.UserID)
	if err != nil || member.User == nil {
		return false
	}
	return member.User.Bot
}

// presenceFromUpdate translates a gateway voice state update into a
// presence event. Moving between channels yields both a leave and a join.
func presenceFromUpdate(v *discordgo.VoiceStateUpdate, isBot bool) voice.PresenceEvent {
	ev := voice.PresenceEvent{
		GuildID: v.GuildID,
		UserID:  v.UserID,
		Bot:     isBot,
	}

	var before string
	if v.BeforeUpdate != nil {
		before = v.BeforeUpdate.ChannelID
	}

	if v.ChannelID != "" && v.ChannelID != before {
		ev.JoinedChannelID = v.ChannelID
	}
	if before != "" && before != v.ChannelID {
		ev.LeftChannelID = before
	}
	return ev
}

// isMentioned reports whether the message mentions the given user.
func isMentioned(m *discordgo.Message, userID string) bool {
	for _, u := range m.Mentions {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// stripMention removes mention markers for the given user from the content.
func stripMention(content, userID string) string {
	content = strings.ReplaceAll(content, "<@"+userID+">", "")
	content = strings.ReplaceAll(content, "<@!"+userID+">", "")
	return strings.TrimSpace(content)
}
