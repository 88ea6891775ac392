// Package transcript keeps a log of transcribed voice utterances so
// operators can review what the bot heard. Storage is optional; when no
// store is wired the voice pipeline simply skips transcription.
package transcript

import (
	"context"
	"time"
)

// Entry is one transcribed utterance.
type Entry struct {
	// ID is assigned by the store on save.
	ID int64

	// GuildID is the guild the utterance was captured in.
	GuildID string

	// UserID is the speaker.
	UserID string

	// Text is the transcription result.
	Text string

	// Duration is the length of the spoken audio.
	Duration time.Duration

	// SpokenAt is when the utterance ended.
	SpokenAt time.Time
}

// Store persists transcripts. Implementations must be safe for concurrent use.
type Store interface {
	// Save persists one entry.
	Save(ctx context.Context, e Entry) error

	// Recent returns up to limit entries for the guild, newest first.
	Recent(ctx context.Context, guildID string, limit int) ([]Entry, error)
}
