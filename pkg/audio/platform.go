// Package audio defines the interfaces and types for voice-channel
// connectivity and audio interchange within Parley.
//
// The two primary abstractions are:
//
//   - [Platform] — joins a voice channel and returns a [Connection].
//   - [Connection] — an active session on that channel, exposing the
//     captured [Frame] stream and a blocking [Connection.Play] for output.
//
// Implementations of these interfaces are provided by platform-specific
// adapter packages (e.g. audio/discord). The interfaces are intentionally
// narrow so the voice manager stays decoupled from provider details.
//
// This package lives under pkg/ because external code (third-party platform
// adapters) is expected to implement [Platform] and [Connection].
package audio

import (
	"context"
)

// Connection represents an active session on a voice channel.
//
// A Connection is obtained from [Platform.Connect] and remains valid until
// [Connection.Disconnect] is called. The frame channel is closed when the
// connection terminates.
//
// Implementations must be safe for concurrent use.
type Connection interface {
	// Frames returns the capture stream for this connection. Every
	// participant's Opus frames arrive on the same channel, each tagged with
	// the speaker's user ID, in arrival order per speaker. The channel is
	// closed when the connection terminates.
	Frames() <-chan Frame

	// Play transmits pcm to the channel and blocks until playback has
	// completed, the connection is torn down, or ctx is cancelled. Input
	// that does not match the platform's native format is converted first.
	Play(ctx context.Context, pcm *PCM) error

	// Active reports whether the connection is still live.
	Active() bool

	// ChannelID returns the identifier of the joined voice channel.
	ChannelID() string

	// Disconnect tears down the connection and closes the frame channel.
	// It is safe to call more than once; subsequent calls return nil.
	Disconnect() error
}

// Platform is the entry point for a voice-channel provider.
// Implementations wrap provider-specific SDKs and expose a uniform
// [Connection] abstraction.
//
// Implementations must be safe for concurrent use.
type Platform interface {
	// Connect joins the voice channel identified by guildID and channelID and
	// returns an active [Connection]. The supplied ctx governs the connection
	// attempt only; once connected, the Connection remains alive until
	// [Connection.Disconnect] is called.
	Connect(ctx context.Context, guildID, channelID string) (Connection, error)
}
