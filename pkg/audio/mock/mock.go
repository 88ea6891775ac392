// Package mock provides in-memory mock implementations of the
// [audio.Platform] and [audio.Connection] interfaces for use in unit tests.
//
// All mocks are safe for concurrent use. They record every method call so
// that tests can assert on call counts and arguments, and they expose
// exported fields the test can set to control return values.
//
// Typical usage:
//
//	frames := make(chan audio.Frame, 16)
//	conn := &mock.Connection{FramesChan: frames, ChannelIDResult: "voice-1"}
//	platform := &mock.Platform{ConnectResult: conn}
//	got, err := platform.Connect(ctx, "guild-1", "voice-1")
package mock

import (
	"context"
	"sync"

	"github.com/parley-bot/parley/pkg/audio"
)

// Compile-time interface assertions.
var (
	_ audio.Connection = (*Connection)(nil)
	_ audio.Platform   = (*Platform)(nil)
)

// PlayCall records the arguments of a single [Connection.Play] invocation.
type PlayCall struct {
	// PCM is the audio passed to Play.
	PCM *audio.PCM
}

// Connection is a mock implementation of [audio.Connection].
// Set the exported Result fields before use; inspect the call records after.
type Connection struct {
	mu sync.Mutex

	// FramesChan is returned by [Connection.Frames].
	FramesChan chan audio.Frame

	// PlayError is returned by [Connection.Play].
	PlayError error

	// PlayStarted, when non-nil, receives one value as each Play call begins.
	// PlayRelease, when non-nil, blocks each Play call until it receives a
	// value. Together they let tests hold a playback open.
	PlayStarted chan struct{}
	PlayRelease chan struct{}

	// ChannelIDResult is returned by [Connection.ChannelID].
	ChannelIDResult string

	// DisconnectError is returned by the first call to [Connection.Disconnect].
	DisconnectError error

	// PlayCalls records all Play invocations.
	PlayCalls []PlayCall

	// CallCountDisconnect records how many times Disconnect was called.
	CallCountDisconnect int

	disconnected bool
}

// Frames implements [audio.Connection]. Returns FramesChan.
func (c *Connection) Frames() <-chan audio.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.FramesChan
}

// Play implements [audio.Connection]. Records the call, optionally signals
// PlayStarted and waits on PlayRelease, then returns PlayError.
func (c *Connection) Play(ctx context.Context, pcm *audio.PCM) error {
	c.mu.Lock()
	c.PlayCalls = append(c.PlayCalls, PlayCall{PCM: pcm})
	started := c.PlayStarted
	release := c.PlayRelease
	err := c.PlayError
	c.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// PlayCount returns how many times Play was called. Safe to call while a
// Play is in flight.
func (c *Connection) PlayCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.PlayCalls)
}

// Active implements [audio.Connection]. Reports true until Disconnect is called.
func (c *Connection) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.disconnected
}

// ChannelID implements [audio.Connection]. Returns ChannelIDResult.
func (c *Connection) ChannelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ChannelIDResult
}

// Disconnect implements [audio.Connection]. The first call closes FramesChan
// (if set) and returns DisconnectError; subsequent calls return nil.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountDisconnect++
	if c.disconnected {
		return nil
	}
	c.disconnected = true
	if c.FramesChan != nil {
		close(c.FramesChan)
	}
	return c.DisconnectError
}

// ConnectCall records the arguments of a single [Platform.Connect] invocation.
type ConnectCall struct {
	// GuildID is the guildID argument passed to Connect.
	GuildID string
	// ChannelID is the channelID argument passed to Connect.
	ChannelID string
}

// Platform is a mock implementation of [audio.Platform].
type Platform struct {
	mu sync.Mutex

	// ConnectResult is the [audio.Connection] returned by Connect.
	ConnectResult audio.Connection

	// ConnectError is the error returned by Connect.
	ConnectError error

	// ConnectFunc, when non-nil, overrides ConnectResult/ConnectError and is
	// called for every Connect. Use it to hand out a fresh Connection per call.
	ConnectFunc func(guildID, channelID string) (audio.Connection, error)

	// ConnectCalls records all Connect invocations.
	ConnectCalls []ConnectCall
}

// Connect implements [audio.Platform]. Records the call and returns
// ConnectFunc's result when set, otherwise ConnectResult / ConnectError.
func (p *Platform) Connect(_ context.Context, guildID, channelID string) (audio.Connection, error) {
	p.mu.Lock()
	p.ConnectCalls = append(p.ConnectCalls, ConnectCall{GuildID: guildID, ChannelID: channelID})
	fn := p.ConnectFunc
	res, err := p.ConnectResult, p.ConnectError
	p.mu.Unlock()

	if fn != nil {
		return fn(guildID, channelID)
	}
	return res, err
}
