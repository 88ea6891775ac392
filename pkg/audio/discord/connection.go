package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/parley-bot/parley/pkg/audio"
)

// Compile-time interface assertion.
var _ audio.Connection = (*Connection)(nil)

const frameChannelBuffer = 256

// Connection wraps a discordgo.VoiceConnection and adapts it to the
// [audio.Connection] interface. Incoming Opus packets are tagged with the
// speaking user (resolved from SSRC via VoiceSpeakingUpdate events) and
// delivered on a single frame channel. Outgoing PCM is encoded to Opus and
// paced out through the voice websocket.
//
// Connection is safe for concurrent use.
type Connection struct {
	vc        *discordgo.VoiceConnection
	channelID string

	frames chan audio.Frame

	ssrcMu   sync.RWMutex
	ssrcUser map[uint32]string

	playMu sync.Mutex // serializes Play calls

	done      chan struct{}
	closeOnce sync.Once

	// disconnectVC tears down the voice connection during Disconnect.
	// Defaults to vc.Disconnect; overridden in tests.
	disconnectVC func() error

	// sendOpus delivers one encoded packet to Discord. Defaults to a paced
	// write on vc.OpusSend; overridden in tests.
	sendOpus func(ctx context.Context, packet []byte) error
}

// newConnection initialises a Connection for an already-joined voice channel
// and starts the receive loop.
func newConnection(vc *discordgo.VoiceConnection, channelID string) (*Connection, error) {
	c := &Connection{
		vc:        vc,
		channelID: channelID,
		frames:    make(chan audio.Frame, frameChannelBuffer),
		ssrcUser:  make(map[uint32]string),
		done:      make(chan struct{}),
	}
	c.disconnectVC = vc.Disconnect
	c.sendOpus = c.sendOpusToDiscord

	// Speaking updates carry the SSRC to user mapping for capture packets.
	vc.AddHandler(c.handleSpeakingUpdate)

	go c.recvLoop()

	return c, nil
}

// Frames returns the capture stream. Each frame carries the resolved user ID
// of its speaker; packets whose SSRC has not been announced yet are tagged
// with the SSRC in decimal form.
func (c *Connection) Frames() <-chan audio.Frame {
	return c.frames
}

// Active reports whether the connection is still live.
func (c *Connection) Active() bool {
	select {
	case <-c.done:
		return false
	default:
		return c.vc.Ready
	}
}

// ChannelID returns the joined voice channel's ID.
func (c *Connection) ChannelID() string {
	return c.channelID
}

// Play encodes pcm to Opus and transmits it, blocking until the final frame
// has been handed to the voice websocket or ctx is cancelled. Input in a
// different format is converted to 48 kHz stereo first. Concurrent calls are
// serialized.
func (c *Connection) Play(ctx context.Context, pcm *audio.PCM) error {
	c.playMu.Lock()
	defer c.playMu.Unlock()

	select {
	case <-c.done:
		return fmt.Errorf("discord: play: connection closed")
	default:
	}

	converted, err := audio.Convert(pcm, audio.DefaultSampleRate, audio.DefaultChannels)
	if err != nil {
		return fmt.Errorf("discord: play: %w", err)
	}

	enc, err := audio.NewOpusEncoder(audio.DefaultSampleRate, audio.DefaultChannels)
	if err != nil {
		return fmt.Errorf("discord: play: %w", err)
	}

	c.setSpeaking(true)
	defer c.setSpeaking(false)

	frameBytes := enc.FrameBytes()
	data := converted.Data
	for off := 0; off < len(data); off += frameBytes {
		end := off + frameBytes
		if end > len(data) {
			// Pad the trailing partial frame with silence.
			padded := make([]byte, frameBytes)
			copy(padded, data[off:])
			data = append(data[:off], padded...)
			end = off + frameBytes
		}

		packet, err := enc.Encode(data[off:end])
		if err != nil {
			return fmt.Errorf("discord: play: %w", err)
		}

		if err := c.sendOpus(ctx, packet); err != nil {
			return fmt.Errorf("discord: play: %w", err)
		}
	}
	return nil
}

// Disconnect cleanly tears down the voice connection and stops the receive
// loop. It is safe to call more than once; subsequent calls return nil.
// The frame channel is closed by the receive loop, never here: closing it
// while the loop is mid-delivery would turn a routine leave into a send on
// a closed channel.
func (c *Connection) Disconnect() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.disconnectVC()
	})
	return err
}

// recvLoop reads Opus packets from the voice connection, resolves the
// speaker from the packet SSRC, and delivers tagged frames. As the sole
// sender on c.frames it also owns closing it.
func (c *Connection) recvLoop() {
	defer close(c.frames)
	for {
		select {
		case <-c.done:
			return
		case pkt, ok := <-c.vc.OpusRecv:
			if !ok {
				return
			}
			if pkt == nil || len(pkt.Opus) == 0 {
				continue
			}

			frame := audio.Frame{
				UserID: c.userForSSRC(pkt.SSRC),
				Opus:   pkt.Opus,
			}

			select {
			case c.frames <- frame:
			case <-c.done:
				return
			default:
				// Consumer is behind; drop rather than stall the websocket reader.
			}
		}
	}
}

// sendOpusToDiscord writes one packet to the voice websocket. discordgo's
// sender goroutine paces reads at the 20 ms frame rate, so this write is
// what makes Play block for the audio's real duration.
func (c *Connection) sendOpusToDiscord(ctx context.Context, packet []byte) error {
	select {
	case c.vc.OpusSend <- packet:
		return nil
	case <-c.done:
		return fmt.Errorf("discord: connection closed during playback")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleSpeakingUpdate records the SSRC to user mapping announced when a
// participant starts or stops speaking.
func (c *Connection) handleSpeakingUpdate(_ *discordgo.VoiceConnection, vs *discordgo.VoiceSpeakingUpdate) {
	if vs == nil || vs.UserID == "" {
		return
	}
	c.ssrcMu.Lock()
	c.ssrcUser[uint32(vs.SSRC)] = vs.UserID
	c.ssrcMu.Unlock()
}

// userForSSRC returns the user ID announced for ssrc, or the SSRC in decimal
// form when no speaking update has arrived yet.
func (c *Connection) userForSSRC(ssrc uint32) string {
	c.ssrcMu.RLock()
	defer c.ssrcMu.RUnlock()
	if id, ok := c.ssrcUser[ssrc]; ok {
		return id
	}
	return strconv.FormatUint(uint64(ssrc), 10)
}

// setSpeaking sends a speaking notification to Discord, logging any errors.
func (c *Connection) setSpeaking(b bool) {
	if err := c.vc.Speaking(b); err != nil {
		slog.Warn("discord: speaking notification error", "speaking", b, "error", err)
	}
}
