// Package voice implements the voice conversation loop: it joins voice
// channels, buffers captured audio per speaker, segments utterances on
// silence, hands them to a speech processor, and plays the spoken response
// back to the channel.
//
// One [Manager] serves all guilds. Each joined guild gets an independent
// room with its own buffers and playback state; a single background sweep
// started by [Manager.Run] flushes silent buffers across all rooms.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/parley-bot/parley/internal/observe"
	"github.com/parley-bot/parley/internal/transcript"
	"github.com/parley-bot/parley/pkg/audio"
	"github.com/parley-bot/parley/pkg/provider/speech"
	"github.com/parley-bot/parley/pkg/provider/stt"
)

var (
	// ErrAlreadyConnected is returned by Join when the guild already has an
	// active voice connection.
	ErrAlreadyConnected = errors.New("voice: already connected in this guild")

	// ErrNotConnected is returned by Leave and Status-affecting operations
	// when the guild has no active voice connection.
	ErrNotConnected = errors.New("voice: not connected in this guild")
)

const (
	// sweepInterval is how often silent buffers are checked for flushing.
	sweepInterval = 500 * time.Millisecond

	// minUtteranceFrames is the noise gate: flushed utterances with fewer
	// frames than this are discarded without processing. Five 20 ms frames
	// is 100 ms of audio, below anything worth transcribing.
	minUtteranceFrames = 5

	// DefaultSilenceThreshold is how long a speaker must stay quiet before
	// their buffered frames are treated as a complete utterance.
	DefaultSilenceThreshold = 1500 * time.Millisecond
)

// Config holds the voice pipeline settings.
type Config struct {
	// Enabled globally switches voice features on or off.
	Enabled bool

	// AutoJoin makes the manager follow users into voice channels.
	AutoJoin bool

	// SilenceThreshold is the quiet period that ends an utterance.
	// Zero means DefaultSilenceThreshold.
	SilenceThreshold time.Duration

	// SampleRate is the sample rate of the WAV handed to the speech
	// processor. Zero means the platform native rate (48 kHz).
	SampleRate int
}

// Roster reports voice-channel membership. The bot layer implements it on
// top of its session state; the manager uses it to decide when the last
// human has left a channel.
type Roster interface {
	// NonBotMembers returns how many non-bot users are in the given voice
	// channel.
	NonBotMembers(guildID, channelID string) (int, error)
}

// Status is a snapshot of one guild's voice state.
type Status struct {
	Connected bool
	Enabled   bool
	AutoJoin  bool
	Recording bool
	Playing   bool
	Listening bool
	ChannelID string
}

// PresenceEvent describes a user moving between voice channels.
// The bot layer translates platform events into this form.
type PresenceEvent struct {
	GuildID string
	UserID  string
	Bot     bool

	// JoinedChannelID is set when the user entered a voice channel.
	JoinedChannelID string

	// LeftChannelID is set when the user left a voice channel.
	LeftChannelID string
}

// room is the per-guild voice state. Its mutex guards everything below it.
type room struct {
	mu        sync.Mutex
	conn      audio.Connection
	channelID string
	playing   bool
	buffers   map[string]*Buffer // keyed by speaker user ID
}

// Manager owns all active voice connections and the capture-to-playback
// pipeline. All exported methods are safe for concurrent use.
type Manager struct {
	platform  audio.Platform
	processor speech.Processor
	cfg       Config

	// Optional collaborators; each nil value disables its feature.
	roster      Roster
	transcriber stt.Transcriber
	transcripts transcript.Store
	metrics     *observe.Metrics

	mu      sync.RWMutex
	enabled bool
	rooms   map[string]*room // keyed by guild ID
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithRoster supplies the membership lookup needed for auto-leave.
// Without it, the manager never leaves a channel on its own.
func WithRoster(r Roster) Option {
	return func(m *Manager) { m.roster = r }
}

// WithTranscription enables per-utterance transcription. Transcripts are
// stored best-effort; failures never affect the audio path.
func WithTranscription(t stt.Transcriber, store transcript.Store) Option {
	return func(m *Manager) {
		m.transcriber = t
		m.transcripts = store
	}
}

// WithMetrics wires pipeline counters and latency instruments.
func WithMetrics(met *observe.Metrics) Option {
	return func(m *Manager) { m.metrics = met }
}

// NewManager creates a Manager for the given platform and speech processor.
func NewManager(platform audio.Platform, processor speech.Processor, cfg Config, opts ...Option) *Manager {
	if cfg.SilenceThreshold <= 0 {
		cfg.SilenceThreshold = DefaultSilenceThreshold
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}
	m := &Manager{
		platform:  platform,
		processor: processor,
		cfg:       cfg,
		enabled:   cfg.Enabled,
		rooms:     make(map[string]*room),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Join connects to the given voice channel and starts capturing audio.
// Returns [ErrAlreadyConnected] if the guild already has a connection.
func (m *Manager) Join(ctx context.Context, guildID, channelID string) error {
	m.mu.Lock()
	if _, ok := m.rooms[guildID]; ok {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	// Reserve the slot before the (slow) connect so concurrent Joins for the
	// same guild cannot race past the check.
	r := &room{channelID: channelID, buffers: make(map[string]*Buffer)}
	m.rooms[guildID] = r
	m.mu.Unlock()

	conn, err := m.platform.Connect(ctx, guildID, channelID)
	if err != nil {
		m.mu.Lock()
		delete(m.rooms, guildID)
		m.mu.Unlock()
		return fmt.Errorf("voice: join guild %s channel %s: %w", guildID, channelID, err)
	}

	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()

	m.metrics.ConnectionOpened(ctx)
	slog.Info("voice: joined channel", "guild_id", guildID, "channel_id", channelID)

	go m.pump(guildID, r, conn)
	return nil
}

// Leave disconnects from the guild's voice channel. The room state is
// cleared even when the platform disconnect fails; the error is reported
// so callers can surface it.
// Returns [ErrNotConnected] if the guild has no connection.
func (m *Manager) Leave(guildID string) error {
	m.mu.Lock()
	r, ok := m.rooms[guildID]
	if !ok {
		m.mu.Unlock()
		return ErrNotConnected
	}
	delete(m.rooms, guildID)
	m.mu.Unlock()

	r.mu.Lock()
	conn := r.conn
	r.buffers = make(map[string]*Buffer)
	r.mu.Unlock()

	m.metrics.ConnectionClosed(context.Background())
	slog.Info("voice: left channel", "guild_id", guildID, "channel_id", r.channelID)

	if conn != nil {
		if err := conn.Disconnect(); err != nil {
			return fmt.Errorf("voice: leave guild %s: %w", guildID, err)
		}
	}
	return nil
}

// Run drives the silence sweep until ctx is cancelled, then disconnects
// every remaining room. It always returns ctx's error.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.disconnectAll()
			return ctx.Err()
		case now := <-ticker.C:
			m.sweep(ctx, now)
		}
	}
}

// Enabled reports whether voice features are currently switched on.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// ToggleEnabled flips the voice feature switch and returns the new state.
func (m *Manager) ToggleEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = !m.enabled
	slog.Info("voice: toggled", "enabled", m.enabled)
	return m.enabled
}

// Status returns a snapshot of the guild's voice state. It never fails;
// an unjoined guild reports Connected=false with config flags filled in.
func (m *Manager) Status(guildID string) Status {
	s := Status{
		Enabled:   m.Enabled(),
		AutoJoin:  m.cfg.AutoJoin,
		Listening: true,
	}

	m.mu.RLock()
	r, ok := m.rooms[guildID]
	m.mu.RUnlock()
	if !ok {
		s.Listening = false
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s.Connected = true
	s.ChannelID = r.channelID
	s.Playing = r.playing
	s.Listening = !r.playing
	for _, b := range r.buffers {
		if b.Len() > 0 {
			s.Recording = true
			break
		}
	}
	return s
}

// ConnectedChannel returns the voice channel the manager occupies in the
// guild, or "" when not connected.
func (m *Manager) ConnectedChannel(guildID string) string {
	m.mu.RLock()
	r, ok := m.rooms[guildID]
	m.mu.RUnlock()
	if !ok {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channelID
}

// pump feeds captured frames into the guild's buffers until the connection's
// frame channel closes.
func (m *Manager) pump(guildID string, r *room, conn audio.Connection) {
	for frame := range conn.Frames() {
		m.intake(guildID, r, frame)
	}
	slog.Debug("voice: capture stream ended", "guild_id", guildID)
}

// intake routes one captured frame. Frames arriving while the room is
// playing are dropped; capture and playback are half-duplex so the bot
// never listens to itself.
func (m *Manager) intake(guildID string, r *room, frame audio.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.playing {
		m.metrics.FrameDropped(context.Background())
		slog.Debug("voice: dropping frame during playback", "guild_id", guildID, "user_id", frame.UserID)
		return
	}

	b, ok := r.buffers[frame.UserID]
	if !ok {
		b = &Buffer{}
		r.buffers[frame.UserID] = b
	}
	b.Append(frame, time.Now())
	m.metrics.FrameReceived(context.Background())
}

// sweep flushes every buffer that has been silent past the threshold and
// dispatches the utterances. Buffers are flushed under the room lock;
// processing happens outside it.
func (m *Manager) sweep(ctx context.Context, now time.Time) {
	m.mu.RLock()
	rooms := make(map[string]*room, len(m.rooms))
	for id, r := range m.rooms {
		rooms[id] = r
	}
	m.mu.RUnlock()

	for guildID, r := range rooms {
		type flushed struct {
			userID string
			frames []audio.Frame
		}
		var utterances []flushed

		r.mu.Lock()
		for userID, b := range r.buffers {
			if b.SilentSince(now, m.cfg.SilenceThreshold) {
				utterances = append(utterances, flushed{userID: userID, frames: b.Flush()})
				delete(r.buffers, userID)
			}
		}
		r.mu.Unlock()

		for _, u := range utterances {
			go m.processUtterance(ctx, guildID, u.userID, u.frames)
		}
	}
}

// processUtterance decodes one speaker's utterance, sends it to the speech
// processor, and plays back any response. Runs on its own goroutine per
// utterance; failures drop the utterance and are logged, never retried.
func (m *Manager) processUtterance(ctx context.Context, guildID, userID string, frames []audio.Frame) {
	if len(frames) < minUtteranceFrames {
		slog.Debug("voice: discarding short utterance as noise",
			"guild_id", guildID, "user_id", userID, "frames", len(frames))
		return
	}

	dec, err := audio.NewOpusDecoder(audio.DefaultSampleRate, audio.DefaultChannels)
	if err != nil {
		m.metrics.DecodeError(ctx)
		slog.Error("voice: create decoder", "guild_id", guildID, "user_id", userID, "error", err)
		return
	}
	pcm, err := dec.DecodeAll(frames)
	if err != nil {
		m.metrics.DecodeError(ctx)
		slog.Warn("voice: dropping utterance, decode failed",
			"guild_id", guildID, "user_id", userID, "frames", len(frames), "error", err)
		return
	}

	if m.transcriber != nil {
		go m.recordTranscript(ctx, guildID, userID, pcm)
	}

	if m.cfg.SampleRate != pcm.SampleRate {
		pcm, err = audio.Convert(pcm, m.cfg.SampleRate, pcm.Channels)
		if err != nil {
			slog.Warn("voice: dropping utterance, resample failed",
				"guild_id", guildID, "user_id", userID, "error", err)
			return
		}
	}

	wav, err := audio.EncodeWAV(pcm)
	if err != nil {
		slog.Warn("voice: dropping utterance, wav encode failed",
			"guild_id", guildID, "user_id", userID, "error", err)
		return
	}

	slog.Info("voice: processing utterance",
		"guild_id", guildID, "user_id", userID,
		"frames", len(frames), "duration", pcm.Duration())

	start := time.Now()
	response, err := m.processor.ProcessAudio(ctx, wav)
	m.metrics.ProcessorLatency(ctx, time.Since(start), err == nil)
	if err != nil {
		slog.Error("voice: speech processor error, dropping utterance",
			"guild_id", guildID, "user_id", userID, "error", err)
		return
	}
	if len(response) == 0 {
		// The processor chose not to answer. Not an error.
		slog.Debug("voice: no response for utterance", "guild_id", guildID, "user_id", userID)
		return
	}

	m.playResponse(ctx, guildID, response)
}

// playResponse plays one WAV response to the guild's channel. If another
// response is already playing, this one is dropped outright; there is no
// queue. The playing flag is set before any audio is emitted and cleared
// on every exit path, as is the staged audio file.
func (m *Manager) playResponse(ctx context.Context, guildID string, wav []byte) {
	m.mu.RLock()
	r, ok := m.rooms[guildID]
	m.mu.RUnlock()
	if !ok {
		slog.Info("voice: response ready but no longer connected", "guild_id", guildID)
		return
	}

	r.mu.Lock()
	if r.playing {
		r.mu.Unlock()
		m.metrics.ResponseDropped(ctx)
		slog.Warn("voice: dropping response, playback already in progress", "guild_id", guildID)
		return
	}
	r.playing = true
	conn := r.conn
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.playing = false
		r.mu.Unlock()
	}()

	if conn == nil || !conn.Active() {
		slog.Info("voice: response ready but connection inactive", "guild_id", guildID)
		return
	}

	// Stage the response to disk; playback reads from the staged copy.
	stage, err := os.CreateTemp("", "parley-voice-*.wav")
	if err != nil {
		slog.Error("voice: stage response", "guild_id", guildID, "error", err)
		return
	}
	stagePath := stage.Name()
	defer os.Remove(stagePath)

	_, werr := stage.Write(wav)
	cerr := stage.Close()
	if werr != nil || cerr != nil {
		slog.Error("voice: stage response", "guild_id", guildID, "write_error", werr, "close_error", cerr)
		return
	}

	staged, err := os.ReadFile(stagePath)
	if err != nil {
		slog.Error("voice: read staged response", "guild_id", guildID, "error", err)
		return
	}
	pcm, err := audio.DecodeWAV(staged)
	if err != nil {
		slog.Error("voice: decode response wav", "guild_id", guildID, "error", err)
		return
	}

	slog.Info("voice: playing response", "guild_id", guildID, "duration", pcm.Duration())
	if err := conn.Play(ctx, pcm); err != nil {
		slog.Warn("voice: playback error", "guild_id", guildID, "error", err)
		return
	}
	m.metrics.PlaybackCompleted(ctx)
}

// recordTranscript transcribes one utterance and stores the result.
// Best-effort all the way: errors are logged and forgotten.
func (m *Manager) recordTranscript(ctx context.Context, guildID, userID string, pcm *audio.PCM) {
	text, err := m.transcriber.Transcribe(ctx, pcm)
	if err != nil {
		slog.Warn("voice: transcription failed", "guild_id", guildID, "user_id", userID, "error", err)
		return
	}
	if text == "" {
		return
	}
	slog.Debug("voice: transcript", "guild_id", guildID, "user_id", userID, "text", text)

	if m.transcripts == nil {
		return
	}
	entry := transcript.Entry{
		GuildID:  guildID,
		UserID:   userID,
		Text:     text,
		Duration: pcm.Duration(),
		SpokenAt: time.Now().UTC(),
	}
	if err := m.transcripts.Save(ctx, entry); err != nil {
		slog.Warn("voice: store transcript", "guild_id", guildID, "user_id", userID, "error", err)
	}
}

// disconnectAll tears down every room. Used during shutdown.
func (m *Manager) disconnectAll() {
	m.mu.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*room)
	m.mu.Unlock()

	for guildID, r := range rooms {
		r.mu.Lock()
		conn := r.conn
		r.mu.Unlock()
		if conn != nil {
			if err := conn.Disconnect(); err != nil {
				slog.Warn("voice: disconnect during shutdown", "guild_id", guildID, "error", err)
			}
		}
	}
}
