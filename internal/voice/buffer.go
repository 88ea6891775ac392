package voice

import (
	"time"

	"github.com/parley-bot/parley/pkg/audio"
)

// Buffer accumulates one speaker's Opus frames until the speaker falls
// silent. It is not safe for concurrent use on its own; the owning room's
// lock guards all access.
type Buffer struct {
	frames       []audio.Frame
	lastActivity time.Time
}

// Append adds a captured frame and marks the buffer active at now.
func (b *Buffer) Append(f audio.Frame, now time.Time) {
	b.frames = append(b.frames, f)
	b.lastActivity = now
}

// Len returns the number of buffered frames.
func (b *Buffer) Len() int {
	return len(b.frames)
}

// SilentSince reports whether the buffer holds frames and has seen no new
// activity for at least threshold as of now.
func (b *Buffer) SilentSince(now time.Time, threshold time.Duration) bool {
	return len(b.frames) > 0 && now.Sub(b.lastActivity) >= threshold
}

// Flush returns the buffered frames and clears the buffer. Each frame is
// returned exactly once; a second Flush yields nil until new frames arrive.
func (b *Buffer) Flush() []audio.Frame {
	frames := b.frames
	b.frames = nil
	return frames
}
