package voice

import (
	"testing"
	"time"

	"github.com/parley-bot/parley/pkg/audio"
)

func TestBuffer_AppendTracksActivity(t *testing.T) {
	t.Parallel()

	var b Buffer
	now := time.Now()

	b.Append(audio.Frame{UserID: "u", Opus: []byte{1}}, now)
	b.Append(audio.Frame{UserID: "u", Opus: []byte{2}}, now.Add(20*time.Millisecond))

	if b.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", b.Len())
	}
	if b.lastActivity != now.Add(20*time.Millisecond) {
		t.Error("lastActivity not updated by Append")
	}
}

func TestBuffer_SilentSince(t *testing.T) {
	t.Parallel()

	var b Buffer
	now := time.Now()

	// Empty buffers are never silent, no matter how old.
	if b.SilentSince(now.Add(time.Hour), time.Second) {
		t.Error("empty buffer reported silent")
	}

	b.Append(audio.Frame{Opus: []byte{1}}, now)

	if b.SilentSince(now.Add(time.Second), 1500*time.Millisecond) {
		t.Error("buffer silent before threshold elapsed")
	}
	if !b.SilentSince(now.Add(1500*time.Millisecond), 1500*time.Millisecond) {
		t.Error("buffer not silent exactly at threshold")
	}
}

func TestBuffer_FlushExactlyOnce(t *testing.T) {
	t.Parallel()

	var b Buffer
	now := time.Now()
	b.Append(audio.Frame{Opus: []byte{1}}, now)
	b.Append(audio.Frame{Opus: []byte{2}}, now)

	first := b.Flush()
	if len(first) != 2 {
		t.Fatalf("first flush: got %d frames, want 2", len(first))
	}
	if second := b.Flush(); second != nil {
		t.Errorf("second flush returned %d frames, want none", len(second))
	}
	if b.Len() != 0 {
		t.Errorf("Len after flush: got %d, want 0", b.Len())
	}

	// New frames after a flush accumulate from scratch.
	b.Append(audio.Frame{Opus: []byte{3}}, now)
	if got := b.Flush(); len(got) != 1 || got[0].Opus[0] != 3 {
		t.Errorf("flush after refill returned wrong frames: %v", got)
	}
}
