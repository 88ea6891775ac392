// Package mock provides a call-recording mock implementation of the
// [stt.Transcriber] interface for use in unit tests.
package mock

import (
	"context"
	"sync"

	"github.com/parley-bot/parley/pkg/audio"
	"github.com/parley-bot/parley/pkg/provider/stt"
)

// Compile-time interface check.
var _ stt.Transcriber = (*Transcriber)(nil)

// TranscribeCall records the arguments of one Transcribe invocation.
type TranscribeCall struct {
	// PCM is the audio passed to Transcribe.
	PCM *audio.PCM
}

// Transcriber is a mock implementation of [stt.Transcriber].
type Transcriber struct {
	mu sync.Mutex

	// Text is returned by Transcribe.
	Text string

	// Err is returned by Transcribe.
	Err error

	// Calls records all Transcribe invocations.
	Calls []TranscribeCall
}

// Transcribe implements [stt.Transcriber]. Records the call and returns
// Text / Err.
func (t *Transcriber) Transcribe(_ context.Context, pcm *audio.PCM) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = append(t.Calls, TranscribeCall{PCM: pcm})
	return t.Text, t.Err
}

// CallCount returns how many times Transcribe was invoked.
func (t *Transcriber) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Calls)
}
