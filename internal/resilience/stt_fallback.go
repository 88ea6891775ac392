package resilience

import (
	"context"

	"github.com/parley-bot/parley/pkg/audio"
	"github.com/parley-bot/parley/pkg/provider/stt"
)

// TranscriberFallback implements [stt.Transcriber] with failover across
// multiple speech-to-text backends.
//
// An empty transcript with a nil error means no recognisable speech; it
// counts as success and does not fall through to the next backend.
type TranscriberFallback struct {
	group *FallbackGroup[stt.Transcriber]
}

var _ stt.Transcriber = (*TranscriberFallback)(nil)

// NewTranscriberFallback creates a [TranscriberFallback] with primary as the
// preferred backend.
func NewTranscriberFallback(primary stt.Transcriber, primaryName string, cfg FallbackConfig) *TranscriberFallback {
	return &TranscriberFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers another transcription backend, tried after the
// primary.
func (f *TranscriberFallback) AddFallback(name string, transcriber stt.Transcriber) {
	f.group.AddFallback(name, transcriber)
}

// Transcribe hands the utterance to the first healthy backend.
func (f *TranscriberFallback) Transcribe(ctx context.Context, pcm *audio.PCM) (string, error) {
	return ExecuteWithResult(f.group, func(t stt.Transcriber) (string, error) {
		return t.Transcribe(ctx, pcm)
	})
}
