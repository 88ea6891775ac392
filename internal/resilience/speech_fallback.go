package resilience

import (
	"context"

	"github.com/parley-bot/parley/pkg/provider/speech"
)

// SpeechFallback implements [speech.Processor] with failover across multiple
// speech backends.
//
// A (nil, nil) return is a processor declining to answer, not a failure. It
// counts as success for the breaker and does not fall through to the next
// backend.
type SpeechFallback struct {
	group *FallbackGroup[speech.Processor]
}

var _ speech.Processor = (*SpeechFallback)(nil)

// NewSpeechFallback creates a [SpeechFallback] with primary as the preferred
// backend.
func NewSpeechFallback(primary speech.Processor, primaryName string, cfg FallbackConfig) *SpeechFallback {
	return &SpeechFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers another speech backend, tried after the primary.
func (f *SpeechFallback) AddFallback(name string, processor speech.Processor) {
	f.group.AddFallback(name, processor)
}

// ProcessAudio hands the utterance to the first healthy backend.
func (f *SpeechFallback) ProcessAudio(ctx context.Context, wav []byte) ([]byte, error) {
	return ExecuteWithResult(f.group, func(p speech.Processor) ([]byte, error) {
		return p.ProcessAudio(ctx, wav)
	})
}
