// Package mock provides a call-recording mock implementation of the
// [speech.Processor] interface for use in unit tests.
package mock

import (
	"context"
	"sync"

	"github.com/parley-bot/parley/pkg/provider/speech"
)

// Compile-time interface check.
var _ speech.Processor = (*Processor)(nil)

// ProcessAudioCall records the arguments of one ProcessAudio invocation.
type ProcessAudioCall struct {
	// WAV is the utterance passed to ProcessAudio.
	WAV []byte
}

// Processor is a mock implementation of [speech.Processor].
// Set the exported Result fields before use; inspect Calls after.
type Processor struct {
	mu sync.Mutex

	// Response is returned by ProcessAudio. A nil Response models the
	// "no answer" outcome.
	Response []byte

	// Err is returned by ProcessAudio.
	Err error

	// ProcessFunc, when non-nil, overrides Response/Err.
	ProcessFunc func(ctx context.Context, wav []byte) ([]byte, error)

	// Calls records all ProcessAudio invocations.
	Calls []ProcessAudioCall
}

// ProcessAudio implements [speech.Processor]. Records the call and returns
// ProcessFunc's result when set, otherwise Response / Err.
func (p *Processor) ProcessAudio(ctx context.Context, wav []byte) ([]byte, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, ProcessAudioCall{WAV: wav})
	fn := p.ProcessFunc
	resp, err := p.Response, p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, wav)
	}
	return resp, err
}

// CallCount returns how many times ProcessAudio was invoked.
func (p *Processor) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
