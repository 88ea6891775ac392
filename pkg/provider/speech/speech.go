// Package speech defines the speech processor abstraction: the component
// that turns one captured voice utterance into a spoken response.
package speech

import "context"

// Processor turns a WAV-encoded utterance into a WAV-encoded spoken reply.
//
// A (nil, nil) return means the processor chose not to answer; that is a
// normal outcome, not an error. Callers never retry a failed call — the
// speaker can simply talk again.
//
// Implementations must be safe for concurrent use.
type Processor interface {
	ProcessAudio(ctx context.Context, wav []byte) ([]byte, error)
}
