// Package stt defines the speech-to-text abstraction used for utterance
// transcripts. Transcription runs on whole utterances after silence
// segmentation, so the interface is batch rather than streaming.
package stt

import (
	"context"

	"github.com/parley-bot/parley/pkg/audio"
)

// Transcriber converts one utterance of PCM audio to text.
//
// An empty string with a nil error means the audio contained no
// recognisable speech.
//
// Implementations must be safe for concurrent use.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm *audio.PCM) (string, error)
}
