// Package image defines the Generator interface for image generation backends.
package image

import "context"

// Generator produces an image from a text prompt.
// Implementations must be safe for concurrent use.
type Generator interface {
	// Generate renders the prompt and returns the encoded image bytes
	// together with the image's MIME type.
	Generate(ctx context.Context, prompt string) ([]byte, string, error)
}
