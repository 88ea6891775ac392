// Package mock provides a test double for the image.Generator interface.
package mock

import (
	"context"
	"sync"

	"github.com/parley-bot/parley/pkg/provider/image"
)

// Generator is a mock implementation of image.Generator.
// Set the exported fields before use; inspect Calls after.
type Generator struct {
	mu sync.Mutex

	// Data and MIME are returned by Generate.
	Data []byte
	MIME string

	// Err is returned by Generate.
	Err error

	// Calls records every prompt passed to Generate, in order.
	Calls []string
}

var _ image.Generator = (*Generator)(nil)

// Generate implements image.Generator. It records the prompt and returns the
// configured Data, MIME, and Err.
func (g *Generator) Generate(_ context.Context, prompt string) ([]byte, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, prompt)
	return g.Data, g.MIME, g.Err
}
