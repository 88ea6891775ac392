// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to verify the requests the chat service builds
// and to feed controlled replies without a live backend.
//
// Example:
//
//	p := &mock.Provider{Response: &llm.Response{Content: "Hello!"}}
//	resp, err := p.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/parley-bot/parley/pkg/provider/llm"
)

// Provider is a mock implementation of llm.Provider.
// Set the exported fields before use; inspect Calls after.
type Provider struct {
	mu sync.Mutex

	// Response is returned by Complete when CompleteFunc is nil.
	Response *llm.Response

	// Err is returned by Complete when CompleteFunc is nil.
	Err error

	// CompleteFunc, when non-nil, overrides Response/Err and is called for
	// every Complete invocation.
	CompleteFunc func(ctx context.Context, req llm.Request) (*llm.Response, error)

	// Calls records every request passed to Complete, in order.
	Calls []llm.Request
}

var _ llm.Provider = (*Provider)(nil)

// Complete implements llm.Provider. It records the call and returns
// CompleteFunc's result when set, otherwise Response / Err.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, req)
	fn := p.CompleteFunc
	resp, err := p.Response, p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return resp, err
}

// CallCount returns how many times Complete was called.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
