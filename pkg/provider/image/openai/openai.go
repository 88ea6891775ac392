// Package openai provides an image.Generator backed by the OpenAI Images API.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/parley-bot/parley/pkg/provider/image"
)

// DefaultModel is the image model used when none is configured.
const DefaultModel = "gpt-image-1"

// DefaultSize is a wide format that displays well in chat embeds.
const DefaultSize = oai.ImageGenerateParamsSize1536x1024

// Generator implements image.Generator using the OpenAI Images API.
type Generator struct {
	client oai.Client
	model  string
	size   oai.ImageGenerateParamsSize
}

var _ image.Generator = (*Generator)(nil)

type config struct {
	baseURL string
	size    oai.ImageGenerateParamsSize
	timeout time.Duration
}

// Option is a functional option for Generator.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithSize overrides the generated image size.
func WithSize(size oai.ImageGenerateParamsSize) Option {
	return func(c *config) { c.size = size }
}

// WithTimeout sets a per-request HTTP timeout. Image generation routinely
// takes tens of seconds, so the default client timeout is generous.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs an OpenAI-backed Generator. An empty model selects
// [DefaultModel].
func New(apiKey, model string, opts ...Option) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{size: DefaultSize, timeout: 2 * time.Minute}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Generator{
		client: oai.NewClient(reqOpts...),
		model:  model,
		size:   cfg.size,
	}, nil
}

// Generate implements image.Generator. The API returns the image base64
// encoded; the decoded PNG bytes are returned.
func (g *Generator) Generate(ctx context.Context, prompt string) ([]byte, string, error) {
	if prompt == "" {
		return nil, "", fmt.Errorf("openai: prompt must not be empty")
	}

	resp, err := g.client.Images.Generate(ctx, oai.ImageGenerateParams{
		Prompt: prompt,
		Model:  oai.ImageModel(g.model),
		Size:   g.size,
	})
	if err != nil {
		return nil, "", fmt.Errorf("openai: generate image: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, "", fmt.Errorf("openai: empty image response")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, "", fmt.Errorf("openai: decode image data: %w", err)
	}
	return data, "image/png", nil
}
