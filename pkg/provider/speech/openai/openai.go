// Package openai provides a speech processor backed by the OpenAI
// audio-capable chat completions API (gpt-audio family models).
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/parley-bot/parley/pkg/provider/speech"
)

// DefaultModel is the default audio-capable chat model.
const DefaultModel = "gpt-audio"

// DefaultVoice is the default response voice.
const DefaultVoice = "alloy"

// defaultSystemPrompt keeps spoken answers short enough for a voice channel.
const defaultSystemPrompt = "You are a helpful voice assistant in a group " +
	"voice chat. Keep replies conversational and under three sentences. " +
	"If the audio contains no clear speech directed at you, reply with " +
	"exactly the word PASS."

// Ensure Processor implements the speech.Processor interface.
var _ speech.Processor = (*Processor)(nil)

// Processor implements [speech.Processor] using OpenAI chat completions
// with audio input and audio output modalities.
type Processor struct {
	client       oai.Client
	model        string
	voice        string
	systemPrompt string
}

// config holds optional configuration for the processor.
type config struct {
	baseURL      string
	voice        string
	systemPrompt string
	timeout      time.Duration
}

// Option is a functional option for Processor.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithVoice selects the response voice (alloy, echo, shimmer, ...).
func WithVoice(voice string) Option {
	return func(c *config) { c.voice = voice }
}

// WithSystemPrompt replaces the default voice-assistant system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *config) { c.systemPrompt = prompt }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a new OpenAI speech Processor.
// If model is empty, DefaultModel (gpt-audio) is used.
func New(apiKey string, model string, opts ...Option) (*Processor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai speech: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{
		voice:        DefaultVoice,
		systemPrompt: defaultSystemPrompt,
	}
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

	return &Processor{
		client:       oai.NewClient(reqOpts...),
		model:        model,
		voice:        cfg.voice,
		systemPrompt: cfg.systemPrompt,
	}, nil
}

// ProcessAudio implements [speech.Processor]. The utterance is sent as a
// base64 input_audio content part; the model answers with a WAV audio part
// which is returned decoded. A model reply without audio (the PASS case)
// yields (nil, nil).
func (p *Processor) ProcessAudio(ctx context.Context, wav []byte) ([]byte, error) {
	if len(wav) == 0 {
		return nil, fmt.Errorf("openai speech: empty utterance")
	}

	resp, err := p.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model:      p.model,
		Modalities: []string{"text", "audio"},
		Audio: oai.ChatCompletionAudioParam{
			Voice:  oai.ChatCompletionAudioParamVoice(p.voice),
			Format: oai.ChatCompletionAudioParamFormatWAV,
		},
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(p.systemPrompt),
			oai.UserMessage([]oai.ChatCompletionContentPartUnionParam{
				oai.InputAudioContentPart(oai.ChatCompletionContentPartInputAudioInputAudioParam{
					Data:   base64.StdEncoding.EncodeToString(wav),
					Format: "wav",
				}),
			}),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai speech: empty response")
	}

	audio := resp.Choices[0].Message.Audio
	if audio.Data == "" {
		// Text-only reply; the model declined to speak.
		return nil, nil
	}

	out, err := base64.StdEncoding.DecodeString(audio.Data)
	if err != nil {
		return nil, fmt.Errorf("openai speech: decode response audio: %w", err)
	}
	return out, nil
}
