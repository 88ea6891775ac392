package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/parley-bot/parley/internal/observe"
	"github.com/parley-bot/parley/internal/settings"
	"github.com/parley-bot/parley/pkg/provider/llm"
)

// ErrRestrictedPersona is returned when a non-admin selects a restricted
// persona.
var ErrRestrictedPersona = fmt.Errorf("chat: persona is restricted to admins")

// Service produces persona-flavored replies from per-channel conversation
// history. All methods are safe for concurrent use.
type Service struct {
	provider llm.Provider
	personas *Personas
	history  *History
	queues   *Queues

	// Optional collaborators; each nil value disables its feature.
	settings settings.Store
	metrics  *observe.Metrics

	mu     sync.RWMutex
	active map[string]string // channelID -> persona name
}

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*Service)

// WithSettings supplies the per-channel settings store used to look up
// reasoning effort. Without it, the provider default effort is used.
func WithSettings(store settings.Store) ServiceOption {
	return func(s *Service) { s.settings = store }
}

// WithMetrics wires completion counters and latency instruments.
func WithMetrics(met *observe.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = met }
}

// WithHistoryLimits overrides the per-channel history bounds.
func WithHistoryLimits(maxSize int, maxAge time.Duration) ServiceOption {
	return func(s *Service) { s.history = NewHistory(maxSize, maxAge) }
}

// NewService creates a chat Service backed by the given provider and
// persona set.
func NewService(provider llm.Provider, personas *Personas, opts ...ServiceOption) *Service {
	s := &Service{
		provider: provider,
		personas: personas,
		history:  NewHistory(0, 0),
		queues:   NewQueues(),
		active:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Respond records the user's message in the channel history, asks the model
// for a reply in the channel's active persona, records the reply, and
// returns it.
func (s *Service) Respond(ctx context.Context, channelID, author, content string) (string, error) {
	persona := s.ActivePersona(channelID)

	s.history.Add(channelID, Turn{Role: llm.RoleUser, Author: author, Content: content})

	req := llm.Request{
		SystemPrompt:    persona.Prompt,
		Messages:        s.buildMessages(channelID),
		ReasoningEffort: s.reasoningEffort(ctx, channelID),
	}

	start := time.Now()
	resp, err := s.provider.Complete(ctx, req)
	s.metrics.ChatCompletion(ctx, persona.Name, time.Since(start), err == nil)
	if err != nil {
		s.metrics.ProviderError(ctx, "llm", "completion")
		return "", fmt.Errorf("chat: complete: %w", err)
	}
	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", fmt.Errorf("chat: model returned an empty reply")
	}

	s.history.Add(channelID, Turn{Role: llm.RoleAssistant, Content: reply})
	return reply, nil
}

// SetPersona switches the channel's active persona. Restricted personas
// require admin to be set.
func (s *Service) SetPersona(channelID, name string, admin bool) (Persona, error) {
	persona, err := s.personas.Get(name)
	if err != nil {
		return Persona{}, err
	}
	if persona.Restricted && !admin {
		return Persona{}, ErrRestrictedPersona
	}

	s.mu.Lock()
	s.active[channelID] = persona.Name
	s.mu.Unlock()

	// A persona switch resets the conversation so the old persona's replies
	// do not bleed into the new one's style.
	s.history.Clear(channelID)

	slog.Info("chat: persona changed", "channel_id", channelID, "persona", persona.Name)
	return persona, nil
}

// ActivePersona returns the channel's current persona.
func (s *Service) ActivePersona(channelID string) Persona {
	s.mu.RLock()
	name := s.active[channelID]
	s.mu.RUnlock()

	if name == "" {
		name = DefaultPersona
	}
	persona, err := s.personas.Get(name)
	if err != nil {
		// The active name always comes from the persona set; reaching this
		// means the set shrank at runtime, fall back to the default.
		persona, _ = s.personas.Get(DefaultPersona)
	}
	return persona
}

// PersonaNames lists selectable persona names for autocomplete.
func (s *Service) PersonaNames(includeRestricted bool) []string {
	return s.personas.Names(includeRestricted)
}

// ClearHistory drops the channel's conversation history.
func (s *Service) ClearHistory(channelID string) {
	s.history.Clear(channelID)
}

// Enqueue adds a message fragment to the user's queue for the channel.
func (s *Service) Enqueue(userID, channelID, text string) error {
	return s.queues.Add(userID, channelID, text)
}

// QueuedMessages returns the user's queued fragments, oldest first.
func (s *Service) QueuedMessages(userID, channelID string) []string {
	return s.queues.View(userID, channelID)
}

// ClearQueue discards the user's queue and reports how many fragments it held.
func (s *Service) ClearQueue(userID, channelID string) int {
	return s.queues.Clear(userID, channelID)
}

// SendQueue concatenates the user's queued fragments into one prompt and
// responds to it. Returns an error when the queue is empty.
func (s *Service) SendQueue(ctx context.Context, userID, channelID, author string) (string, error) {
	queued := s.queues.Drain(userID, channelID)
	if len(queued) == 0 {
		return "", fmt.Errorf("chat: queue is empty, enqueue messages first")
	}
	return s.Respond(ctx, channelID, author, strings.Join(queued, "\n"))
}

// buildMessages converts the channel history into provider messages.
func (s *Service) buildMessages(channelID string) []llm.Message {
	turns := s.history.Recent(channelID)
	messages := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, llm.Message{
			Role:    turn.Role,
			Content: turn.Content,
			Name:    turn.Author,
		})
	}
	return messages
}

// reasoningEffort looks up the channel's configured effort. Lookup failures
// fall back to the provider default; a slow settings store must not block
// replies on errors.
func (s *Service) reasoningEffort(ctx context.Context, channelID string) string {
	if s.settings == nil {
		return ""
	}
	effort, err := s.settings.ReasoningEffort(ctx, channelID)
	if err != nil {
		slog.Warn("chat: reasoning effort lookup failed", "channel_id", channelID, "error", err)
		return ""
	}
	return effort
}
