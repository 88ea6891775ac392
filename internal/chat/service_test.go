package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/parley-bot/parley/internal/settings"
	"github.com/parley-bot/parley/pkg/provider/llm"
	llmmock "github.com/parley-bot/parley/pkg/provider/llm/mock"
)

func newTestService(t *testing.T, provider *llmmock.Provider, opts ...ServiceOption) *Service {
	t.Helper()
	if provider.Response == nil && provider.CompleteFunc == nil && provider.Err == nil {
		provider.Response = &llm.Response{Content: "mock reply"}
	}
	return NewService(provider, NewPersonas(), opts...)
}

func TestService_Respond(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{Response: &llm.Response{Content: "  Hello, Alice!  "}}
	s := newTestService(t, provider)

	reply, err := s.Respond(context.Background(), "chan-1", "alice", "Hi there")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply != "Hello, Alice!" {
		t.Errorf("reply: got %q", reply)
	}

	if provider.CallCount() != 1 {
		t.Fatalf("provider calls: got %d", provider.CallCount())
	}
	req := provider.Calls[0]
	if req.SystemPrompt == "" {
		t.Error("request missing persona system prompt")
	}
	if len(req.Messages) != 1 || req.Messages[0].Content != "Hi there" || req.Messages[0].Name != "alice" {
		t.Errorf("request messages: %+v", req.Messages)
	}

	// The reply joins the history for the next turn.
	_, err = s.Respond(context.Background(), "chan-1", "alice", "And again")
	if err != nil {
		t.Fatal(err)
	}
	req = provider.Calls[1]
	if len(req.Messages) != 3 {
		t.Fatalf("second request messages: got %d, want 3", len(req.Messages))
	}
	if req.Messages[1].Role != llm.RoleAssistant {
		t.Errorf("assistant turn missing from history: %+v", req.Messages)
	}
}

func TestService_RespondUsesReasoningEffort(t *testing.T) {
	t.Parallel()

	store := settings.NewMemoryStore()
	if err := store.SetReasoningEffort(context.Background(), "chan-1", settings.EffortHigh); err != nil {
		t.Fatal(err)
	}

	provider := &llmmock.Provider{}
	s := newTestService(t, provider, WithSettings(store))

	if _, err := s.Respond(context.Background(), "chan-1", "alice", "think hard"); err != nil {
		t.Fatal(err)
	}
	if got := provider.Calls[0].ReasoningEffort; got != settings.EffortHigh {
		t.Errorf("reasoning effort: got %q", got)
	}

	// Channels without a setting leave the effort empty.
	if _, err := s.Respond(context.Background(), "chan-2", "alice", "quick one"); err != nil {
		t.Fatal(err)
	}
	if got := provider.Calls[1].ReasoningEffort; got != "" {
		t.Errorf("unset channel effort: got %q", got)
	}
}

func TestService_RespondErrors(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{Err: errors.New("rate limited")}
	s := newTestService(t, provider)
	if _, err := s.Respond(context.Background(), "chan-1", "alice", "hi"); err == nil {
		t.Error("expected provider error to propagate")
	}

	empty := &llmmock.Provider{Response: &llm.Response{Content: "   "}}
	s = newTestService(t, empty)
	if _, err := s.Respond(context.Background(), "chan-1", "alice", "hi"); err == nil {
		t.Error("expected error for blank reply")
	}
}

func TestService_SetPersona(t *testing.T) {
	t.Parallel()

	s := newTestService(t, &llmmock.Provider{})

	persona, err := s.SetPersona("chan-1", "pirate", false)
	if err != nil {
		t.Fatalf("SetPersona: %v", err)
	}
	if persona.Name != "pirate" {
		t.Errorf("persona: %+v", persona)
	}
	if got := s.ActivePersona("chan-1").Name; got != "pirate" {
		t.Errorf("active persona: got %q", got)
	}
	// Other channels keep the default.
	if got := s.ActivePersona("chan-2").Name; got != DefaultPersona {
		t.Errorf("chan-2 persona: got %q", got)
	}

	if _, err := s.SetPersona("chan-1", "nope", false); err == nil {
		t.Error("expected error for unknown persona")
	}
}

func TestService_SetPersonaRestrictedGating(t *testing.T) {
	t.Parallel()

	s := newTestService(t, &llmmock.Provider{})

	if _, err := s.SetPersona("chan-1", "roastmaster", false); !errors.Is(err, ErrRestrictedPersona) {
		t.Errorf("non-admin: got %v, want ErrRestrictedPersona", err)
	}
	if _, err := s.SetPersona("chan-1", "roastmaster", true); err != nil {
		t.Errorf("admin: %v", err)
	}
}

func TestService_SetPersonaClearsHistory(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{}
	s := newTestService(t, provider)
	ctx := context.Background()

	if _, err := s.Respond(ctx, "chan-1", "alice", "remember me"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetPersona("chan-1", "poet", false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Respond(ctx, "chan-1", "alice", "fresh start"); err != nil {
		t.Fatal(err)
	}

	last := provider.Calls[len(provider.Calls)-1]
	if len(last.Messages) != 1 {
		t.Errorf("history not cleared on persona switch: %+v", last.Messages)
	}
}

func TestService_SendQueue(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{}
	s := newTestService(t, provider)
	ctx := context.Background()

	if _, err := s.SendQueue(ctx, "alice", "chan-1", "alice"); err == nil {
		t.Error("expected error for empty queue")
	}

	if err := s.Enqueue("alice", "chan-1", "part one"); err != nil {
		t.Fatal(err)
	}
	if err := s.Enqueue("alice", "chan-1", "part two"); err != nil {
		t.Fatal(err)
	}
	if got := s.QueuedMessages("alice", "chan-1"); len(got) != 2 {
		t.Fatalf("queued: %v", got)
	}

	if _, err := s.SendQueue(ctx, "alice", "chan-1", "alice"); err != nil {
		t.Fatalf("SendQueue: %v", err)
	}

	sent := provider.Calls[0].Messages[0].Content
	if !strings.Contains(sent, "part one") || !strings.Contains(sent, "part two") {
		t.Errorf("queued parts not concatenated: %q", sent)
	}
	if got := s.QueuedMessages("alice", "chan-1"); len(got) != 0 {
		t.Errorf("queue not drained: %v", got)
	}
}
