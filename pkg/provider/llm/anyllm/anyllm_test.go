package anyllm

import (
	"strings"
	"testing"

	"github.com/parley-bot/parley/pkg/provider/llm"
)

// TestNew_Validation checks the constructor's argument validation.
func TestNew_Validation(t *testing.T) {
	if _, err := New("", "gpt-4o"); err == nil {
		t.Error("expected error for empty backend name")
	}
	if _, err := New("ollama", ""); err == nil {
		t.Error("expected error for empty model")
	}
}

// TestNew_UnsupportedBackend checks the error for unknown backend names.
func TestNew_UnsupportedBackend(t *testing.T) {
	_, err := New("watson", "jeopardy-1")
	if err == nil {
		t.Fatal("expected error for unsupported backend")
	}
	if !strings.Contains(err.Error(), "watson") {
		t.Errorf("error should name the backend: %v", err)
	}
}

// TestBuildParams_SystemPromptFirst checks that the system prompt is prepended
// as a system-role message ahead of the history.
func TestBuildParams_SystemPromptFirst(t *testing.T) {
	p := &Provider{model: "llama3.1"}
	params := p.buildParams(llm.Request{
		SystemPrompt: "You are a pirate.",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Hello!", Name: "alice"},
			{Role: llm.RoleAssistant, Content: "Ahoy!"},
		},
	})

	if params.Model != "llama3.1" {
		t.Errorf("model: got %q", params.Model)
	}
	if len(params.Messages) != 3 {
		t.Fatalf("messages: got %d, want 3", len(params.Messages))
	}
	if params.Messages[0].Role != "system" || params.Messages[0].ContentString() != "You are a pirate." {
		t.Errorf("first message should be the system prompt, got %+v", params.Messages[0])
	}
	if params.Messages[1].Name != "alice" {
		t.Errorf("speaker name not preserved: %+v", params.Messages[1])
	}
	if params.Messages[2].Role != "assistant" {
		t.Errorf("assistant role not preserved: %+v", params.Messages[2])
	}
}

// TestBuildParams_OptionalFields checks that zero temperature and max tokens
// are left unset.
func TestBuildParams_OptionalFields(t *testing.T) {
	p := &Provider{model: "llama3.1"}

	params := p.buildParams(llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	if params.Temperature != nil {
		t.Error("zero temperature should stay unset")
	}
	if params.MaxTokens != nil {
		t.Error("zero max tokens should stay unset")
	}

	params = p.buildParams(llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		Temperature: 0.7,
		MaxTokens:   256,
	})
	if params.Temperature == nil || *params.Temperature != 0.7 {
		t.Errorf("temperature: got %v", params.Temperature)
	}
	if params.MaxTokens == nil || *params.MaxTokens != 256 {
		t.Errorf("max tokens: got %v", params.MaxTokens)
	}
}
