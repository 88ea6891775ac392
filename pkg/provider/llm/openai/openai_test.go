package openai

import (
	"testing"

	"github.com/parley-bot/parley/pkg/provider/llm"
)

// TestNew_Validation checks the constructor's argument validation.
func TestNew_Validation(t *testing.T) {
	if _, err := New("", "gpt-4o"); err == nil {
		t.Error("expected error for empty API key")
	}
	if _, err := New("sk-test", ""); err == nil {
		t.Error("expected error for empty model")
	}
	if _, err := New("sk-test", "gpt-4o", WithBaseURL("https://proxy.example.com/v1")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestBuildParams_Messages checks system prompt and role conversion.
func TestBuildParams_Messages(t *testing.T) {
	p := &Provider{model: "gpt-4o"}
	params := p.buildParams(llm.Request{
		SystemPrompt: "You are terse.",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Hello!"},
			{Role: llm.RoleAssistant, Content: "Hi.", Name: "parley"},
		},
	})

	if string(params.Model) != "gpt-4o" {
		t.Errorf("model: got %q", params.Model)
	}
	if len(params.Messages) != 3 {
		t.Fatalf("messages: got %d, want 3", len(params.Messages))
	}
	if params.Messages[0].OfSystem == nil {
		t.Error("first message should be the system prompt")
	}
	if params.Messages[1].OfUser == nil {
		t.Error("second message should be user-role")
	}
	asst := params.Messages[2].OfAssistant
	if asst == nil {
		t.Fatal("third message should be assistant-role")
	}
	if asst.Content.OfString.Value != "Hi." {
		t.Errorf("assistant content: got %q", asst.Content.OfString.Value)
	}
	if asst.Name.Value != "parley" {
		t.Errorf("assistant name: got %q", asst.Name.Value)
	}
}

// TestBuildParams_ReasoningEffort checks that effort is forwarded except for
// the "none" and empty settings.
func TestBuildParams_ReasoningEffort(t *testing.T) {
	p := &Provider{model: "o3-mini"}
	base := llm.Request{Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}}}

	for _, effort := range []string{"", "none"} {
		req := base
		req.ReasoningEffort = effort
		if got := p.buildParams(req).ReasoningEffort; got != "" {
			t.Errorf("effort %q: should stay unset, got %q", effort, got)
		}
	}

	req := base
	req.ReasoningEffort = "high"
	if got := p.buildParams(req).ReasoningEffort; string(got) != "high" {
		t.Errorf("effort high: got %q", got)
	}
}

// TestBuildParams_OptionalFields checks temperature and token cap handling.
func TestBuildParams_OptionalFields(t *testing.T) {
	p := &Provider{model: "gpt-4o"}

	params := p.buildParams(llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	if params.Temperature.Valid() {
		t.Error("zero temperature should stay unset")
	}
	if params.MaxCompletionTokens.Valid() {
		t.Error("zero max tokens should stay unset")
	}

	params = p.buildParams(llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		Temperature: 0.3,
		MaxTokens:   512,
	})
	if !params.Temperature.Valid() || params.Temperature.Value != 0.3 {
		t.Errorf("temperature: got %+v", params.Temperature)
	}
	if !params.MaxCompletionTokens.Valid() || params.MaxCompletionTokens.Value != 512 {
		t.Errorf("max tokens: got %+v", params.MaxCompletionTokens)
	}
}
