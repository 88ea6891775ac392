package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parley-bot/parley/pkg/audio"
	"github.com/parley-bot/parley/pkg/provider/llm"
	llmmock "github.com/parley-bot/parley/pkg/provider/llm/mock"
	speechmock "github.com/parley-bot/parley/pkg/provider/speech/mock"
	sttmock "github.com/parley-bot/parley/pkg/provider/stt/mock"
)

func TestFallbackGroup_PrimarySucceeds(t *testing.T) {
	t.Parallel()

	fg := NewFallbackGroup("primary", "primary", FallbackConfig{})
	fg.AddFallback("backup", "backup")

	var used string
	err := fg.Execute(func(v string) error {
		used = v
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if used != "primary" {
		t.Errorf("used = %q, want %q", used, "primary")
	}
}

func TestFallbackGroup_FallsThroughOnFailure(t *testing.T) {
	t.Parallel()

	fg := NewFallbackGroup("primary", "primary", FallbackConfig{})
	fg.AddFallback("backup", "backup")

	got, err := ExecuteWithResult(fg, func(v string) (string, error) {
		if v == "primary" {
			return "", errBoom
		}
		return v, nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult() error = %v", err)
	}
	if got != "backup" {
		t.Errorf("result = %q, want %q", got, "backup")
	}
}

func TestFallbackGroup_AllFail(t *testing.T) {
	t.Parallel()

	fg := NewFallbackGroup("primary", "primary", FallbackConfig{})
	fg.AddFallback("backup", "backup")

	err := fg.Execute(func(string) error { return errBoom })
	if !errors.Is(err, ErrAllFailed) {
		t.Errorf("Execute() error = %v, want %v", err, ErrAllFailed)
	}
}

func TestFallbackGroup_SkipsOpenBreaker(t *testing.T) {
	t.Parallel()

	fg := NewFallbackGroup("primary", "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour},
	})
	fg.AddFallback("backup", "backup")

	// Trip the primary's breaker.
	_ = fg.Execute(func(v string) error {
		if v == "primary" {
			return errBoom
		}
		return nil
	})

	var calls []string
	err := fg.Execute(func(v string) error {
		calls = append(calls, v)
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(calls) != 1 || calls[0] != "backup" {
		t.Errorf("calls = %v, want only backup", calls)
	}
}

func TestLLMFallback_FailsOver(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{Err: errBoom}
	backup := &llmmock.Provider{Response: &llm.Response{Content: "from backup"}}

	f := NewLLMFallback(primary, "primary", FallbackConfig{})
	f.AddFallback("backup", backup)

	resp, err := f.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "from backup" {
		t.Errorf("Content = %q, want %q", resp.Content, "from backup")
	}
	if primary.CallCount() != 1 || backup.CallCount() != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.CallCount(), backup.CallCount())
	}
}

func TestSpeechFallback_DeclineIsNotFailure(t *testing.T) {
	t.Parallel()

	primary := &speechmock.Processor{} // nil Response, nil Err: declines
	backup := &speechmock.Processor{Response: []byte("audio")}

	f := NewSpeechFallback(primary, "primary", FallbackConfig{})
	f.AddFallback("backup", backup)

	resp, err := f.ProcessAudio(context.Background(), []byte("utterance"))
	if err != nil {
		t.Fatalf("ProcessAudio() error = %v", err)
	}
	if resp != nil {
		t.Errorf("response = %v, want nil decline", resp)
	}
	if backup.CallCount() != 0 {
		t.Errorf("backup called %d times, want 0", backup.CallCount())
	}
}

func TestTranscriberFallback_FailsOver(t *testing.T) {
	t.Parallel()

	primary := &sttmock.Transcriber{Err: errBoom}
	backup := &sttmock.Transcriber{Text: "hello there"}

	f := NewTranscriberFallback(primary, "primary", FallbackConfig{})
	f.AddFallback("backup", backup)

	text, err := f.Transcribe(context.Background(), &audio.PCM{})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "hello there" {
		t.Errorf("text = %q, want %q", text, "hello there")
	}
	if primary.CallCount() != 1 || backup.CallCount() != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.CallCount(), backup.CallCount())
	}
}

func TestTranscriberFallback_EmptyTranscriptIsNotFailure(t *testing.T) {
	t.Parallel()

	primary := &sttmock.Transcriber{} // empty Text, nil Err: no speech
	backup := &sttmock.Transcriber{Text: "should not be used"}

	f := NewTranscriberFallback(primary, "primary", FallbackConfig{})
	f.AddFallback("backup", backup)

	text, err := f.Transcribe(context.Background(), &audio.PCM{})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
	if backup.CallCount() != 0 {
		t.Errorf("backup called %d times, want 0", backup.CallCount())
	}
}

func TestSpeechFallback_FailsOver(t *testing.T) {
	t.Parallel()

	primary := &speechmock.Processor{Err: errBoom}
	backup := &speechmock.Processor{Response: []byte("audio")}

	f := NewSpeechFallback(primary, "primary", FallbackConfig{})
	f.AddFallback("backup", backup)

	resp, err := f.ProcessAudio(context.Background(), []byte("utterance"))
	if err != nil {
		t.Fatalf("ProcessAudio() error = %v", err)
	}
	if string(resp) != "audio" {
		t.Errorf("response = %q, want %q", resp, "audio")
	}
}
