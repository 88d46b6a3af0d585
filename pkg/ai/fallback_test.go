package ai

import (
	"context"
	"errors"
	"testing"
)

// MockGenerationService is a hand-written GenerationService with func fields.
type MockGenerationService struct {
	ChatFunc         func(ctx context.Context, system string, history []ChatTurn, message string) (string, error)
	GenerateTextFunc func(ctx context.Context, prompt string) (string, error)
	GenerateJSONFunc func(ctx context.Context, prompt string) (string, error)
	calls            int
}

func (m *MockGenerationService) Chat(ctx context.Context, system string, history []ChatTurn, message string) (string, error) {
	m.calls++
	return m.ChatFunc(ctx, system, history, message)
}

func (m *MockGenerationService) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.calls++
	return m.GenerateTextFunc(ctx, prompt)
}

func (m *MockGenerationService) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	m.calls++
	return m.GenerateJSONFunc(ctx, prompt)
}

func fixed(out string, err error) func(ctx context.Context, prompt string) (string, error) {
	return func(ctx context.Context, prompt string) (string, error) { return out, err }
}

func TestFallbackJSONPrefersGemini(t *testing.T) {
	t.Parallel()

	g := &MockGenerationService{GenerateJSONFunc: fixed(`["gemini"]`, nil)}
	o := &MockGenerationService{GenerateJSONFunc: fixed(`["ollama"]`, nil)}
	f := NewFallbackService(g, o)

	got, err := f.GenerateJSON(context.Background(), "p")
	if err != nil || got != `["gemini"]` {
		t.Fatalf("GenerateJSON() = %q, %v", got, err)
	}
	if o.calls != 0 {
		t.Fatalf("ollama called %d times, expected 0", o.calls)
	}
}

func TestFallbackJSONQuotaFallsBackToOllama(t *testing.T) {
	t.Parallel()

	g := &MockGenerationService{GenerateJSONFunc: fixed("", errors.New("Error 429: RESOURCE_EXHAUSTED"))}
	o := &MockGenerationService{GenerateJSONFunc: fixed(`["ollama"]`, nil)}
	f := NewFallbackService(g, o)

	got, err := f.GenerateJSON(context.Background(), "p")
	if err != nil || got != `["ollama"]` {
		t.Fatalf("GenerateJSON() = %q, %v", got, err)
	}
}

func TestFallbackRetriesGeminiWhenOllamaUnreachable(t *testing.T) {
	t.Parallel()

	attempts := 0
	g := &MockGenerationService{ChatFunc: func(ctx context.Context, system string, history []ChatTurn, message string) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("503 overloaded")
		}
		return "second try", nil
	}}
	o := &MockGenerationService{ChatFunc: func(ctx context.Context, system string, history []ChatTurn, message string) (string, error) {
		return "", errors.New("dial tcp 127.0.0.1:11434: connection refused")
	}}
	f := NewFallbackService(g, o)

	got, err := f.Chat(context.Background(), "sys", nil, "hi")
	if err != nil || got != "second try" {
		t.Fatalf("Chat() = %q, %v", got, err)
	}
}

func TestFallbackTextPrefersOllama(t *testing.T) {
	t.Parallel()

	g := &MockGenerationService{GenerateTextFunc: fixed("gemini tip", nil)}
	o := &MockGenerationService{GenerateTextFunc: fixed("", errors.New("model not found"))}
	f := NewFallbackService(g, o)

	got, err := f.GenerateText(context.Background(), "p")
	if err != nil || got != "gemini tip" {
		t.Fatalf("GenerateText() = %q, %v", got, err)
	}
	if o.calls != 1 {
		t.Fatalf("ollama called %d times, expected 1", o.calls)
	}
}

func TestFallbackNoProviders(t *testing.T) {
	t.Parallel()

	f := NewFallbackService(nil, nil)
	if _, err := f.GenerateJSON(context.Background(), "p"); err == nil {
		t.Fatalf("GenerateJSON() with no providers returned nil error")
	}
}

func TestErrorClassifiers(t *testing.T) {
	t.Parallel()

	conn := map[string]bool{
		"dial tcp: connection refused": true,
		"unexpected EOF":               true,
		"invalid argument":             false,
	}
	for msg, expected := range conn {
		if got := isConnectionError(errors.New(msg)); got != expected {
			t.Fatalf("isConnectionError(%q) = %v, expected %v", msg, got, expected)
		}
	}
	quota := map[string]bool{
		"googleapi: Error 429":   true,
		"Rate limit exceeded":    true,
		"permission denied":      false,
	}
	for msg, expected := range quota {
		if got := isQuotaError(errors.New(msg)); got != expected {
			t.Fatalf("isQuotaError(%q) = %v, expected %v", msg, got, expected)
		}
	}
	if isConnectionError(nil) || isQuotaError(nil) {
		t.Fatalf("nil error classified as failure")
	}
}
