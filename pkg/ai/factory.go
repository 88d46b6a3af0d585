package ai

import (
	"context"
	"fmt"
	"log"

	"betterish-backend/pkg/gemini"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "gemini", "ollama" or "auto"

	// Gemini config
	GeminiAPIKey string
	GeminiModel  string

	// Ollama config, read on every request so settings can change at runtime
	GetOllamaBaseURL func() string // e.g., "http://localhost:11434"
	GetOllamaModel   func() string // e.g., "llama3", "mistral"
}

// NewGenerationService creates a GenerationService based on the config.
// "auto" routes between Gemini and Ollama with fallback; without a Gemini key it is Ollama only.
func NewGenerationService(ctx context.Context, cfg Config) (GenerationService, error) {
	ollama := NewOllamaServiceWithGetters(cfg.GetOllamaBaseURL, cfg.GetOllamaModel)

	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		g, err := newGeminiAdapter(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil

	case ProviderOllama:
		return ollama, nil

	default:
		if cfg.GeminiAPIKey == "" {
			log.Println("[AI] No Gemini key configured, using Ollama only")
			return ollama, nil
		}
		g, err := newGeminiAdapter(ctx, cfg)
		if err != nil {
			log.Printf("[AI] Gemini unavailable (%v), using Ollama only", err)
			return ollama, nil
		}
		return NewFallbackService(g, ollama), nil
	}
}

// geminiAdapter maps ChatTurn history onto the Gemini client's message type
type geminiAdapter struct {
	svc *gemini.GeminiService
}

func newGeminiAdapter(ctx context.Context, cfg Config) (*geminiAdapter, error) {
	svc, err := gemini.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}
	return &geminiAdapter{svc: svc}, nil
}

func (a *geminiAdapter) Chat(ctx context.Context, systemInstruction string, history []ChatTurn, message string) (string, error) {
	msgs := make([]gemini.Message, 0, len(history))
	for _, h := range history {
		msgs = append(msgs, gemini.Message{Role: string(h.Role), Text: h.Text})
	}
	return a.svc.Chat(ctx, systemInstruction, msgs, message)
}

func (a *geminiAdapter) GenerateText(ctx context.Context, prompt string) (string, error) {
	return a.svc.GenerateText(ctx, prompt)
}

func (a *geminiAdapter) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return a.svc.GenerateJSON(ctx, prompt)
}
