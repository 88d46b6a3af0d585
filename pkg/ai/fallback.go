package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackService implements smart AI provider routing with fallback
// - Chat and JSON: Gemini first (better quality), fallback to Ollama
// - Free text (tips): Ollama first (local, free), fallback to Gemini
type FallbackService struct {
	gemini GenerationService
	ollama GenerationService
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(gemini, ollama GenerationService) *FallbackService {
	return &FallbackService{
		gemini: gemini,
		ollama: ollama,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return containsAny(err.Error(), []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"EOF",
	})
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	return containsAny(err.Error(), []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"RESOURCE_EXHAUSTED",
	})
}

func containsAny(s string, indicators []string) bool {
	s = strings.ToLower(s)
	for _, indicator := range indicators {
		if strings.Contains(s, strings.ToLower(indicator)) {
			return true
		}
	}
	return false
}

type call func(svc GenerationService) (string, error)

// geminiFirst tries Gemini, then Ollama; if Ollama is unreachable Gemini gets one more try.
func (f *FallbackService) geminiFirst(op string, fn call) (string, error) {
	if f.gemini != nil {
		result, err := fn(f.gemini)
		if err == nil {
			return result, nil
		}
		if isQuotaError(err) {
			log.Printf("[AI] Gemini quota exhausted for %s: %v, falling back to Ollama", op, err)
		} else {
			log.Printf("[AI] Gemini error for %s: %v, falling back to Ollama", op, err)
		}
	}

	if f.ollama != nil {
		result, err := fn(f.ollama)
		if err == nil {
			return result, nil
		}
		if isConnectionError(err) && f.gemini != nil {
			log.Printf("[AI] Ollama connection failed for %s: %v, retrying Gemini", op, err)
			return fn(f.gemini)
		}
		return "", fmt.Errorf("ollama %s failed: %w", op, err)
	}

	return "", fmt.Errorf("no AI provider available for %s", op)
}

// ollamaFirst tries Ollama, then Gemini; a Gemini quota error sends it back to Ollama once.
func (f *FallbackService) ollamaFirst(op string, fn call) (string, error) {
	if f.ollama != nil {
		result, err := fn(f.ollama)
		if err == nil {
			return result, nil
		}
		if isConnectionError(err) {
			log.Printf("[AI] Ollama connection failed for %s: %v, falling back to Gemini", op, err)
		} else {
			log.Printf("[AI] Ollama error for %s: %v, falling back to Gemini", op, err)
		}
	}

	if f.gemini != nil {
		result, err := fn(f.gemini)
		if err == nil {
			return result, nil
		}
		if isQuotaError(err) && f.ollama != nil {
			log.Printf("[AI] Gemini quota exhausted for %s: %v, retrying Ollama", op, err)
			return fn(f.ollama)
		}
		return "", fmt.Errorf("gemini %s failed: %w", op, err)
	}

	return "", fmt.Errorf("no AI provider available for %s", op)
}

func (f *FallbackService) Chat(ctx context.Context, systemInstruction string, history []ChatTurn, message string) (string, error) {
	return f.geminiFirst("chat", func(svc GenerationService) (string, error) {
		return svc.Chat(ctx, systemInstruction, history, message)
	})
}

func (f *FallbackService) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return f.geminiFirst("json generation", func(svc GenerationService) (string, error) {
		return svc.GenerateJSON(ctx, prompt)
	})
}

func (f *FallbackService) GenerateText(ctx context.Context, prompt string) (string, error) {
	return f.ollamaFirst("text generation", func(svc GenerationService) (string, error) {
		return svc.GenerateText(ctx, prompt)
	})
}
