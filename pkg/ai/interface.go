package ai

import (
	"context"
)

// Role of a chat turn
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatTurn is one prior message passed as conversation history
type ChatTurn struct {
	Role Role
	Text string
}

// GenerationService is the interface for text and JSON generation.
// Implement this interface to add new AI providers (Gemini, Ollama, ...).
// Every response is untrusted text; callers parse and validate it.
type GenerationService interface {
	// Chat continues a conversation and returns the model's reply
	Chat(ctx context.Context, systemInstruction string, history []ChatTurn, message string) (string, error)

	// GenerateText returns free text for a prompt
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateJSON returns the raw text of a response that was asked to be JSON
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
