package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "llama3"
)

// OllamaService implements GenerationService using Ollama local LLM
type OllamaService struct {
	getBaseURL func() string // Dynamic getter for BaseURL
	getModel   func() string // Dynamic getter for Model
	client     *http.Client
}

// NewOllamaService creates a new Ollama service
func NewOllamaService(baseURL, model string) *OllamaService {
	return NewOllamaServiceWithGetters(
		func() string { return baseURL },
		func() string { return model },
	)
}

// NewOllamaServiceWithGetters creates a new Ollama service with dynamic getters
func NewOllamaServiceWithGetters(getBaseURL, getModel func() string) *OllamaService {
	return &OllamaService{
		getBaseURL: getBaseURL,
		getModel:   getModel,
		client:     &http.Client{Timeout: 2 * time.Minute},
	}
}

func (o *OllamaService) baseURL() string {
	if o.getBaseURL != nil {
		if u := o.getBaseURL(); u != "" {
			return u
		}
	}
	return defaultOllamaBaseURL
}

func (o *OllamaService) model() string {
	if o.getModel != nil {
		if m := o.getModel(); m != "" {
			return m
		}
	}
	return defaultOllamaModel
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat implements GenerationService over /api/chat
func (o *OllamaService) Chat(ctx context.Context, systemInstruction string, history []ChatTurn, message string) (string, error) {
	messages := make([]ollamaMessage, 0, len(history)+2)
	if systemInstruction != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: systemInstruction})
	}
	for _, h := range history {
		role := "user"
		if h.Role == RoleModel {
			role = "assistant"
		}
		messages = append(messages, ollamaMessage{Role: role, Content: h.Text})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: message})

	payload := map[string]interface{}{
		"model":    o.model(),
		"messages": messages,
		"stream":   false,
		"options": map[string]interface{}{
			"temperature": 0.9,
			"num_predict": 1000,
		},
	}

	var result struct {
		Message ollamaMessage `json:"message"`
	}
	if err := o.post(ctx, "/api/chat", payload, &result); err != nil {
		return "", err
	}
	return result.Message.Content, nil
}

// GenerateText implements GenerationService over /api/generate
func (o *OllamaService) GenerateText(ctx context.Context, prompt string) (string, error) {
	return o.generate(ctx, prompt, 0.7)
}

// GenerateJSON implements GenerationService over /api/generate.
// Ollama's "format": "json" mode only yields objects, so array prompts run
// unconstrained and the caller extracts the JSON.
func (o *OllamaService) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return o.generate(ctx, prompt, 0.2)
}

func (o *OllamaService) generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	payload := map[string]interface{}{
		"model":  o.model(),
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": temperature,
			"num_predict": 500,
		},
	}

	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := o.post(ctx, "/api/generate", payload, &result); err != nil {
		return "", err
	}
	return result.Response, nil
}

func (o *OllamaService) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL()+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Ping checks that the Ollama server answers on /api/tags
func (o *OllamaService) Ping(ctx context.Context, baseURL string) error {
	if baseURL == "" {
		baseURL = o.baseURL()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama answered %d", resp.StatusCode)
	}
	return nil
}
