package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const (
	// DefaultModel is used when no model is configured
	DefaultModel = "gemini-2.0-flash"

	truncatedSuffix = " ... [I lost my train of thought. Too tired.]"

	// BlockedReply is returned by Chat when the safety filter swallows the reply.
	BlockedReply = "The lawyers won't let me say what I really think. (System blocked it)."
)

// Message is one prior chat turn. Role is "user" or "model".
type Message struct {
	Role string
	Text string
}

var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
}

type GeminiService struct {
	client *genai.Client
	model  string
}

func NewGeminiService(ctx context.Context, apiKey, model string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiService{client: client, model: model}, nil
}

// Chat sends message after the given history. A reply cut off by the token
// limit is returned with a suffix instead of being dropped.
func (g *GeminiService) Chat(ctx context.Context, systemInstruction string, history []Message, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.9),
		MaxOutputTokens: 1000,
		SafetySettings:  safetySettings,
	}
	if systemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini chat failed: %w", err)
	}

	text := resp.Text()
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens && text != "" {
		return text + truncatedSuffix, nil
	}
	if text == "" {
		return BlockedReply, nil
	}
	return text, nil
}

// GenerateText returns free text for a single prompt
func (g *GeminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, "")
}

// GenerateJSON asks for an application/json response. The text is returned
// unparsed; callers own validation.
func (g *GeminiService) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, "application/json")
}

func (g *GeminiService) generate(ctx context.Context, prompt, mimeType string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SafetySettings:   safetySettings,
		ResponseMIMEType: mimeType,
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return resp.Text(), nil
}
