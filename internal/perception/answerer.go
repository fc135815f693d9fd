package perception

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"missiond/internal/logging"
)

// =============================================================================
// INFORMATIONAL HANDLERS
// =============================================================================
// Question and meta turns never spawn missions; they delegate to an Answerer.
// The canned answerer is the default and keeps the engine fully offline; the
// Gemini answerer is used when an API key is configured.

// CannedAnswerer answers without any external call. Deterministic.
type CannedAnswerer struct{}

// Answer returns a fixed, honest response for question turns.
func (CannedAnswerer) Answer(_ context.Context, question string) (string, error) {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "help") || strings.Contains(q, "what can you do"):
		return "I can open pages, extract data, search, calculate, and forecast. " +
			"Describe what you want and I will propose it as a mission for your approval.", nil
	case strings.TrimSpace(q) == "":
		return "I didn't catch that. What would you like me to do?", nil
	default:
		return "I track that kind of question but can't answer it offline. " +
			"If you want me to act on something, tell me what to do and where.", nil
	}
}

// GeminiAnswerer answers question turns through the Gemini API.
type GeminiAnswerer struct {
	client *genai.Client
	model  string
}

// NewGeminiAnswerer creates a Gemini-backed answerer.
func NewGeminiAnswerer(apiKey, model string) (*GeminiAnswerer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiAnswerer{client: client, model: model}, nil
}

// Answer sends the question to Gemini. Errors are returned to the caller,
// which falls back to the canned answerer so the user always gets prose.
func (a *GeminiAnswerer) Answer(ctx context.Context, question string) (string, error) {
	timer := logging.StartTimer(logging.CategoryPerception, "gemini_answer")
	defer timer.Stop()

	contents := []*genai.Content{
		genai.NewContentFromText(question, genai.RoleUser),
	}
	result, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini answer failed: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return text, nil
}
