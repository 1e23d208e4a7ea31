// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package structure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// GeminiBackend implements Backend against the Gemini API. Responses are
// requested in JSON mode at temperature 0; the model output is still not
// guaranteed byte-identical across calls, only schema-conformant.
type GeminiBackend struct {
	client    *genai.Client
	modelName string
}

// NewGeminiBackend creates the Gemini client. A missing API key is a fatal
// configuration error surfaced here, at construction time, never mid-batch.
func NewGeminiBackend(ctx context.Context, apiKey, modelName string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	return &GeminiBackend{client: client, modelName: modelName}, nil
}

// Close releases the underlying client.
func (g *GeminiBackend) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Generate sends the prompt and concatenates the text parts of the first
// candidate.
func (g *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.SetTemperature(0)
	m.ResponseMIMEType = "application/json"

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

var _ Backend = (*GeminiBackend)(nil)
