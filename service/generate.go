package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// Generator is the generative text capability used by both the query
// refiner and the answer synthesizer, with different prompts
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userContent string) (string, error)
}

// GeminiGenerator implements Generator on the Gemini SDK
type GeminiGenerator struct {
	client      *genai.Client
	modelName   string
	temperature float32
}

// NewGeminiGenerator creates a generator bound to a Gemini model
func NewGeminiGenerator(client *genai.Client, modelName string, temperature float32) *GeminiGenerator {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &GeminiGenerator{
		client:      client,
		modelName:   modelName,
		temperature: temperature,
	}
}

// Generate produces text for the given system and user content
func (g *GeminiGenerator) Generate(ctx context.Context, systemPrompt, userContent string) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("gemini client not set")
	}

	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(g.temperature)
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userContent))
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("generation returned no candidates")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
	}

	result := strings.TrimSpace(builder.String())
	if result == "" {
		return "", fmt.Errorf("generation returned empty content")
	}

	return result, nil
}
