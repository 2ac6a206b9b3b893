// README: Gemini-backed extraction of pickup/destination from unstructured booking messages.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider implements TripExtractor using Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiProvider initializes a new Gemini client.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-2.0-flash")

	// Force JSON response for structured parsing.
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0)

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

func (p *GeminiProvider) ExtractTrip(ctx context.Context, message string) (*TripResult, error) {
	fullPrompt := fmt.Sprintf("%s\n\nUser Message: %s", tripPrompt, message)

	resp, err := p.model.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}
	return parseTripResult(responseText.String())
}

const tripPrompt = `Role: You extract ride requests for "RideSafe Local", an SMS ride booking service.

Read the user's message and find the pickup address and the destination address.

RULES:
1. Copy each address exactly as the user wrote it. Do not expand, correct or geocode it.
2. Words like "from", "pick me up at", "I'm at" mark the pickup.
3. Words like "to", "going to", "drop me at" mark the destination.
4. If either address is missing or you are unsure, return an empty string for it.
5. Never invent an address.

Output JSON Schema:
{
  "pickup": "string",
  "destination": "string"
}
`

func parseTripResult(raw string) (*TripResult, error) {
	cleanJSON := cleanJSONString(raw)

	var result TripResult
	if err := json.Unmarshal([]byte(cleanJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}
	result.Pickup = strings.TrimSpace(result.Pickup)
	result.Destination = strings.TrimSpace(result.Destination)
	return &result, nil
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
