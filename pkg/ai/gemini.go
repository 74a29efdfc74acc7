package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements Negotiator and SentimentClassifier using Google's
// Gemini models.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

func NewGeminiClient(ctx context.Context, config *GeminiConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	name := config.Model
	if name == "" {
		name = "gemini-2.0-flash"
	}
	model := client.GenerativeModel(name)

	// Force JSON responses for structured parsing.
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(config.Temperature)

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (g *GeminiClient) Close() {
	g.client.Close()
}

// Negotiate plays the driver-side counterpart in a single bidding round.
func (g *GeminiClient) Negotiate(ctx context.Context, estimatedFare, proposedFare, minFare, maxFare float64) (*NegotiationResult, error) {
	prompt := fmt.Sprintf(`Role: You are a taxi driver deciding on a passenger's fare proposal.

The metered estimate for this trip is %.2f. The passenger proposes %.2f.
Your acceptable envelope is %.2f to %.2f.

Rules:
- If the proposal is inside your envelope and reasonable, accept it.
- If the proposal is below your envelope, you may counter with a fare inside
  the envelope that you would accept. Never counter above %.2f.
- If the proposal is unreasonable, reject it with a short reason.
- Exactly one round: respond with a final verdict, no questions.

Output JSON schema:
{
  "decision": "accepted" | "counter-offer" | "rejected",
  "reason": "string (one short sentence)",
  "counter_fare": number (only when decision is "counter-offer")
}`, estimatedFare, proposedFare, minFare, maxFare, maxFare)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result NegotiationResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("failed to parse negotiation response: %w. Raw: %s", err, text)
	}

	switch result.Decision {
	case DecisionAccepted, DecisionCounterOffer, DecisionRejected:
	default:
		return nil, fmt.Errorf("unexpected negotiation decision: %q", result.Decision)
	}

	// Clamp a wandering counter back into the envelope rather than failing
	// the round.
	if result.Decision == DecisionCounterOffer {
		if result.CounterFare < minFare {
			result.CounterFare = minFare
		}
		if result.CounterFare > maxFare {
			result.CounterFare = maxFare
		}
	}

	return &result, nil
}

// Classify labels a review comment as positive, negative or neutral.
func (g *GeminiClient) Classify(ctx context.Context, comment string) (Sentiment, error) {
	prompt := fmt.Sprintf(`Classify the sentiment of this ride review comment.

Comment: %q

Output JSON schema:
{"sentiment": "positive" | "negative" | "neutral"}`, comment)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return SentimentNeutral, err
	}

	var result struct {
		Sentiment Sentiment `json:"sentiment"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return SentimentNeutral, fmt.Errorf("failed to parse sentiment response: %w. Raw: %s", err, text)
	}

	switch result.Sentiment {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return result.Sentiment, nil
	}
	return SentimentNeutral, fmt.Errorf("unexpected sentiment label: %q", result.Sentiment)
}

func (g *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}

	return cleanJSONString(responseText.String()), nil
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
