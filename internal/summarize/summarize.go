package summarize

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/genai"
)

// Summarizer produces a short summary of a report's text. Two
// interchangeable backends are wired (Anthropic's Messages API and
// Google's genai), both pulled straight from SPEC_FULL.md's domain-stack
// table rather than the teacher (which had no AI-summary step) — grounded
// on the SDKs' own published client patterns since nothing in the pack
// exercises either one directly.
type Summarizer struct {
	anthropicClient *anthropic.Client
	genaiClient     *genai.Client
}

// NewAnthropic builds a Summarizer backed by Claude.
func NewAnthropic(apiKey string) *Summarizer {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Summarizer{anthropicClient: &client}
}

// NewGemini builds a Summarizer backed by Gemini via genai.
func NewGemini(ctx context.Context, apiKey string) (*Summarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Summarizer{genaiClient: client}, nil
}

// Summarize asks the configured backend for a 2-3 sentence summary of
// text.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf("Summarize the following report in 2-3 sentences:\n\n%s", text)

	switch {
	case s.anthropicClient != nil:
		msg, err := s.anthropicClient.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.ModelClaude3_5HaikuLatest,
			MaxTokens: 256,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return "", fmt.Errorf("anthropic summarize: %w", err)
		}
		if len(msg.Content) == 0 {
			return "", nil
		}
		return msg.Content[0].Text, nil

	case s.genaiClient != nil:
		result, err := s.genaiClient.Models.GenerateContent(ctx, "gemini-2.0-flash", genai.Text(prompt), nil)
		if err != nil {
			return "", fmt.Errorf("genai summarize: %w", err)
		}
		return result.Text(), nil

	default:
		return "", fmt.Errorf("summarize: no backend configured")
	}
}
