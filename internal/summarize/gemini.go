// Package summarize produces short Turkish summaries of disclosure texts.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/alperaydin/kapmirror/internal/mirror"
)

const summarizationPrompt = `You are a 10 year experienced banking key account manager working with public companies. You read their public disclosure messages everyday and extract useful information to identify the company's strengths and weaknesses. You are explicitly focused on their activities and investments such as technology or green energy, their growth strategies and investment policies. You are also alert on the names in the documents so that you can track the changes in board members or company representatives. According to this information summarize the following message in Turkish, step by step, as short as possible without omitting any important information.`

const defaultModel = "gemini-1.5-flash"

// Config controls the Gemini-backed Summarizer.
type Config struct {
	APIKey string
	Model  string
}

// Gemini implements mirror.Summarizer on the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// New creates a Gemini summarizer.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("enrich.api_key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Gemini{client: client, model: model, logger: logger}, nil
}

// Close releases the underlying API client.
func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Summarize returns a short Turkish summary of text and the total token cost
// of the call. The caller controls the deadline through ctx.
func (g *Gemini) Summarize(ctx context.Context, text string) (mirror.Summary, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.05)
	model.SetTopP(0.1)

	resp, err := model.GenerateContent(ctx,
		genai.Text(summarizationPrompt),
		genai.Text(text),
	)
	if err != nil {
		return mirror.Summary{}, fmt.Errorf("generate summary: %w", err)
	}

	out, err := responseText(resp)
	if err != nil {
		return mirror.Summary{}, err
	}

	var tokens int
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	g.logger.Debug("summarized text",
		zap.Int("input_chars", len(text)),
		zap.Int("tokens", tokens),
	)
	return mirror.Summary{Text: out, Tokens: tokens}, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response: no candidates")
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", fmt.Errorf("empty response: no content parts")
	}
	var parts []string
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("empty response: no text parts")
	}
	return strings.TrimSpace(strings.Join(parts, "")), nil
}
