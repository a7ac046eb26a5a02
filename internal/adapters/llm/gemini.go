// Package llm adapts hosted language models to the analysis.Completer interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/pulse/internal/domain/analysis"
	"google.golang.org/genai"
)

// Gemini defaults.
const (
	DefaultModel           = "gemini-2.0-flash"
	DefaultTemperature     = 0.7
	DefaultMaxOutputTokens = 512
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("gemini api key is required")

// GeminiConfig configures the Gemini completer.
type GeminiConfig struct {
	APIKey string
	Model  string
	// Temperature nil means DefaultTemperature; zero is a valid setting.
	Temperature     *float32
	MaxOutputTokens int32
}

// Gemini implements analysis.Completer on the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

var _ analysis.Completer = (*Gemini)(nil)

// NewGemini creates a Gemini completer. Unset fields fall back to the defaults.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	temperature := float32(DefaultTemperature)
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  cfg.Model,
		config: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(temperature),
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
	}, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.model }

// Complete sends prompt as a single user turn and returns the response text.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, g.config)
	if err != nil {
		return "", classify(err)
	}
	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned no text: %w", analysis.ErrTransient)
	}
	return text, nil
}

// classify marks rate limiting and server-side failures as transient.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("gemini %d %s: %w", apiErr.Code, apiErr.Status, errors.Join(analysis.ErrTransient, err))
		}
	}
	return fmt.Errorf("gemini generate failed: %w", err)
}
