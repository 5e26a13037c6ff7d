package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig holds Gemini API configuration.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// Gemini implements Generator against the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini constructs a Gemini generator; an empty key yields ErrDisabled.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrDisabled
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Enabled() bool {
	return g != nil && g.client != nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Gemini) Generate(ctx context.Context, system, prompt string) (string, error) {
	if !g.Enabled() {
		return "", ErrDisabled
	}
	config := &genai.GenerateContentConfig{}
	if strings.TrimSpace(system) != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", geminiError(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func geminiError(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("gemini status %d: %w", code, ErrUnauthorized)
	case http.StatusTooManyRequests:
		return fmt.Errorf("gemini status %d: %w", code, ErrRateLimited)
	}
	return fmt.Errorf("gemini request: %w", err)
}
