package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"ArticlesDigest/internal/config"
	"ArticlesDigest/internal/ports"
)

// GeminiClient generates text with the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

var _ ports.Generator = (*GeminiClient)(nil)

// NewGeminiClient creates a client; cfg.URL, when set, overrides the API base URL.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: orDuration(cfg.Timeout, 0)},
	}
	if cfg.URL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.URL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  cfg.Model,
		config: generationConfig(cfg),
	}, nil
}

// Generate calls GenerateContentStream when onChunk is set and GenerateContent otherwise.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	contents := genai.Text(prompt)

	if onChunk == nil {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, g.config)
		if err != nil {
			return "", fmt.Errorf("gemini API call failed: %w", err)
		}
		return resp.Text(), nil
	}

	var full strings.Builder
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, g.config) {
		if err != nil {
			return full.String(), fmt.Errorf("gemini stream failed: %w", err)
		}
		chunk := resp.Text()
		if chunk == "" {
			continue
		}
		onChunk(chunk)
		full.WriteString(chunk)
	}
	if full.Len() == 0 {
		return "", errors.New("gemini returned no text")
	}
	return full.String(), nil
}

func generationConfig(cfg config.LLMConfig) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{}
	if prompt := strings.TrimSpace(cfg.SystemPrompt); prompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(prompt, genai.RoleUser)
	}

	p := cfg.Parameters
	if p.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(p.MaxTokens)
	}
	if p.Temperature != nil {
		gc.Temperature = genai.Ptr(float32(*p.Temperature))
	}
	if p.TopP != nil {
		gc.TopP = genai.Ptr(float32(*p.TopP))
	}
	if p.TopK > 0 {
		gc.TopK = genai.Ptr(float32(p.TopK))
	}
	return gc
}
