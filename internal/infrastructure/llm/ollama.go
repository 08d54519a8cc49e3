package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ArticlesDigest/internal/config"
	"ArticlesDigest/internal/ports"
)

const (
	defaultNumPredict  = 512
	defaultTemperature = 0.7
	defaultTopP        = 0.95
	defaultTopK        = 40
)

// OllamaClient talks to a local Ollama server through /api/generate.
type OllamaClient struct {
	endpoint string
	model    string
	system   string
	options  ollamaOptions
	http     *http.Client
}

var _ ports.Generator = (*OllamaClient)(nil)

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// NewOllamaClient creates a reusable HTTP client.
func NewOllamaClient(cfg config.LLMConfig) *OllamaClient {
	p := cfg.Parameters
	opts := ollamaOptions{
		NumPredict:  orInt(p.MaxTokens, defaultNumPredict),
		Temperature: orFloat(p.Temperature, defaultTemperature),
		TopP:        orFloat(p.TopP, defaultTopP),
		TopK:        orInt(p.TopK, defaultTopK),
	}
	return &OllamaClient{
		endpoint: cfg.URL,
		model:    cfg.Model,
		system:   cfg.SystemPrompt,
		options:  opts,
		http:     &http.Client{Timeout: orDuration(cfg.Timeout, 2*time.Minute)},
	}
}

// Generate sends the prompt. With onChunk set the response is streamed as
// newline-delimited JSON and every fragment is forwarded.
func (c *OllamaClient) Generate(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:   c.model,
		Prompt:  prompt,
		System:  c.system,
		Stream:  onChunk != nil,
		Options: c.options,
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("llm server error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	if onChunk == nil {
		var out ollamaResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if out.Error != "" {
			return "", errors.New(out.Error)
		}
		return out.Response, nil
	}

	return readOllamaStream(resp.Body, onChunk)
}

func readOllamaStream(r io.Reader, onChunk func(string)) (string, error) {
	var full strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var msg ollamaResponse
		if err := json.Unmarshal(line, &msg); err != nil {
			// pass unparseable lines through as text
			onChunk(string(line))
			full.Write(line)
			continue
		}
		if msg.Error != "" {
			return full.String(), errors.New(msg.Error)
		}
		if msg.Response != "" {
			onChunk(msg.Response)
			full.WriteString(msg.Response)
		}
		if msg.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("read stream: %w", err)
	}
	return full.String(), nil
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orFloat(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

func orDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
