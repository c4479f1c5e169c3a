package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"flanergide/pkg/config"
)

// Generator produces text from a prompt. Implementations must be safe
// for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// NewGenerator selects a backend from config: "ollama" (default, local),
// "anthropic", or "none" (deterministic truncation).
func NewGenerator(cfg *config.Config) Generator {
	switch strings.ToLower(cfg.AI.Provider) {
	case "anthropic":
		return NewAnthropic(cfg.AI.Anthropic.Model, cfg.AI.Anthropic.MaxTokens)
	case "none":
		return Truncating{}
	default:
		return NewOllama(cfg.AI.Ollama.Host, cfg.AI.Ollama.Model)
	}
}

// Ollama generates via a local Ollama instance's /api/generate endpoint.
type Ollama struct {
	host   string
	model  string
	client *http.Client
}

func NewOllama(host, model string) *Ollama {
	return &Ollama{
		host:  strings.TrimRight(host, "/"),
		model: model,
		// local models can take minutes on long prompts
		client: &http.Client{Timeout: 240 * time.Second},
	}
}

func (o *Ollama) Name() string { return "ollama/" + o.model }

func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama decode: %w", err)
	}
	if out.Response == "" {
		return "", fmt.Errorf("ollama returned empty response")
	}
	return out.Response, nil
}

// Anthropic generates via the Messages API. The API key comes from the
// standard ANTHROPIC_API_KEY env var.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropic(model string, maxTokens int64) *Anthropic {
	return &Anthropic{
		client:    anthropic.NewClient(option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY"))),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (a *Anthropic) Name() string { return "anthropic/" + a.model }

func (a *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic returned no text content")
	}
	return b.String(), nil
}

// Truncating is the no-model fallback: the first chunk of the input with
// an ellipsis. Deterministic, so tests use it too.
type Truncating struct{}

func (Truncating) Name() string { return "truncate" }

func (Truncating) Generate(_ context.Context, prompt string) (string, error) {
	const n = 500
	if len(prompt) <= n {
		return prompt, nil
	}
	return prompt[:n] + "...", nil
}
