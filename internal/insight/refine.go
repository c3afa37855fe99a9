package insight

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/jonathan/research-analyzer/internal/config"
	"github.com/jonathan/research-analyzer/internal/llm"
	"github.com/jonathan/research-analyzer/internal/prompts"
)

// Refiner post-processes the synthesis narrative.
type Refiner interface {
	Refine(ctx context.Context, analysis string) (string, error)
}

// NoopRefiner returns the analysis unchanged.
type NoopRefiner struct{}

// Refine implements Refiner.
func (NoopRefiner) Refine(_ context.Context, analysis string) (string, error) {
	return analysis, nil
}

// LLMRefiner runs a second oracle pass over the narrative.
type LLMRefiner struct {
	client llm.Client
}

// NewLLMRefiner creates a refiner backed by client.
func NewLLMRefiner(client llm.Client) *LLMRefiner {
	return &LLMRefiner{client: client}
}

// Refine implements Refiner.
func (r *LLMRefiner) Refine(ctx context.Context, analysis string) (string, error) {
	prompt, err := prompts.Render(prompts.KeyRefine, map[string]string{"Analysis": analysis})
	if err != nil {
		return "", err
	}
	refined, err := r.client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		return "", fmt.Errorf("refine call failed: %w", err)
	}
	return refined, nil
}

// WebhookRefiner posts the narrative to a JSON endpoint and reads the refined
// text back. Request and response locations are gjson/sjson paths so flow
// runners with nested payloads can be used without code changes.
type WebhookRefiner struct {
	url          string
	token        string
	requestPath  string
	responsePath string
	client       *http.Client
}

// NewWebhookRefiner creates a refiner from configuration.
func NewWebhookRefiner(cfg config.RefineConfig) *WebhookRefiner {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	requestPath := cfg.RequestPath
	if requestPath == "" {
		requestPath = "input"
	}
	responsePath := cfg.ResponsePath
	if responsePath == "" {
		responsePath = "output"
	}
	return &WebhookRefiner{
		url:          cfg.URL,
		token:        cfg.Token,
		requestPath:  requestPath,
		responsePath: responsePath,
		client:       &http.Client{Timeout: timeout},
	}
}

// Refine implements Refiner.
func (r *WebhookRefiner) Refine(ctx context.Context, analysis string) (string, error) {
	body, err := sjson.Set("{}", r.requestPath, analysis)
	if err != nil {
		return "", fmt.Errorf("failed to build refine request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewBufferString(body))
	if err != nil {
		return "", fmt.Errorf("failed to create refine request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("refine request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read refine response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("refine endpoint returned status %d", resp.StatusCode)
	}

	refined := gjson.GetBytes(data, r.responsePath)
	if !refined.Exists() || strings.TrimSpace(refined.String()) == "" {
		return "", fmt.Errorf("refine response has no value at %q", r.responsePath)
	}
	return refined.String(), nil
}

// NewRefiner selects a refiner for the configured mode.
func NewRefiner(cfg *config.Config, client llm.Client) Refiner {
	switch cfg.EffectiveRefineMode() {
	case config.RefineLLM:
		return NewLLMRefiner(client)
	case config.RefineWebhook:
		return NewWebhookRefiner(cfg.Refine)
	default:
		return NoopRefiner{}
	}
}
