package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// HTTPClassifierConfig holds configuration for the text-classification client.
// The default endpoint shape matches Hugging Face inference servers running
// an emotion model such as j-hartmann/emotion-english-distilroberta-base.
type HTTPClassifierConfig struct {
	// BaseURL is the full inference endpoint URL.
	BaseURL string

	// APIKey is sent as a Bearer token when non-empty.
	APIKey string

	// Model is a display name recorded alongside results.
	Model string

	// Timeout is the per-request timeout (default: 10s).
	Timeout time.Duration

	// RequestsPerSecond caps the outbound call rate (default: 5).
	RequestsPerSecond float64
}

// HTTPClassifier implements TextClassifier against an HTTP
// text-classification service. Calls are rate limited and guarded by a
// circuit breaker; the emotion adapter above treats every error from this
// boundary as "no result".
type HTTPClassifier struct {
	cfg            HTTPClassifierConfig
	client         *http.Client
	circuitBreaker *CircuitBreaker
	limiter        *rate.Limiter
}

// NewHTTPClassifier creates a classifier client with defaults applied.
func NewHTTPClassifier(cfg HTTPClassifierConfig) *HTTPClassifier {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}

	return &HTTPClassifier{
		cfg:            cfg,
		client:         &http.Client{Timeout: cfg.Timeout},
		circuitBreaker: NewCircuitBreaker("classifier"),
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1),
	}
}

// classifyRequest is the request body: {"inputs": "..."}.
type classifyRequest struct {
	Inputs string `json:"inputs"`
}

// Classify sends text to the classification service and returns the raw
// label→score list. The response is either a flat [{label,score}] list or a
// nested [[{label,score}]] batch of one.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) ([]LabelScore, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("classifier rate limit: %w", err)
	}

	result, err := c.circuitBreaker.Execute(ctx, func() (any, error) {
		return c.classify(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return result.([]LabelScore), nil
}

func (c *HTTPClassifier) classify(ctx context.Context, text string) ([]LabelScore, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(classifyRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, string(respBody))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return parseClassifierResponse(raw)
}

// parseClassifierResponse accepts both the flat and the batch-of-one shapes.
func parseClassifierResponse(raw []byte) ([]LabelScore, error) {
	var nested [][]LabelScore
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("classifier returned empty result")
		}
		return nested[0], nil
	}

	var flat []LabelScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("failed to decode classifier response: %w", err)
	}
	return flat, nil
}

// GetModel returns the configured model display name.
func (c *HTTPClassifier) GetModel() string {
	return c.cfg.Model
}

var _ TextClassifier = (*HTTPClassifier)(nil)
