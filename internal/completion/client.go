// Package completion wraps the external single-turn text-completion service
// used for intent classification.
//
// The pipeline depends on nothing about the upstream beyond: prompt in, free
// text out, bounded by a timeout. Parsing of whatever the model replied is
// the classifier's problem, not this package's.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"helpdesk-platform/internal/config"
)

const (
	// DefaultTimeout bounds the only suspending external call in the pipeline.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxTokens keeps classification replies small.
	DefaultMaxTokens = 512

	// DefaultTemperature biases toward deterministic, reproducible output.
	DefaultTemperature = 0.1
)

var ErrUpstream = errors.New("completion: upstream failure")

// Request is a single-turn completion call.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response carries the raw model text. Callers parse it themselves.
type Response struct {
	Text    string
	Model   string
	Latency time.Duration
}

// Client is the completion-service contract. Implementations must honor ctx
// cancellation and return an error wrapping ErrUpstream on any transport,
// timeout, or non-2xx failure.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// HTTPClient is the subset of http.Client the HTTP implementation needs
// (enables testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPCompletionClient calls a JSON-over-HTTP completion endpoint:
//
//	POST {base}/v1/completions
//	{"model": ..., "prompt": ..., "max_tokens": ..., "temperature": ...}
//	-> {"text": ..., "model": ...}
type HTTPCompletionClient struct {
	baseURL     string
	apiKey      string
	model       string
	timeout     time.Duration
	temperature float64
	maxTokens   int
	client      HTTPClient
}

func NewHTTPClient(cfg config.CompletionConfig, hc HTTPClient) (*HTTPCompletionClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("completion: base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPCompletionClient{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      hc,
	}, nil
}

type wireRequest struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type wireResponse struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

func (c *HTTPCompletionClient) Complete(ctx context.Context, req Request) (Response, error) {
	if req.Prompt == "" {
		return Response{}, errors.New("completion: prompt is required")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = c.temperature
	}

	body, err := json.Marshal(wireRequest{
		Model:       c.model,
		Prompt:      req.Prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return Response{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body for the error; upstream messages can be long.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Response{}, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, snippet)
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return Response{}, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}

	return Response{
		Text:    wire.Text,
		Model:   wire.Model,
		Latency: time.Since(start),
	}, nil
}
