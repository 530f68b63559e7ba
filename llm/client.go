// Package llm provides a provider-agnostic LLM client. Concrete providers
// (anthropic, openai, ollama) register themselves and share one
// request/response contract; retry and fallback policy belong to the caller.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// maxResponseSize limits the LLM response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// defaultTimeout bounds a single completion call when the request does not
// carry its own deadline.
const defaultTimeout = 120 * time.Second

// Endpoint describes where a provider is reachable and which model to use.
type Endpoint struct {
	// Provider is the registered provider name.
	Provider string

	// URL is the base URL; empty uses the provider default.
	URL string

	// Model is the model identifier sent to the provider.
	Model string

	// APIKey is the credential, empty for providers that don't need one.
	APIKey string
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`    // "system", "user", or "assistant"
	Content string `json:"content"` // Message content
}

// Request defines a single LLM completion request.
type Request struct {
	// Provider selects the endpoint to use.
	Provider string

	// Messages is the chat history to send to the LLM.
	Messages []Message

	// Temperature controls randomness. nil uses the provider default.
	Temperature *float64

	// MaxTokens limits response length. 0 uses the provider default.
	MaxTokens int

	// Timeout bounds this call. 0 uses the client default.
	Timeout time.Duration
}

// TokenUsage represents token consumption details for an LLM call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response contains the LLM completion result.
type Response struct {
	// Content is the generated text.
	Content string

	// Model is the actual model that was used.
	Model string

	// Usage contains token consumption metrics when the provider reports them.
	Usage TokenUsage

	// FinishReason indicates why generation stopped.
	FinishReason string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// Client executes single-shot completion requests against configured
// provider endpoints. It performs exactly one outbound call per Complete
// invocation; it never retries.
type Client struct {
	endpoints  map[string]Endpoint
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client over the given endpoints, keyed by provider name.
func NewClient(endpoints map[string]Endpoint, opts ...ClientOption) *Client {
	c := &Client{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Complete sends one completion request to the selected provider.
// Failures are classified into ProviderError kinds; a missing credential
// fails fast with KindAuthFailure before any network activity.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.Provider == "" {
		return nil, NewProviderError(KindMalformedResponse, "", fmt.Errorf("provider is required"))
	}
	if len(req.Messages) == 0 {
		return nil, NewProviderError(KindMalformedResponse, req.Provider, fmt.Errorf("at least one message is required"))
	}

	provider := GetProvider(req.Provider)
	if provider == nil {
		return nil, NewProviderError(KindUnreachable, req.Provider, fmt.Errorf("unknown provider: %s", req.Provider))
	}

	ep, ok := c.endpoints[req.Provider]
	if !ok {
		ep = Endpoint{Provider: req.Provider}
	}

	// Fail fast so the caller can fall back immediately instead of
	// waiting on a doomed network call.
	if provider.RequiresKey() && ep.APIKey == "" {
		return nil, NewProviderError(KindAuthFailure, req.Provider, fmt.Errorf("no API key configured"))
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := provider.BuildURL(ep.URL)

	body, err := provider.BuildRequestBody(ep.Model, req.Messages, req.Temperature, req.MaxTokens)
	if err != nil {
		return nil, NewProviderError(KindMalformedResponse, req.Provider, fmt.Errorf("build request body: %w", err))
	}

	c.logger.Debug("Sending LLM request",
		"provider", req.Provider,
		"model", ep.Model,
		"url", url,
		"messages", len(req.Messages))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NewProviderError(KindMalformedResponse, req.Provider, fmt.Errorf("create HTTP request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	provider.SetHeaders(httpReq, ep.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(req.Provider, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, NewProviderError(KindUnreachable, req.Provider, fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(req.Provider, httpResp.StatusCode, respBody)
	}

	resp, err := provider.ParseResponse(respBody, ep.Model)
	if err != nil {
		return nil, NewProviderError(KindMalformedResponse, req.Provider, err)
	}

	return resp, nil
}

// classifyTransportError maps network-level failures onto error kinds.
func classifyTransportError(providerName string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderError(KindTimeout, providerName, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewProviderError(KindTimeout, providerName, err)
	}
	return NewProviderError(KindUnreachable, providerName, err)
}

// classifyHTTPError maps HTTP status codes onto error kinds.
func classifyHTTPError(providerName string, statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("LLM API error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden:
		return NewProviderError(KindAuthFailure, providerName, err)
	case statusCode == http.StatusTooManyRequests:
		return NewProviderError(KindRateLimited, providerName, err)
	case statusCode == http.StatusRequestTimeout,
		statusCode == http.StatusGatewayTimeout:
		return NewProviderError(KindTimeout, providerName, err)
	case statusCode >= 500:
		return NewProviderError(KindUnreachable, providerName, err)
	default:
		// Remaining 4xx responses mean the exchange itself was unusable.
		return NewProviderError(KindMalformedResponse, providerName, err)
	}
}
