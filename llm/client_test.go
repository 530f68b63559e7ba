package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayplan/wayplan/llm"
	_ "github.com/wayplan/wayplan/llm/providers" // Register providers
)

// openAISuccess is a minimal OpenAI-format completion response.
func openAISuccess(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": 1677652288,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]string{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{
			"prompt_tokens":     10,
			"completion_tokens": 8,
			"total_tokens":      18,
		},
	}
}

func newTestClient(serverURL string) *llm.Client {
	return llm.NewClient(map[string]llm.Endpoint{
		"ollama": {
			Provider: "ollama",
			URL:      serverURL,
			Model:    "test-model",
		},
	})
}

func TestClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openAISuccess("Day 1: Arrive and settle in"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	resp, err := client.Complete(context.Background(), llm.Request{
		Provider: "ollama",
		Messages: []llm.Message{
			{Role: "user", Content: "Hello"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Day 1: Arrive and settle in", resp.Content)
	assert.Equal(t, "test-model", resp.Model)
	assert.Equal(t, 18, resp.Usage.TotalTokens)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestClient_Complete_MissingKeyFailsFast(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// anthropic requires a key; none configured.
	client := llm.NewClient(map[string]llm.Endpoint{
		"anthropic": {
			Provider: "anthropic",
			URL:      server.URL,
			Model:    "test-model",
		},
	})

	_, err := client.Complete(context.Background(), llm.Request{
		Provider: "anthropic",
		Messages: []llm.Message{{Role: "user", Content: "Hello"}},
	})

	require.Error(t, err)
	assert.Equal(t, llm.KindAuthFailure, llm.KindOf(err))
	assert.Equal(t, int64(0), calls.Load(), "no network call should be made without a credential")
}

func TestClient_Complete_StatusClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind llm.ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, llm.KindAuthFailure},
		{"forbidden", http.StatusForbidden, llm.KindAuthFailure},
		{"rate limited", http.StatusTooManyRequests, llm.KindRateLimited},
		{"request timeout", http.StatusRequestTimeout, llm.KindTimeout},
		{"gateway timeout", http.StatusGatewayTimeout, llm.KindTimeout},
		{"server error", http.StatusInternalServerError, llm.KindUnreachable},
		{"bad gateway", http.StatusBadGateway, llm.KindUnreachable},
		{"bad request", http.StatusBadRequest, llm.KindMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			client := newTestClient(server.URL)

			_, err := client.Complete(context.Background(), llm.Request{
				Provider: "ollama",
				Messages: []llm.Message{{Role: "user", Content: "Hello"}},
			})

			require.Error(t, err)
			assert.Equal(t, tt.wantKind, llm.KindOf(err))
			assert.True(t, llm.IsProviderError(err))
		})
	}
}

func TestClient_Complete_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Complete(context.Background(), llm.Request{
		Provider: "ollama",
		Messages: []llm.Message{{Role: "user", Content: "Hello"}},
	})

	require.Error(t, err)
	assert.Equal(t, llm.KindMalformedResponse, llm.KindOf(err))
}

func TestClient_Complete_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Complete(context.Background(), llm.Request{
		Provider: "ollama",
		Messages: []llm.Message{{Role: "user", Content: "Hello"}},
		Timeout:  50 * time.Millisecond,
	})

	require.Error(t, err)
	assert.Equal(t, llm.KindTimeout, llm.KindOf(err))
}

func TestClient_Complete_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	serverURL := server.URL
	server.Close() // Nothing listening anymore.

	client := newTestClient(serverURL)

	_, err := client.Complete(context.Background(), llm.Request{
		Provider: "ollama",
		Messages: []llm.Message{{Role: "user", Content: "Hello"}},
	})

	require.Error(t, err)
	assert.Equal(t, llm.KindUnreachable, llm.KindOf(err))
}

func TestClient_Complete_Validation(t *testing.T) {
	client := llm.NewClient(nil)

	_, err := client.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: "user", Content: "Hello"}},
	})
	require.Error(t, err)
	assert.Equal(t, llm.KindMalformedResponse, llm.KindOf(err))

	_, err = client.Complete(context.Background(), llm.Request{Provider: "ollama"})
	require.Error(t, err)
	assert.Equal(t, llm.KindMalformedResponse, llm.KindOf(err))
}

func TestClient_Complete_UnknownProvider(t *testing.T) {
	client := llm.NewClient(nil)

	_, err := client.Complete(context.Background(), llm.Request{
		Provider: "no-such-provider",
		Messages: []llm.Message{{Role: "user", Content: "Hello"}},
	})

	require.Error(t, err)
	assert.Equal(t, llm.KindUnreachable, llm.KindOf(err))
}
