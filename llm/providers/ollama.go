package providers

import (
	"net/http"
	"strings"

	"github.com/wayplan/wayplan/llm"
)

// OllamaProvider implements the OpenAI-compatible API served by a local
// Ollama (or vLLM) instance. No credential is required.
type OllamaProvider struct{}

func init() {
	llm.RegisterProvider(&OllamaProvider{})
}

// Name returns the provider identifier.
func (o *OllamaProvider) Name() string {
	return "ollama"
}

// RequiresKey reports that local inference needs no credential.
func (o *OllamaProvider) RequiresKey() bool {
	return false
}

// BuildURL constructs the chat completions endpoint.
func (o *OllamaProvider) BuildURL(baseURL string) string {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}

	return baseURL + "/chat/completions"
}

// SetHeaders is a no-op; local inference servers take no auth headers.
func (o *OllamaProvider) SetHeaders(_ *http.Request, _ string) {}

// BuildRequestBody creates the OpenAI-compatible request body.
func (o *OllamaProvider) BuildRequestBody(model string, messages []llm.Message, temperature *float64, maxTokens int) ([]byte, error) {
	return buildOpenAIBody(model, messages, temperature, maxTokens)
}

// ParseResponse extracts content from the OpenAI-compatible response.
func (o *OllamaProvider) ParseResponse(body []byte, model string) (*llm.Response, error) {
	return parseOpenAIBody(body)
}
