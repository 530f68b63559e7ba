package llm_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wayplan/wayplan/llm"
)

func TestKindOf(t *testing.T) {
	err := llm.NewProviderError(llm.KindRateLimited, "openai", errors.New("429"))
	assert.Equal(t, llm.KindRateLimited, llm.KindOf(err))

	// Wrapping preserves the classification.
	wrapped := fmt.Errorf("synthesis: %w", err)
	assert.Equal(t, llm.KindRateLimited, llm.KindOf(wrapped))
	assert.True(t, llm.IsProviderError(wrapped))

	// Unclassified errors default to unreachable.
	assert.Equal(t, llm.KindUnreachable, llm.KindOf(errors.New("boom")))
	assert.False(t, llm.IsProviderError(errors.New("boom")))
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := llm.NewProviderError(llm.KindUnreachable, "ollama", cause)
	assert.ErrorIs(t, err, cause)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		kind llm.ErrorKind
		want bool
	}{
		{llm.KindRateLimited, true},
		{llm.KindTimeout, true},
		{llm.KindUnreachable, true},
		{llm.KindAuthFailure, false},
		{llm.KindMalformedResponse, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, llm.Retryable(tt.kind))
		})
	}
}
