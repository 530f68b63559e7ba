package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures so the pipeline can decide
// between retry and fallback.
type ErrorKind string

const (
	// KindAuthFailure means the credential was missing or rejected.
	KindAuthFailure ErrorKind = "auth_failure"

	// KindRateLimited means the provider throttled the request.
	KindRateLimited ErrorKind = "rate_limited"

	// KindTimeout means the request exceeded its deadline.
	KindTimeout ErrorKind = "timeout"

	// KindUnreachable means the provider could not be reached or returned
	// a server-side error.
	KindUnreachable ErrorKind = "unreachable"

	// KindMalformedResponse means the provider answered but the response
	// (or our request) was unusable.
	KindMalformedResponse ErrorKind = "malformed_response"
)

// ProviderError wraps a provider failure with its classification.
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.err)
}

func (e *ProviderError) Unwrap() error {
	return e.err
}

// NewProviderError wraps an error with a classification kind.
func NewProviderError(kind ErrorKind, provider string, err error) error {
	return &ProviderError{Kind: kind, Provider: provider, err: err}
}

// KindOf extracts the error kind, returning KindUnreachable for
// unclassified errors.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnreachable
}

// IsProviderError reports whether err carries a provider classification.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// Retryable reports whether a retry against the same provider could
// plausibly succeed. Auth failures and malformed responses cannot be
// fixed by retrying.
func Retryable(kind ErrorKind) bool {
	switch kind {
	case KindRateLimited, KindTimeout, KindUnreachable:
		return true
	}
	return false
}
