package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client abstracts LLM providers for notice classification.
type Client interface {
	Classify(ctx context.Context, input Input) (Output, error)
}

// Input captures a fully rendered prompt plus generation parameters.
type Input struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Output is the raw provider response plus reported token counts.
type Output struct {
	RawText      string
	TokensInput  int
	TokensOutput int
}

// ProviderError is a typed provider failure. Retryable failures (rate limits,
// transient 5xx, timeouts) may be re-attempted; fatal ones (bad auth,
// malformed request) must not.
type ProviderError struct {
	Provider  string
	Status    int
	Message   string
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewRetryableError builds a transient provider failure.
func NewRetryableError(provider string, status int, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Status: status, Message: message, Retryable: true, Err: err}
}

// NewFatalError builds a permanent provider failure.
func NewFatalError(provider string, status int, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Status: status, Message: message, Retryable: false, Err: err}
}

// Retryable reports whether err is a provider error worth retrying.
// Unknown error types are treated as fatal.
func Retryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// RetryableStatus maps an HTTP status to retryability: request timeout, rate
// limit, and server errors are transient; everything else client-side is not.
func RetryableStatus(status int) bool {
	if status == 408 || status == 429 {
		return true
	}
	return status >= 500
}

// PlaceholderClient stands in when no provider credentials are configured.
// Every call fails with a non-retryable error.
type PlaceholderClient struct{}

func (PlaceholderClient) Classify(ctx context.Context, in Input) (Output, error) {
	_ = ctx
	_ = in
	return Output{}, errors.New("llm client not configured")
}
