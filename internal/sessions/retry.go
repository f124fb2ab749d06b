package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"triage-backend/internal/llm"
	"triage-backend/internal/shared/metrics"
	"triage-backend/internal/shared/telemetry"
)

// RetryPolicy bounds the retry loop around provider calls. MaxRetries is
// the number of additional attempts after the first failure; BaseDelay is
// the unit for the 2^attempt backoff wait.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultRetryPolicy returns the standard policy of 3 retries with a one
// second backoff unit.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: time.Second}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	return p
}

// executor is what the per-item worker calls. The retrying client is the
// production implementation; tests substitute stubs.
type executor interface {
	classify(ctx context.Context, in llm.Input) (llm.Output, error)
}

// retryingClient wraps a provider client with bounded exponential-backoff
// retry. Retryable failures wait 2^attempt * BaseDelay then try again, up
// to MaxRetries extra attempts; fatal failures return immediately.
// Exhaustion is reported with a distinct message but the same error type,
// so callers treat both as an item-level error.
//
// callTimeout bounds each provider attempt individually. Backoff waits run
// on the caller's context, so a tight timeout cannot eat the retry budget.
type retryingClient struct {
	client      llm.Client
	policy      RetryPolicy
	callTimeout time.Duration
}

func newRetryingClient(client llm.Client, policy RetryPolicy, callTimeout time.Duration) *retryingClient {
	return &retryingClient{client: client, policy: policy.withDefaults(), callTimeout: callTimeout}
}

// attempt runs one provider call under its own deadline.
func (r *retryingClient) attempt(ctx context.Context, in llm.Input) (llm.Output, error) {
	if r.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
	}
	return r.client.Classify(ctx, in)
}

func (r *retryingClient) classify(ctx context.Context, in llm.Input) (llm.Output, error) {
	var lastErr error
	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		out, err := r.attempt(ctx, in)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return llm.Output{}, ctx.Err()
		}
		// A timed-out attempt is transient, like a 408 from the provider.
		timedOut := errors.Is(err, context.DeadlineExceeded)
		if !llm.Retryable(err) && !timedOut {
			return llm.Output{}, err
		}
		lastErr = err
		if attempt == r.policy.MaxRetries {
			break
		}

		wait := r.policy.BaseDelay << uint(attempt)
		telemetry.Warn("llm.retry", map[string]any{
			"attempt": attempt + 1,
			"wait_ms": wait.Milliseconds(),
			"error":   err.Error(),
		})
		metrics.IncLLMRetry()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return llm.Output{}, ctx.Err()
		}
	}
	return llm.Output{}, fmt.Errorf("retries exhausted after %d attempts: %w", r.policy.MaxRetries+1, lastErr)
}
