// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RetryingClient wraps an LLMClient with a per-call timeout and bounded
// exponential backoff.
//
// # Description
//
// Every Ask runs under its own timeout derived from the parent context.
// A timeout counts as a failure for retry purposes. Retries double the
// backoff each attempt and stop at the configured budget; cancellation of
// the parent context aborts immediately, including mid-backoff.
//
// # Thread Safety
//
// Stateless apart from the wrapped client; safe for concurrent use.
type RetryingClient struct {
	inner       LLMClient
	callTimeout time.Duration
	maxRetries  int
	backoff     time.Duration
}

// NewRetryingClient decorates inner with timeout and retry behavior.
// Zero values fall back to 30s timeout, 2 retries, 500ms initial backoff.
func NewRetryingClient(inner LLMClient, callTimeout time.Duration, maxRetries int, backoff time.Duration) *RetryingClient {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 2
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &RetryingClient{
		inner:       inner,
		callTimeout: callTimeout,
		maxRetries:  maxRetries,
		backoff:     backoff,
	}
}

// Ask implements LLMClient.
func (r *RetryingClient) Ask(ctx context.Context, systemPrompt, message string) (string, error) {
	var lastErr error
	delay := r.backoff

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			slog.Info("Retrying LLM call",
				"attempt", attempt,
				"delay", delay,
				"lastError", lastErr,
			)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
		answer, err := r.inner.Ask(callCtx, systemPrompt, message)
		cancel()
		if err == nil {
			return answer, nil
		}
		lastErr = err

		// The parent being cancelled is not retryable; a per-call
		// deadline is.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, context.Canceled) {
			return "", err
		}
	}

	return "", fmt.Errorf("LLM call failed after %d attempts: %w", r.maxRetries+1, lastErr)
}
