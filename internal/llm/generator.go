package llm

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"ecocritique/internal/config"
	"ecocritique/internal/socratic"
)

// Generator produces one tutor reply for an assembled prompt.
// Implementations classify their failures as TransientError or ConfigError
// so callers can decide between retrying and giving up.
type Generator interface {
	Generate(ctx context.Context, prompt socratic.Prompt) (string, error)
}

// TransientError marks a provider failure worth retrying: rate limits, 5xx
// responses, timeouts, dropped connections.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// ConfigError marks a failure no retry can fix, such as a rejected API key
// or an unknown model.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// classifyStatus buckets an HTTP failure. Rate limits and server errors are
// retryable; every other 4xx means the request itself will never succeed.
// Anything without a status (network drop, timeout) counts as transient.
func classifyStatus(statusCode int, err error) error {
	switch {
	case statusCode == http.StatusTooManyRequests || statusCode >= 500:
		return &TransientError{Err: err}
	case statusCode >= 400 && statusCode < 500:
		return &ConfigError{Err: err}
	default:
		return &TransientError{Err: err}
	}
}

// Client wraps a Generator with the service's timeout and retry policy:
// one attempt, and on a transient failure one more after a short backoff.
type Client struct {
	gen     Generator
	timeout time.Duration
	backoff time.Duration
}

func NewClient(gen Generator, cfg config.LLMConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	backoff := time.Duration(cfg.RetryBackoffMS) * time.Millisecond
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Client{gen: gen, timeout: timeout, backoff: backoff}
}

// Generate runs one completion with a per-attempt timeout.
func (c *Client) Generate(ctx context.Context, prompt socratic.Prompt) (string, error) {
	text, err := c.attempt(ctx, prompt)
	if err == nil {
		return text, nil
	}
	if !IsTransient(err) {
		return "", err
	}

	log.Printf("[LLM] Transient failure, retrying after %s: %v", c.backoff, err)
	select {
	case <-time.After(c.backoff):
	case <-ctx.Done():
		return "", &TransientError{Err: ctx.Err()}
	}

	return c.attempt(ctx, prompt)
}

func (c *Client) attempt(ctx context.Context, prompt socratic.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.gen.Generate(ctx, prompt)
}
