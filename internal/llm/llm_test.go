package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ecocritique/internal/config"
	"ecocritique/internal/socratic"
)

// stubGenerator replays a scripted sequence of results.
type stubGenerator struct {
	calls   int
	replies []string
	errs    []error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt socratic.Prompt) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	return "", errors.New("stub exhausted")
}

func fastConfig() config.LLMConfig {
	return config.LLMConfig{TimeoutSeconds: 1, RetryBackoffMS: 1}
}

func TestClientReturnsFirstSuccess(t *testing.T) {
	stub := &stubGenerator{replies: []string{"What evidence supports that?"}}
	client := NewClient(stub, fastConfig())

	got, err := client.Generate(context.Background(), socratic.Prompt{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "What evidence supports that?" {
		t.Errorf("unexpected reply %q", got)
	}
	if stub.calls != 1 {
		t.Errorf("expected 1 call, got %d", stub.calls)
	}
}

func TestClientRetriesTransientOnce(t *testing.T) {
	stub := &stubGenerator{
		errs:    []error{&TransientError{Err: errors.New("rate limited")}, nil},
		replies: []string{"", "How would you test that idea?"},
	}
	client := NewClient(stub, fastConfig())

	got, err := client.Generate(context.Background(), socratic.Prompt{})
	if err != nil {
		t.Fatalf("Generate failed after retry: %v", err)
	}
	if got != "How would you test that idea?" {
		t.Errorf("unexpected reply %q", got)
	}
	if stub.calls != 2 {
		t.Errorf("expected 2 calls, got %d", stub.calls)
	}
}

func TestClientGivesUpAfterSecondTransient(t *testing.T) {
	stub := &stubGenerator{
		errs: []error{
			&TransientError{Err: errors.New("upstream 502")},
			&TransientError{Err: errors.New("upstream 503")},
		},
	}
	client := NewClient(stub, fastConfig())

	_, err := client.Generate(context.Background(), socratic.Prompt{})
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if stub.calls != 2 {
		t.Errorf("expected exactly 2 calls, got %d", stub.calls)
	}
}

func TestClientDoesNotRetryConfigErrors(t *testing.T) {
	stub := &stubGenerator{
		errs: []error{&ConfigError{Err: errors.New("invalid api key")}},
	}
	client := NewClient(stub, fastConfig())

	_, err := client.Generate(context.Background(), socratic.Prompt{})
	if !IsConfig(err) {
		t.Fatalf("expected config error, got %v", err)
	}
	if stub.calls != 1 {
		t.Errorf("config errors must not be retried, got %d calls", stub.calls)
	}
}

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status    int
		transient bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{401, false},
		{403, false},
		{404, false},
		{400, false},
		{0, true}, // no HTTP status: network drop or timeout
	}
	for _, tc := range cases {
		err := classifyStatus(tc.status, fmt.Errorf("status %d", tc.status))
		if IsTransient(err) != tc.transient {
			t.Errorf("status %d: transient=%v, want %v", tc.status, IsTransient(err), tc.transient)
		}
		if tc.status >= 400 && tc.status < 500 && tc.status != 429 && !IsConfig(err) {
			t.Errorf("status %d should classify as config error", tc.status)
		}
	}
}

func TestErrorDetectionUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("generate reply: %w", &TransientError{Err: errors.New("timeout")})
	if !IsTransient(wrapped) {
		t.Error("IsTransient should see through wrapping")
	}
	if IsConfig(wrapped) {
		t.Error("transient error misdetected as config")
	}
}
