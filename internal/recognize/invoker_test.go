package recognize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rstamps01/image-to-text/pkg/logger"
)

// scriptedProvider returns one queued outcome per call.
type scriptedProvider struct {
	calls    int
	outcomes []error
	result   *OCRResult
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Recognize(ctx context.Context, image []byte) (*OCRResult, error) {
	idx := p.calls
	p.calls++
	if idx < len(p.outcomes) && p.outcomes[idx] != nil {
		return nil, p.outcomes[idx]
	}
	if p.result != nil {
		return p.result, nil
	}
	return &OCRResult{Text: "ok", Confidence: 0.9}, nil
}

func TestInvoker_TransientFailuresThenSuccess(t *testing.T) {
	provider := &scriptedProvider{
		outcomes: []error{
			Transient("overloaded", nil),
			Transient("overloaded", nil),
			nil,
		},
		result: &OCRResult{Text: "page text", Label: "42", Confidence: 0.95},
	}

	initial := 10 * time.Millisecond
	inv := NewInvoker(provider, &InvokerConfig{Attempts: 3, InitialDelay: initial}, logger.NewTestLogger())

	start := time.Now()
	res, err := inv.Recognize(context.Background(), []byte("img"))
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Recognize returned error: %v", err)
	}
	if provider.calls != 3 {
		t.Errorf("provider called %d times, want 3", provider.calls)
	}
	if res.Text != "page text" || res.Label != "42" {
		t.Errorf("unexpected result: %+v", res)
	}
	// Two backoff waits, the second double the first: 10ms + 20ms.
	if elapsed < 30*time.Millisecond {
		t.Errorf("elapsed %v, want at least 30ms of backoff", elapsed)
	}
}

func TestInvoker_PermanentFailureNotRetried(t *testing.T) {
	provider := &scriptedProvider{
		outcomes: []error{Permanent("malformed image", nil)},
	}

	inv := NewInvoker(provider, &InvokerConfig{Attempts: 3, InitialDelay: time.Millisecond}, logger.NewTestLogger())

	_, err := inv.Recognize(context.Background(), []byte("img"))
	if err == nil {
		t.Fatal("expected error")
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1 (no retry on permanent failure)", provider.calls)
	}
	if IsTransient(err) {
		t.Error("permanent failure must not classify as transient")
	}
}

func TestInvoker_AttemptsExhausted(t *testing.T) {
	provider := &scriptedProvider{
		outcomes: []error{
			Transient("overloaded", nil),
			Transient("overloaded", nil),
			Transient("overloaded", nil),
		},
	}

	log := logger.NewTestLogger()
	inv := NewInvoker(provider, &InvokerConfig{Attempts: 3, InitialDelay: time.Millisecond}, log)

	_, err := inv.Recognize(context.Background(), []byte("img"))
	if err == nil {
		t.Fatal("expected terminal error after exhausted attempts")
	}
	if provider.calls != 3 {
		t.Errorf("provider called %d times, want 3", provider.calls)
	}

	retries := 0
	for _, e := range log.Entries() {
		if e.Level == "WARN" {
			retries++
		}
	}
	if retries != 2 {
		t.Errorf("logged %d retries, want 2", retries)
	}
}

func TestInvoker_ContextCancellation(t *testing.T) {
	provider := &scriptedProvider{
		outcomes: []error{
			Transient("overloaded", nil),
			Transient("overloaded", nil),
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := NewInvoker(provider, &InvokerConfig{Attempts: 3, InitialDelay: 50 * time.Millisecond}, logger.NewTestLogger())

	_, err := inv.Recognize(ctx, []byte("img"))
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if provider.calls > 1 {
		t.Errorf("provider called %d times after cancellation, want at most 1", provider.calls)
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(Transient("x", nil)) {
		t.Error("Transient error not classified as transient")
	}
	if IsTransient(Permanent("x", nil)) {
		t.Error("Permanent error classified as transient")
	}
	if IsTransient(errors.New("plain")) {
		t.Error("plain error classified as transient")
	}
	// Wrapped errors keep their classification.
	wrapped := errors.Join(errors.New("outer"), Transient("inner", nil))
	if !IsTransient(wrapped) {
		t.Error("wrapped transient error lost its classification")
	}
}
