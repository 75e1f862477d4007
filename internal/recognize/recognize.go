// Package recognize wraps the external text recognizers behind a single
// provider interface and a retrying invoker. The rest of the system treats
// recognition as an opaque capability: image bytes in, extracted text plus
// an optional page-label string and a confidence score out.
package recognize

import (
	"context"
	"errors"
	"fmt"
)

// OCRResult is the recognizer's output for one page image.
type OCRResult struct {
	// Text is the full extracted page text.
	Text string `json:"text"`

	// Label is the raw page-number string as printed, if the recognizer
	// reports one. Empty means the caller should run label extraction
	// over Text instead.
	Label string `json:"label,omitempty"`

	// Confidence is normalized to 0..1.
	Confidence float64 `json:"confidence"`
}

// Provider is a single recognition backend.
type Provider interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (*OCRResult, error)
}

// Error is a recognition failure carrying the transient/permanent
// distinction the invoker's retry policy keys on.
type Error struct {
	Transient bool
	Message   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable upstream failure (server overload,
// timeouts, throttling).
func Transient(msg string, err error) *Error {
	return &Error{Transient: true, Message: msg, Err: err}
}

// Permanent wraps err as a failure retrying will not fix (malformed image,
// rejected input).
func Permanent(msg string, err error) *Error {
	return &Error{Transient: false, Message: msg, Err: err}
}

// IsTransient reports whether err signals a transient upstream condition.
// Unknown error types are treated as permanent.
func IsTransient(err error) bool {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Transient
	}
	return false
}
