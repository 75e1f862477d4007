package models

import (
	"time"
)

// PageStatus is the processing state of a single page.
type PageStatus string

const (
	StatusPending    PageStatus = "pending"
	StatusProcessing PageStatus = "processing"
	StatusCompleted  PageStatus = "completed"
	StatusFailed     PageStatus = "failed"
)

// CanTransitionTo reports whether the state machine allows moving from s to
// next. Completed is terminal; retries re-enter processing from pending or
// failed only.
func (s PageStatus) CanTransitionTo(next PageStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	case StatusFailed:
		return next == StatusProcessing
	case StatusCompleted:
		return false
	}
	return false
}

// Valid reports whether s is one of the four known states.
func (s PageStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Page is a single scanned page: a unit of recognition work and a fragment
// of the final document.
type Page struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`

	// ImageKey locates the raw image in object storage. Filename is the
	// original upload name, kept as a secondary ordering hint.
	ImageKey string `json:"imageKey"`
	Filename string `json:"filename"`

	// Seq is the creation order within the project, assigned by the store.
	Seq int `json:"seq"`

	Status PageStatus `json:"status"`

	// Text is set only once the page completes. Error is set only while
	// the page is failed.
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`

	// Label is the page-number token as printed ("iv", "42"); SortKey its
	// resolved ordinal. Both stay nil for pages without a visible number.
	Label   *string `json:"label,omitempty"`
	SortKey *int    `json:"sortKey,omitempty"`

	// SortPosition is the zero-based document position assigned by the
	// ordering engine, independent of SortKey.
	SortPosition int `json:"sortPosition"`

	// LateAdded marks pages uploaded after the project was first ordered.
	// NeedsReview marks a best-guess placement awaiting human confirmation.
	LateAdded   bool `json:"lateAdded,omitempty"`
	NeedsReview bool `json:"needsReview,omitempty"`

	// Confidence is the recognizer's score for this page, 0..1.
	Confidence float64 `json:"confidence,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
