package models

import (
	"time"
)

// Project is an ordered collection of pages plus aggregate counters.
// TotalPages and ProcessedPages are derivable from page records; the store
// maintains them incrementally and Recount reconciles them after crashes.
type Project struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Title   string `json:"title"`

	TotalPages     int `json:"totalPages"`
	ProcessedPages int `json:"processedPages"`

	// OrderedAt is set when the project is first fully reordered; pages
	// uploaded after that point go through incremental placement.
	OrderedAt *time.Time `json:"orderedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
