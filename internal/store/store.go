// Package store persists page and project records. It is a thin
// key-value-style accessor: single-record atomicity only, no transactions.
// Aggregate counters live next to the records and are maintained
// incrementally; callers reconcile them with SetProcessed after crashes.
package store

import (
	"context"

	"github.com/rstamps01/image-to-text/internal/models"
)

type Store interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	SaveProject(ctx context.Context, p *models.Project) error

	// CreatePage assigns the page's creation sequence number, seeds its
	// sort position from upload order so positions are unique before the
	// first reorder, and bumps the project's total-pages counter.
	CreatePage(ctx context.Context, pg *models.Page) error
	GetPage(ctx context.Context, id string) (*models.Page, error)
	SavePage(ctx context.Context, pg *models.Page) error
	ListPages(ctx context.Context, projectID string) ([]*models.Page, error)

	// AddProcessed atomically adjusts the processed-pages counter.
	AddProcessed(ctx context.Context, projectID string, delta int) error
	// SetProcessed overwrites the counter; used by recount reconciliation.
	SetProcessed(ctx context.Context, projectID string, n int) error
}
