package pages

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/rstamps01/image-to-text/internal/models"
)

// Service is the page pipeline: uploads, recognition lifecycle, ordering
// and export.
type Service interface {
	CreateProject(ctx context.Context, ownerID, title string) (*models.Project, error)
	GetProject(ctx context.Context, ownerID, projectID string) (*models.Project, error)

	// UploadPage stores one page image, registers a pending page and
	// enqueues it for recognition.
	UploadPage(ctx context.Context, ownerID, projectID, filename string, r io.Reader) (*models.Page, error)
	UploadBatch(ctx context.Context, ownerID, projectID string, files []*multipart.FileHeader) ([]*models.Page, error)

	GetPage(ctx context.Context, ownerID, pageID string) (*models.Page, error)
	ListPages(ctx context.Context, ownerID, projectID string) ([]*models.Page, error)

	// ProcessPage drives one page through the recognition lifecycle:
	// pending|failed -> processing -> completed|failed. Recognition
	// failures are recorded in page state, not returned; the error
	// return covers caller mistakes (unknown page, wrong owner,
	// illegal transition).
	ProcessPage(ctx context.Context, ownerID, pageID string) (*models.Page, error)

	// RetryFailed sequentially re-processes every failed or pending
	// page in the project, reporting a per-page outcome. A cancelled
	// context stops the batch between pages and returns the partial
	// report alongside the context error.
	RetryFailed(ctx context.Context, ownerID, projectID string) (*BatchReport, error)

	// Reorder assigns final document positions to all pages.
	Reorder(ctx context.Context, ownerID, projectID string) ([]*models.Page, error)

	// Recount reconciles the processed-pages counter against a full
	// scan and returns the true count.
	Recount(ctx context.Context, ownerID, projectID string) (int, error)

	// Export returns the completed pages in final document order.
	Export(ctx context.Context, ownerID, projectID string) (*Export, error)
}

// BatchResult is the outcome for one page of a batch retry.
type BatchResult struct {
	PageID  string `json:"pageId"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BatchReport aggregates a batch retry. Succeeded is the exact number of
// pages that reached completed during this batch.
type BatchReport struct {
	Results   []BatchResult `json:"results"`
	Succeeded int           `json:"succeeded"`
}

// ExportPage is one completed page in document order.
type ExportPage struct {
	PageID      string  `json:"pageId"`
	Position    int     `json:"position"`
	Label       *string `json:"label,omitempty"`
	Text        string  `json:"text"`
	NeedsReview bool    `json:"needsReview,omitempty"`
}

// Export is the renderable document: completed pages only, in sort
// position order. Text is the plain-text concatenation.
type Export struct {
	ProjectID string       `json:"projectId"`
	Title     string       `json:"title"`
	Pages     []ExportPage `json:"pages"`
	Text      string       `json:"text"`
}
