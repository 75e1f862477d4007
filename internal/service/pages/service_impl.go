package pages

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rstamps01/image-to-text/internal/errs"
	"github.com/rstamps01/image-to-text/internal/label"
	"github.com/rstamps01/image-to-text/internal/models"
	"github.com/rstamps01/image-to-text/internal/order"
	"github.com/rstamps01/image-to-text/internal/recognize"
	"github.com/rstamps01/image-to-text/internal/store"
	"github.com/rstamps01/image-to-text/pkg/logger"
	"github.com/rstamps01/image-to-text/pkg/queue"
	"github.com/rstamps01/image-to-text/pkg/storage"
)

// Recognizer is the invocation surface the service needs; satisfied by
// *recognize.Invoker.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (*recognize.OCRResult, error)
}

type PageService struct {
	store      store.Store
	objects    storage.Storage
	recognizer Recognizer
	queue      queue.Queue
	locks      *keyedMutex
	logger     logger.Logger
	config     *ServiceConfig
}

type ServiceConfig struct {
	MaxFileSize   int64
	AllowedTypes  []string
	MaxDimension  int
	QueuePriority int
}

func NewService(
	st store.Store,
	objects storage.Storage,
	recognizer Recognizer,
	q queue.Queue,
	log logger.Logger,
	cfg *ServiceConfig,
) Service {
	if cfg == nil {
		cfg = &ServiceConfig{
			MaxFileSize:   20 * 1024 * 1024, // 20MB
			AllowedTypes:  []string{".jpg", ".jpeg", ".png", ".tiff"},
			MaxDimension:  2400,
			QueuePriority: 2,
		}
	}

	return &PageService{
		store:      st,
		objects:    objects,
		recognizer: recognizer,
		queue:      q,
		locks:      newKeyedMutex(),
		logger:     log,
		config:     cfg,
	}
}

func (s *PageService) CreateProject(ctx context.Context, ownerID, title string) (*models.Project, error) {
	now := time.Now()
	project := &models.Project{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Info("Project created",
		logger.String("projectId", project.ID),
		logger.String("owner", ownerID),
	)
	return project, nil
}

func (s *PageService) GetProject(ctx context.Context, ownerID, projectID string) (*models.Project, error) {
	return s.authorizedProject(ctx, ownerID, projectID)
}

// authorizedProject loads a project and enforces the owner check every
// operation goes through.
func (s *PageService) authorizedProject(ctx context.Context, ownerID, projectID string) (*models.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != ownerID {
		return nil, fmt.Errorf("project %s: %w", projectID, errs.ErrUnauthorized)
	}
	return project, nil
}

func (s *PageService) UploadPage(ctx context.Context, ownerID, projectID, filename string, r io.Reader) (*models.Page, error) {
	project, err := s.authorizedProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	if err := s.validateFilename(filename); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.config.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.config.MaxFileSize {
		return nil, fmt.Errorf("file size exceeds maximum limit of %d bytes", s.config.MaxFileSize)
	}

	// Normalize to bounded JPEG. An undecodable upload is stored as-is;
	// the recognizer will reject it and the page fails with a real error
	// message instead of the upload bouncing.
	stored := data
	if normalized, err := normalizeImage(data, s.config.MaxDimension); err == nil {
		stored = normalized
	} else {
		s.logger.Warn("Image normalization failed, storing original",
			logger.String("filename", filename),
			logger.Error(err),
		)
	}

	pageID := uuid.New().String()
	imageKey := fmt.Sprintf("projects/%s/pages/%s.jpg", projectID, pageID)
	if _, err := s.objects.Store(ctx, bytes.NewReader(stored), imageKey); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	now := time.Now()
	page := &models.Page{
		ID:        pageID,
		ProjectID: projectID,
		ImageKey:  imageKey,
		Filename:  filename,
		Status:    models.StatusPending,
		LateAdded: project.OrderedAt != nil,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreatePage(ctx, page); err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	task := &queue.Task{
		ID:       pageID,
		Type:     queue.TaskTypePageProcess,
		Priority: s.config.QueuePriority,
		Payload: map[string]string{
			"pageId":  pageID,
			"ownerId": ownerID,
		},
		CreatedAt: now,
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to enqueue page: %w", err)
	}

	s.logger.Info("Page registered",
		logger.String("pageId", pageID),
		logger.String("projectId", projectID),
		logger.String("filename", filename),
		logger.Bool("lateAdded", page.LateAdded),
	)
	return page, nil
}

func (s *PageService) UploadBatch(ctx context.Context, ownerID, projectID string, files []*multipart.FileHeader) ([]*models.Page, error) {
	pages := make([]*models.Page, 0, len(files))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, header := range files {
		header := header
		g.Go(func() error {
			file, err := header.Open()
			if err != nil {
				return fmt.Errorf("failed to open file %s: %w", header.Filename, err)
			}
			defer file.Close()

			page, err := s.UploadPage(ctx, ownerID, projectID, header.Filename, file)
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", header.Filename, err)
			}

			mu.Lock()
			pages = append(pages, page)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return pages, err
	}
	return pages, nil
}

func (s *PageService) GetPage(ctx context.Context, ownerID, pageID string) (*models.Page, error) {
	page, err := s.store.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizedProject(ctx, ownerID, page.ProjectID); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *PageService) ListPages(ctx context.Context, ownerID, projectID string) ([]*models.Page, error) {
	if _, err := s.authorizedProject(ctx, ownerID, projectID); err != nil {
		return nil, err
	}
	return s.store.ListPages(ctx, projectID)
}

// ProcessPage holds the page's lock for the whole read-validate-recognize-
// write sequence; distinct pages proceed in parallel.
func (s *PageService) ProcessPage(ctx context.Context, ownerID, pageID string) (*models.Page, error) {
	unlock := s.locks.Lock(pageID)
	defer unlock()

	page, err := s.store.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	project, err := s.authorizedProject(ctx, ownerID, page.ProjectID)
	if err != nil {
		return nil, err
	}

	if !page.Status.CanTransitionTo(models.StatusProcessing) {
		return nil, fmt.Errorf("cannot process page in status %q: %w", page.Status, errs.ErrInvalidTransition)
	}

	page.Status = models.StatusProcessing
	page.Error = ""
	page.UpdatedAt = time.Now()
	if err := s.store.SavePage(ctx, page); err != nil {
		return nil, fmt.Errorf("failed to mark page processing: %w", err)
	}

	result, err := s.recognizePage(ctx, page)
	if err != nil {
		// Escalated recognition failures end at the page record; they
		// are never propagated past the lifecycle boundary.
		page.Status = models.StatusFailed
		page.Error = err.Error()
		page.UpdatedAt = time.Now()
		if saveErr := s.store.SavePage(ctx, page); saveErr != nil {
			return nil, fmt.Errorf("failed to record page failure: %w", saveErr)
		}
		s.logger.Error("Page recognition failed",
			logger.String("pageId", page.ID),
			logger.Error(err),
		)
		return page, nil
	}

	page.Text = result.Text
	page.Confidence = result.Confidence
	page.Label = nil
	page.SortKey = nil

	// The recognizer's raw label wins; the full text is the fallback
	// input for pages where it reports none.
	labelSource := result.Label
	if labelSource == "" {
		labelSource = result.Text
	}
	if lbl, key, ok := label.Extract(labelSource); ok {
		page.Label = &lbl
		page.SortKey = &key
	}

	page.Status = models.StatusCompleted
	page.Error = ""
	page.UpdatedAt = time.Now()

	// Pages arriving after the project was ordered get slotted in as
	// soon as their sort key is known.
	if page.LateAdded && project.OrderedAt != nil {
		if err := s.placeLatePage(ctx, project, page); err != nil {
			s.logger.Warn("Incremental placement failed, appending",
				logger.String("pageId", page.ID),
				logger.Error(err),
			)
		}
	}

	if err := s.store.SavePage(ctx, page); err != nil {
		return nil, fmt.Errorf("failed to save completed page: %w", err)
	}
	if err := s.store.AddProcessed(ctx, project.ID, 1); err != nil {
		return nil, fmt.Errorf("failed to bump processed counter: %w", err)
	}

	s.logger.Info("Page completed",
		logger.String("pageId", page.ID),
		logger.Float64("confidence", page.Confidence),
		logger.Bool("needsReview", page.NeedsReview),
	)
	return page, nil
}

func (s *PageService) recognizePage(ctx context.Context, page *models.Page) (*recognize.OCRResult, error) {
	reader, err := s.objects.Get(ctx, page.ImageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer reader.Close()

	image, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	return s.recognizer.Recognize(ctx, image)
}

// placeLatePage computes a best-effort position among the already-ordered
// pages and shifts everything at or after it down one slot.
func (s *PageService) placeLatePage(ctx context.Context, project *models.Project, page *models.Page) error {
	all, err := s.store.ListPages(ctx, project.ID)
	if err != nil {
		return err
	}

	ordered := make([]*models.Page, 0, len(all))
	for _, p := range all {
		if p.ID != page.ID {
			ordered = append(ordered, p)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].SortPosition != ordered[j].SortPosition {
			return ordered[i].SortPosition < ordered[j].SortPosition
		}
		return ordered[i].Seq < ordered[j].Seq
	})

	pos, confident := order.Place(page, ordered)

	for _, p := range ordered {
		if p.SortPosition >= pos {
			p.SortPosition++
			p.UpdatedAt = time.Now()
			if err := s.store.SavePage(ctx, p); err != nil {
				return fmt.Errorf("failed to shift page %s: %w", p.ID, err)
			}
		}
	}

	page.SortPosition = pos
	page.NeedsReview = !confident
	return nil
}

func (s *PageService) RetryFailed(ctx context.Context, ownerID, projectID string) (*BatchReport, error) {
	if _, err := s.authorizedProject(ctx, ownerID, projectID); err != nil {
		return nil, err
	}

	all, err := s.store.ListPages(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var candidates []*models.Page
	for _, p := range all {
		if p.Status == models.StatusFailed || p.Status == models.StatusPending {
			candidates = append(candidates, p)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Seq < candidates[j].Seq
	})

	report := &BatchReport{Results: make([]BatchResult, 0, len(candidates))}

	// Strictly sequential: one failure never aborts the rest, and
	// cancellation is honored between pages, never mid-call.
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		page, err := s.ProcessPage(ctx, ownerID, candidate.ID)
		switch {
		case err != nil:
			report.Results = append(report.Results, BatchResult{
				PageID:  candidate.ID,
				Success: false,
				Error:   err.Error(),
			})
		case page.Status == models.StatusCompleted:
			report.Succeeded++
			report.Results = append(report.Results, BatchResult{
				PageID:  candidate.ID,
				Success: true,
			})
		default:
			report.Results = append(report.Results, BatchResult{
				PageID:  candidate.ID,
				Success: false,
				Error:   page.Error,
			})
		}
	}

	s.logger.Info("Batch retry finished",
		logger.String("projectId", projectID),
		logger.Int("pages", len(report.Results)),
		logger.Int("succeeded", report.Succeeded),
	)
	return report, nil
}

func (s *PageService) Reorder(ctx context.Context, ownerID, projectID string) ([]*models.Page, error) {
	project, err := s.authorizedProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	pages, err := s.store.ListPages(ctx, projectID)
	if err != nil {
		return nil, err
	}

	ordered := order.Reorder(pages)
	now := time.Now()
	for _, p := range ordered {
		// A full reorder is authoritative; review flags and late-added
		// status from earlier incremental placements are cleared.
		p.NeedsReview = false
		p.LateAdded = false
		p.UpdatedAt = now
		if err := s.store.SavePage(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to save page order: %w", err)
		}
	}

	project.OrderedAt = &now
	project.UpdatedAt = now
	if err := s.store.SaveProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	s.logger.Info("Project reordered",
		logger.String("projectId", projectID),
		logger.Int("pages", len(ordered)),
	)
	return ordered, nil
}

func (s *PageService) Recount(ctx context.Context, ownerID, projectID string) (int, error) {
	if _, err := s.authorizedProject(ctx, ownerID, projectID); err != nil {
		return 0, err
	}

	pages, err := s.store.ListPages(ctx, projectID)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, p := range pages {
		if p.Status == models.StatusCompleted {
			completed++
		}
	}

	if err := s.store.SetProcessed(ctx, projectID, completed); err != nil {
		return 0, fmt.Errorf("failed to reconcile counter: %w", err)
	}
	return completed, nil
}

func (s *PageService) Export(ctx context.Context, ownerID, projectID string) (*Export, error) {
	project, err := s.authorizedProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	pages, err := s.store.ListPages(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var completed []*models.Page
	for _, p := range pages {
		if p.Status == models.StatusCompleted {
			completed = append(completed, p)
		}
	}
	sort.Slice(completed, func(i, j int) bool {
		if completed[i].SortPosition != completed[j].SortPosition {
			return completed[i].SortPosition < completed[j].SortPosition
		}
		return completed[i].Seq < completed[j].Seq
	})

	export := &Export{
		ProjectID: projectID,
		Title:     project.Title,
		Pages:     make([]ExportPage, 0, len(completed)),
	}

	var text strings.Builder
	for i, p := range completed {
		export.Pages = append(export.Pages, ExportPage{
			PageID:      p.ID,
			Position:    p.SortPosition,
			Label:       p.Label,
			Text:        p.Text,
			NeedsReview: p.NeedsReview,
		})
		if i > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(p.Text)
	}
	export.Text = text.String()

	return export, nil
}

func (s *PageService) validateFilename(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, t := range s.config.AllowedTypes {
		if t == ext {
			return nil
		}
	}
	return fmt.Errorf("unsupported file type: %s", ext)
}
