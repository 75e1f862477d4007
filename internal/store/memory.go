package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/rstamps01/image-to-text/internal/errs"
	"github.com/rstamps01/image-to-text/internal/models"
)

// MemoryStore is an in-process Store used in tests and local development.
// Records are copied on the way in and out so callers never share pointers
// with the store.
type MemoryStore struct {
	mu        sync.RWMutex
	projects  map[string]*models.Project
	pages     map[string]*models.Page
	pageOrder map[string][]string
	seq       map[string]int
	processed map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects:  make(map[string]*models.Project),
		pages:     make(map[string]*models.Page),
		pageOrder: make(map[string][]string),
		seq:       make(map[string]int),
		processed: make(map[string]int),
	}
}

func copyProject(p *models.Project) *models.Project {
	cp := *p
	return &cp
}

func copyPage(pg *models.Page) *models.Page {
	cp := *pg
	if pg.Label != nil {
		v := *pg.Label
		cp.Label = &v
	}
	if pg.SortKey != nil {
		v := *pg.SortKey
		cp.SortKey = &v
	}
	return &cp
}

func (s *MemoryStore) CreateProject(ctx context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = copyProject(p)
	return nil
}

func (s *MemoryStore) SaveProject(ctx context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = copyProject(p)
	return nil
}

func (s *MemoryStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, errs.ErrNotFound)
	}
	out := copyProject(p)
	out.TotalPages = len(s.pageOrder[id])
	out.ProcessedPages = s.processed[id]
	return out, nil
}

func (s *MemoryStore) CreatePage(ctx context.Context, pg *models.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[pg.ProjectID]++
	pg.Seq = s.seq[pg.ProjectID]
	pg.SortPosition = pg.Seq - 1
	s.pages[pg.ID] = copyPage(pg)
	s.pageOrder[pg.ProjectID] = append(s.pageOrder[pg.ProjectID], pg.ID)
	return nil
}

func (s *MemoryStore) SavePage(ctx context.Context, pg *models.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[pg.ID] = copyPage(pg)
	return nil
}

func (s *MemoryStore) GetPage(ctx context.Context, id string) (*models.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pg, ok := s.pages[id]
	if !ok {
		return nil, fmt.Errorf("page %s: %w", id, errs.ErrNotFound)
	}
	return copyPage(pg), nil
}

func (s *MemoryStore) ListPages(ctx context.Context, projectID string) ([]*models.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.pageOrder[projectID]
	pages := make([]*models.Page, 0, len(ids))
	for _, id := range ids {
		if pg, ok := s.pages[id]; ok {
			pages = append(pages, copyPage(pg))
		}
	}
	return pages, nil
}

func (s *MemoryStore) AddProcessed(ctx context.Context, projectID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[projectID] += delta
	return nil
}

func (s *MemoryStore) SetProcessed(ctx context.Context, projectID string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[projectID] = n
	return nil
}
