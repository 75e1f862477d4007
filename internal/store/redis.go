package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rstamps01/image-to-text/internal/errs"
	"github.com/rstamps01/image-to-text/internal/models"
)

// RedisStore keeps records as JSON values and counters as plain integer
// keys so increments stay atomic.
//
// Key layout:
//
//	project:<id>            project record JSON
//	project:<id>:pages      list of page IDs in creation order
//	project:<id>:seq        page sequence counter
//	project:<id>:processed  processed-pages counter
//	page:<id>               page record JSON
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func projectKey(id string) string      { return "project:" + id }
func projectPagesKey(id string) string { return "project:" + id + ":pages" }
func projectSeqKey(id string) string   { return "project:" + id + ":seq" }
func processedKey(id string) string    { return "project:" + id + ":processed" }
func pageKey(id string) string         { return "page:" + id }

func (s *RedisStore) CreateProject(ctx context.Context, p *models.Project) error {
	return s.saveProject(ctx, p)
}

func (s *RedisStore) SaveProject(ctx context.Context, p *models.Project) error {
	return s.saveProject(ctx, p)
}

func (s *RedisStore) saveProject(ctx context.Context, p *models.Project) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}
	if err := s.client.Set(ctx, projectKey(p.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

func (s *RedisStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	data, err := s.client.Get(ctx, projectKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("project %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	var p models.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}

	// Counters live outside the record; fold them in on read.
	total, err := s.client.LLen(ctx, projectPagesKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	p.TotalPages = int(total)

	processed, err := s.client.Get(ctx, processedKey(id)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read processed counter: %w", err)
	}
	p.ProcessedPages = processed

	return &p, nil
}

func (s *RedisStore) CreatePage(ctx context.Context, pg *models.Page) error {
	seq, err := s.client.Incr(ctx, projectSeqKey(pg.ProjectID)).Result()
	if err != nil {
		return fmt.Errorf("failed to assign page sequence: %w", err)
	}
	pg.Seq = int(seq)
	pg.SortPosition = pg.Seq - 1

	if err := s.savePage(ctx, pg); err != nil {
		return err
	}

	if err := s.client.RPush(ctx, projectPagesKey(pg.ProjectID), pg.ID).Err(); err != nil {
		return fmt.Errorf("failed to index page: %w", err)
	}
	return nil
}

func (s *RedisStore) SavePage(ctx context.Context, pg *models.Page) error {
	return s.savePage(ctx, pg)
}

func (s *RedisStore) savePage(ctx context.Context, pg *models.Page) error {
	data, err := json.Marshal(pg)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}
	if err := s.client.Set(ctx, pageKey(pg.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}
	return nil
}

func (s *RedisStore) GetPage(ctx context.Context, id string) (*models.Page, error) {
	data, err := s.client.Get(ctx, pageKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("page %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	var pg models.Page
	if err := json.Unmarshal(data, &pg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page: %w", err)
	}
	return &pg, nil
}

func (s *RedisStore) ListPages(ctx context.Context, projectID string) ([]*models.Page, error) {
	ids, err := s.client.LRange(ctx, projectPagesKey(projectID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list page ids: %w", err)
	}

	pages := make([]*models.Page, 0, len(ids))
	for _, id := range ids {
		pg, err := s.GetPage(ctx, id)
		if err != nil {
			return nil, err
		}
		pages = append(pages, pg)
	}
	return pages, nil
}

func (s *RedisStore) AddProcessed(ctx context.Context, projectID string, delta int) error {
	if err := s.client.IncrBy(ctx, processedKey(projectID), int64(delta)).Err(); err != nil {
		return fmt.Errorf("failed to adjust processed counter: %w", err)
	}
	return nil
}

func (s *RedisStore) SetProcessed(ctx context.Context, projectID string, n int) error {
	if err := s.client.Set(ctx, processedKey(projectID), n, 0).Err(); err != nil {
		return fmt.Errorf("failed to set processed counter: %w", err)
	}
	return nil
}
