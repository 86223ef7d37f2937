package content

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/campus-site/core/internal/models"
	"github.com/campus-site/core/internal/pkg/apperr"
)

// MemoryRepository keeps documents in a map. It enforces slug uniqueness
// like the unique index of the Mongo collection.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[models.ContentID]*models.Document
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[models.ContentID]*models.Document)}
}

func (m *MemoryRepository) Insert(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTakenLocked(doc.Slug, doc.ID) {
		return apperr.DuplicateKey("content.insert", "slug", nil)
	}
	m.docs[doc.ID] = doc.Clone()
	return nil
}

func (m *MemoryRepository) FindByID(_ context.Context, id models.ContentID) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.docs[id].Clone(), nil
}

func (m *MemoryRepository) IncrementViews(_ context.Context, id models.ContentID) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	doc.Views++
	return doc.Clone(), nil
}

func (m *MemoryRepository) SlugOwner(_ context.Context, slug string) (models.ContentID, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, doc := range m.docs {
		if doc.Slug == slug {
			return id, true, nil
		}
	}
	return models.ContentID{}, false, nil
}

func (m *MemoryRepository) List(_ context.Context, filter ListFilter) ([]models.Document, error) {
	m.mu.RLock()
	out := make([]models.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		if filter.Type != nil && doc.ContentType != *filter.Type {
			continue
		}
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		out = append(out, *doc.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Replace writes every field except Views, which only IncrementViews
// changes. doc.Views is refreshed from the stored counter.
func (m *MemoryRepository) Replace(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.docs[doc.ID]
	if !ok {
		return apperr.NotFound("content.replace", doc.ID.String())
	}
	if m.slugTakenLocked(doc.Slug, doc.ID) {
		return apperr.DuplicateKey("content.replace", "slug", nil)
	}
	doc.Views = stored.Views
	m.docs[doc.ID] = doc.Clone()
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id models.ContentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return apperr.NotFound("content.delete", id.String())
	}
	delete(m.docs, id)
	return nil
}

func (m *MemoryRepository) PublishDue(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, doc := range m.docs {
		if doc.Status == models.StatusDraft && doc.ScheduledAt != nil && !doc.ScheduledAt.After(now) {
			doc.Status = models.StatusPublished
			doc.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) slugTakenLocked(slug string, self models.ContentID) bool {
	for id, doc := range m.docs {
		if id != self && doc.Slug == slug {
			return true
		}
	}
	return false
}
