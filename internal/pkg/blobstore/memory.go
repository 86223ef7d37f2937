package blobstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/campus-site/core/internal/models"
	"github.com/campus-site/core/internal/pkg/apperr"
)

type memoryBlob struct {
	info models.BlobInfo
	data []byte
}

// Memory is a map-backed Store for tests and local development.
type Memory struct {
	mu    sync.RWMutex
	blobs map[models.BlobID]*memoryBlob
	now   func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		blobs: make(map[models.BlobID]*memoryBlob),
		now:   time.Now,
	}
}

// WithClock replaces the upload timestamp source.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Put(ctx context.Context, r io.Reader, filename string, meta models.BlobMeta) (models.BlobID, error) {
	if err := checkMeta(meta); err != nil {
		return models.BlobID{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return models.BlobID{}, apperr.Storage("blob.put", filename, err)
	}
	if err := ctx.Err(); err != nil {
		return models.BlobID{}, apperr.Storage("blob.put", filename, err)
	}

	id := models.NewBlobID()
	blob := &memoryBlob{
		info: models.BlobInfo{
			ID:         id,
			Filename:   filename,
			Length:     int64(len(data)),
			UploadDate: m.now().UTC(),
			Meta:       meta,
		},
		data: data,
	}

	m.mu.Lock()
	m.blobs[id] = blob
	m.mu.Unlock()
	return id, nil
}

func (m *Memory) Get(_ context.Context, id models.BlobID) (io.ReadCloser, error) {
	m.mu.RLock()
	blob, ok := m.blobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("blob.get", id.String())
	}
	return io.NopCloser(bytes.NewReader(blob.data)), nil
}

func (m *Memory) Stat(_ context.Context, id models.BlobID) (*models.BlobInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.blobs[id]
	if !ok {
		return nil, nil
	}
	info := blob.info
	return &info, nil
}

func (m *Memory) Delete(_ context.Context, id models.BlobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[id]; !ok {
		return apperr.NotFound("blob.delete", id.String())
	}
	delete(m.blobs, id)
	return nil
}

func (m *Memory) List(_ context.Context, filter models.BlobFilter) ([]models.BlobInfo, error) {
	m.mu.RLock()
	items := make([]models.BlobInfo, 0, len(m.blobs))
	for _, blob := range m.blobs {
		if filter.Matches(blob.info.Meta) {
			items = append(items, blob.info)
		}
	}
	m.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].UploadDate.Equal(items[j].UploadDate) {
			return items[i].ID.String() > items[j].ID.String()
		}
		return items[i].UploadDate.After(items[j].UploadDate)
	})
	return items, nil
}
