package content

import (
	"context"
	"time"

	"github.com/campus-site/core/internal/models"
)

// ListFilter narrows a listing. Nil fields match everything.
type ListFilter struct {
	Type   *models.ContentType
	Status *models.Status
}

// Repository persists content documents. Lookups return (nil, nil) when the
// document is absent; mutations of an absent document return NotFound.
type Repository interface {
	Insert(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id models.ContentID) (*models.Document, error)
	// IncrementViews bumps views by one and returns the updated document.
	IncrementViews(ctx context.Context, id models.ContentID) (*models.Document, error)
	// SlugOwner reports which document, if any, holds slug.
	SlugOwner(ctx context.Context, slug string) (models.ContentID, bool, error)
	// List returns matching documents, newest createdAt first.
	List(ctx context.Context, filter ListFilter) ([]models.Document, error)
	// Replace overwrites every field but views and reloads doc.Views.
	Replace(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id models.ContentID) error
	// PublishDue publishes drafts scheduled at or before now.
	PublishDue(ctx context.Context, now time.Time) (int64, error)
}
