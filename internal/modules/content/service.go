package content

import (
	"context"
	"strings"
	"time"

	"github.com/campus-site/core/internal/models"
	"github.com/campus-site/core/internal/modules/content/attachment"
	"github.com/campus-site/core/internal/pkg/apperr"
	"github.com/campus-site/core/internal/pkg/excerpt"
	"github.com/campus-site/core/internal/pkg/metrics"
	"github.com/campus-site/core/internal/pkg/slug"
	"github.com/campus-site/core/internal/pkg/validate"
	"go.uber.org/zap"
)

// Service implements create/read/list/update/delete of content documents.
type Service struct {
	repo     Repository
	resolver *attachment.Resolver
	logger   *zap.Logger
	now      func() time.Time
}

// Option tunes a Service.
type Option func(*Service)

// WithClock replaces time.Now for timestamps and scheduled publishing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo Repository, resolver *attachment.Resolver, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{repo: repo, resolver: resolver, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time { return s.now().UTC() }

// Create resolves blob references, derives slug and excerpt, validates the
// whole document and persists it.
func (s *Service) Create(ctx context.Context, in CreateInput, author string) (*models.Document, error) {
	ct := models.ContentType(strings.ToLower(strings.TrimSpace(in.ContentType)))
	if !ct.Valid() {
		return nil, apperr.InvalidContentType("content.create", in.ContentType)
	}

	now := s.clock()
	doc := &models.Document{
		ID:          models.NewContentID(),
		ContentType: ct,
		Title:       strings.TrimSpace(in.Title),
		Status:      models.Status(strings.TrimSpace(in.Status)),
		Author:      strings.TrimSpace(in.Author),
		ScheduledAt: in.ScheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if doc.Status == "" {
		doc.Status = models.StatusDraft
	}
	if doc.Author == "" {
		doc.Author = author
	}

	base := in.Slug
	if strings.TrimSpace(base) == "" {
		base = doc.Title
	}
	sl, err := s.uniqueSlug(ctx, base, ct, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Slug = sl

	if err := s.buildVariant(ctx, doc, in); err != nil {
		return nil, err
	}
	if err := validate.Struct("content.create", doc); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("content created",
		zap.String("content_id", doc.ID.String()),
		zap.String("content_type", string(ct)),
		zap.String("slug", doc.Slug),
		zap.String("author", doc.Author),
	)
	return doc, nil
}

func (s *Service) buildVariant(ctx context.Context, doc *models.Document, in CreateInput) error {
	switch doc.ContentType {
	case models.ContentArticle:
		featured, err := s.resolver.FeaturedImage(ctx, in.FeaturedImage)
		if err != nil {
			return err
		}
		summary := strings.TrimSpace(in.Excerpt)
		if summary == "" {
			summary = excerpt.FromMarkdown(in.Body, excerpt.MaxLength)
		}
		doc.Article = &models.Article{
			Body:          in.Body,
			Excerpt:       summary,
			Category:      orDefault(in.Category, models.DefaultArticleCategory),
			Tags:          cleanTags(in.Tags),
			FeaturedImage: featured,
		}
	case models.ContentNotice:
		attachments, err := s.resolver.Attachments(ctx, in.Attachments)
		if err != nil {
			return err
		}
		doc.Notice = &models.Notice{
			Body:        in.Body,
			Priority:    orDefault(in.Priority, models.DefaultNoticePriority),
			Audience:    orDefault(in.Audience, models.DefaultNoticeAudience),
			ExpiresAt:   in.ExpiresAt,
			Attachments: attachments,
		}
	case models.ContentGallery:
		items, err := s.resolver.GalleryItems(ctx, in.GalleryItems)
		if err != nil {
			return err
		}
		cover, err := s.resolver.Cover(ctx, in.CoverImage, items)
		if err != nil {
			return err
		}
		doc.Gallery = &models.Gallery{
			Description: in.Description,
			Category:    orDefault(in.Category, models.DefaultGalleryCategory),
			EventDate:   in.EventDate,
			Items:       items,
			CoverImage:  cover,
		}
	}
	return nil
}

// uniqueSlug normalises raw and appends -1, -2, ... until no other
// document holds it. An empty result falls back to the content type.
func (s *Service) uniqueSlug(ctx context.Context, raw string, ct models.ContentType, self models.ContentID) (string, error) {
	base := slug.Make(raw)
	if base == "" {
		base = string(ct)
	}
	return slug.Unique(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
		owner, ok, err := s.repo.SlugOwner(ctx, candidate)
		if err != nil {
			return false, err
		}
		return ok && owner != self, nil
	})
}

// Get returns a document and counts the read. Malformed ids are NotFound.
func (s *Service) Get(ctx context.Context, rawID string) (*models.Document, error) {
	id, err := models.ParseContentID(rawID)
	if err != nil {
		return nil, apperr.NotFound("content.get", rawID)
	}
	doc, err := s.repo.IncrementViews(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperr.NotFound("content.get", rawID)
	}
	metrics.ContentViews.WithLabelValues(string(doc.ContentType)).Inc()
	return doc, nil
}

// ListByType lists one variant. Without a status only published documents
// are returned.
func (s *Service) ListByType(ctx context.Context, rawType, rawStatus string) ([]models.Document, error) {
	ct := models.ContentType(strings.ToLower(strings.TrimSpace(rawType)))
	if !ct.Valid() {
		return nil, apperr.InvalidContentType("content.list_by_type", rawType)
	}
	status := models.StatusPublished
	if rawStatus != "" {
		st, err := parseStatus("content.list_by_type", rawStatus)
		if err != nil {
			return nil, err
		}
		status = st
	}
	return s.repo.List(ctx, ListFilter{Type: &ct, Status: &status})
}

// List is the admin listing across all variants and, unless a status is
// given, all statuses.
func (s *Service) List(ctx context.Context, rawStatus string) ([]models.Document, error) {
	filter := ListFilter{}
	if rawStatus != "" {
		st, err := parseStatus("content.list", rawStatus)
		if err != nil {
			return nil, err
		}
		filter.Status = &st
	}
	return s.repo.List(ctx, filter)
}

// Update applies a partial update and re-validates the merged document.
// Concurrent updates are last-write-wins.
func (s *Service) Update(ctx context.Context, rawID string, in UpdateInput) (*models.Document, error) {
	id, err := models.ParseContentID(rawID)
	if err != nil {
		return nil, apperr.NotFound("content.update", rawID)
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("content.update", rawID)
	}

	doc := current.Clone()
	if in.Title != nil {
		doc.Title = strings.TrimSpace(*in.Title)
	}
	switch {
	case in.Slug != nil:
		if doc.Slug, err = s.uniqueSlug(ctx, *in.Slug, doc.ContentType, doc.ID); err != nil {
			return nil, err
		}
	case in.Title != nil:
		if doc.Slug, err = s.uniqueSlug(ctx, doc.Title, doc.ContentType, doc.ID); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		doc.Status = models.Status(strings.TrimSpace(*in.Status))
	}
	if in.Author != nil {
		doc.Author = strings.TrimSpace(*in.Author)
	}
	if in.ScheduledAt != nil {
		doc.ScheduledAt = in.ScheduledAt
	}
	if err := s.applyVariantUpdate(ctx, doc, in); err != nil {
		return nil, err
	}
	doc.UpdatedAt = s.clock()

	if err := validate.Struct("content.update", doc); err != nil {
		return nil, err
	}
	if err := s.repo.Replace(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("content updated", zap.String("content_id", doc.ID.String()), zap.String("slug", doc.Slug))
	return doc, nil
}

func (s *Service) applyVariantUpdate(ctx context.Context, doc *models.Document, in UpdateInput) error {
	switch {
	case doc.Article != nil:
		a := doc.Article
		setString(&a.Body, in.Body)
		setString(&a.Excerpt, in.Excerpt)
		setString(&a.Category, in.Category)
		if in.Tags != nil {
			a.Tags = cleanTags(*in.Tags)
		}
		if in.FeaturedImage != nil {
			featured, err := s.resolver.FeaturedImage(ctx, in.FeaturedImage)
			if err != nil {
				return err
			}
			a.FeaturedImage = featured
		}
	case doc.Notice != nil:
		n := doc.Notice
		setString(&n.Body, in.Body)
		setString(&n.Priority, in.Priority)
		setString(&n.Audience, in.Audience)
		if in.ExpiresAt != nil {
			n.ExpiresAt = in.ExpiresAt
		}
		if in.Attachments != nil {
			attachments, err := s.resolver.Attachments(ctx, *in.Attachments)
			if err != nil {
				return err
			}
			n.Attachments = attachments
		}
	case doc.Gallery != nil:
		g := doc.Gallery
		setString(&g.Description, in.Description)
		setString(&g.Category, in.Category)
		if in.EventDate != nil {
			g.EventDate = in.EventDate
		}
		if in.GalleryItems != nil {
			items, err := s.resolver.GalleryItems(ctx, *in.GalleryItems)
			if err != nil {
				return err
			}
			g.Items = items
		}
		switch {
		case in.CoverImage != nil:
			cover, err := s.resolver.Cover(ctx, in.CoverImage, g.Items)
			if err != nil {
				return err
			}
			g.CoverImage = cover
		case in.GalleryItems != nil && !containsItem(g.Items, g.CoverImage):
			g.CoverImage = attachment.CoverImage(g.Items)
		}
	}
	return nil
}

// containsItem reports whether ref is one of the items' blobs.
func containsItem(items []models.GalleryItem, ref *models.BlobID) bool {
	if ref == nil {
		return false
	}
	for _, it := range items {
		if it.BlobRef == *ref {
			return true
		}
	}
	return false
}

// Delete removes the document. Referenced blobs stay in the blob store.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := models.ParseContentID(rawID)
	if err != nil {
		return apperr.NotFound("content.delete", rawID)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("content deleted", zap.String("content_id", id.String()))
	return nil
}

// PublishDue publishes drafts whose scheduledAt has passed.
func (s *Service) PublishDue(ctx context.Context) (int64, error) {
	n, err := s.repo.PublishDue(ctx, s.clock())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("scheduled content published", zap.Int64("count", n))
	}
	return n, nil
}

func parseStatus(op, raw string) (models.Status, error) {
	st := models.Status(strings.ToLower(strings.TrimSpace(raw)))
	switch st {
	case models.StatusDraft, models.StatusPublished:
		return st, nil
	}
	return "", apperr.Validation(op, apperr.FieldError{
		Field: "status", Rule: "oneof", Message: "must be one of: draft, published",
	})
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// orDefault trims v and substitutes def when nothing is left.
func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
