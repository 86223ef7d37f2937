// Package attachment turns client-submitted blob ids into the embedded
// records stored on content documents.
package attachment

import (
	"context"
	"strings"

	"github.com/campus-site/core/internal/models"
	"github.com/campus-site/core/internal/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Stater is the part of the blob store the resolver needs.
type Stater interface {
	Stat(ctx context.Context, id models.BlobID) (*models.BlobInfo, error)
}

type Resolver struct {
	blobs       Stater
	logger      *zap.Logger
	concurrency int
}

func NewResolver(blobs Stater, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{blobs: blobs, logger: logger, concurrency: defaultConcurrency}
}

// usableRefs drops the empty slots a client form leaves behind: nil,
// blank, "null" and "undefined".
func usableRefs(raw []*string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if r == nil {
			continue
		}
		v := strings.TrimSpace(*r)
		switch v {
		case "", "null", "undefined":
			metrics.RefsDropped.WithLabelValues("blank").Inc()
			continue
		}
		out = append(out, v)
	}
	return out
}

// resolveOrSkip stats every ref and returns the blobs that exist, in input
// order. A malformed or missing ref is logged and dropped instead of failing
// the whole document: clients routinely submit stale ids. Store errors are
// not references going stale and abort the call.
func (r *Resolver) resolveOrSkip(ctx context.Context, op string, refs []string) ([]models.BlobInfo, error) {
	found := make([]*models.BlobInfo, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			id, err := models.ParseBlobID(ref)
			if err != nil {
				metrics.RefsDropped.WithLabelValues("malformed").Inc()
				r.logger.Warn("attachment ref malformed, skipped", zap.String("op", op), zap.String("ref", ref))
				return nil
			}
			info, err := r.blobs.Stat(gctx, id)
			if err != nil {
				return err
			}
			if info == nil {
				metrics.RefsDropped.WithLabelValues("missing").Inc()
				r.logger.Warn("attachment ref not found, skipped", zap.String("op", op), zap.String("ref", ref))
				return nil
			}
			found[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.BlobInfo, 0, len(refs))
	for _, info := range found {
		if info != nil {
			out = append(out, *info)
		}
	}
	return out, nil
}

// Attachments resolves notice attachments.
func (r *Resolver) Attachments(ctx context.Context, raw []*string) ([]models.Attachment, error) {
	infos, err := r.resolveOrSkip(ctx, "attachments", usableRefs(raw))
	if err != nil {
		return nil, err
	}
	out := make([]models.Attachment, 0, len(infos))
	for i := range infos {
		out = append(out, models.Attachment{
			BlobRef:     infos[i].ID,
			DisplayName: infos[i].DisplayName(),
			FileType:    infos[i].Meta.MimeType,
		})
	}
	return out, nil
}

// GalleryItems resolves gallery media. Images double as their own thumbnail.
func (r *Resolver) GalleryItems(ctx context.Context, raw []*string) ([]models.GalleryItem, error) {
	infos, err := r.resolveOrSkip(ctx, "galleryItems", usableRefs(raw))
	if err != nil {
		return nil, err
	}
	out := make([]models.GalleryItem, 0, len(infos))
	for i := range infos {
		item := models.GalleryItem{
			Kind:    KindOf(infos[i].Meta.MimeType),
			BlobRef: infos[i].ID,
			Caption: infos[i].Meta.OriginalName,
		}
		if item.Kind == models.ItemImage {
			thumb := infos[i].ID
			item.Thumbnail = &thumb
		}
		out = append(out, item)
	}
	return out, nil
}

// FeaturedImage resolves a single optional reference. A stale or blank ref
// yields nil.
func (r *Resolver) FeaturedImage(ctx context.Context, raw *string) (*models.BlobID, error) {
	infos, err := r.resolveOrSkip(ctx, "featuredImage", usableRefs([]*string{raw}))
	if err != nil || len(infos) == 0 {
		return nil, err
	}
	id := infos[0].ID
	return &id, nil
}

// Cover resolves an explicit cover and falls back to CoverImage(items).
func (r *Resolver) Cover(ctx context.Context, explicit *string, items []models.GalleryItem) (*models.BlobID, error) {
	id, err := r.FeaturedImage(ctx, explicit)
	if err != nil {
		return nil, err
	}
	if id != nil {
		return id, nil
	}
	return CoverImage(items), nil
}

// CoverImage picks the first image, else the first item of any kind.
func CoverImage(items []models.GalleryItem) *models.BlobID {
	for _, it := range items {
		if it.Kind == models.ItemImage {
			id := it.BlobRef
			return &id
		}
	}
	if len(items) > 0 {
		id := items[0].BlobRef
		return &id
	}
	return nil
}

// KindOf classifies a MIME type by its top-level prefix.
func KindOf(mimeType string) models.ItemKind {
	mt := strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return models.ItemImage
	case strings.HasPrefix(mt, "video/"):
		return models.ItemVideo
	default:
		return models.ItemFile
	}
}
