// Package blobstore stores immutable binary payloads with metadata,
// addressed by a generated identifier.
//
// Stat reports an absent blob as (nil, nil): attachment resolution treats a
// missing blob as an expected outcome, not a failure. Get and Delete report
// it as apperr.ErrNotFound. Engine failures are wrapped as apperr.ErrStorage
// and are never retried here.
package blobstore

import (
	"context"
	"io"
	"strings"

	"github.com/campus-site/core/internal/models"
	"github.com/campus-site/core/internal/pkg/apperr"
)

// Store is implemented by every storage driver.
type Store interface {
	Put(ctx context.Context, r io.Reader, filename string, meta models.BlobMeta) (models.BlobID, error)
	Get(ctx context.Context, id models.BlobID) (io.ReadCloser, error)
	Stat(ctx context.Context, id models.BlobID) (*models.BlobInfo, error)
	Delete(ctx context.Context, id models.BlobID) error
	List(ctx context.Context, filter models.BlobFilter) ([]models.BlobInfo, error)
}

const (
	DriverGridFS = "gridfs"
	DriverS3     = "s3"
	DriverMemory = "memory"
)

// checkMeta enforces the fields every put must carry.
func checkMeta(meta models.BlobMeta) error {
	var fields []apperr.FieldError
	if strings.TrimSpace(meta.OriginalName) == "" {
		fields = append(fields, apperr.FieldError{Field: "originalName", Rule: "required", Message: "originalName is required"})
	}
	if strings.TrimSpace(meta.MimeType) == "" {
		fields = append(fields, apperr.FieldError{Field: "mimeType", Rule: "required", Message: "mimeType is required"})
	}
	if meta.Size < 0 {
		fields = append(fields, apperr.FieldError{Field: "size", Rule: "gte", Message: "size must not be negative"})
	}
	if len(fields) > 0 {
		return apperr.Validation("blob.put", fields...)
	}
	return nil
}
