package file

import (
	"bytes"
	"context"
	"fmt"

	"github.com/campus-site/core/internal/models"
	"github.com/campus-site/core/internal/pkg/apperr"
	"github.com/campus-site/core/internal/pkg/blobstore"
	"github.com/campus-site/core/internal/pkg/metrics"
	"go.uber.org/zap"
)

// Service bridges multipart uploads and downloads to a blob store.
type Service struct {
	store    blobstore.Store
	logger   *zap.Logger
	maxSize  int64
	maxFiles int
}

// Option tunes a Service.
type Option func(*Service)

// WithLimits overrides the size ceiling and batch length.
func WithLimits(maxSize int64, maxFiles int) Option {
	return func(s *Service) {
		if maxSize > 0 {
			s.maxSize = maxSize
		}
		if maxFiles > 0 {
			s.maxFiles = maxFiles
		}
	}
}

func NewService(store blobstore.Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:    store,
		logger:   logger,
		maxSize:  MaxFileSize,
		maxFiles: MaxBatchFiles,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxSize returns the effective per-file ceiling.
func (s *Service) MaxSize() int64 { return s.maxSize }

// MaxFiles returns the effective batch length.
func (s *Service) MaxFiles() int { return s.maxFiles }

// check validates one file against the ceiling and allow-list.
func (s *Service) check(in FileInput) error {
	size := in.Size
	if n := int64(len(in.Data)); n > size {
		size = n
	}
	if size > s.maxSize {
		metrics.UploadsTotal.WithLabelValues("too_large").Inc()
		return apperr.PayloadTooLarge("file.upload", in.Name, size, s.maxSize)
	}
	if !isAllowedMimeType(in.MimeType) {
		metrics.UploadsTotal.WithLabelValues("unsupported_type").Inc()
		return apperr.UnsupportedType("file.upload", in.Name, in.MimeType)
	}
	return nil
}

// UploadOne validates and stores a single file.
func (s *Service) UploadOne(ctx context.Context, in FileInput, meta UploadMeta) (*UploadResult, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	return s.put(ctx, in, meta)
}

func (s *Service) put(ctx context.Context, in FileInput, meta UploadMeta) (*UploadResult, error) {
	name := originalName(in.Name)
	mimeType := baseMimeType(in.MimeType)
	size := int64(len(in.Data))
	filename := buildFileName(name)

	id, err := s.store.Put(ctx, bytes.NewReader(in.Data), filename, models.BlobMeta{
		OriginalName: name,
		MimeType:     mimeType,
		Size:         size,
		Category:     meta.Category,
		Description:  meta.Description,
		UploadedBy:   meta.UploadedBy,
	})
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.UploadsTotal.WithLabelValues("stored").Inc()
	metrics.UploadBytes.Add(float64(size))

	s.logger.Info("blob stored",
		zap.String("blob_id", id.String()),
		zap.String("original_name", name),
		zap.String("mime_type", mimeType),
		zap.Int64("size", size),
		zap.String("uploaded_by", meta.UploadedBy),
	)
	return &UploadResult{
		FileID:       id,
		Filename:     filename,
		OriginalName: name,
		MimeType:     mimeType,
		Size:         size,
	}, nil
}

// UploadMany stores files in submitted order. Every file is validated
// before the first write; a storage failure mid-batch returns *BatchError
// and leaves the earlier blobs in place.
func (s *Service) UploadMany(ctx context.Context, files []FileInput, meta UploadMeta) ([]UploadResult, error) {
	if len(files) == 0 {
		return nil, apperr.Validation("file.upload_many",
			apperr.FieldError{Field: "files", Rule: "required", Message: "at least one file is required"})
	}
	if len(files) > s.maxFiles {
		return nil, apperr.Validation("file.upload_many",
			apperr.FieldError{Field: "files", Rule: "max", Message: fmt.Sprintf("at most %d files per request", s.maxFiles)})
	}
	for _, f := range files {
		if err := s.check(f); err != nil {
			return nil, err
		}
	}

	results := make([]UploadResult, 0, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, s.batchFailure(results, i, f, apperr.Storage("file.upload_many", f.Name, err))
		}
		res, err := s.put(ctx, f, meta)
		if err != nil {
			return nil, s.batchFailure(results, i, f, err)
		}
		results = append(results, *res)
	}
	return results, nil
}

func (s *Service) batchFailure(stored []UploadResult, idx int, f FileInput, err error) error {
	ids := make([]string, 0, len(stored))
	for _, r := range stored {
		ids = append(ids, r.FileID.String())
	}
	s.logger.Warn("upload batch interrupted, stored blobs kept",
		zap.Int("failed_index", idx),
		zap.String("failed_name", f.Name),
		zap.Strings("stored_ids", ids),
		zap.Error(err),
	)
	return &BatchError{Stored: stored, FailedIndex: idx, FailedName: f.Name, Err: err}
}

// Download opens the blob together with its metadata.
func (s *Service) Download(ctx context.Context, id models.BlobID) (*Download, error) {
	info, err := s.store.Stat(ctx, id)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, apperr.NotFound("file.download", id.String())
	}
	body, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	mimeType := info.Meta.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &Download{
		Body:         body,
		MimeType:     mimeType,
		OriginalName: info.DisplayName(),
		Length:       info.Length,
		CacheControl: CacheControlImmutable,
	}, nil
}

// Info returns blob metadata or NotFound.
func (s *Service) Info(ctx context.Context, id models.BlobID) (*models.BlobInfo, error) {
	info, err := s.store.Stat(ctx, id)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, apperr.NotFound("file.info", id.String())
	}
	return info, nil
}

// List returns every blob matching filter.
func (s *Service) List(ctx context.Context, filter models.BlobFilter) ([]models.BlobInfo, error) {
	return s.store.List(ctx, filter)
}

// Remove deletes a blob after confirming it exists. Content documents that
// still reference it are left untouched.
func (s *Service) Remove(ctx context.Context, id models.BlobID) error {
	info, err := s.store.Stat(ctx, id)
	if err != nil {
		return err
	}
	if info == nil {
		return apperr.NotFound("file.remove", id.String())
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	metrics.BlobDeletes.Inc()
	s.logger.Info("blob deleted", zap.String("blob_id", id.String()))
	return nil
}
