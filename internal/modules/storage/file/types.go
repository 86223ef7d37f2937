package file

import (
	"fmt"
	"io"

	"github.com/campus-site/core/internal/models"
)

const (
	// MaxFileSize is the per-file upload ceiling (inclusive).
	MaxFileSize int64 = 50 * 1024 * 1024
	// MaxBatchFiles bounds one upload-multiple request.
	MaxBatchFiles = 10

	// CacheControlImmutable is sent on downloads; blobs never change.
	CacheControlImmutable = "public, max-age=31536000, immutable"
)

// FileInput is one file taken from a multipart request.
type FileInput struct {
	Name     string
	MimeType string
	Size     int64
	Data     []byte
}

// UploadMeta carries the form fields shared by every file of a request.
type UploadMeta struct {
	Category    string
	Description string
	UploadedBy  string
}

// UploadResult is returned for each stored file.
type UploadResult struct {
	FileID       models.BlobID `json:"fileId"`
	Filename     string        `json:"filename"`
	OriginalName string        `json:"originalName"`
	MimeType     string        `json:"mimetype"`
	Size         int64         `json:"size"`
}

// Download is an open blob stream plus the headers to serve it with.
type Download struct {
	Body         io.ReadCloser
	MimeType     string
	OriginalName string
	Length       int64
	CacheControl string
}

// BatchError reports a failed UploadMany. Blobs stored before the failing
// file are not rolled back; Stored lists them so callers can reconcile.
type BatchError struct {
	Stored      []UploadResult
	FailedIndex int
	FailedName  string
	Err         error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("upload batch stopped at file %d (%s) after storing %d: %v",
		e.FailedIndex, e.FailedName, len(e.Stored), e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
