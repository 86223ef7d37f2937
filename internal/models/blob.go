package models

import "time"

// BlobMeta is the metadata recorded alongside a blob's bytes.
type BlobMeta struct {
	OriginalName string `json:"originalName" bson:"originalName"`
	MimeType     string `json:"mimetype"     bson:"mimeType"`
	Size         int64  `json:"size"         bson:"size"`
	Category     string `json:"category,omitempty"    bson:"category,omitempty"`
	Description  string `json:"description,omitempty" bson:"description,omitempty"`
	UploadedBy   string `json:"uploadedBy,omitempty"  bson:"uploadedBy,omitempty"`
}

// BlobInfo is the stat view of a stored blob.
type BlobInfo struct {
	ID         BlobID    `json:"fileId"`
	Filename   string    `json:"filename"`
	Length     int64     `json:"length"`
	ChunkSize  int32     `json:"chunkSize,omitempty"`
	UploadDate time.Time `json:"uploadDate"`
	Meta       BlobMeta  `json:"metadata"`
}

// DisplayName prefers the uploader's original file name.
func (b *BlobInfo) DisplayName() string {
	if b.Meta.OriginalName != "" {
		return b.Meta.OriginalName
	}
	return b.Filename
}

// BlobFilter selects blobs by metadata. Empty fields match everything.
type BlobFilter struct {
	Category   string
	UploadedBy string
}

// Matches reports whether meta satisfies the filter.
func (f BlobFilter) Matches(meta BlobMeta) bool {
	if f.Category != "" && meta.Category != f.Category {
		return false
	}
	if f.UploadedBy != "" && meta.UploadedBy != f.UploadedBy {
		return false
	}
	return true
}
