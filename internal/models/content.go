package models

import (
	"encoding/json"
	"time"
)

// ContentType is the discriminator of a content document.
type ContentType string

const (
	ContentArticle ContentType = "article"
	ContentNotice  ContentType = "notice"
	ContentGallery ContentType = "gallery"
)

// Valid reports whether t is one of the three known variants.
func (t ContentType) Valid() bool {
	switch t {
	case ContentArticle, ContentNotice, ContentGallery:
		return true
	}
	return false
}

// Status is the publication state of a content document.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Enum values applied when a create request leaves the field empty.
const (
	DefaultArticleCategory = "general"
	DefaultNoticePriority  = "medium"
	DefaultNoticeAudience  = "all"
	DefaultGalleryCategory = "other"
)

// ItemKind classifies a gallery item by the blob's MIME type.
type ItemKind string

const (
	ItemImage ItemKind = "image"
	ItemVideo ItemKind = "video"
	ItemFile  ItemKind = "file"
)

// Document is the common envelope of every content variant. Exactly one of
// Article, Notice or Gallery is set, selected by ContentType.
type Document struct {
	ID          ContentID   `json:"id"                    bson:"_id"`
	ContentType ContentType `json:"contentType"           bson:"contentType"   validate:"required,oneof=article notice gallery"`
	Title       string      `json:"title"                 bson:"title"         validate:"required,max=200"`
	Slug        string      `json:"slug"                  bson:"slug"          validate:"required,max=240"`
	Status      Status      `json:"status"                bson:"status"        validate:"required,oneof=draft published"`
	Author      string      `json:"author,omitempty"      bson:"author,omitempty"`
	Views       int64       `json:"views"                 bson:"views"`
	ScheduledAt *time.Time  `json:"scheduledAt,omitempty" bson:"scheduledAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"             bson:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"             bson:"updatedAt"`

	Article *Article `json:"-" bson:"article,omitempty"`
	Notice  *Notice  `json:"-" bson:"notice,omitempty"`
	Gallery *Gallery `json:"-" bson:"gallery,omitempty"`
}

// Article is a news-style post with an optional featured image.
type Article struct {
	Body          string   `json:"body"                    bson:"body"     validate:"required"`
	Excerpt       string   `json:"excerpt"                 bson:"excerpt"  validate:"max=250"`
	Category      string   `json:"category"                bson:"category" validate:"required,oneof=news events academics achievements sports general"`
	Tags          []string `json:"tags"                    bson:"tags"     validate:"dive,max=50"`
	FeaturedImage *BlobID  `json:"featuredImage,omitempty" bson:"featuredImage,omitempty"`
}

// Notice is a bulletin with ordered file attachments.
type Notice struct {
	Body        string       `json:"body"                bson:"body"      validate:"required"`
	Priority    string       `json:"priority"            bson:"priority"  validate:"required,oneof=low medium high urgent"`
	Audience    string       `json:"audience"            bson:"audience"  validate:"required,oneof=all students parents teachers staff"`
	ExpiresAt   *time.Time   `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	Attachments []Attachment `json:"attachments"         bson:"attachments" validate:"dive"`
}

// Attachment is a resolved blob reference embedded in a notice.
type Attachment struct {
	BlobRef     BlobID `json:"blobRef"     bson:"blobRef"`
	DisplayName string `json:"displayName" bson:"displayName" validate:"required"`
	FileType    string `json:"fileType"    bson:"fileType"`
}

// Gallery is an ordered collection of image/video items.
type Gallery struct {
	Description string        `json:"description"          bson:"description" validate:"required"`
	Category    string        `json:"category"             bson:"category"    validate:"required,oneof=events sports cultural academic campus other"`
	EventDate   *time.Time    `json:"eventDate,omitempty"  bson:"eventDate,omitempty"`
	Items       []GalleryItem `json:"items"                bson:"items" validate:"dive"`
	CoverImage  *BlobID       `json:"coverImage,omitempty" bson:"coverImage,omitempty"`
}

// GalleryItem is one resolved media entry of a gallery.
type GalleryItem struct {
	Kind      ItemKind `json:"kind"                bson:"kind"    validate:"required,oneof=image video file"`
	BlobRef   BlobID   `json:"blobRef"             bson:"blobRef"`
	Caption   string   `json:"caption"             bson:"caption"`
	Thumbnail *BlobID  `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
}

// documentEnvelope avoids MarshalJSON recursion.
type documentEnvelope Document

// MarshalJSON flattens the variant body into the envelope so API clients
// see a single object per document.
func (d Document) MarshalJSON() ([]byte, error) {
	head, err := json.Marshal(documentEnvelope(d))
	if err != nil {
		return nil, err
	}
	var body interface{}
	switch {
	case d.Article != nil:
		body = d.Article
	case d.Notice != nil:
		body = d.Notice
	case d.Gallery != nil:
		body = d.Gallery
	default:
		return head, nil
	}
	tail, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(head, &merged); err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(tail, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Clone returns a deep copy safe to mutate.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	if d.ScheduledAt != nil {
		t := *d.ScheduledAt
		out.ScheduledAt = &t
	}
	if d.Article != nil {
		a := *d.Article
		a.Tags = append(make([]string, 0, len(d.Article.Tags)), d.Article.Tags...)
		if d.Article.FeaturedImage != nil {
			id := *d.Article.FeaturedImage
			a.FeaturedImage = &id
		}
		out.Article = &a
	}
	if d.Notice != nil {
		n := *d.Notice
		n.Attachments = append(make([]Attachment, 0, len(d.Notice.Attachments)), d.Notice.Attachments...)
		if d.Notice.ExpiresAt != nil {
			t := *d.Notice.ExpiresAt
			n.ExpiresAt = &t
		}
		out.Notice = &n
	}
	if d.Gallery != nil {
		g := *d.Gallery
		g.Items = make([]GalleryItem, len(d.Gallery.Items))
		for i, it := range d.Gallery.Items {
			if it.Thumbnail != nil {
				th := *it.Thumbnail
				it.Thumbnail = &th
			}
			g.Items[i] = it
		}
		if d.Gallery.CoverImage != nil {
			id := *d.Gallery.CoverImage
			g.CoverImage = &id
		}
		if d.Gallery.EventDate != nil {
			t := *d.Gallery.EventDate
			g.EventDate = &t
		}
		out.Gallery = &g
	}
	return &out
}
