package content

import "time"

// CreateInput is the request body for creating a document. Only the fields
// of the selected contentType are read. Blob references arrive as raw ids;
// null slots are tolerated and dropped.
type CreateInput struct {
	ContentType string     `json:"contentType"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	Author      string     `json:"author"`
	ScheduledAt *time.Time `json:"scheduledAt"`

	// article
	Body          string   `json:"body"`
	Excerpt       string   `json:"excerpt"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	FeaturedImage *string  `json:"featuredImage"`

	// notice
	Priority    string     `json:"priority"`
	Audience    string     `json:"audience"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	Attachments []*string  `json:"attachments"`

	// gallery
	Description  string     `json:"description"`
	EventDate    *time.Time `json:"eventDate"`
	GalleryItems []*string  `json:"galleryItems"`
	CoverImage   *string    `json:"coverImage"`
}

// UpdateInput is a partial update; nil fields are left untouched. Blob
// references arrive as raw ids like CreateInput. A supplied id list is
// resolved and replaces the stored array wholesale; arrays that are not
// supplied are never re-resolved.
type UpdateInput struct {
	Title       *string    `json:"title"`
	Slug        *string    `json:"slug"`
	Status      *string    `json:"status"`
	Author      *string    `json:"author"`
	ScheduledAt *time.Time `json:"scheduledAt"`

	Body          *string   `json:"body"`
	Excerpt       *string   `json:"excerpt"`
	Category      *string   `json:"category"`
	Tags          *[]string `json:"tags"`
	FeaturedImage *string   `json:"featuredImage"`

	Priority    *string    `json:"priority"`
	Audience    *string    `json:"audience"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	Attachments *[]*string `json:"attachments"`

	Description  *string    `json:"description"`
	EventDate    *time.Time `json:"eventDate"`
	GalleryItems *[]*string `json:"galleryItems"`
	CoverImage   *string    `json:"coverImage"`
}
