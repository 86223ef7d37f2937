package attachment

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/campus-site/core/internal/models"
	"github.com/campus-site/core/internal/pkg/apperr"
	"github.com/campus-site/core/internal/pkg/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func putBlob(t *testing.T, store *blobstore.Memory, name, mime string) models.BlobID {
	t.Helper()
	id, err := store.Put(context.Background(), bytes.NewReader([]byte("x")), name, models.BlobMeta{
		OriginalName: name, MimeType: mime, Size: 1,
	})
	require.NoError(t, err)
	return id
}

func TestAttachmentsSkipBlankAndStale(t *testing.T) {
	store := blobstore.NewMemory()
	valid := putBlob(t, store, "timetable.pdf", "application/pdf")
	stale := models.NewBlobID()

	r := NewResolver(store, nil)
	got, err := r.Attachments(context.Background(),
		[]*string{strp(valid.String()), strp("null"), nil, strp(stale.String())})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, valid, got[0].BlobRef)
	assert.Equal(t, "timetable.pdf", got[0].DisplayName)
	assert.Equal(t, "application/pdf", got[0].FileType)
}

func TestAttachmentsSkipMalformedAndUndefined(t *testing.T) {
	r := NewResolver(blobstore.NewMemory(), nil)
	got, err := r.Attachments(context.Background(), []*string{strp("undefined"), strp("zzz"), strp("  ")})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGalleryItemsPreserveOrder(t *testing.T) {
	store := blobstore.NewMemory()
	ids := []models.BlobID{
		putBlob(t, store, "a.mp4", "video/mp4"),
		putBlob(t, store, "b.png", "image/png"),
		putBlob(t, store, "c.pdf", "application/pdf"),
		putBlob(t, store, "d.jpg", "image/jpeg"),
		putBlob(t, store, "e.gif", "image/gif"),
	}
	raw := make([]*string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, strp(id.String()))
	}

	items, err := NewResolver(store, nil).GalleryItems(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, items, len(ids))
	for i, id := range ids {
		assert.Equal(t, id, items[i].BlobRef)
	}
	assert.Equal(t, models.ItemVideo, items[0].Kind)
	assert.Nil(t, items[0].Thumbnail)
	assert.Equal(t, models.ItemImage, items[1].Kind)
	require.NotNil(t, items[1].Thumbnail)
	assert.Equal(t, ids[1], *items[1].Thumbnail)
	assert.Equal(t, models.ItemFile, items[2].Kind)
	assert.Equal(t, "b.png", items[1].Caption)
}

func TestCoverImage(t *testing.T) {
	img, vid := models.NewBlobID(), models.NewBlobID()

	cover := CoverImage([]models.GalleryItem{{Kind: models.ItemVideo, BlobRef: vid}, {Kind: models.ItemImage, BlobRef: img}})
	require.NotNil(t, cover)
	assert.Equal(t, img, *cover)

	cover = CoverImage([]models.GalleryItem{{Kind: models.ItemVideo, BlobRef: vid}})
	require.NotNil(t, cover)
	assert.Equal(t, vid, *cover)

	assert.Nil(t, CoverImage(nil))
}

func TestCoverPrefersResolvableExplicit(t *testing.T) {
	store := blobstore.NewMemory()
	explicit := putBlob(t, store, "cover.webp", "image/webp")
	first := models.NewBlobID()
	items := []models.GalleryItem{{Kind: models.ItemImage, BlobRef: first}}
	r := NewResolver(store, nil)

	cover, err := r.Cover(context.Background(), strp(explicit.String()), items)
	require.NoError(t, err)
	assert.Equal(t, explicit, *cover)

	cover, err = r.Cover(context.Background(), strp(models.NewBlobID().String()), items)
	require.NoError(t, err)
	assert.Equal(t, first, *cover)
}

func TestFeaturedImage(t *testing.T) {
	store := blobstore.NewMemory()
	id := putBlob(t, store, "hero.jpg", "image/jpeg")
	r := NewResolver(store, nil)

	got, err := r.FeaturedImage(context.Background(), strp(id.String()))
	require.NoError(t, err)
	assert.Equal(t, id, *got)

	got, err = r.FeaturedImage(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

type brokenStater struct{}

func (brokenStater) Stat(context.Context, models.BlobID) (*models.BlobInfo, error) {
	return nil, apperr.Storage("stat", "", errors.New("connection reset"))
}

func TestStorageErrorsAbort(t *testing.T) {
	r := NewResolver(brokenStater{}, nil)
	_, err := r.Attachments(context.Background(), []*string{strp(models.NewBlobID().String())})
	assert.True(t, errors.Is(err, apperr.ErrStorage))
}
