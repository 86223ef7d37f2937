package blobstore_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/campus-site/core/internal/models"
	"github.com/campus-site/core/internal/pkg/apperr"
	"github.com/campus-site/core/internal/pkg/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngMeta(name string, size int64) models.BlobMeta {
	return models.BlobMeta{OriginalName: name, MimeType: "image/png", Size: size}
}

// storeContract runs the behaviour every driver must share.
func storeContract(t *testing.T, store blobstore.Store) {
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {
		payload := make([]byte, 4096)
		_, err := rand.Read(payload)
		require.NoError(t, err)

		id, err := store.Put(ctx, bytes.NewReader(payload), "a.png", pngMeta("photo.png", int64(len(payload))))
		require.NoError(t, err)
		assert.False(t, id.IsZero())

		rc, err := store.Get(ctx, id)
		require.NoError(t, err)
		defer rc.Close()
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("StatMissingReturnsNil", func(t *testing.T) {
		info, err := store.Stat(ctx, models.NewBlobID())
		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("StatReportsMetadata", func(t *testing.T) {
		meta := models.BlobMeta{
			OriginalName: "Annual Report.pdf",
			MimeType:     "application/pdf",
			Size:         3,
			Category:     "reports",
			Description:  "yearly",
			UploadedBy:   "user_1",
		}
		id, err := store.Put(ctx, bytes.NewReader([]byte("pdf")), "f1.pdf", meta)
		require.NoError(t, err)

		info, err := store.Stat(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, id, info.ID)
		assert.Equal(t, "f1.pdf", info.Filename)
		assert.Equal(t, int64(3), info.Length)
		assert.Equal(t, meta, info.Meta)
		assert.Equal(t, "Annual Report.pdf", info.DisplayName())
	})

	t.Run("DeleteTwice", func(t *testing.T) {
		id, err := store.Put(ctx, bytes.NewReader([]byte("x")), "x.png", pngMeta("x.png", 1))
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, id))

		info, err := store.Stat(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, info)

		_, err = store.Get(ctx, id)
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		err = store.Delete(ctx, id)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("PutRequiresMetadata", func(t *testing.T) {
		_, err := store.Put(ctx, bytes.NewReader([]byte("x")), "x.bin", models.BlobMeta{})
		require.Error(t, err)
		e, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, apperr.KindValidation, e.Kind)
		assert.Len(t, e.Fields, 2)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, blobstore.NewMemory())
}

func TestMemoryListFilter(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	store := blobstore.NewMemory().WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	put := func(category, uploader string) models.BlobID {
		meta := pngMeta("p.png", 1)
		meta.Category = category
		meta.UploadedBy = uploader
		id, err := store.Put(ctx, bytes.NewReader([]byte("p")), "p.png", meta)
		require.NoError(t, err)
		return id
	}
	first := put("events", "alice")
	second := put("events", "bob")
	put("sports", "alice")

	events, err := store.List(ctx, models.BlobFilter{Category: "events"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, second, events[0].ID, "newest first")
	assert.Equal(t, first, events[1].ID)

	alice, err := store.List(ctx, models.BlobFilter{UploadedBy: "alice"})
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	all, err := store.List(ctx, models.BlobFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryPutHonoursCancelledContext(t *testing.T) {
	store := blobstore.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Put(ctx, bytes.NewReader([]byte("x")), "x.png", pngMeta("x.png", 1))
	assert.ErrorIs(t, err, apperr.ErrStorage)

	all, err := store.List(context.Background(), models.BlobFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
