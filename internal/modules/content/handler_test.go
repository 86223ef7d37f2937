package content

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/campus-site/core/internal/modules/content/attachment"
	"github.com/campus-site/core/internal/modules/storage/file"
	"github.com/campus-site/core/internal/pkg/blobstore"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	blobs := blobstore.NewMemory()
	r := gin.New()
	auth := func(c *gin.Context) {
		c.Set("user_id", "office")
		c.Next()
	}
	api := r.Group("/api/v1")
	file.NewHandler(file.NewService(blobs, nil)).RegisterRoutes(api, auth)
	NewHandler(NewService(NewMemoryRepository(), attachment.NewResolver(blobs, nil), nil)).RegisterRoutes(api, auth)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSportsDayEndToEnd(t *testing.T) {
	r := newRouter()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="sprint.png"`)
	h.Set("Content-Type", "image/png")
	pw, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = pw.Write(bytes.Repeat([]byte{0x42}, 200))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var up struct {
		FileID string `json:"fileId"`
		Size   int64  `json:"size"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &up))
	assert.EqualValues(t, 200, up.Size)

	w = doJSON(t, r, http.MethodPost, "/api/v1/content", map[string]any{
		"contentType":  "gallery",
		"title":        "Sports Day",
		"description":  "Highlights from the track",
		"galleryItems": []any{up.FileID, nil, "undefined"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var doc struct {
		ID         string `json:"id"`
		Slug       string `json:"slug"`
		CoverImage string `json:"coverImage"`
		Items      []struct {
			Kind    string `json:"kind"`
			BlobRef string `json:"blobRef"`
			Caption string `json:"caption"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "sports-day", doc.Slug)
	assert.Equal(t, up.FileID, doc.CoverImage)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "image", doc.Items[0].Kind)
	assert.Equal(t, up.FileID, doc.Items[0].BlobRef)
	assert.Equal(t, "sprint.png", doc.Items[0].Caption)

	w = doJSON(t, r, http.MethodGet, "/api/v1/content/type/gallery?status=draft", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, doc.ID, listed.Data[0]["id"])

	w = doJSON(t, r, http.MethodGet, "/api/v1/content/id/"+doc.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.EqualValues(t, 1, got["views"])
}

func TestHandlerErrorMapping(t *testing.T) {
	r := newRouter()

	w := doJSON(t, r, http.MethodPost, "/api/v1/content", map[string]any{"contentType": "podcast", "title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/content", map[string]any{"contentType": "article"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body struct {
		Kind   string `json:"kind"`
		Errors []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation", body.Kind)
	assert.NotEmpty(t, body.Errors)

	w = doJSON(t, r, http.MethodGet, "/api/v1/content/id/65a1b2c3d4e5f6a7b8c9d0e1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/v1/content/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/content", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}
