package file

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/campus-site/core/internal/pkg/blobstore"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type part struct {
	field, name, mime string
	data              []byte
}

func multipartBody(t *testing.T, fields map[string]string, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.name+`"`)
		h.Set("Content-Type", p.mime)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	passAuth := func(c *gin.Context) {
		c.Set("user_id", "admin-1")
		c.Next()
	}
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"), passAuth)
	return r
}

func TestHandlerUploadAndDownload(t *testing.T) {
	svc := NewService(blobstore.NewMemory(), nil)
	r := newTestRouter(svc)

	body, ct := multipartBody(t, map[string]string{"category": "gallery", "description": "Sports Day"},
		part{field: "file", name: "relay.png", mime: "image/png", data: []byte("\x89PNG-bytes")})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var uploaded struct {
		FileID       string `json:"fileId"`
		OriginalName string `json:"originalName"`
		MimeType     string `json:"mimetype"`
		Size         int64  `json:"size"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploaded))
	assert.Len(t, uploaded.FileID, 24)
	assert.Equal(t, "relay.png", uploaded.OriginalName)
	assert.Equal(t, "image/png", uploaded.MimeType)
	assert.EqualValues(t, 10, uploaded.Size)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/files/download/"+uploaded.FileID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename=relay.png`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, CacheControlImmutable, w.Header().Get("Cache-Control"))
	assert.Equal(t, "\x89PNG-bytes", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/files/"+uploaded.FileID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	meta := info["metadata"].(map[string]any)
	assert.Equal(t, "gallery", meta["category"])
	assert.Equal(t, "admin-1", meta["uploadedBy"])
}

func TestHandlerRejectsUnsupportedType(t *testing.T) {
	r := newTestRouter(NewService(blobstore.NewMemory(), nil))

	body, ct := multipartBody(t, nil, part{field: "file", name: "pack.zip", mime: "application/zip", data: []byte("PK")})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestHandlerRejectsOversizedFile(t *testing.T) {
	r := newTestRouter(NewService(blobstore.NewMemory(), nil, WithLimits(8, 0)))

	body, ct := multipartBody(t, nil, part{field: "file", name: "big.pdf", mime: "application/pdf", data: []byte("123456789")})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHandlerUploadMultiple(t *testing.T) {
	r := newTestRouter(NewService(blobstore.NewMemory(), nil))

	body, ct := multipartBody(t, nil,
		part{field: "files", name: "one.pdf", mime: "application/pdf", data: []byte("%PDF-1")},
		part{field: "files", name: "two.jpg", mime: "image/jpeg", data: []byte("jpeg")},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload-multiple", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Data []UploadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Data, 2)
	assert.Equal(t, "one.pdf", out.Data[0].OriginalName)
	assert.Equal(t, "two.jpg", out.Data[1].OriginalName)
}

func TestHandlerMissingFileAndBadID(t *testing.T) {
	r := newTestRouter(NewService(blobstore.NewMemory(), nil))

	body, ct := multipartBody(t, map[string]string{"category": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/files/download/not-an-id", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/files/65a1b2c3d4e5f6a7b8c9d0e1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
