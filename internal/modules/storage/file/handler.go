package file

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/campus-site/core/internal/middleware"
	"github.com/campus-site/core/internal/models"
	"github.com/campus-site/core/internal/pkg/apperr"
	"github.com/campus-site/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// multipartSlack covers form fields and part headers on top of file bytes.
const multipartSlack = 1 << 20

// Handler exposes the file transfer service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/files")

	g.POST("/upload", authMW, h.upload)
	g.POST("/upload-multiple", authMW, h.uploadMultiple)
	g.GET("/download/:fileId", h.download)
	g.GET("/list", h.list)
	g.GET("/:fileId", h.info)
	g.DELETE("/:fileId", authMW, h.delete)
}

// upload POST /files/upload
func (h *Handler) upload(c *gin.Context) {
	h.limitBody(c, 1)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.formError(c, err, "file is required")
		return
	}
	in, err := h.readPart(fileHeader)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.svc.UploadOne(c.Request.Context(), in, uploadMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// uploadMultiple POST /files/upload-multiple
func (h *Handler) uploadMultiple(c *gin.Context) {
	h.limitBody(c, h.svc.MaxFiles())
	form, err := c.MultipartForm()
	if err != nil {
		h.formError(c, err, "multipart form is required")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["files[]"]
	}
	if len(headers) > h.svc.MaxFiles() {
		response.Error(c, apperr.Validation("file.upload_many", apperr.FieldError{
			Field: "files", Rule: "max", Message: "too many files in one request",
		}))
		return
	}

	inputs := make([]FileInput, 0, len(headers))
	for _, fh := range headers {
		in, err := h.readPart(fh)
		if err != nil {
			response.Error(c, err)
			return
		}
		inputs = append(inputs, in)
	}

	results, err := h.svc.UploadMany(c.Request.Context(), inputs, uploadMeta(c))
	if err != nil {
		var batchErr *BatchError
		if errors.As(err, &batchErr) {
			body := response.ErrorBody(batchErr.Err)
			body["stored"] = batchErr.Stored
			body["failedIndex"] = batchErr.FailedIndex
			body["failedName"] = batchErr.FailedName
			c.AbortWithStatusJSON(response.StatusOf(batchErr.Err), body)
			return
		}
		response.Error(c, err)
		return
	}
	response.OK(c, results)
}

// download GET /files/download/:fileId
func (h *Handler) download(c *gin.Context) {
	id, err := models.ParseBlobID(c.Param("fileId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	dl, err := h.svc.Download(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer dl.Body.Close()

	c.DataFromReader(http.StatusOK, dl.Length, dl.MimeType, dl.Body, map[string]string{
		"Content-Disposition": contentDisposition(dl.OriginalName),
		"Cache-Control":       dl.CacheControl,
	})
}

// info GET /files/:fileId
func (h *Handler) info(c *gin.Context) {
	id, err := models.ParseBlobID(c.Param("fileId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	info, err := h.svc.Info(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, info)
}

// list GET /files/list?category=&uploadedBy=
func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), models.BlobFilter{
		Category:   strings.TrimSpace(c.Query("category")),
		UploadedBy: strings.TrimSpace(c.Query("uploadedBy")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// delete DELETE /files/:fileId
func (h *Handler) delete(c *gin.Context) {
	id, err := models.ParseBlobID(c.Param("fileId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.svc.Remove(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c)
}

func (h *Handler) limitBody(c *gin.Context, files int) {
	limit := h.svc.MaxSize()*int64(files) + multipartSlack
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
}

func (h *Handler) formError(c *gin.Context, err error, fallback string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, apperr.PayloadTooLarge("file.upload", "", tooLarge.Limit+1, tooLarge.Limit))
		return
	}
	response.BadRequest(c, fallback)
}

// readPart buffers one part. Oversized parts are rejected from the header
// size before any bytes are read.
func (h *Handler) readPart(fh *multipart.FileHeader) (FileInput, error) {
	in := FileInput{Name: fh.Filename, Size: fh.Size}
	if fh.Size > h.svc.MaxSize() {
		return in, apperr.PayloadTooLarge("file.upload", fh.Filename, fh.Size, h.svc.MaxSize())
	}
	f, err := fh.Open()
	if err != nil {
		return in, apperr.Storage("file.read_part", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.svc.MaxSize()+1))
	if err != nil {
		return in, apperr.Storage("file.read_part", fh.Filename, err)
	}
	in.Data = data
	in.Size = int64(len(data))
	in.MimeType = detectContentType(fh.Filename, data, fh.Header.Get("Content-Type"))
	return in, nil
}

func uploadMeta(c *gin.Context) UploadMeta {
	return UploadMeta{
		Category:    strings.TrimSpace(c.PostForm("category")),
		Description: strings.TrimSpace(c.PostForm("description")),
		UploadedBy:  middleware.CurrentUserID(c),
	}
}
