package file

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// allowedMimeTypes is the upload allow-list.
var allowedMimeTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"image/webp":         {},
	"video/mp4":          {},
	"video/x-msvideo":    {},
	"video/avi":          {},
	"video/quicktime":    {},
	"video/x-ms-wmv":     {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// isAllowedMimeType ignores parameters such as "; charset=".
func isAllowedMimeType(mimeType string) bool {
	_, ok := allowedMimeTypes[baseMimeType(mimeType)]
	return ok
}

func baseMimeType(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		return parsed
	}
	return mt
}

// buildFileName generates a collision-resistant filename that preserves the
// original extension.
func buildFileName(original string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(original)))
	if ext == "" || len(ext) > 10 {
		ext = ".dat"
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}

// detectContentType uses the declared header unless it is empty or the
// generic octet-stream, then the extension, then the payload bytes.
func detectContentType(filename string, payload []byte, declared string) string {
	contentType := baseMimeType(declared)
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}
	if ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename))); ext != "" {
		if guessed := mime.TypeByExtension(ext); guessed != "" {
			return baseMimeType(guessed)
		}
	}
	if len(payload) > 0 {
		return baseMimeType(http.DetectContentType(payload))
	}
	return "application/octet-stream"
}

// originalName strips any client-side directory components.
func originalName(raw string) string {
	name := filepath.Base(strings.ReplaceAll(strings.TrimSpace(raw), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

// contentDisposition renders an inline disposition with an RFC 5987
// filename* for non-ASCII names.
func contentDisposition(name string) string {
	return mime.FormatMediaType("inline", map[string]string{"filename": name})
}
