package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/campus-site/core/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMemoryApp(t *testing.T) *App {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	cfg.Storage.Driver = "memory"
	cfg.Redis = config.RedisConfig{}

	a, err := New(context.Background(), zap.NewNop(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Shutdown(context.Background()) })
	return a
}

func TestMemoryAppServesCoreRoutes(t *testing.T) {
	a := newMemoryApp(t)

	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":"pong"}`, w.Body.String())

	w = httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "disabled", health.Dependencies["mongo"])

	w = httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/content/type/notice", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())

	w = httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublishJobRegistered(t *testing.T) {
	a := newMemoryApp(t)
	items := a.sched.List()
	require.Len(t, items, 1)
	assert.Equal(t, "publish-scheduled", items[0].Name)
	require.NoError(t, a.sched.RunNow(context.Background(), "publish-scheduled"))
}

func TestOriginAllowList(t *testing.T) {
	l := newOriginAllowList([]string{"*.school.edu", "localhost:*", "admin.campus.org", " "})
	assert.True(t, l.allows("https://www.school.edu"))
	assert.True(t, l.allows("http://localhost:5173"))
	assert.True(t, l.allows("https://Admin.Campus.org"))
	assert.False(t, l.allows("https://school.evil.com"))
	assert.False(t, l.allows("https://campus.org"))
	assert.False(t, l.allows(""))
	assert.Equal(t, "www.school.edu", originHost("https://www.school.edu/path"))
}

func TestParseTimezoneLocation(t *testing.T) {
	loc, err := parseTimezoneLocation("+05:30")
	require.NoError(t, err)
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 5*3600+30*60, offset)

	_, err = parseTimezoneLocation("Mars/Olympus")
	assert.Error(t, err)
}

func TestHumanizeDuration(t *testing.T) {
	assert.Equal(t, "42s", humanizeDuration(42*time.Second+300*time.Millisecond))
	assert.Equal(t, "5m0s", humanizeDuration(5*time.Minute+10*time.Second))
	assert.Equal(t, "2d3h0m0s", humanizeDuration(51*time.Hour+5*time.Minute))
}
