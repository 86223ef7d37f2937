// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campus_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// UploadsTotal counts upload attempts by outcome
	// (stored, too_large, unsupported_type, failed).
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_blob_uploads_total",
			Help: "Blob upload attempts by result",
		},
		[]string{"result"},
	)

	UploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campus_blob_upload_bytes_total",
			Help: "Bytes written to the blob store",
		},
	)

	BlobDeletes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campus_blob_deletes_total",
			Help: "Blobs removed from the blob store",
		},
	)

	// RefsDropped counts attachment references skipped during resolution
	// (blank, malformed, missing).
	RefsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_attachment_refs_dropped_total",
			Help: "Attachment references dropped during resolution",
		},
		[]string{"reason"},
	)

	ContentViews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_content_views_total",
			Help: "Content documents read by id",
		},
		[]string{"content_type"},
	)

	registry = prometheus.NewRegistry()
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RequestCounter,
		RequestDuration,
		UploadsTotal,
		UploadBytes,
		BlobDeletes,
		RefsDropped,
		ContentViews,
	)
}

// Registry exposes the registry for tests.
func Registry() *prometheus.Registry { return registry }

// Handler serves the registry in the Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
