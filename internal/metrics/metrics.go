package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videoforge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "videoforge_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Upload metrics
	VideoUploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "videoforge_video_uploads_total",
			Help: "Total number of video uploads",
		},
	)

	VideoUploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "videoforge_video_upload_size_bytes",
			Help:    "Size of uploaded videos in bytes",
			Buckets: prometheus.ExponentialBuckets(1024*1024, 2, 15), // 1MB to 16GB
		},
	)

	// Rendition metrics
	RenditionsRequestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videoforge_renditions_requested_total",
			Help: "Total number of rendition labels accepted for generation",
		},
		[]string{"quality"},
	)

	RenditionsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videoforge_renditions_generated_total",
			Help: "Total number of renditions generated successfully",
		},
		[]string{"quality"},
	)

	RenditionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videoforge_rendition_failures_total",
			Help: "Total number of rendition generation failures",
		},
		[]string{"quality"},
	)

	RenditionBatchesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "videoforge_rendition_batches_in_flight",
			Help: "Number of rendition batches currently being processed",
		},
	)

	// External tool metrics
	FFmpegDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "videoforge_ffmpeg_duration_seconds",
			Help:    "Duration of external ffmpeg/ffprobe invocations",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7 minutes
		},
		[]string{"operation"},
	)

	// Overlay metrics
	OverlayOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videoforge_overlay_operations_total",
			Help: "Total number of overlay operations performed",
		},
		[]string{"kind"},
	)
)
