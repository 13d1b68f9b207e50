package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"videoforge/internal/cache"
	"videoforge/internal/config"
	"videoforge/internal/database"
	"videoforge/internal/logging"
	"videoforge/internal/media"
	"videoforge/internal/metrics"
	"videoforge/internal/rendition"
	"videoforge/pkg/models"
)

// videoCacheTTL bounds how long cached video metadata may lag the database.
const videoCacheTTL = 10 * time.Minute

// AssetRepository is the persistence surface the handlers depend on.
type AssetRepository interface {
	Health(ctx context.Context) error
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideo(ctx context.Context, id int64) (*models.Video, error)
	ListVideos(ctx context.Context) ([]*models.Video, error)
	DeleteVideo(ctx context.Context, id int64) error
	VideoStats(ctx context.Context, videoID int64) (*models.VideoStats, error)
	ListRenditions(ctx context.Context, videoID int64) ([]*models.Rendition, error)
	BestRendition(ctx context.Context, videoID int64) (*models.Rendition, error)
	RenditionByQuality(ctx context.Context, videoID int64, quality string) (*models.Rendition, error)
	RenditionByID(ctx context.Context, id int64) (*models.Rendition, error)
	DeleteRendition(ctx context.Context, id int64) error
	ListTrims(ctx context.Context, videoID int64) ([]*models.Trim, error)
	CreateTrim(ctx context.Context, trim *models.Trim) error
	CreateOverlay(ctx context.Context, op *models.OverlayOperation, detail models.OverlayDetail) error
}

// VideoCache is the metadata cache surface the handlers depend on.
type VideoCache interface {
	Ping(ctx context.Context) error
	GetVideo(ctx context.Context, videoID int64) (*models.Video, error)
	SetVideo(ctx context.Context, video *models.Video, ttl time.Duration) error
	DeleteVideo(ctx context.Context, videoID int64) error
}

// MediaProcessor is the ffmpeg surface the handlers depend on.
type MediaProcessor interface {
	Probe(ctx context.Context, path string) (*media.ProbeResult, error)
	Trim(ctx context.Context, inputPath, outputPath string, startSeconds, endSeconds float64) error
	ApplyTextOverlay(ctx context.Context, inputPath, outputPath string, opts media.TextOverlayOptions) error
	ApplyImageOverlay(ctx context.Context, inputPath, outputPath string, opts media.ImageOverlayOptions) error
	ApplyVideoOverlay(ctx context.Context, inputPath, outputPath string, opts media.VideoOverlayOptions) error
	ApplyWatermark(ctx context.Context, inputPath, outputPath string, opts media.WatermarkOptions) error
}

// RenditionScheduler starts background quality generation.
type RenditionScheduler interface {
	Request(ctx context.Context, videoID int64, labels []string) (*rendition.Result, error)
}

// API holds the handler dependencies.
type API struct {
	repo       AssetRepository
	cache      VideoCache
	media      MediaProcessor
	renditions RenditionScheduler
	log        *logging.Logger
	cfg        *config.Config
}

var _ AssetRepository = (*database.Repository)(nil)
var _ VideoCache = (*cache.Cache)(nil)
var _ MediaProcessor = (*media.FFmpeg)(nil)

func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := api.repo.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	if err := api.cache.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// uploadVideo stores the uploaded file under a random prefix, probes it and
// creates the video record.
func (api *API) uploadVideo(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be a video"})
		return
	}

	storedName := fmt.Sprintf("%s_%s", newFileToken(), filepath.Base(file.Filename))
	storedPath := filepath.Join(api.cfg.Media.UploadDir, storedName)

	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	info, err := api.media.Probe(c.Request.Context(), storedPath)
	if err != nil {
		os.Remove(storedPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to extract metadata: %v", err)})
		return
	}

	video := &models.Video{
		Filename: storedName,
		Duration: info.Duration,
		Size:     file.Size,
	}

	if err := api.repo.CreateVideo(c.Request.Context(), video); err != nil {
		os.Remove(storedPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to create video: %v", err)})
		return
	}

	if err := api.cache.SetVideo(c.Request.Context(), video, videoCacheTTL); err != nil {
		api.log.WithVideoID(video.ID).WithError(err).Warn("failed to cache video")
	}

	metrics.VideoUploadsTotal.Inc()
	metrics.VideoUploadSizeBytes.Observe(float64(file.Size))

	c.JSON(http.StatusOK, gin.H{
		"id":              video.ID,
		"filename":        video.OriginalFilename(),
		"stored_filename": video.Filename,
		"duration":        video.Duration,
		"size":            video.Size,
	})
}

func (api *API) listVideos(c *gin.Context) {
	videos, err := api.repo.ListVideos(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(videos))
	for _, video := range videos {
		out = append(out, gin.H{
			"id":                video.ID,
			"filename":          video.Filename,
			"original_filename": video.OriginalFilename(),
			"duration":          video.Duration,
			"size":              video.Size,
			"upload_time":       video.UploadTime,
		})
	}

	c.JSON(http.StatusOK, out)
}

func (api *API) getVideo(c *gin.Context) {
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}

	video, err := api.lookupVideo(c.Request.Context(), videoID)
	if err != nil {
		api.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, video)
}

// lookupVideo consults the cache before the database and fills the cache on a
// miss.
func (api *API) lookupVideo(ctx context.Context, videoID int64) (*models.Video, error) {
	if video, err := api.cache.GetVideo(ctx, videoID); err == nil && video != nil {
		return video, nil
	}

	video, err := api.repo.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if err := api.cache.SetVideo(ctx, video, videoCacheTTL); err != nil {
		api.log.WithVideoID(videoID).WithError(err).Warn("failed to cache video")
	}

	return video, nil
}

// deleteVideo removes the video row (renditions, trims and overlay records go
// with it through the cascades) plus the files it produced.
func (api *API) deleteVideo(c *gin.Context) {
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()

	video, err := api.repo.GetVideo(ctx, videoID)
	if err != nil {
		api.renderError(c, err)
		return
	}

	renditions, err := api.repo.ListRenditions(ctx, videoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	trims, err := api.repo.ListTrims(ctx, videoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := api.repo.DeleteVideo(ctx, videoID); err != nil {
		api.renderError(c, err)
		return
	}

	if err := api.cache.DeleteVideo(ctx, videoID); err != nil {
		api.log.WithVideoID(videoID).WithError(err).Warn("failed to invalidate cache")
	}

	api.removeFile(filepath.Join(api.cfg.Media.UploadDir, video.Filename))
	for _, q := range renditions {
		api.removeFile(filepath.Join(api.cfg.Media.QualitiesDir, q.Filename))
	}
	for _, t := range trims {
		api.removeFile(filepath.Join(api.cfg.Media.ProcessedDir, t.Filename))
	}

	c.JSON(http.StatusOK, gin.H{"message": "Video deleted successfully", "video_id": videoID})
}

func (api *API) videoStats(c *gin.Context) {
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}

	stats, err := api.repo.VideoStats(c.Request.Context(), videoID)
	if err != nil {
		api.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// trimVideo extracts [start_time, end_time) of a video with stream copy and
// records the result.
func (api *API) trimVideo(c *gin.Context) {
	videoID, err := strconv.ParseInt(c.Query("video_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid video_id"})
		return
	}
	startTime, err := strconv.ParseFloat(c.Query("start_time"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_time"})
		return
	}
	endTime, err := strconv.ParseFloat(c.Query("end_time"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_time"})
		return
	}

	if startTime < 0 || endTime <= startTime {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time range"})
		return
	}

	ctx := c.Request.Context()

	video, err := api.lookupVideo(ctx, videoID)
	if err != nil {
		api.renderError(c, err)
		return
	}

	if endTime > video.Duration {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_time exceeds video duration"})
		return
	}

	srcPath := filepath.Join(api.cfg.Media.UploadDir, video.Filename)
	if _, err := os.Stat(srcPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source file not found"})
		return
	}

	outName := fmt.Sprintf("trimmed_%s.mp4", newFileToken())
	outPath := filepath.Join(api.cfg.Media.ProcessedDir, outName)

	if err := api.media.Trim(ctx, srcPath, outPath, startTime, endTime); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to trim video: %v", err)})
		return
	}

	info, err := api.media.Probe(ctx, outPath)
	if err != nil {
		os.Remove(outPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to probe output: %v", err)})
		return
	}

	trim := &models.Trim{
		VideoID:   video.ID,
		Filename:  outName,
		Duration:  info.Duration,
		Size:      info.Size,
		StartTime: startTime,
		EndTime:   endTime,
	}

	if err := api.repo.CreateTrim(ctx, trim); err != nil {
		os.Remove(outPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to save trim: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"original_video_id": video.ID,
		"trimmed_video_id":  trim.ID,
		"filename":          trim.Filename,
		"duration":          trim.Duration,
		"size":              trim.Size,
	})
}

// downloadFile serves a processed file by name. The name is reduced to its
// base so the lookup cannot escape the processed directory.
func (api *API) downloadFile(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	path := filepath.Join(api.cfg.Media.ProcessedDir, filename)

	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	c.FileAttachment(path, filename)
}

func (api *API) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		api.log.WithField("path", path).WithError(err).Warn("failed to remove file")
	}
}

// renderError maps domain errors to HTTP status codes.
func (api *API) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, rendition.ErrSourceMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, media.ErrUnsupportedQuality):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", param)})
		return 0, false
	}
	return id, true
}

func newFileToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
