package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"videoforge/internal/media"
	"videoforge/internal/metrics"
	"videoforge/pkg/models"
)

// queryInt reads an optional integer query parameter, falling back to def
// when absent.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

// queryFloat reads an optional float query parameter, falling back to def
// when absent.
func queryFloat(c *gin.Context, name string, def float64) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

// overlayWindow reads the shared x/y/start/end overlay parameters.
func overlayWindow(c *gin.Context, defX, defY int) (x, y int, start, end float64, err error) {
	if x, err = queryInt(c, "x", defX); err != nil {
		return
	}
	if y, err = queryInt(c, "y", defY); err != nil {
		return
	}
	if start, err = queryFloat(c, "start", 0); err != nil {
		return
	}
	end, err = queryFloat(c, "end", 5)
	return
}

// overlaySource resolves the base video and its source file path. A missing
// record or file renders the response and returns false.
func (api *API) overlaySource(c *gin.Context, videoID int64) (*models.Video, string, bool) {
	video, err := api.lookupVideo(c.Request.Context(), videoID)
	if err != nil {
		api.renderError(c, err)
		return nil, "", false
	}

	srcPath := filepath.Join(api.cfg.Media.UploadDir, video.Filename)
	if _, err := os.Stat(srcPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source file not found"})
		return nil, "", false
	}

	return video, srcPath, true
}

// saveOverlayAsset stores the uploaded asset from the named multipart field
// under a random prefix in the upload directory and returns its path.
func (api *API) saveOverlayAsset(c *gin.Context, field string) (string, bool) {
	file, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("No %s file provided", field)})
		return "", false
	}

	storedName := fmt.Sprintf("%s_%s", newFileToken(), filepath.Base(file.Filename))
	storedPath := filepath.Join(api.cfg.Media.UploadDir, storedName)

	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to save %s file", field)})
		return "", false
	}

	return storedPath, true
}

// recordOverlay probes the output file and persists the operation with its
// detail row. The output file is removed if persistence fails.
func (api *API) recordOverlay(c *gin.Context, op *models.OverlayOperation, detail models.OverlayDetail, outPath string) bool {
	info, err := api.media.Probe(c.Request.Context(), outPath)
	if err != nil {
		os.Remove(outPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to probe output: %v", err)})
		return false
	}
	op.Duration = info.Duration
	op.Size = info.Size

	if err := api.repo.CreateOverlay(c.Request.Context(), op, detail); err != nil {
		os.Remove(outPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to save overlay: %v", err)})
		return false
	}

	metrics.OverlayOperationsTotal.WithLabelValues(op.Kind).Inc()
	return true
}

// textOverlay draws text on a video using a font matched to the requested
// language.
func (api *API) textOverlay(c *gin.Context) {
	videoID, err := strconv.ParseInt(c.Query("video_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid video_id"})
		return
	}
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	language := c.DefaultQuery("language", "hi")
	fontColor := c.DefaultQuery("fontcolor", "white")

	x, y, start, end, err := overlayWindow(c, 100, 50)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fontSize, err := queryInt(c, "fontsize", 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if end <= start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time range"})
		return
	}

	video, srcPath, ok := api.overlaySource(c, videoID)
	if !ok {
		return
	}

	fontPath := media.FontPath(api.cfg.Media.FontDir, language)
	outName := fmt.Sprintf("overlay_text_%s.mp4", newFileToken())
	outPath := filepath.Join(api.cfg.Media.ProcessedDir, outName)

	err = api.media.ApplyTextOverlay(c.Request.Context(), srcPath, outPath, media.TextOverlayOptions{
		Text:      text,
		FontPath:  fontPath,
		FontSize:  fontSize,
		FontColor: fontColor,
		X:         x,
		Y:         y,
		Start:     start,
		End:       end,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to apply overlay: %v", err)})
		return
	}

	op := &models.OverlayOperation{
		BaseVideoID: video.ID,
		Filename:    outName,
		Kind:        models.OverlayKindText,
	}
	detail := &models.TextOverlay{
		TextContent: text,
		FontPath:    fontPath,
		FontSize:    fontSize,
		FontColor:   fontColor,
		Language:    language,
		XPosition:   x,
		YPosition:   y,
		StartTime:   start,
		EndTime:     end,
	}
	if !api.recordOverlay(c, op, detail, outPath) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Text overlay applied", "output_file": outName})
}

// imageOverlay composites an uploaded image onto a video for a time window.
func (api *API) imageOverlay(c *gin.Context) {
	videoID, err := strconv.ParseInt(c.Query("video_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid video_id"})
		return
	}
	x, y, start, end, err := overlayWindow(c, 0, 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if end <= start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time range"})
		return
	}

	video, srcPath, ok := api.overlaySource(c, videoID)
	if !ok {
		return
	}

	imagePath, ok := api.saveOverlayAsset(c, "image")
	if !ok {
		return
	}

	outName := fmt.Sprintf("overlay_image_%s.mp4", newFileToken())
	outPath := filepath.Join(api.cfg.Media.ProcessedDir, outName)

	err = api.media.ApplyImageOverlay(c.Request.Context(), srcPath, outPath, media.ImageOverlayOptions{
		ImagePath: imagePath,
		X:         x,
		Y:         y,
		Start:     start,
		End:       end,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to apply overlay: %v", err)})
		return
	}

	op := &models.OverlayOperation{
		BaseVideoID: video.ID,
		Filename:    outName,
		Kind:        models.OverlayKindImage,
	}
	detail := &models.ImageOverlay{
		ImagePath: imagePath,
		XPosition: x,
		YPosition: y,
		StartTime: start,
		EndTime:   end,
	}
	if !api.recordOverlay(c, op, detail, outPath) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Image overlay applied", "output_file": outName})
}

// videoOverlay composites an uploaded video onto a base video, time-shifted
// to the start of its window.
func (api *API) videoOverlay(c *gin.Context) {
	videoID, err := strconv.ParseInt(c.Query("video_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid video_id"})
		return
	}
	x, y, start, end, err := overlayWindow(c, 0, 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if end <= start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time range"})
		return
	}

	video, srcPath, ok := api.overlaySource(c, videoID)
	if !ok {
		return
	}

	overlayPath, ok := api.saveOverlayAsset(c, "overlay")
	if !ok {
		return
	}

	outName := fmt.Sprintf("overlay_video_%s.mp4", newFileToken())
	outPath := filepath.Join(api.cfg.Media.ProcessedDir, outName)

	err = api.media.ApplyVideoOverlay(c.Request.Context(), srcPath, outPath, media.VideoOverlayOptions{
		OverlayPath: overlayPath,
		X:           x,
		Y:           y,
		Start:       start,
		End:         end,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to apply overlay: %v", err)})
		return
	}

	op := &models.OverlayOperation{
		BaseVideoID: video.ID,
		Filename:    outName,
		Kind:        models.OverlayKindVideo,
	}
	detail := &models.VideoOverlay{
		OverlayVideoPath: overlayPath,
		XPosition:        x,
		YPosition:        y,
		StartTime:        start,
		EndTime:          end,
	}
	if !api.recordOverlay(c, op, detail, outPath) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Video overlay applied", "output_file": outName})
}

// addWatermark blends an uploaded watermark image over the full video.
func (api *API) addWatermark(c *gin.Context) {
	videoID, err := strconv.ParseInt(c.Query("video_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid video_id"})
		return
	}
	x, err := queryInt(c, "x", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	y, err := queryInt(c, "y", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opacity, err := queryFloat(c, "opacity", 0.5)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if opacity <= 0 || opacity > 1 {
		opacity = 0.5
	}

	video, srcPath, ok := api.overlaySource(c, videoID)
	if !ok {
		return
	}

	watermarkPath, ok := api.saveOverlayAsset(c, "watermark")
	if !ok {
		return
	}

	outName := fmt.Sprintf("watermarked_%s.mp4", newFileToken())
	outPath := filepath.Join(api.cfg.Media.ProcessedDir, outName)

	err = api.media.ApplyWatermark(c.Request.Context(), srcPath, outPath, media.WatermarkOptions{
		WatermarkPath: watermarkPath,
		X:             x,
		Y:             y,
		Opacity:       opacity,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to apply watermark: %v", err)})
		return
	}

	op := &models.OverlayOperation{
		BaseVideoID: video.ID,
		Filename:    outName,
		Kind:        models.OverlayKindWatermark,
	}
	detail := &models.Watermark{
		WatermarkPath: watermarkPath,
		XPosition:     x,
		YPosition:     y,
		Opacity:       opacity,
	}
	if !api.recordOverlay(c, op, detail, outPath) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Watermark applied",
		"output_file": outName,
		"overlay_id":  op.ID,
	})
}
