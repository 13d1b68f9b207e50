package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"videoforge/internal/media"
	"videoforge/pkg/models"
)

// defaultQualities is generated when a request names no labels.
var defaultQualities = []string{"1080p", "720p", "480p"}

type generateQualitiesRequest struct {
	Qualities []string `json:"qualities"`
}

// generateQualities schedules background generation of the requested quality
// labels and returns immediately. Labels that already exist or are being
// generated by a concurrent request are not generated again.
func (api *API) generateQualities(c *gin.Context) {
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req generateQualitiesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if len(req.Qualities) == 0 {
		req.Qualities = defaultQualities
	}

	for _, label := range req.Qualities {
		if !media.IsSupportedQuality(label) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported quality: %s", label)})
			return
		}
	}

	result, err := api.renditions.Request(c.Request.Context(), videoID, req.Qualities)
	if err != nil {
		api.renderError(c, err)
		return
	}

	if len(result.Accepted) == 0 {
		existing := make(map[string]struct{}, len(result.Existing))
		for _, label := range result.Existing {
			existing[label] = struct{}{}
		}
		allExist := true
		for _, label := range req.Qualities {
			if _, ok := existing[label]; !ok {
				allExist = false
				break
			}
		}

		msg := "All requested qualities already exist"
		if !allExist {
			msg = "Requested qualities are already being generated"
		}
		c.JSON(http.StatusOK, gin.H{
			"message":            msg,
			"existing_qualities": result.Existing,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":             fmt.Sprintf("Started generating %d quality versions", len(result.Accepted)),
		"video_id":            videoID,
		"requested_qualities": result.Accepted,
		"existing_qualities":  result.Existing,
	})
}

// listQualities returns the renditions of a video, largest file first.
func (api *API) listQualities(c *gin.Context) {
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}

	video, err := api.lookupVideo(c.Request.Context(), videoID)
	if err != nil {
		api.renderError(c, err)
		return
	}

	renditions, err := api.repo.ListRenditions(c.Request.Context(), videoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"video_id":            videoID,
		"original_filename":   video.Filename,
		"available_qualities": renditions,
	})
}

// getQuality returns one rendition by its quality label.
func (api *API) getQuality(c *gin.Context) {
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}
	quality := c.Param("quality")

	rendition, err := api.repo.RenditionByQuality(c.Request.Context(), videoID, quality)
	if err != nil {
		api.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, rendition)
}

// deleteQuality removes a rendition by its identifier. The path parameter
// shares its name with getQuality's label parameter; here it must be numeric.
func (api *API) deleteQuality(c *gin.Context) {
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}

	renditionID, err := strconv.ParseInt(c.Param("quality"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quality id"})
		return
	}

	rendition, err := api.repo.RenditionByID(c.Request.Context(), renditionID)
	if err != nil {
		api.renderError(c, err)
		return
	}
	if rendition.VideoID != videoID {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("rendition %d: not found", renditionID)})
		return
	}

	api.removeFile(filepath.Join(api.cfg.Media.QualitiesDir, rendition.Filename))

	if err := api.repo.DeleteRendition(c.Request.Context(), renditionID); err != nil {
		api.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Quality '%s' deleted successfully", rendition.Quality),
	})
}

// downloadQuality serves a rendition file named after the original upload.
// The label "best" resolves to the rendition with the largest file.
func (api *API) downloadQuality(c *gin.Context) {
	videoID, ok := parseID(c, "id")
	if !ok {
		return
	}
	quality := c.Param("quality")

	video, err := api.lookupVideo(c.Request.Context(), videoID)
	if err != nil {
		api.renderError(c, err)
		return
	}

	var rendition *models.Rendition
	if quality == "best" {
		rendition, err = api.repo.BestRendition(c.Request.Context(), videoID)
	} else {
		rendition, err = api.repo.RenditionByQuality(c.Request.Context(), videoID, quality)
	}
	if err != nil {
		api.renderError(c, err)
		return
	}

	path := filepath.Join(api.cfg.Media.QualitiesDir, rendition.Filename)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rendition file not found"})
		return
	}

	stem := strings.TrimSuffix(video.OriginalFilename(), filepath.Ext(video.OriginalFilename()))
	c.FileAttachment(path, fmt.Sprintf("%s_%s.mp4", stem, rendition.Quality))
}
