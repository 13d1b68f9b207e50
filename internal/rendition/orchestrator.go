package rendition

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"

	"videoforge/internal/logging"
	"videoforge/internal/media"
	"videoforge/internal/metrics"
	"videoforge/pkg/models"
)

// ErrSourceMissing is returned when a video's source file is absent from the
// upload directory.
var ErrSourceMissing = errors.New("source file missing")

// Repository is the subset of the asset repository the orchestrator needs.
type Repository interface {
	GetVideo(ctx context.Context, id int64) (*models.Video, error)
	AvailableQualities(ctx context.Context, videoID int64) ([]string, error)
	CreateRenditions(ctx context.Context, renditions []*models.Rendition) error
}

// Transcoder generates one quality rendition of a source file.
type Transcoder interface {
	TranscodeQuality(ctx context.Context, inputPath, outputPath, quality string) (*media.QualityResult, error)
}

// Claimer provides atomic per-(video, quality) claims so two overlapping
// requests for the same missing label cannot both generate it.
type Claimer interface {
	ClaimQuality(ctx context.Context, videoID int64, quality string, ttl time.Duration) (bool, error)
	ReleaseQuality(ctx context.Context, videoID int64, quality string) error
}

// Options configures the orchestrator.
type Options struct {
	UploadDir     string
	QualitiesDir  string
	MaxConcurrent int
	ClaimTTL      time.Duration
}

// Result reports the outcome of a rendition request. Accepted holds the
// labels handed to the background batch; Existing the labels already present
// when the request arrived.
type Result struct {
	VideoID  int64
	Accepted []string
	Existing []string
}

// Orchestrator coordinates background generation of quality renditions. The
// request path never blocks on transcoding; label sets per video only grow.
type Orchestrator struct {
	repo       Repository
	transcoder Transcoder
	claims     Claimer
	log        *logging.Logger
	opts       Options

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewOrchestrator creates a rendition orchestrator.
func NewOrchestrator(repo Repository, transcoder Transcoder, claims Claimer, log *logging.Logger, opts Options) *Orchestrator {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.ClaimTTL <= 0 {
		opts.ClaimTTL = 30 * time.Minute
	}

	return &Orchestrator{
		repo:       repo,
		transcoder: transcoder,
		claims:     claims,
		log:        log,
		opts:       opts,
		sem:        make(chan struct{}, opts.MaxConcurrent),
	}
}

// Request schedules generation of the requested quality labels that do not
// exist yet and returns without waiting for transcoding. Labels claimed by a
// concurrent request are skipped; the claim plus the unique constraint on
// (video_id, quality) keep the pair unique under overlapping requests.
func (o *Orchestrator) Request(ctx context.Context, videoID int64, labels []string) (*Result, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "rendition.request")
	defer span.Finish()
	span.SetTag("video_id", videoID)

	video, err := o.repo.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	srcPath := filepath.Join(o.opts.UploadDir, video.Filename)
	if _, err := os.Stat(srcPath); err != nil {
		return nil, fmt.Errorf("%s: %w", srcPath, ErrSourceMissing)
	}

	existing, err := o.repo.AvailableQualities(ctx, videoID)
	if err != nil {
		return nil, err
	}

	missing := difference(labels, existing)
	result := &Result{VideoID: videoID, Existing: existing}
	if len(missing) == 0 {
		return result, nil
	}

	for _, label := range missing {
		ok, err := o.claims.ClaimQuality(ctx, videoID, label, o.opts.ClaimTTL)
		if err != nil {
			// Hand back the labels claimed so far instead of leaving them
			// held until the TTL expires.
			for _, claimed := range result.Accepted {
				o.releaseClaim(ctx, videoID, claimed)
			}
			return nil, fmt.Errorf("failed to claim %s: %w", label, err)
		}
		if !ok {
			// Another request is already generating this label.
			continue
		}
		result.Accepted = append(result.Accepted, label)
		metrics.RenditionsRequestedTotal.WithLabelValues(label).Inc()
	}

	if len(result.Accepted) == 0 {
		return result, nil
	}

	o.wg.Add(1)
	go o.process(video, srcPath, result.Accepted)

	return result, nil
}

// Close waits for all in-flight batches to finish. New requests should not
// be submitted after Close.
func (o *Orchestrator) Close() {
	o.wg.Wait()
}

// process generates the accepted labels one by one. A label's failure is
// logged and skipped; successes are persisted as one batch afterwards. The
// batch runs detached from the request that triggered it.
func (o *Orchestrator) process(video *models.Video, srcPath string, labels []string) {
	defer o.wg.Done()

	o.sem <- struct{}{}
	defer func() { <-o.sem }()

	metrics.RenditionBatchesInFlight.Inc()
	defer metrics.RenditionBatchesInFlight.Dec()

	ctx := context.Background()
	span, ctx := opentracing.StartSpanFromContext(ctx, "rendition.batch")
	defer span.Finish()
	span.SetTag("video_id", video.ID)

	log := o.log.WithVideoID(video.ID)

	var generated []*models.Rendition
	for _, label := range labels {
		outName := fmt.Sprintf("%s_%s.mp4", label, newFileToken())
		outPath := filepath.Join(o.opts.QualitiesDir, outName)

		res, err := o.transcoder.TranscodeQuality(ctx, srcPath, outPath, label)
		if err != nil {
			log.WithQuality(label).WithError(err).Warn("rendition generation failed")
			metrics.RenditionFailuresTotal.WithLabelValues(label).Inc()
			o.releaseClaim(ctx, video.ID, label)
			continue
		}

		generated = append(generated, &models.Rendition{
			VideoID:    video.ID,
			Quality:    label,
			Filename:   outName,
			Bitrate:    res.Bitrate,
			Resolution: res.Resolution,
			Filesize:   res.Filesize,
		})
		metrics.RenditionsGeneratedTotal.WithLabelValues(label).Inc()
	}

	if len(generated) > 0 {
		if err := o.repo.CreateRenditions(ctx, generated); err != nil {
			log.WithError(err).Error("failed to persist renditions")
		} else {
			log.Infof("generated %d quality versions", len(generated))
		}
	}

	// Claims for persisted labels are released only after the insert so a
	// concurrent request either sees the claim or the row.
	for _, q := range generated {
		o.releaseClaim(ctx, video.ID, q.Quality)
	}
}

func (o *Orchestrator) releaseClaim(ctx context.Context, videoID int64, label string) {
	if err := o.claims.ReleaseQuality(ctx, videoID, label); err != nil {
		o.log.WithVideoID(videoID).WithQuality(label).WithError(err).Warn("failed to release claim")
	}
}

// difference returns the labels in requested that are not in existing,
// de-duplicated, preserving request order.
func difference(requested, existing []string) []string {
	have := make(map[string]struct{}, len(existing))
	for _, label := range existing {
		have[label] = struct{}{}
	}

	var missing []string
	for _, label := range requested {
		if _, ok := have[label]; ok {
			continue
		}
		have[label] = struct{}{}
		missing = append(missing, label)
	}

	return missing
}

// newFileToken returns a random token for output filenames.
func newFileToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
