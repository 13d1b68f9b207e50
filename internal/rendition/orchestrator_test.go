package rendition

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"videoforge/internal/logging"
	"videoforge/internal/media"
	"videoforge/pkg/models"
)

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	mu       sync.Mutex
	videos   map[int64]*models.Video
	existing map[int64][]string
	created  []*models.Rendition

	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		videos:   make(map[int64]*models.Video),
		existing: make(map[int64][]string),
	}
}

func (r *fakeRepo) GetVideo(ctx context.Context, id int64) (*models.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	video, ok := r.videos[id]
	if !ok {
		return nil, fmt.Errorf("video %d: not found", id)
	}
	return video, nil
}

func (r *fakeRepo) AvailableQualities(ctx context.Context, videoID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.existing[videoID]...), nil
}

func (r *fakeRepo) CreateRenditions(ctx context.Context, renditions []*models.Rendition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, q := range renditions {
		r.created = append(r.created, q)
		r.existing[q.VideoID] = append(r.existing[q.VideoID], q.Quality)
	}
	return nil
}

func (r *fakeRepo) createdLabels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var labels []string
	for _, q := range r.created {
		labels = append(labels, q.Quality)
	}
	return labels
}

// fakeTranscoder counts invocations per label and can fail selected labels.
type fakeTranscoder struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func newFakeTranscoder() *fakeTranscoder {
	return &fakeTranscoder{calls: make(map[string]int), fail: make(map[string]bool)}
}

func (f *fakeTranscoder) TranscodeQuality(ctx context.Context, inputPath, outputPath, quality string) (*media.QualityResult, error) {
	f.mu.Lock()
	f.calls[quality]++
	f.mu.Unlock()

	if f.fail[quality] {
		return nil, errors.New("encode failed")
	}
	return &media.QualityResult{Resolution: "1280x720", Bitrate: "2500k", Filesize: 1024}, nil
}

func (f *fakeTranscoder) callCount(quality string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[quality]
}

// fakeClaimer implements Claimer with an in-memory set. Labels in failOn
// error out instead of claiming.
type fakeClaimer struct {
	mu     sync.Mutex
	claims map[string]bool
	failOn map[string]error
}

func newFakeClaimer() *fakeClaimer {
	return &fakeClaimer{claims: make(map[string]bool), failOn: make(map[string]error)}
}

func (f *fakeClaimer) key(videoID int64, quality string) string {
	return fmt.Sprintf("%d:%s", videoID, quality)
}

func (f *fakeClaimer) ClaimQuality(ctx context.Context, videoID int64, quality string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[quality]; err != nil {
		return false, err
	}
	k := f.key(videoID, quality)
	if f.claims[k] {
		return false, nil
	}
	f.claims[k] = true
	return true, nil
}

func (f *fakeClaimer) ReleaseQuality(ctx context.Context, videoID int64, quality string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claims, f.key(videoID, quality))
	return nil
}

func (f *fakeClaimer) held(videoID int64, quality string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claims[f.key(videoID, quality)]
}

func setupOrchestrator(t *testing.T) (*Orchestrator, *fakeRepo, *fakeTranscoder, *fakeClaimer) {
	t.Helper()

	uploadDir := t.TempDir()
	repo := newFakeRepo()
	repo.videos[1] = &models.Video{ID: 1, Filename: "abc_source.mp4", Duration: 60, Size: 2048}

	if err := os.WriteFile(filepath.Join(uploadDir, "abc_source.mp4"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	transcoder := newFakeTranscoder()
	claimer := newFakeClaimer()

	o := NewOrchestrator(repo, transcoder, claimer, logging.NewDefault(), Options{
		UploadDir:     uploadDir,
		QualitiesDir:  t.TempDir(),
		MaxConcurrent: 2,
		ClaimTTL:      time.Minute,
	})

	return o, repo, transcoder, claimer
}

func TestRequest_GeneratesMissingLabels(t *testing.T) {
	o, repo, transcoder, claimer := setupOrchestrator(t)

	result, err := o.Request(context.Background(), 1, []string{"1080p", "720p"})
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"1080p", "720p"}, result.Accepted)
	assert.Empty(t, result.Existing)

	o.Close()

	assert.ElementsMatch(t, []string{"1080p", "720p"}, repo.createdLabels())
	assert.Equal(t, 1, transcoder.callCount("1080p"))
	assert.Equal(t, 1, transcoder.callCount("720p"))
	assert.False(t, claimer.held(1, "1080p"))
	assert.False(t, claimer.held(1, "720p"))
}

func TestRequest_SkipsExistingLabels(t *testing.T) {
	o, repo, transcoder, _ := setupOrchestrator(t)
	repo.existing[1] = []string{"1080p"}

	result, err := o.Request(context.Background(), 1, []string{"1080p", "720p", "480p"})
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"720p", "480p"}, result.Accepted)
	assert.Equal(t, []string{"1080p"}, result.Existing)

	o.Close()

	assert.Equal(t, 0, transcoder.callCount("1080p"))
}

func TestRequest_AllLabelsExist(t *testing.T) {
	o, repo, transcoder, _ := setupOrchestrator(t)
	repo.existing[1] = []string{"1080p", "720p", "480p"}

	result, err := o.Request(context.Background(), 1, []string{"1080p", "720p", "480p"})
	assert.NoError(t, err)
	assert.Empty(t, result.Accepted)

	o.Close()

	assert.Empty(t, repo.createdLabels())
	assert.Equal(t, 0, transcoder.callCount("720p"))
}

func TestRequest_ConcurrentRequestsGenerateOnce(t *testing.T) {
	o, repo, transcoder, _ := setupOrchestrator(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := o.Request(context.Background(), 1, []string{"720p"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	o.Close()

	assert.Equal(t, 1, transcoder.callCount("720p"))
	assert.Equal(t, []string{"720p"}, repo.createdLabels())
}

func TestRequest_PartialFailureKeepsSuccesses(t *testing.T) {
	o, repo, transcoder, claimer := setupOrchestrator(t)
	transcoder.fail["1080p"] = true

	result, err := o.Request(context.Background(), 1, []string{"1080p", "720p"})
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"1080p", "720p"}, result.Accepted)

	o.Close()

	assert.Equal(t, []string{"720p"}, repo.createdLabels())
	// The failed label's claim is released so a retry can pick it up.
	assert.False(t, claimer.held(1, "1080p"))
}

func TestRequest_DuplicateLabelsDeduplicated(t *testing.T) {
	o, repo, transcoder, _ := setupOrchestrator(t)

	result, err := o.Request(context.Background(), 1, []string{"720p", "720p", "720p"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"720p"}, result.Accepted)

	o.Close()

	assert.Equal(t, 1, transcoder.callCount("720p"))
	assert.Equal(t, []string{"720p"}, repo.createdLabels())
}

func TestRequest_ClaimErrorReleasesEarlierClaims(t *testing.T) {
	o, repo, transcoder, claimer := setupOrchestrator(t)
	claimer.failOn["720p"] = errors.New("redis down")

	_, err := o.Request(context.Background(), 1, []string{"1080p", "720p"})
	assert.Error(t, err)

	o.Close()

	// The 1080p claim taken before the failure must not stay held.
	assert.False(t, claimer.held(1, "1080p"))
	assert.Equal(t, 0, transcoder.callCount("1080p"))
	assert.Empty(t, repo.createdLabels())
}

func TestRequest_VideoNotFound(t *testing.T) {
	o, _, _, _ := setupOrchestrator(t)

	_, err := o.Request(context.Background(), 99, []string{"720p"})
	assert.Error(t, err)
}

func TestRequest_SourceFileMissing(t *testing.T) {
	o, repo, _, _ := setupOrchestrator(t)
	repo.videos[2] = &models.Video{ID: 2, Filename: "gone.mp4"}

	_, err := o.Request(context.Background(), 2, []string{"720p"})
	assert.True(t, errors.Is(err, ErrSourceMissing))
}

func TestDifference(t *testing.T) {
	assert.Equal(t, []string{"720p"}, difference([]string{"1080p", "720p"}, []string{"1080p"}))
	assert.Nil(t, difference([]string{"1080p"}, []string{"1080p"}))
	assert.Equal(t, []string{"480p", "720p"}, difference([]string{"480p", "720p", "480p"}, nil))
}
