package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoforge/pkg/models"
)

// setupTestRepo connects to the database named by TEST_DATABASE_URL, runs the
// migrations and truncates all tables. Tests are skipped when the variable is
// not set.
func setupTestRepo(t *testing.T) (*Repository, context.Context) {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)

	db := &DB{Pool: pool}
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))

	_, err = pool.Exec(ctx, `TRUNCATE videos RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return NewRepository(db), ctx
}

func createTestVideo(t *testing.T, ctx context.Context, repo *Repository) *models.Video {
	t.Helper()

	video := &models.Video{Filename: "abc_source.mp4", Duration: 60, Size: 2048}
	require.NoError(t, repo.CreateVideo(ctx, video))
	require.NotZero(t, video.ID)

	return video
}

func TestRepository_RenditionOrdering(t *testing.T) {
	repo, ctx := setupTestRepo(t)
	video := createTestVideo(t, ctx, repo)

	// 720p and 480p share a filesize so the id tiebreak decides their order.
	for _, q := range []*models.Rendition{
		{VideoID: video.ID, Quality: "1080p", Filename: "1080p_a.mp4", Filesize: 5000},
		{VideoID: video.ID, Quality: "720p", Filename: "720p_b.mp4", Filesize: 3000},
		{VideoID: video.ID, Quality: "480p", Filename: "480p_c.mp4", Filesize: 3000},
	} {
		require.NoError(t, repo.CreateRendition(ctx, q))
	}

	renditions, err := repo.ListRenditions(ctx, video.ID)
	require.NoError(t, err)
	require.Len(t, renditions, 3)
	assert.Equal(t, "1080p", renditions[0].Quality)
	assert.Equal(t, "720p", renditions[1].Quality)
	assert.Equal(t, "480p", renditions[2].Quality)

	best, err := repo.BestRendition(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, "1080p", best.Quality)

	labels, err := repo.AvailableQualities(ctx, video.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1080p", "720p", "480p"}, labels)
}

func TestRepository_RenditionConflictIsSuccess(t *testing.T) {
	repo, ctx := setupTestRepo(t)
	video := createTestVideo(t, ctx, repo)

	first := &models.Rendition{VideoID: video.ID, Quality: "720p", Filename: "720p_first.mp4", Filesize: 3000}
	require.NoError(t, repo.CreateRendition(ctx, first))

	dup := &models.Rendition{VideoID: video.ID, Quality: "720p", Filename: "720p_second.mp4", Filesize: 9999}
	assert.NoError(t, repo.CreateRendition(ctx, dup))

	renditions, err := repo.ListRenditions(ctx, video.ID)
	require.NoError(t, err)
	require.Len(t, renditions, 1)
	assert.Equal(t, "720p_first.mp4", renditions[0].Filename)
}

func TestRepository_CreateRenditionsBatchWithDuplicate(t *testing.T) {
	repo, ctx := setupTestRepo(t)
	video := createTestVideo(t, ctx, repo)

	existing := &models.Rendition{VideoID: video.ID, Quality: "1080p", Filename: "1080p_a.mp4", Filesize: 5000}
	require.NoError(t, repo.CreateRendition(ctx, existing))

	batch := []*models.Rendition{
		{VideoID: video.ID, Quality: "1080p", Filename: "1080p_dup.mp4", Filesize: 5001},
		{VideoID: video.ID, Quality: "720p", Filename: "720p_b.mp4", Filesize: 3000},
	}
	require.NoError(t, repo.CreateRenditions(ctx, batch))

	labels, err := repo.AvailableQualities(ctx, video.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1080p", "720p"}, labels)

	kept, err := repo.RenditionByQuality(ctx, video.ID, "1080p")
	require.NoError(t, err)
	assert.Equal(t, "1080p_a.mp4", kept.Filename)
}

func TestRepository_DeleteVideoCascades(t *testing.T) {
	repo, ctx := setupTestRepo(t)
	video := createTestVideo(t, ctx, repo)

	rendition := &models.Rendition{VideoID: video.ID, Quality: "720p", Filename: "720p_a.mp4", Filesize: 3000}
	require.NoError(t, repo.CreateRendition(ctx, rendition))

	trim := &models.Trim{VideoID: video.ID, Filename: "trimmed_a.mp4", Duration: 5, Size: 100, StartTime: 0, EndTime: 5}
	require.NoError(t, repo.CreateTrim(ctx, trim))

	op := &models.OverlayOperation{BaseVideoID: video.ID, Filename: "overlay_text_a.mp4", Kind: models.OverlayKindText}
	detail := &models.TextOverlay{TextContent: "Hello", FontPath: "/fonts/NotoSans-Regular.ttf", FontSize: 30, FontColor: "white", Language: "en", EndTime: 5}
	require.NoError(t, repo.CreateOverlay(ctx, op, detail))

	require.NoError(t, repo.DeleteVideo(ctx, video.ID))

	_, err := repo.GetVideo(ctx, video.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	renditions, err := repo.ListRenditions(ctx, video.ID)
	require.NoError(t, err)
	assert.NotNil(t, renditions)
	assert.Empty(t, renditions)

	labels, err := repo.AvailableQualities(ctx, video.ID)
	require.NoError(t, err)
	assert.NotNil(t, labels)
	assert.Empty(t, labels)

	trims, err := repo.TrimCount(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, trims)

	overlays, err := repo.OverlayCount(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, overlays)

	_, _, err = repo.GetOverlay(ctx, op.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRepository_CreateOverlayKindMismatchWritesNothing(t *testing.T) {
	repo, ctx := setupTestRepo(t)
	video := createTestVideo(t, ctx, repo)

	op := &models.OverlayOperation{BaseVideoID: video.ID, Filename: "watermarked_a.mp4", Kind: models.OverlayKindWatermark}
	detail := &models.TextOverlay{TextContent: "wrong", EndTime: 5}

	err := repo.CreateOverlay(ctx, op, detail)
	assert.Error(t, err)

	count, err := repo.OverlayCount(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRepository_CreateOverlayRoundTrip(t *testing.T) {
	repo, ctx := setupTestRepo(t)
	video := createTestVideo(t, ctx, repo)

	op := &models.OverlayOperation{BaseVideoID: video.ID, Filename: "watermarked_a.mp4", Kind: models.OverlayKindWatermark, Duration: 60, Size: 4096}
	detail := &models.Watermark{WatermarkPath: "/uploads/abc_logo.png", XPosition: 10, YPosition: 20, Opacity: 0.7}
	require.NoError(t, repo.CreateOverlay(ctx, op, detail))
	require.NotZero(t, op.ID)

	gotOp, gotDetail, err := repo.GetOverlay(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OverlayKindWatermark, gotOp.Kind)

	wm, ok := gotDetail.(*models.Watermark)
	require.True(t, ok, fmt.Sprintf("unexpected detail type %T", gotDetail))
	assert.Equal(t, op.ID, wm.OperationID)
	assert.Equal(t, "/uploads/abc_logo.png", wm.WatermarkPath)
	assert.Equal(t, 0.7, wm.Opacity)
}

func TestRepository_BestRenditionEmpty(t *testing.T) {
	repo, ctx := setupTestRepo(t)
	video := createTestVideo(t, ctx, repo)

	_, err := repo.BestRendition(ctx, video.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}
