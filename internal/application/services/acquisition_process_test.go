package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mindreel/backend/internal/domain/entities"
	"github.com/mindreel/backend/internal/domain/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	info      *providers.VideoInfo
	subtitles []entities.SubtitleLine
	subErr    error
	audioPath string
}

func (f *fakeSource) GetAuthorInfo(ctx context.Context, id string) (*providers.AuthorInfo, error) {
	return &providers.AuthorInfo{ExternalID: id, Name: "作者"}, nil
}

func (f *fakeSource) GetVideos(ctx context.Context, id string, limit int) ([]providers.VideoRef, error) {
	return nil, nil
}

func (f *fakeSource) GetVideoInfo(ctx context.Context, id string) (*providers.VideoInfo, error) {
	return f.info, nil
}

func (f *fakeSource) GetSubtitle(ctx context.Context, id string, cid int64) ([]entities.SubtitleLine, error) {
	return f.subtitles, f.subErr
}

func (f *fakeSource) DownloadAudio(ctx context.Context, id string) (string, error) {
	return f.audioPath, nil
}

type fakeBlobs struct{}

func (f *fakeBlobs) Upload(ctx context.Context, localPath, objectName string) (string, error) {
	return objectName, nil
}

func (f *fakeBlobs) URLFor(ctx context.Context, objectName string, ttl time.Duration) (string, error) {
	return "file:///" + objectName, nil
}

type fakeEmbedder struct{}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) Dimension() int { return 3 }

type fakeLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocks() *fakeLocks { return &fakeLocks{held: map[string]bool{}} }

func (f *fakeLocks) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("not found")
}
func (f *fakeLocks) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	return nil
}
func (f *fakeLocks) Delete(ctx context.Context, key string) error { return nil }
func (f *fakeLocks) Exists(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func (f *fakeLocks) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeLocks) ReleaseLock(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, key)
	return nil
}

type fakeContents struct {
	updated *entities.ContentItem
	updates int
}

func (f *fakeContents) Create(ctx context.Context, item *entities.ContentItem) error { return nil }
func (f *fakeContents) Update(ctx context.Context, item *entities.ContentItem) error {
	f.updated = item
	f.updates++
	return nil
}
func (f *fakeContents) GetByID(ctx context.Context, id string) (*entities.ContentItem, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeContents) GetByExternalID(ctx context.Context, platform, externalID string) (*entities.ContentItem, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeContents) ListByAuthor(ctx context.Context, authorID string) ([]*entities.ContentItem, error) {
	return nil, nil
}

type fakeSegments struct {
	deleted []string
	created []*entities.Segment
}

func (f *fakeSegments) CreateBatch(ctx context.Context, segments []*entities.Segment) error {
	f.created = segments
	return nil
}
func (f *fakeSegments) DeleteByContent(ctx context.Context, contentID string) error {
	f.deleted = append(f.deleted, contentID)
	return nil
}
func (f *fakeSegments) ListByContent(ctx context.Context, contentID string) ([]*entities.Segment, error) {
	return nil, nil
}
func (f *fakeSegments) GetByIDs(ctx context.Context, ids []string) ([]*entities.Segment, error) {
	return nil, nil
}
func (f *fakeSegments) NearestByEmbedding(ctx context.Context, embedding []float32, authorID string, limit int) ([]*entities.Segment, error) {
	return nil, nil
}

func newProcessFixture(source *fakeSource) (*AcquisitionService, *fakeContents, *fakeSegments, *fakeLocks) {
	contents := &fakeContents{}
	segments := &fakeSegments{}
	locks := newFakeLocks()
	svc := NewAcquisitionService(
		source, nil, &fakeBlobs{}, &fakeEmbedder{}, locks,
		nil, contents, segments, nil, nil,
	)
	return svc, contents, segments, locks
}

func TestProcessContent_SubtitlesBecomeSegments(t *testing.T) {
	source := &fakeSource{
		info: &providers.VideoInfo{CID: 100, Title: "标题", Duration: 120},
		subtitles: []entities.SubtitleLine{
			{FromSec: 0, ToSec: 5, Text: "第一句"},
			{FromSec: 5, ToSec: 10, Text: "第二句"},
		},
	}
	svc, contents, segments, _ := newProcessFixture(source)
	content := entities.NewContentItem("a1", "bilibili", "BV1xx", "旧标题", "u")

	require.NoError(t, svc.ProcessContent(context.Background(), content))

	// old segments dropped before the rebuild
	assert.Equal(t, []string{content.ID}, segments.deleted)
	require.Len(t, segments.created, 1)
	assert.Equal(t, 0, segments.created[0].SegmentIndex)
	assert.Equal(t, int64(0), segments.created[0].StartTimeMS)
	assert.Equal(t, int64(10000), segments.created[0].EndTimeMS)
	assert.Equal(t, entities.QualityFull, content.ContentQuality)
	assert.Equal(t, 120, content.Duration)
	assert.Equal(t, "标题", content.Title)
	assert.Same(t, content, contents.updated)
}

func TestProcessContent_DescriptionFallback(t *testing.T) {
	source := &fakeSource{
		info:   &providers.VideoInfo{CID: 100, Duration: 600, Description: "视频简介文本"},
		subErr: errors.New("subtitle endpoint throttled"),
	}
	svc, _, segments, _ := newProcessFixture(source)
	content := entities.NewContentItem("a1", "bilibili", "BV1xx", "标题", "u")

	require.NoError(t, svc.ProcessContent(context.Background(), content))

	require.Len(t, segments.created, 1)
	assert.Equal(t, int64(0), segments.created[0].StartTimeMS)
	assert.Equal(t, int64(600000), segments.created[0].EndTimeMS)
	assert.Equal(t, "视频简介文本", segments.created[0].Text)
	assert.Equal(t, entities.QualitySummary, content.ContentQuality)
}

func TestProcessContent_NothingProducedIsMissing(t *testing.T) {
	source := &fakeSource{
		info: &providers.VideoInfo{CID: 100, Duration: 60},
	}
	svc, contents, segments, _ := newProcessFixture(source)
	content := entities.NewContentItem("a1", "bilibili", "BV1xx", "标题", "u")

	require.NoError(t, svc.ProcessContent(context.Background(), content))

	// the destructive delete still ran, leaving zero segments
	assert.Equal(t, []string{content.ID}, segments.deleted)
	assert.Empty(t, segments.created)
	assert.Equal(t, entities.QualityMissing, content.ContentQuality)
	assert.Same(t, content, contents.updated)
}

func TestProcessContent_SkipsWhenLockHeld(t *testing.T) {
	source := &fakeSource{
		info: &providers.VideoInfo{CID: 100, Duration: 60},
		subtitles: []entities.SubtitleLine{
			{FromSec: 0, ToSec: 5, Text: "第一句"},
		},
	}
	svc, _, segments, locks := newProcessFixture(source)
	content := entities.NewContentItem("a1", "bilibili", "BV1xx", "标题", "u")

	held, err := locks.AcquireLock(context.Background(), "lock:reprocess:"+content.ID, time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	require.NoError(t, svc.ProcessContent(context.Background(), content))

	assert.Empty(t, segments.deleted)
	assert.Empty(t, segments.created)
}

func TestProcessContent_ReleasesLock(t *testing.T) {
	source := &fakeSource{
		info: &providers.VideoInfo{CID: 100, Duration: 60},
		subtitles: []entities.SubtitleLine{
			{FromSec: 0, ToSec: 5, Text: "第一句"},
		},
	}
	svc, _, _, locks := newProcessFixture(source)
	content := entities.NewContentItem("a1", "bilibili", "BV1xx", "标题", "u")

	require.NoError(t, svc.ProcessContent(context.Background(), content))

	held, err := locks.AcquireLock(context.Background(), "lock:reprocess:"+content.ID, time.Minute)
	require.NoError(t, err)
	assert.True(t, held)
}
