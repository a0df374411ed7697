package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mindreel/backend/internal/domain/entities"
	"github.com/mindreel/backend/internal/domain/providers"
	"github.com/mindreel/backend/internal/domain/repositories"
	"github.com/mindreel/backend/internal/infrastructure/observability"
	apperrors "github.com/mindreel/backend/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// chunkTargetChars is the accumulated character threshold per segment.
	chunkTargetChars = 300

	// reprocessLockTTL bounds how long one reprocess run may hold an item.
	reprocessLockTTL = 10 * time.Minute

	// asrFallbackDurationSec is assumed when the recognizer returns plain
	// text and the item's duration is unknown.
	asrFallbackDurationSec = 60
)

const sourcePlatform = "bilibili"

// AcquisitionService drives author ingestion and the transcript acquisition
// cascade: native subtitles, then speech recognition, then description text.
type AcquisitionService struct {
	source     providers.SourceAdapter
	recognizer providers.SpeechRecognizer
	blobs      providers.BlobStore
	embedder   providers.EmbeddingProvider
	cache      providers.CacheProvider
	authors    repositories.AuthorRepository
	contents   repositories.ContentRepository
	segments   repositories.SegmentRepository
	search     repositories.SegmentSearchRepository
	metrics    *observability.Metrics
	httpClient *http.Client
}

// NewAcquisitionService creates the acquisition service. recognizer, search
// and metrics may be nil; the matching stages degrade silently.
func NewAcquisitionService(
	source providers.SourceAdapter,
	recognizer providers.SpeechRecognizer,
	blobs providers.BlobStore,
	embedder providers.EmbeddingProvider,
	cache providers.CacheProvider,
	authors repositories.AuthorRepository,
	contents repositories.ContentRepository,
	segments repositories.SegmentRepository,
	search repositories.SegmentSearchRepository,
	metrics *observability.Metrics,
) *AcquisitionService {
	return &AcquisitionService{
		source:     source,
		recognizer: recognizer,
		blobs:      blobs,
		embedder:   embedder,
		cache:      cache,
		authors:    authors,
		contents:   contents,
		segments:   segments,
		search:     search,
		metrics:    metrics,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// IngestAuthor discovers an author and their recent videos and processes each
// one. Per-item failures are logged and the run continues.
func (s *AcquisitionService) IngestAuthor(ctx context.Context, externalID string, limit int) error {
	info, err := s.source.GetAuthorInfo(ctx, externalID)
	if err != nil {
		return apperrors.NewExternalError("failed to fetch author info", err)
	}

	author, err := s.upsertAuthor(ctx, info)
	if err != nil {
		return err
	}

	videos, err := s.source.GetVideos(ctx, info.ExternalID, limit)
	if err != nil {
		return apperrors.NewExternalError("failed to list author videos", err)
	}

	for _, video := range videos {
		if err := s.ingestVideo(ctx, author, video); err != nil {
			log.Error().Err(err).Str("bvid", video.ExternalID).Msg("failed to ingest video")
		}
	}

	return nil
}

func (s *AcquisitionService) upsertAuthor(ctx context.Context, info *providers.AuthorInfo) (*entities.Author, error) {
	author, err := s.authors.GetByExternalID(ctx, sourcePlatform, info.ExternalID)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	storedAvatar := ""
	if info.AvatarURL != "" && (author == nil || author.AvatarURL == "" || author.AvatarURL == info.AvatarURL) {
		storedAvatar = s.storeAuthorAvatar(ctx, info.AvatarURL, info.ExternalID)
	}

	if author == nil {
		author = entities.NewAuthor(sourcePlatform, info.ExternalID, info.Name)
		author.HomepageURL = "https://space.bilibili.com/" + info.ExternalID
		author.AvatarURL = storedAvatar
		if author.AvatarURL == "" {
			author.AvatarURL = info.AvatarURL
		}
		if err := s.authors.Create(ctx, author); err != nil {
			return nil, err
		}
		log.Info().Str("author", author.Name).Msg("created author")
		return author, nil
	}

	if storedAvatar != "" {
		author.AvatarURL = storedAvatar
	}
	if author.Name == "" && info.Name != "" {
		author.Name = info.Name
	}
	if err := s.authors.Update(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}

// storeAuthorAvatar downloads the avatar into the blob store and returns its
// serving URL. Failures are logged and yield "".
func (s *AcquisitionService) storeAuthorAvatar(ctx context.Context, avatarURL, externalID string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, avatarURL, nil)
	if err != nil {
		return ""
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", avatarURL).Msg("failed to download avatar")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("url", avatarURL).Msg("avatar download rejected")
		return ""
	}

	ext := avatarExt(resp.Header.Get("Content-Type"), avatarURL)
	tmp, err := os.CreateTemp("", "avatar-*"+ext)
	if err != nil {
		return ""
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	_, err = io.Copy(tmp, resp.Body)
	tmp.Close()
	if err != nil {
		log.Warn().Err(err).Msg("failed to write avatar file")
		return ""
	}

	objectName := fmt.Sprintf("avatars/%s_%s%s", externalID, uuid.NewString(), ext)
	if _, err := s.blobs.Upload(ctx, tmpPath, objectName); err != nil {
		log.Warn().Err(err).Str("object", objectName).Msg("failed to persist avatar")
		return ""
	}

	url, err := s.blobs.URLFor(ctx, objectName, 7*24*time.Hour)
	if err != nil {
		return ""
	}
	return url
}

func avatarExt(contentType, avatarURL string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
		return ".jpg"
	}
	if ext := path.Ext(strings.Split(avatarURL, "?")[0]); ext != "" {
		return ext
	}
	return ".jpg"
}

func (s *AcquisitionService) ingestVideo(ctx context.Context, author *entities.Author, video providers.VideoRef) error {
	content, err := s.contents.GetByExternalID(ctx, sourcePlatform, video.ExternalID)
	if err != nil && !apperrors.IsNotFound(err) {
		return err
	}

	if content == nil {
		content = entities.NewContentItem(author.ID, sourcePlatform, video.ExternalID, video.Title, video.URL)
		applyAuthorType(content, author)
		if err := s.contents.Create(ctx, content); err != nil {
			return err
		}
		log.Info().Str("title", content.Title).Msg("created content item")
		return s.ProcessContent(ctx, content)
	}

	// Retry items stuck on fallback quality; skip items with a full transcript.
	if content.ContentQuality == entities.QualitySummary || content.ContentQuality == entities.QualityMissing {
		log.Info().Str("bvid", video.ExternalID).Str("quality", content.ContentQuality).
			Msg("content exists without full transcript, reprocessing")
		return s.ProcessContent(ctx, content)
	}

	log.Info().Str("bvid", video.ExternalID).Str("quality", content.ContentQuality).
		Msg("content already processed, skipping")
	return nil
}

// applyAuthorType enforces author-type inheritance on write.
func applyAuthorType(content *entities.ContentItem, author *entities.Author) {
	if author != nil && author.AuthorType != "" {
		content.ContentType = author.AuthorType
		content.ContentTypeSource = entities.TypeSourceAuthorInherit
	}
}

// Reprocess reloads a content item and rebuilds its segments.
func (s *AcquisitionService) Reprocess(ctx context.Context, contentID string) error {
	content, err := s.contents.GetByID(ctx, contentID)
	if err != nil {
		return err
	}
	return s.ProcessContent(ctx, content)
}

// ProcessContent runs the transcript acquisition cascade for one item and
// rebuilds its segments. Existing segments are destroyed first; a crash
// mid-run can leave zero segments until retried. A per-item lock guards
// against concurrent reprocessing from separate triggers.
func (s *AcquisitionService) ProcessContent(ctx context.Context, content *entities.ContentItem) error {
	lockKey := "lock:reprocess:" + content.ID
	acquired, err := s.cache.AcquireLock(ctx, lockKey, reprocessLockTTL)
	if err != nil {
		log.Warn().Err(err).Str("content", content.ID).Msg("lock acquisition failed, proceeding unguarded")
	} else if !acquired {
		log.Info().Str("content", content.ID).Msg("reprocess already in progress, skipping")
		return nil
	} else {
		defer func() {
			if err := s.cache.ReleaseLock(context.WithoutCancel(ctx), lockKey); err != nil {
				log.Warn().Err(err).Str("content", content.ID).Msg("failed to release reprocess lock")
			}
		}()
	}

	log.Info().Str("title", content.Title).Msg("processing content")

	info, err := s.source.GetVideoInfo(ctx, content.ExternalID)
	if err != nil {
		return apperrors.NewExternalError("failed to fetch video info", err)
	}
	if info.Duration > 0 {
		content.Duration = info.Duration
	}
	if info.Title != "" && info.Title != content.Title {
		content.Title = info.Title
	}

	lines := s.acquireTranscript(ctx, content, info)

	// Destructive rebuild: drop old segments before writing the new set.
	if err := s.segments.DeleteByContent(ctx, content.ID); err != nil {
		return err
	}
	s.deleteSearchIndex(ctx, content.ID)

	if len(lines) == 0 {
		log.Warn().Str("bvid", content.ExternalID).Msg("no transcript from any stage")
		content.ContentQuality = entities.QualityMissing
		return s.contents.Update(ctx, content)
	}

	content.ContentQuality = classifyQuality(lines)

	chunks := chunkSubtitles(lines, chunkTargetChars)
	segments := make([]*entities.Segment, 0, len(chunks))
	for i, chunk := range chunks {
		vector, err := s.embedder.Embed(ctx, chunk.text)
		if err != nil {
			return apperrors.NewExternalError("failed to embed segment", err)
		}
		segments = append(segments, entities.NewSegment(
			content.ID, i,
			int64(chunk.fromSec*1000), int64(chunk.toSec*1000),
			chunk.text, vector,
		))
	}

	if err := s.segments.CreateBatch(ctx, segments); err != nil {
		return err
	}
	if err := s.contents.Update(ctx, content); err != nil {
		return err
	}
	s.indexSegments(ctx, content.AuthorID, segments)

	if s.metrics != nil {
		s.metrics.ContentIngested.Add(ctx, 1)
		s.metrics.SegmentsIndexed.Add(ctx, int64(len(segments)))
	}

	log.Info().Int("segments", len(segments)).Str("quality", content.ContentQuality).
		Str("title", content.Title).Msg("saved segments")
	return nil
}

// transcriptStage is one step of the acquisition cascade. A stage returning
// no lines, with or without an error, falls through to the next stage.
type transcriptStage struct {
	name  string
	fetch func(ctx context.Context, content *entities.ContentItem, info *providers.VideoInfo) ([]entities.SubtitleLine, error)
}

func (s *AcquisitionService) acquireTranscript(ctx context.Context, content *entities.ContentItem, info *providers.VideoInfo) []entities.SubtitleLine {
	stages := []transcriptStage{
		{name: "native_subtitles", fetch: s.fetchNativeSubtitles},
		{name: "speech_recognition", fetch: s.fetchSpeechRecognition},
		{name: "description_text", fetch: s.fetchDescription},
	}

	for _, stage := range stages {
		lines, err := stage.fetch(ctx, content, info)
		ok := err == nil && len(lines) > 0
		if s.metrics != nil {
			observability.RecordAcquisitionStage(ctx, s.metrics, stage.name, ok)
		}
		if err != nil {
			log.Warn().Err(err).Str("stage", stage.name).Str("bvid", content.ExternalID).
				Msg("acquisition stage failed, falling through")
			continue
		}
		if len(lines) > 0 {
			return lines
		}
	}
	return nil
}

func (s *AcquisitionService) fetchNativeSubtitles(ctx context.Context, content *entities.ContentItem, info *providers.VideoInfo) ([]entities.SubtitleLine, error) {
	return s.source.GetSubtitle(ctx, content.ExternalID, info.CID)
}

func (s *AcquisitionService) fetchSpeechRecognition(ctx context.Context, content *entities.ContentItem, info *providers.VideoInfo) ([]entities.SubtitleLine, error) {
	if s.recognizer == nil {
		return nil, nil
	}

	audioPath, err := s.source.DownloadAudio(ctx, content.ExternalID)
	if err != nil {
		return nil, err
	}
	if audioPath == "" {
		return nil, nil
	}
	defer func() {
		if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", audioPath).Msg("failed to remove local audio file")
		}
	}()

	// Persist the audio before recognition so the artifact survives even if
	// transcription fails.
	objectName := fmt.Sprintf("audio/%s%s", content.ExternalID, path.Ext(audioPath))
	if _, err := s.blobs.Upload(ctx, audioPath, objectName); err != nil {
		log.Warn().Err(err).Str("object", objectName).Msg("failed to persist audio artifact")
	}

	transcription, err := s.recognizer.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	if len(transcription.Segments) > 0 {
		lines := make([]entities.SubtitleLine, 0, len(transcription.Segments))
		for _, seg := range transcription.Segments {
			lines = append(lines, entities.SubtitleLine{
				FromSec: seg.StartSec,
				ToSec:   seg.EndSec,
				Text:    seg.Text,
			})
		}
		return lines, nil
	}

	if transcription.Text != "" {
		duration := info.Duration
		if duration <= 0 {
			duration = asrFallbackDurationSec
		}
		return []entities.SubtitleLine{{
			FromSec: 0,
			ToSec:   float64(duration),
			Text:    transcription.Text,
		}}, nil
	}

	return nil, nil
}

func (s *AcquisitionService) fetchDescription(ctx context.Context, content *entities.ContentItem, info *providers.VideoInfo) ([]entities.SubtitleLine, error) {
	if strings.TrimSpace(info.Description) == "" {
		return nil, nil
	}
	return []entities.SubtitleLine{{
		FromSec:         0,
		ToSec:           float64(info.Duration),
		Text:            info.Description,
		FromDescription: true,
	}}, nil
}

// classifyQuality tags the transcript: summary when the only line is the
// description fallback, full otherwise. The empty case is handled earlier as
// missing.
func classifyQuality(lines []entities.SubtitleLine) string {
	if len(lines) == 1 && lines[0].FromDescription {
		return entities.QualitySummary
	}
	return entities.QualityFull
}

type chunk struct {
	fromSec float64
	toSec   float64
	text    string
}

// chunkSubtitles merges lines in order until the accumulated text reaches
// targetChars. The final partial chunk is always emitted.
func chunkSubtitles(lines []entities.SubtitleLine, targetChars int) []chunk {
	var chunks []chunk
	var current chunk

	for _, line := range lines {
		if current.text == "" {
			current.fromSec = line.FromSec
			current.text = line.Text
		} else {
			current.text += " " + line.Text
		}
		current.toSec = line.ToSec

		if utf8.RuneCountInString(current.text) >= targetChars {
			chunks = append(chunks, current)
			current = chunk{}
		}
	}

	if current.text != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

func (s *AcquisitionService) indexSegments(ctx context.Context, authorID string, segments []*entities.Segment) {
	if s.search == nil {
		return
	}
	for _, seg := range segments {
		if err := s.search.IndexSegment(ctx, seg, authorID); err != nil {
			log.Warn().Err(err).Str("segment", seg.ID).Msg("failed to index segment for keyword search")
			return
		}
	}
}

func (s *AcquisitionService) deleteSearchIndex(ctx context.Context, contentID string) {
	if s.search == nil {
		return
	}
	if err := s.search.DeleteByContent(ctx, contentID); err != nil {
		log.Warn().Err(err).Str("content", contentID).Msg("failed to clear keyword index")
	}
}
