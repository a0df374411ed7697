package providers

import (
	"context"

	"github.com/mindreel/backend/internal/domain/entities"
)

// AuthorInfo is raw author metadata from the source platform.
type AuthorInfo struct {
	ExternalID string
	Name       string
	AvatarURL  string
}

// VideoRef is a lightweight listing entry for one video.
type VideoRef struct {
	ExternalID string
	Title      string
	URL        string
}

// VideoInfo is detailed metadata for one video.
type VideoInfo struct {
	CID         int64
	Title       string
	Description string
	Duration    int // seconds
}

// SourceAdapter yields raw video metadata, subtitle tracks and downloadable
// audio from a source platform. Adapter failures are logged by callers and
// treated as "stage produced nothing" — never fatal to an ingestion run.
type SourceAdapter interface {
	// GetAuthorInfo returns author metadata for a platform author id.
	GetAuthorInfo(ctx context.Context, id string) (*AuthorInfo, error)

	// GetVideos lists the author's most recent videos, up to limit.
	GetVideos(ctx context.Context, id string, limit int) ([]VideoRef, error)

	// GetVideoInfo returns detailed metadata for one video.
	GetVideoInfo(ctx context.Context, id string) (*VideoInfo, error)

	// GetSubtitle returns the native timestamped subtitle track, empty if none.
	GetSubtitle(ctx context.Context, id string, cid int64) ([]entities.SubtitleLine, error)

	// DownloadAudio downloads the video audio to a local file and returns its
	// path, or "" when no audio artifact is available.
	DownloadAudio(ctx context.Context, id string) (string, error)
}
