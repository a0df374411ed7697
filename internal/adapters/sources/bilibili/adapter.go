package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mindreel/backend/internal/domain/entities"
	"github.com/mindreel/backend/internal/domain/providers"
	"github.com/mindreel/backend/pkg/config"
	"github.com/mindreel/backend/pkg/retry"
	"github.com/rs/zerolog/log"
)

// Adapter implements the SourceAdapter interface against the bilibili web API.
// Requests carry browser-like headers and are retried with backoff to survive
// anti-throttling responses.
type Adapter struct {
	baseURL    string
	userAgent  string
	audioDir   string
	httpClient *http.Client
}

// Ensure Adapter implements SourceAdapter
var _ providers.SourceAdapter = (*Adapter)(nil)

// NewAdapter creates a bilibili source adapter
func NewAdapter(cfg *config.SourceConfig) *Adapter {
	return &Adapter{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		audioDir:  cfg.AudioDir,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *Adapter) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	retryConfig := retry.DefaultConfig()
	return retry.Do(ctx, retryConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", a.userAgent)
		req.Header.Set("Referer", "https://www.bilibili.com/")

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("request failed with status %d", resp.StatusCode)
		}

		var envelope apiEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return err
		}
		if envelope.Code != 0 {
			return fmt.Errorf("api error %d: %s", envelope.Code, envelope.Message)
		}

		return json.Unmarshal(envelope.Data, out)
	})
}

// GetAuthorInfo returns author metadata for a platform author id
func (a *Adapter) GetAuthorInfo(ctx context.Context, id string) (*providers.AuthorInfo, error) {
	endpoint := fmt.Sprintf("%s/x/web-interface/card?mid=%s", a.baseURL, url.QueryEscape(id))

	var data struct {
		Card struct {
			Mid  string `json:"mid"`
			Name string `json:"name"`
			Face string `json:"face"`
		} `json:"card"`
	}
	if err := a.getJSON(ctx, endpoint, &data); err != nil {
		return nil, fmt.Errorf("failed to get author info: %w", err)
	}

	return &providers.AuthorInfo{
		ExternalID: data.Card.Mid,
		Name:       data.Card.Name,
		AvatarURL:  data.Card.Face,
	}, nil
}

// GetVideos lists the author's most recent videos, up to limit
func (a *Adapter) GetVideos(ctx context.Context, id string, limit int) ([]providers.VideoRef, error) {
	if limit <= 0 {
		limit = 10
	}

	var videos []providers.VideoRef
	page := 1
	pageSize := 30

	for len(videos) < limit {
		endpoint := fmt.Sprintf("%s/x/space/arc/search?mid=%s&pn=%d&ps=%d",
			a.baseURL, url.QueryEscape(id), page, pageSize)

		var data struct {
			List struct {
				Vlist []struct {
					Bvid  string `json:"bvid"`
					Title string `json:"title"`
				} `json:"vlist"`
			} `json:"list"`
		}
		if err := a.getJSON(ctx, endpoint, &data); err != nil {
			return nil, fmt.Errorf("failed to list videos: %w", err)
		}

		if len(data.List.Vlist) == 0 {
			break
		}

		for _, v := range data.List.Vlist {
			videos = append(videos, providers.VideoRef{
				ExternalID: v.Bvid,
				Title:      v.Title,
				URL:        "https://www.bilibili.com/video/" + v.Bvid,
			})
			if len(videos) >= limit {
				return videos, nil
			}
		}
		page++
	}

	return videos, nil
}

// GetVideoInfo returns detailed metadata for one video
func (a *Adapter) GetVideoInfo(ctx context.Context, id string) (*providers.VideoInfo, error) {
	endpoint := fmt.Sprintf("%s/x/web-interface/view?bvid=%s", a.baseURL, url.QueryEscape(id))

	var data struct {
		Cid      int64  `json:"cid"`
		Title    string `json:"title"`
		Desc     string `json:"desc"`
		Duration int    `json:"duration"`
	}
	if err := a.getJSON(ctx, endpoint, &data); err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}

	return &providers.VideoInfo{
		CID:         data.Cid,
		Title:       data.Title,
		Description: data.Desc,
		Duration:    data.Duration,
	}, nil
}

// GetSubtitle returns the native timestamped subtitle track, empty if none
func (a *Adapter) GetSubtitle(ctx context.Context, id string, cid int64) ([]entities.SubtitleLine, error) {
	endpoint := fmt.Sprintf("%s/x/player/wbi/v2?bvid=%s&cid=%d", a.baseURL, url.QueryEscape(id), cid)

	var data struct {
		Subtitle struct {
			Subtitles []struct {
				Lan         string `json:"lan"`
				SubtitleURL string `json:"subtitle_url"`
			} `json:"subtitles"`
		} `json:"subtitle"`
	}
	if err := a.getJSON(ctx, endpoint, &data); err != nil {
		return nil, fmt.Errorf("failed to get subtitle info: %w", err)
	}

	tracks := data.Subtitle.Subtitles
	if len(tracks) == 0 {
		return nil, nil
	}

	// Prefer the zh-CN track, else take the first one
	target := tracks[0]
	for _, t := range tracks {
		if t.Lan == "zh-CN" {
			target = t
			break
		}
	}

	subURL := target.SubtitleURL
	if strings.HasPrefix(subURL, "//") {
		subURL = "https:" + subURL
	}
	if subURL == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, subURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Referer", "https://www.bilibili.com/")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download subtitle: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Body []entities.SubtitleLine `json:"body"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse subtitle body: %w", err)
	}

	return body.Body, nil
}

// DownloadAudio downloads the video audio stream to a local file and returns
// its path, or "" when no audio stream is available
func (a *Adapter) DownloadAudio(ctx context.Context, id string) (string, error) {
	info, err := a.GetVideoInfo(ctx, id)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/x/player/playurl?bvid=%s&cid=%d&fnval=16",
		a.baseURL, url.QueryEscape(id), info.CID)

	var data struct {
		Dash struct {
			Audio []struct {
				BaseURL string `json:"baseUrl"`
			} `json:"audio"`
		} `json:"dash"`
	}
	if err := a.getJSON(ctx, endpoint, &data); err != nil {
		return "", fmt.Errorf("failed to get play url: %w", err)
	}

	if len(data.Dash.Audio) == 0 {
		log.Info().Str("bvid", id).Msg("no audio stream available")
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, data.Dash.Audio[0].BaseURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Referer", "https://www.bilibili.com/video/"+id)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("audio download failed with status %d", resp.StatusCode)
	}

	target := filepath.Join(a.audioDir, id+".m4a")
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create audio file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	return target, nil
}
