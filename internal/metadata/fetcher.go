// Package metadata resolves display metadata for platform video URLs.
// Metadata is cosmetic: adapter failures degrade to labeled placeholders
// instead of propagating, so the UI can always list the item.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/clipforge/clipforge/internal/media/ytdlp"
	"github.com/clipforge/clipforge/internal/videourl"
)

// ErrUnsupportedURL is returned when the URL fails classification; this is
// the only way Fetch fails.
var ErrUnsupportedURL = errors.New("unsupported video URL")

type Metadata struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Duration    float64           `json:"duration"`
	Thumbnail   string            `json:"thumbnail"`
	Platform    videourl.Platform `json:"platform"`
	VideoID     string            `json:"videoId"`
}

// Prober fetches remote metadata without downloading the video.
type Prober interface {
	DumpJSON(ctx context.Context, url string) (ytdlp.Info, error)
}

type Fetcher struct {
	prober Prober
	http   *http.Client
	logger *slog.Logger
}

func NewFetcher(prober Prober, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		prober: prober,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// Fetch classifies the URL and dispatches to a platform strategy. Every
// strategy degrades to a placeholder on adapter failure.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Metadata, error) {
	res := videourl.Classify(rawURL)
	if !res.Valid {
		return Metadata{}, ErrUnsupportedURL
	}

	switch res.Platform {
	case videourl.PlatformVimeo:
		return f.fetchVimeo(ctx, res), nil
	case videourl.PlatformYoutube, videourl.PlatformTikTok, videourl.PlatformInstagram,
		videourl.PlatformFacebook, videourl.PlatformTwitter:
		return f.fetchViaProber(ctx, rawURL, res), nil
	default:
		return f.fetchViaProber(ctx, rawURL, res), nil
	}
}

func (f *Fetcher) fetchViaProber(ctx context.Context, rawURL string, res videourl.Result) Metadata {
	info, err := f.prober.DumpJSON(ctx, rawURL)
	if err != nil {
		f.logger.Warn("metadata probe failed, using placeholder",
			"platform", string(res.Platform), "video_id", res.VideoID, "error", err)
		return placeholder(res)
	}

	videoID := res.VideoID
	if videoID == "" {
		videoID = info.ID
	}
	return Metadata{
		Title:       nonEmpty(info.Title, fmt.Sprintf("Video from %s", res.Platform)),
		Description: info.Description,
		Duration:    info.Duration,
		Thumbnail:   info.BestThumbnail(),
		Platform:    res.Platform,
		VideoID:     videoID,
	}
}

// vimeoVideo is the relevant subset of Vimeo's v2 video JSON.
type vimeoVideo struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Duration        float64 `json:"duration"`
	ThumbnailLarge  string  `json:"thumbnail_large"`
	ThumbnailMedium string  `json:"thumbnail_medium"`
}

func (f *Fetcher) fetchVimeo(ctx context.Context, res videourl.Result) Metadata {
	url := fmt.Sprintf("https://vimeo.com/api/v2/video/%s.json", res.VideoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return placeholder(res)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		f.logger.Warn("vimeo metadata fetch failed, using placeholder",
			"video_id", res.VideoID, "error", err)
		return placeholder(res)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("vimeo metadata fetch failed, using placeholder",
			"video_id", res.VideoID, "status", resp.StatusCode)
		return placeholder(res)
	}

	var videos []vimeoVideo
	if err := json.NewDecoder(resp.Body).Decode(&videos); err != nil || len(videos) == 0 {
		return placeholder(res)
	}

	v := videos[0]
	thumbnail := v.ThumbnailLarge
	if thumbnail == "" {
		thumbnail = v.ThumbnailMedium
	}
	return Metadata{
		Title:       nonEmpty(v.Title, fmt.Sprintf("Vimeo Video (ID: %s)", res.VideoID)),
		Description: v.Description,
		Duration:    v.Duration,
		Thumbnail:   thumbnail,
		Platform:    res.Platform,
		VideoID:     res.VideoID,
	}
}

// placeholder synthesizes a clearly labeled result with a representative
// duration per platform, mirroring what the submission UI expects.
func placeholder(res videourl.Result) Metadata {
	m := Metadata{
		Platform: res.Platform,
		VideoID:  res.VideoID,
	}
	switch res.Platform {
	case videourl.PlatformYoutube:
		m.Title = fmt.Sprintf("YouTube Video (ID: %s)", res.VideoID)
		m.Duration = 360
		m.Thumbnail = fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", res.VideoID)
	case videourl.PlatformVimeo:
		m.Title = fmt.Sprintf("Vimeo Video (ID: %s)", res.VideoID)
		m.Duration = 240
		m.Thumbnail = "https://i.vimeocdn.com/video/default.jpg"
	case videourl.PlatformTikTok:
		m.Title = fmt.Sprintf("TikTok Video (ID: %s)", res.VideoID)
		m.Duration = 30
	case videourl.PlatformInstagram:
		m.Title = fmt.Sprintf("Instagram Video (ID: %s)", res.VideoID)
		m.Duration = 60
	case videourl.PlatformFacebook:
		m.Title = fmt.Sprintf("Facebook Video (ID: %s)", res.VideoID)
		m.Duration = 180
	case videourl.PlatformTwitter:
		m.Title = fmt.Sprintf("Twitter Video (ID: %s)", res.VideoID)
		m.Duration = 120
	default:
		m.Title = fmt.Sprintf("Video (ID: %s)", res.VideoID)
		m.Duration = 120
	}
	return m
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
