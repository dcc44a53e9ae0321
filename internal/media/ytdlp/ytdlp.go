// Package ytdlp wraps the yt-dlp binary for fetching remote videos and
// their metadata.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

type Client struct {
	bin string
}

func New(binPath string) *Client {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Client{bin: binPath}
}

// Info is the subset of yt-dlp's --dump-json output the server uses.
type Info struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	Thumbnail   string  `json:"thumbnail"`
	Thumbnails  []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
}

// BestThumbnail returns the top-level thumbnail, falling back to the first
// entry of the thumbnails list.
func (i Info) BestThumbnail() string {
	if i.Thumbnail != "" {
		return i.Thumbnail
	}
	if len(i.Thumbnails) > 0 {
		return i.Thumbnails[0].URL
	}
	return ""
}

// Download fetches the remote video into outPath as a single mp4 file.
func (c *Client) Download(ctx context.Context, url, outPath string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("video URL is required")
	}
	args := []string{
		"--no-warnings",
		"--no-playlist",
		"-f", "bv*+ba/b",
		"--merge-output-format", "mp4",
		"-o", outPath,
		url,
	}
	cmd := exec.CommandContext(ctx, c.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp download failed: %w: %s", err, tail(stderr.String(), 512))
	}
	return nil
}

// DumpJSON fetches metadata for a URL without downloading the video.
func (c *Client) DumpJSON(ctx context.Context, url string) (Info, error) {
	if strings.TrimSpace(url) == "" {
		return Info{}, fmt.Errorf("video URL is required")
	}
	args := []string{
		"--dump-single-json",
		"--no-warnings",
		"--no-playlist",
		"--no-check-certificates",
		url,
	}
	cmd := exec.CommandContext(ctx, c.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Info{}, fmt.Errorf("yt-dlp failed: %w: %s", err, tail(stderr.String(), 512))
	}
	if stdout.Len() == 0 {
		return Info{}, fmt.Errorf("yt-dlp returned empty output")
	}

	var info Info
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return Info{}, fmt.Errorf("parse yt-dlp output: %w", err)
	}
	return info, nil
}

func tail(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[len(s)-maxLen:]
}
