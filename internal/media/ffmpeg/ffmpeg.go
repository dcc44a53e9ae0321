// Package ffmpeg wraps the ffmpeg and ffprobe binaries for probing,
// audio extraction, clip cutting and subtitle burn-in.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/clipforge/clipforge/internal/jobs"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// ProbeDuration returns the container duration in seconds.
func (a *Adapter) ProbeDuration(ctx context.Context, in string) (float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

// ExtractAudio writes a mono 16kHz WAV track, the input format expected by
// the transcription adapter.
func (a *Adapter) ExtractAudio(ctx context.Context, in, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", in,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

// Cut extracts [start,end) seconds of the input into a new clip file.
func (a *Adapter) Cut(ctx context.Context, in string, start, end float64, out string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-ss", fmtSeconds(start),
		"-to", fmtSeconds(end),
		"-i", in,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "192k",
		out,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg cut clip: %w\n%s", err, string(b))
	}
	return nil
}

// BurnSubtitles re-encodes the clip with the SRT rendered into the frame.
// The caller is responsible for swapping the output over the plain clip.
func (a *Adapter) BurnSubtitles(ctx context.Context, in, srtPath string, style jobs.SubtitleStyle, out string) error {
	filter := "subtitles=" + escapeFilterPath(srtPath) + ":force_style='" + ForceStyle(style) + "'"
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", in,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-c:a", "copy",
		out,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg burn subtitles: %w\n%s", err, string(b))
	}
	return nil
}

// ForceStyle converts the job style to a libass force_style string.
func ForceStyle(s jobs.SubtitleStyle) string {
	fontSize := s.FontSize
	if fontSize <= 0 {
		fontSize = 24
	}
	parts := []string{
		"FontSize=" + strconv.Itoa(fontSize),
		"PrimaryColour=" + assColor(s.FontColor, 100),
		"BackColour=" + assColor(s.BackgroundColor, s.Opacity),
		"Outline=1",
		"Shadow=1",
		"Alignment=2",
	}
	return strings.Join(parts, ",")
}

// assColor converts "#RRGGBB" plus an opacity percentage to the libass
// &HAABBGGRR form. Alpha in libass is inverted: 00 opaque, FF transparent.
func assColor(hex string, opacityPct int) string {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		hex = "FFFFFF"
	}
	r, g, b := hex[0:2], hex[2:4], hex[4:6]
	if opacityPct <= 0 || opacityPct > 100 {
		opacityPct = 100
	}
	alpha := 255 - (255 * opacityPct / 100)
	return fmt.Sprintf("&H%02X%s%s%s", alpha, strings.ToUpper(b), strings.ToUpper(g), strings.ToUpper(r))
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	return p
}
