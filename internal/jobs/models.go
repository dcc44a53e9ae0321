package jobs

import (
	"time"

	"github.com/google/uuid"
)

const (
	SourceTypeLocal = "local"
	SourceTypeURL   = "url"

	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// DurationWindow bounds clip length in seconds. Min < Max is enforced at intake.
type DurationWindow struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// SubtitleStyle holds burn-in rendering parameters.
type SubtitleStyle struct {
	FontSize        int    `json:"fontSize"`
	FontColor       string `json:"fontColor"`
	HighlightColor  string `json:"highlightColor"`
	BackgroundColor string `json:"backgroundColor"`
	Opacity         int    `json:"opacity"`
}

// SubtitleConfig is the per-job subtitle request, captured once at submission.
type SubtitleConfig struct {
	Generate       bool          `json:"generate"`
	Language       string        `json:"language"`
	Burn           bool          `json:"burn"`
	SaveSeparately bool          `json:"saveSeparately"`
	Translate      bool          `json:"translate"`
	TargetLanguage string        `json:"targetLanguage"`
	WhisperModel   string        `json:"whisperModel"`
	Style          SubtitleStyle `json:"style"`
}

// Job is one user-submitted request to turn one source video into clips.
// Configuration fields are immutable after creation; the pipeline only
// writes status, progress, clips and error.
type Job struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	SourceType        string         `json:"source_type"`
	SourceURL         string         `json:"source_url"`
	Prompt            string         `json:"prompt"`
	Duration          DurationWindow `json:"duration"`
	Subtitles         SubtitleConfig `json:"subtitles"`
	TranslateTitle    bool           `json:"translate_title"`
	SaveOriginalSrt   bool           `json:"save_original_srt"`
	SaveTranslatedSrt bool           `json:"save_translated_srt"`
	OutputFolder      string         `json:"output_folder"`
	Status            string         `json:"status"`
	Progress          int            `json:"progress"`
	TotalClips        int            `json:"total_clips"`
	Error             string         `json:"error,omitempty"`
	Clips             []Clip         `json:"clips"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Clip is a finalized output video owned by its parent job. Paths are
// job-scoped URLs under /processed/, suitable for the static file server.
type Clip struct {
	Idx                    int     `json:"idx"`
	Title                  string  `json:"title"`
	Path                   string  `json:"path"`
	Start                  float64 `json:"start"`
	End                    float64 `json:"end"`
	Duration               float64 `json:"duration"`
	SubtitlePath           string  `json:"subtitlePath,omitempty"`
	TranslatedSubtitlePath string  `json:"translatedSubtitlePath,omitempty"`
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func NewID() string {
	return uuid.NewString()
}

// DefaultStyle matches the submission form defaults.
func DefaultStyle() SubtitleStyle {
	return SubtitleStyle{
		FontSize:        24,
		FontColor:       "#FFFFFF",
		HighlightColor:  "#FF3B30",
		BackgroundColor: "#000000",
		Opacity:         80,
	}
}
