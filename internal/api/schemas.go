package api

import (
	"time"

	"github.com/clipforge/clipforge/internal/jobs"
	"github.com/clipforge/clipforge/internal/metadata"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type ValidateRequest struct {
	URL string `json:"url"`
}

type ValidateResponse struct {
	Success  bool   `json:"success"`
	IsValid  bool   `json:"isValid"`
	Platform string `json:"platform,omitempty"`
	VideoID  string `json:"videoId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type MetadataRequest struct {
	URL string `json:"url"`
}

type MetadataResponse struct {
	Success  bool            `json:"success"`
	Metadata MetadataPayload `json:"metadata"`
}

type MetadataPayload struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	Thumbnail   string  `json:"thumbnail"`
	Platform    string  `json:"platform"`
	VideoID     string  `json:"videoId"`
}

type VideoInput struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

type ProcessRequest struct {
	Videos            []VideoInput         `json:"videos"`
	Prompt            string               `json:"prompt"`
	Duration          *jobs.DurationWindow `json:"duration"`
	Subtitles         *jobs.SubtitleConfig `json:"subtitles,omitempty"`
	TranslateTitle    bool                 `json:"translateTitle,omitempty"`
	SaveOriginalSrt   bool                 `json:"saveOriginalSrt,omitempty"`
	SaveTranslatedSrt bool                 `json:"saveTranslatedSrt,omitempty"`
	OutputFolder      string               `json:"outputFolder,omitempty"`
}

type ProcessResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Jobs    []CreatedJobInfo `json:"jobs"`
}

type CreatedJobInfo struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	SourceURL string `json:"sourceUrl"`
}

type JobStatusResponse struct {
	Success bool        `json:"success"`
	Job     JobResponse `json:"job"`
}

type JobResponse struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	Progress   int            `json:"progress"`
	SourceURL  string         `json:"sourceUrl"`
	TotalClips int            `json:"totalClips"`
	Clips      []ClipResponse `json:"clips"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  string         `json:"createdAt"`
	UpdatedAt  string         `json:"updatedAt"`
}

type ClipResponse struct {
	Index                  int     `json:"index"`
	Title                  string  `json:"title"`
	Path                   string  `json:"path"`
	Start                  float64 `json:"start"`
	End                    float64 `json:"end"`
	Duration               float64 `json:"duration"`
	SubtitlePath           string  `json:"subtitlePath,omitempty"`
	TranslatedSubtitlePath string  `json:"translatedSubtitlePath,omitempty"`
}

type JobsResponse struct {
	Success bool          `json:"success"`
	Jobs    []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func JobToResponse(j *jobs.Job) JobResponse {
	clips := make([]ClipResponse, len(j.Clips))
	for i, c := range j.Clips {
		clips[i] = ClipResponse{
			Index:                  c.Idx,
			Title:                  c.Title,
			Path:                   c.Path,
			Start:                  c.Start,
			End:                    c.End,
			Duration:               c.Duration,
			SubtitlePath:           c.SubtitlePath,
			TranslatedSubtitlePath: c.TranslatedSubtitlePath,
		}
	}
	return JobResponse{
		ID:         j.ID,
		Status:     j.Status,
		Progress:   j.Progress,
		SourceURL:  j.SourceURL,
		TotalClips: j.TotalClips,
		Clips:      clips,
		Error:      j.Error,
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
	}
}

func MetadataToPayload(m metadata.Metadata) MetadataPayload {
	return MetadataPayload{
		Title:       m.Title,
		Description: m.Description,
		Duration:    m.Duration,
		Thumbnail:   m.Thumbnail,
		Platform:    string(m.Platform),
		VideoID:     m.VideoID,
	}
}
