// Package llm calls an OpenRouter-compatible chat completions API for
// segment analysis and subtitle translation.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// Segment is an LLM-proposed cut candidate before duration clamping.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Title   string  `json:"title"`
	Summary string  `json:"summary"`
}

type Client struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

func New(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = "anthropic/claude-3.5-sonnet"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = "https://openrouter.ai"
	}
	return &Client{key: apiKey, model: model, baseURL: baseURL, client: &http.Client{Timeout: 5 * time.Minute}}
}

// ProposeSegments asks the model for clip segments from a transcript and a
// user prompt. Transport failures are returned as errors; a response that
// cannot be parsed into segments degrades to a deterministic equal split of
// the source, so analysis never aborts a job over model output shape.
func (c *Client) ProposeSegments(ctx context.Context, transcript, prompt string, sourceDur float64) ([]Segment, error) {
	userMsg := fmt.Sprintf(
		"I have a video with the following transcript:\n%q\n\n"+
			"Based on this transcript and this prompt: %q, identify distinct segments that would make good short clips.\n"+
			"For each segment provide a start time in seconds, an end time in seconds, a descriptive title, and a brief summary.\n"+
			"Return strictly valid JSON (no markdown, no code fences): an array of objects with keys start, end, title, summary.",
		transcript, prompt,
	)

	content, err := c.complete(ctx, userMsg, segmentsSchema())
	if err != nil {
		return nil, err
	}

	segs, ok := parseSegments(content)
	if !ok || len(segs) == 0 {
		return EqualSplit(sourceDur), nil
	}
	return segs, nil
}

// EqualSplit is the deterministic fallback segmentation: three roughly
// equal thirds of the source.
func EqualSplit(sourceDur float64) []Segment {
	if sourceDur <= 0 {
		return nil
	}
	third := sourceDur / 3
	segs := make([]Segment, 0, 3)
	names := []string{"Part 1", "Part 2", "Part 3"}
	summaries := []string{"Beginning section", "Middle section", "End section"}
	for i := 0; i < 3; i++ {
		start := third * float64(i)
		end := third * float64(i+1)
		if i == 2 {
			end = sourceDur
		}
		segs = append(segs, Segment{
			Start:   roundSec(start),
			End:     roundSec(end),
			Title:   names[i],
			Summary: summaries[i],
		})
	}
	return segs
}

// Translate rewrites the text lines of an SRT document into the target
// language, preserving numbering and timing lines.
func (c *Client) Translate(ctx context.Context, srt, targetLanguage string) (string, error) {
	userMsg := fmt.Sprintf(
		"Translate the text lines of the following SRT subtitle file into %q.\n"+
			"Keep the entry numbering and the timing lines exactly as they are; translate only the text bodies.\n"+
			"Return only the translated SRT content, no markdown, no commentary.\n\n%s",
		targetLanguage, srt,
	)

	content, err := c.complete(ctx, userMsg, nil)
	if err != nil {
		return "", err
	}
	return stripFences(content), nil
}

// TranslateTitle translates a single clip title.
func (c *Client) TranslateTitle(ctx context.Context, title, targetLanguage string) (string, error) {
	userMsg := fmt.Sprintf(
		"Translate this video clip title into %q. Return only the translated title, nothing else.\n\n%s",
		targetLanguage, title,
	)
	content, err := c.complete(ctx, userMsg, nil)
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(stripFences(content))
	if out == "" {
		return "", errors.New("empty translation")
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, userMsg string, responseFormat map[string]any) (string, error) {
	payload := map[string]any{
		"model":  c.model,
		"stream": false,
		"messages": []map[string]any{
			{"role": "user", "content": userMsg},
		},
	}
	if responseFormat != nil {
		payload["response_format"] = responseFormat
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/api/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("llm status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("llm status %d: %s", resp.StatusCode, truncate(redact(string(rb), c.key), 400))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	if len(raw.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}
	return contentToString(raw.Choices[0].Message.Content)
}

func segmentsSchema() map[string]any {
	return map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name": "clip_segments",
			"schema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"segments": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"start":   map[string]any{"type": "number"},
								"end":     map[string]any{"type": "number"},
								"title":   map[string]any{"type": "string"},
								"summary": map[string]any{"type": "string"},
							},
							"required": []string{"start", "end", "title", "summary"},
						},
					},
				},
				"required": []string{"segments"},
			},
		},
	}
}

// parseSegments extracts a segment array from model output. It accepts a
// bare JSON array, an object with a "segments" key, and either wrapped in
// markdown code fences.
func parseSegments(content string) ([]Segment, bool) {
	t := stripFences(content)

	if start := strings.Index(t, "["); start >= 0 {
		if end := strings.LastIndex(t, "]"); end > start {
			var segs []Segment
			if err := json.Unmarshal([]byte(t[start:end+1]), &segs); err == nil {
				return sanitize(segs), true
			}
		}
	}

	if start := strings.Index(t, "{"); start >= 0 {
		if end := strings.LastIndex(t, "}"); end > start {
			var wrapped struct {
				Segments []Segment `json:"segments"`
			}
			if err := json.Unmarshal([]byte(t[start:end+1]), &wrapped); err == nil && len(wrapped.Segments) > 0 {
				return sanitize(wrapped.Segments), true
			}
		}
	}

	return nil, false
}

func sanitize(segs []Segment) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		s.Title = strings.TrimSpace(s.Title)
		s.Summary = strings.TrimSpace(s.Summary)
		if s.Title == "" {
			s.Title = "Clip"
		}
		out = append(out, s)
	}
	return out
}

func contentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("llm: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("llm: unexpected content type %T", v)
	}
}

func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}
	return t
}

func redact(s, apiKey string) string {
	if apiKey != "" {
		s = strings.ReplaceAll(s, apiKey, "[REDACTED]")
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func roundSec(v float64) float64 {
	return math.Round(v*1000) / 1000
}
