// Package asr wraps a whisper.cpp binary for speech transcription.
package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/clipforge/clipforge/internal/subtitles"
)

// Transcript is the timed transcription of one audio file.
type Transcript struct {
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Text joins segment texts into one plain transcript string.
func (t Transcript) Text() string {
	parts := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		if txt := strings.TrimSpace(s.Text); txt != "" {
			parts = append(parts, txt)
		}
	}
	return strings.Join(parts, " ")
}

// SRT converts the transcript to subtitle cues on its own timeline. Clip
// audio is transcribed per clip, so offsets start at zero already.
func (t Transcript) SRT() subtitles.SRT {
	var out subtitles.SRT
	for _, s := range t.Segments {
		txt := strings.TrimSpace(s.Text)
		if txt == "" || s.End <= s.Start {
			continue
		}
		out.Cues = append(out.Cues, subtitles.Cue{Start: s.Start, End: s.End, Text: txt})
	}
	return out
}

type Adapter struct {
	bin      string
	modelDir string
}

func New(binPath, modelDir string) *Adapter {
	return &Adapter{bin: binPath, modelDir: modelDir}
}

// Transcribe runs whisper.cpp over a mono 16kHz WAV file and parses its
// JSON output. The model name ("tiny", "base", ...) is resolved against
// the configured model directory.
func (a *Adapter) Transcribe(ctx context.Context, wavPath, language, model string) (Transcript, error) {
	if model == "" {
		model = "base"
	}
	modelPath := filepath.Join(a.modelDir, "ggml-"+model+".bin")

	outPrefix := strings.TrimSuffix(wavPath, filepath.Ext(wavPath))
	args := []string{
		"-m", modelPath,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
	}
	if language != "" && language != "auto" {
		args = append(args, "-l", language)
	}

	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return Transcript{}, fmt.Errorf("whisper failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return Transcript{}, fmt.Errorf("read whisper output: %w", err)
	}

	var tr Transcript
	if err := json.Unmarshal(jb, &tr); err != nil {
		return Transcript{}, fmt.Errorf("parse whisper output: %w", err)
	}
	for i := range tr.Segments {
		tr.Segments[i].Text = strings.TrimSpace(tr.Segments[i].Text)
	}
	return tr, nil
}
