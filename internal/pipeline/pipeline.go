// Package pipeline turns one submitted source video into N output clips:
// materialize, extract audio, LLM segment analysis, per-segment cut with
// optional subtitle generation, translation and burn-in.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/clipforge/clipforge/internal/asr"
	"github.com/clipforge/clipforge/internal/jobs"
	"github.com/clipforge/clipforge/internal/llm"
	"github.com/clipforge/clipforge/internal/subtitles"
)

// Transcoder is the media tool port (ffmpeg adapter in production).
type Transcoder interface {
	ProbeDuration(ctx context.Context, in string) (float64, error)
	ExtractAudio(ctx context.Context, in, outWav string) error
	Cut(ctx context.Context, in string, start, end float64, out string) error
	BurnSubtitles(ctx context.Context, in, srtPath string, style jobs.SubtitleStyle, out string) error
}

// Downloader fetches a remote source video to local disk.
type Downloader interface {
	Download(ctx context.Context, url, outPath string) error
}

// Transcriber produces a timed transcript from a WAV file.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath, language, model string) (asr.Transcript, error)
}

// Analyzer proposes segments and translates subtitle content.
type Analyzer interface {
	ProposeSegments(ctx context.Context, transcript, prompt string, sourceDur float64) ([]llm.Segment, error)
	Translate(ctx context.Context, srt, targetLanguage string) (string, error)
	TranslateTitle(ctx context.Context, title, targetLanguage string) (string, error)
}

// Timeouts bound each external adapter call.
type Timeouts struct {
	Download   time.Duration
	Transcode  time.Duration
	Transcribe time.Duration
	LLM        time.Duration
}

type Processor struct {
	repo       jobs.Repository
	transcoder Transcoder
	downloader Downloader
	asr        Transcriber
	analyzer   Analyzer
	workRoot   string
	outRoot    string
	timeouts   Timeouts
	logger     *slog.Logger
}

func NewProcessor(
	repo jobs.Repository,
	transcoder Transcoder,
	downloader Downloader,
	asr Transcriber,
	analyzer Analyzer,
	workRoot, outRoot string,
	timeouts Timeouts,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		repo:       repo,
		transcoder: transcoder,
		downloader: downloader,
		asr:        asr,
		analyzer:   analyzer,
		workRoot:   workRoot,
		outRoot:    outRoot,
		timeouts:   timeouts,
		logger:     logger,
	}
}

// Process runs the full pipeline for one job. It is the single place that
// writes the job's terminal status: any stage error marks the job failed
// with that error's message, and success commits status and clips together.
func (p *Processor) Process(ctx context.Context, jobID string) {
	log := p.logger.With("job_id", jobID)

	job, err := p.repo.GetJob(ctx, jobID)
	if err != nil {
		log.Error("failed to load job", "error", err)
		return
	}
	if job == nil {
		log.Warn("job not found")
		return
	}

	if err := p.repo.MarkProcessing(ctx, jobID); err != nil {
		log.Warn("could not claim job", "error", err)
		return
	}
	log.Info("processing started", "source_type", job.SourceType)

	clips, err := p.run(ctx, job, log)

	// Terminal writes use a detached context so a cancelled job still gets
	// its failure reason persisted.
	writeCtx := context.WithoutCancel(ctx)
	if err != nil {
		log.Error("processing failed", "error", err)
		if ferr := p.repo.FailJob(writeCtx, jobID, err.Error()); ferr != nil {
			log.Error("failed to record job failure", "error", ferr)
		}
		return
	}

	if err := p.repo.CompleteJob(writeCtx, jobID, clips); err != nil {
		log.Error("failed to commit completed job", "error", err)
		return
	}
	log.Info("processing completed", "clips", len(clips))
}

func (p *Processor) run(ctx context.Context, job *jobs.Job, log *slog.Logger) ([]jobs.Clip, error) {
	workDir := filepath.Join(p.workRoot, job.ID)
	clipsDir := filepath.Join(p.outRoot, job.ID, "clips")
	subsDir := filepath.Join(p.outRoot, job.ID, "subtitles")
	for _, dir := range []string{workDir, clipsDir, subsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	// Stage 1: materialize the source into the job-scoped scratch dir.
	srcPath := filepath.Join(workDir, "source.mp4")
	if err := p.materialize(ctx, job, srcPath); err != nil {
		return nil, fmt.Errorf("materialize source: %w", err)
	}

	sourceDur, err := p.probe(ctx, srcPath)
	if err != nil {
		return nil, fmt.Errorf("probe source duration: %w", err)
	}

	// Stage 2: extract the analysis audio track.
	audioPath := filepath.Join(workDir, "audio.wav")
	if err := p.extractAudio(ctx, srcPath, audioPath); err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}

	// Stage 3: transcribe and propose segments. Unparseable model output
	// degrades inside the analyzer; only transport errors surface here.
	tr, err := p.transcribe(ctx, audioPath, job.Subtitles.Language, job.Subtitles.WhisperModel)
	if err != nil {
		return nil, fmt.Errorf("transcribe source: %w", err)
	}

	segments, err := p.propose(ctx, tr.Text(), job.Prompt, sourceDur)
	if err != nil {
		return nil, fmt.Errorf("segment analysis: %w", err)
	}
	log.Info("segment analysis done", "proposed", len(segments))

	// Clamp first so progress is tracked against the clips that will
	// actually be produced. Order is preserved: the output clip list
	// matches the analyzer's narrative ordering.
	kept := make([]llm.Segment, 0, len(segments))
	for _, seg := range segments {
		start, end, ok := ClampSegment(seg.Start, seg.End,
			float64(job.Duration.Min), float64(job.Duration.Max), sourceDur)
		if !ok {
			log.Warn("dropping invalid segment", "start", seg.Start, "end", seg.End)
			continue
		}
		seg.Start, seg.End = start, end
		kept = append(kept, seg)
	}

	if err := p.repo.SetAnalysis(ctx, job.ID, len(kept)); err != nil {
		return nil, fmt.Errorf("record analysis result: %w", err)
	}

	// Stage 4: per-segment clip production, strictly in order.
	clips := make([]jobs.Clip, 0, len(kept))
	for i, seg := range kept {
		clip, err := p.produceClip(ctx, job, srcPath, workDir, clipsDir, subsDir, i+1, seg)
		if err != nil {
			return nil, fmt.Errorf("clip %d: %w", i+1, err)
		}
		clips = append(clips, clip)

		progress := len(clips) * 100 / len(kept)
		if err := p.repo.SetProgress(ctx, job.ID, progress); err != nil {
			log.Warn("failed to update progress", "error", err)
		}
	}

	return clips, nil
}

func (p *Processor) produceClip(
	ctx context.Context,
	job *jobs.Job,
	srcPath, workDir, clipsDir, subsDir string,
	idx int,
	seg llm.Segment,
) (jobs.Clip, error) {
	clipFile := fmt.Sprintf("clip_%d.mp4", idx)
	clipPath := filepath.Join(clipsDir, clipFile)

	if err := p.cut(ctx, srcPath, seg.Start, seg.End, clipPath); err != nil {
		return jobs.Clip{}, fmt.Errorf("cut: %w", err)
	}

	title := seg.Title
	if job.TranslateTitle && job.Subtitles.TargetLanguage != "" {
		// Title translation is cosmetic; keep the original on failure.
		if translated, err := p.translateTitle(ctx, title, job.Subtitles.TargetLanguage); err == nil {
			title = translated
		}
	}

	clip := jobs.Clip{
		Idx:      idx,
		Title:    title,
		Path:     fmt.Sprintf("/processed/%s/clips/%s", job.ID, clipFile),
		Start:    seg.Start,
		End:      seg.End,
		Duration: seg.End - seg.Start,
	}

	if !job.Subtitles.Generate {
		return clip, nil
	}

	// Subtitles are generated from the clip's own audio so the timeline
	// starts at zero, not at the parent's offset.
	clipAudio := filepath.Join(workDir, fmt.Sprintf("clip_%d.wav", idx))
	if err := p.extractAudio(ctx, clipPath, clipAudio); err != nil {
		return jobs.Clip{}, fmt.Errorf("extract clip audio: %w", err)
	}

	clipTr, err := p.transcribe(ctx, clipAudio, job.Subtitles.Language, job.Subtitles.WhisperModel)
	if err != nil {
		return jobs.Clip{}, fmt.Errorf("transcribe clip: %w", err)
	}

	srtFile := fmt.Sprintf("clip_%d.srt", idx)
	srtPath := filepath.Join(subsDir, srtFile)
	srtContent := clipTr.SRT().Render()
	if err := os.WriteFile(srtPath, []byte(srtContent), 0644); err != nil {
		return jobs.Clip{}, fmt.Errorf("write subtitles: %w", err)
	}
	clip.SubtitlePath = fmt.Sprintf("/processed/%s/subtitles/%s", job.ID, srtFile)

	var translatedSrtPath string
	if job.Subtitles.Translate {
		translated, err := p.translate(ctx, srtContent, job.Subtitles.TargetLanguage)
		if err != nil {
			return jobs.Clip{}, fmt.Errorf("translate subtitles: %w", err)
		}
		if err := subtitles.Validate(translated); err != nil {
			return jobs.Clip{}, fmt.Errorf("translated subtitles are not valid SRT: %w", err)
		}

		translatedFile := fmt.Sprintf("clip_%d_%s.srt", idx, job.Subtitles.TargetLanguage)
		translatedSrtPath = filepath.Join(subsDir, translatedFile)
		if err := os.WriteFile(translatedSrtPath, []byte(translated), 0644); err != nil {
			return jobs.Clip{}, fmt.Errorf("write translated subtitles: %w", err)
		}
		clip.TranslatedSubtitlePath = fmt.Sprintf("/processed/%s/subtitles/%s", job.ID, translatedFile)
	}

	if job.Subtitles.Burn {
		burnSrt := srtPath
		if job.Subtitles.Translate {
			burnSrt = translatedSrtPath
		}
		// Write-then-swap so the final path never holds a half-written file.
		burnedPath := filepath.Join(clipsDir, fmt.Sprintf("clip_%d_subtitled.mp4", idx))
		if err := p.burn(ctx, clipPath, burnSrt, job.Subtitles.Style, burnedPath); err != nil {
			return jobs.Clip{}, fmt.Errorf("burn subtitles: %w", err)
		}
		if err := os.Rename(burnedPath, clipPath); err != nil {
			return jobs.Clip{}, fmt.Errorf("swap burned clip: %w", err)
		}
	}

	return clip, nil
}

// ClampSegment applies the duration window to a proposed segment against
// the real source duration. Inverted segments are dropped rather than
// producing zero or negative length clips.
func ClampSegment(start, end, min, max, sourceDur float64) (float64, float64, bool) {
	if start < 0 {
		start = 0
	}
	if end > sourceDur {
		end = sourceDur
	}
	if end <= start {
		return 0, 0, false
	}

	if end-start < min {
		end = start + min
		if end > sourceDur {
			end = sourceDur
		}
	}
	if end-start > max {
		end = start + max
	}
	if end <= start {
		return 0, 0, false
	}
	return start, end, true
}

func (p *Processor) materialize(ctx context.Context, job *jobs.Job, dst string) error {
	if job.SourceType == jobs.SourceTypeURL {
		ctx, cancel := context.WithTimeout(ctx, p.timeouts.Download)
		defer cancel()
		return p.downloader.Download(ctx, job.SourceURL, dst)
	}
	return copyFile(job.SourceURL, dst)
}

func (p *Processor) probe(ctx context.Context, in string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.Transcode)
	defer cancel()
	return p.transcoder.ProbeDuration(ctx, in)
}

func (p *Processor) extractAudio(ctx context.Context, in, out string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.Transcode)
	defer cancel()
	return p.transcoder.ExtractAudio(ctx, in, out)
}

func (p *Processor) cut(ctx context.Context, in string, start, end float64, out string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.Transcode)
	defer cancel()
	return p.transcoder.Cut(ctx, in, start, end, out)
}

func (p *Processor) burn(ctx context.Context, in, srt string, style jobs.SubtitleStyle, out string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.Transcode)
	defer cancel()
	return p.transcoder.BurnSubtitles(ctx, in, srt, style, out)
}

func (p *Processor) transcribe(ctx context.Context, wav, language, model string) (asr.Transcript, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.Transcribe)
	defer cancel()
	return p.asr.Transcribe(ctx, wav, language, model)
}

func (p *Processor) propose(ctx context.Context, transcript, prompt string, sourceDur float64) ([]llm.Segment, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.LLM)
	defer cancel()
	return p.analyzer.ProposeSegments(ctx, transcript, prompt, sourceDur)
}

func (p *Processor) translate(ctx context.Context, srt, lang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.LLM)
	defer cancel()
	return p.analyzer.Translate(ctx, srt, lang)
}

func (p *Processor) translateTitle(ctx context.Context, title, lang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.LLM)
	defer cancel()
	return p.analyzer.TranslateTitle(ctx, title, lang)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("could not access local file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
