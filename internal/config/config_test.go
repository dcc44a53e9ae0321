package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != DefaultLogLevel {
		t.Errorf("LogLevel() = %s, want %s", cfg.LogLevel(), DefaultLogLevel)
	}
	if cfg.Workers() != DefaultWorkers {
		t.Errorf("Workers() = %d, want %d", cfg.Workers(), DefaultWorkers)
	}
	if cfg.QueueDepth() != DefaultQueueDepth {
		t.Errorf("QueueDepth() = %d, want %d", cfg.QueueDepth(), DefaultQueueDepth)
	}
	if cfg.TimeoutLLM() != time.Duration(DefaultTimeoutLLM)*time.Second {
		t.Errorf("TimeoutLLM() = %v", cfg.TimeoutLLM())
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "9999")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvDataDir, "/tmp/clipforge-test")
	t.Setenv(EnvWorkers, "4")
	t.Setenv(EnvFFmpeg, "/opt/bin/ffmpeg")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.Port() != 9999 {
		t.Errorf("Port() = %d, want 9999", cfg.Port())
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("LogLevel() = %s", cfg.LogLevel())
	}
	if cfg.DataDir() != "/tmp/clipforge-test" {
		t.Errorf("DataDir() = %s", cfg.DataDir())
	}
	if cfg.Workers() != 4 {
		t.Errorf("Workers() = %d", cfg.Workers())
	}
	if cfg.FFmpegPath() != "/opt/bin/ffmpeg" {
		t.Errorf("FFmpegPath() = %s", cfg.FFmpegPath())
	}
}

func TestNew_InvalidPort(t *testing.T) {
	for _, v := range []string{"abc", "0", "70000"} {
		t.Setenv(EnvPort, v)
		if _, err := New(); err == nil {
			t.Errorf("New() with port %q should fail", v)
		}
	}
}

func TestNew_InvalidWorkers(t *testing.T) {
	t.Setenv(EnvWorkers, "0")
	if _, err := New(); err == nil {
		t.Error("New() with zero workers should fail")
	}
}

func TestDerivedPaths(t *testing.T) {
	t.Setenv(EnvDataDir, "/data/cf")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := cfg.DBPath(); got != filepath.Join("/data/cf", DBFilename) {
		t.Errorf("DBPath() = %s", got)
	}
	if got := cfg.WorkDir(); got != filepath.Join("/data/cf", "work") {
		t.Errorf("WorkDir() = %s", got)
	}
	if got := cfg.OutputDir(); got != filepath.Join("/data/cf", "processed") {
		t.Errorf("OutputDir() = %s", got)
	}
}

func TestToolPathDefaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.FFmpegPath() != "ffmpeg" {
		t.Errorf("FFmpegPath() = %s, want ffmpeg", cfg.FFmpegPath())
	}
	if cfg.FFprobePath() != "ffprobe" {
		t.Errorf("FFprobePath() = %s, want ffprobe", cfg.FFprobePath())
	}
	if cfg.YtdlpPath() != "yt-dlp" {
		t.Errorf("YtdlpPath() = %s, want yt-dlp", cfg.YtdlpPath())
	}
}
