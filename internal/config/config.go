// Package config provides configuration management for the clipforge server.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8686
	DefaultLogLevel = "info"
	DefaultDataDir  = ".clipforge"

	// Environment variable names
	EnvPort       = "CLIPFORGE_PORT"
	EnvLogLevel   = "CLIPFORGE_LOG_LEVEL"
	EnvDataDir    = "CLIPFORGE_DATA_DIR"
	EnvWorkers    = "CLIPFORGE_WORKERS"
	EnvQueueDepth = "CLIPFORGE_QUEUE_DEPTH"

	// External tool environment variable names
	EnvFFmpeg          = "CLIPFORGE_FFMPEG"
	EnvFFprobe         = "CLIPFORGE_FFPROBE"
	EnvYtdlp           = "CLIPFORGE_YTDLP"
	EnvWhisperBin      = "CLIPFORGE_WHISPER_BIN"
	EnvWhisperModelDir = "CLIPFORGE_WHISPER_MODEL_DIR"

	EnvOpenRouterKey     = "OPENROUTER_API_KEY"
	EnvOpenRouterModel   = "OPENROUTER_MODEL"
	EnvOpenRouterBaseURL = "OPENROUTER_BASE_URL"

	// Database filename
	DBFilename = "clipforge.db"

	// Worker defaults
	DefaultWorkers    = 2
	DefaultQueueDepth = 32

	// Adapter call timeouts (seconds)
	DefaultTimeoutDownload   = 1800
	DefaultTimeoutTranscode  = 900
	DefaultTimeoutTranscribe = 1800
	DefaultTimeoutLLM        = 120
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	WorkDir() string
	OutputDir() string
	Workers() int
	QueueDepth() int

	FFmpegPath() string
	FFprobePath() string
	YtdlpPath() string
	WhisperBin() string
	WhisperModelDir() string

	OpenRouterKey() string
	OpenRouterModel() string
	OpenRouterBaseURL() string

	TimeoutDownload() time.Duration
	TimeoutTranscode() time.Duration
	TimeoutTranscribe() time.Duration
	TimeoutLLM() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port       int
	logLevel   string
	dataDir    string
	workers    int
	queueDepth int

	ffmpeg          string
	ffprobe         string
	ytdlp           string
	whisperBin      string
	whisperModelDir string

	openRouterKey     string
	openRouterModel   string
	openRouterBaseURL string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:       DefaultPort,
		logLevel:   DefaultLogLevel,
		dataDir:    defaultDataDir(),
		workers:    DefaultWorkers,
		queueDepth: DefaultQueueDepth,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if w := os.Getenv(EnvWorkers); w != "" {
		workers, err := strconv.Atoi(w)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvWorkers, err)
		}
		if workers < 1 {
			return nil, fmt.Errorf("invalid %s: must be at least 1", EnvWorkers)
		}
		cfg.workers = workers
	}

	if q := os.Getenv(EnvQueueDepth); q != "" {
		depth, err := strconv.Atoi(q)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvQueueDepth, err)
		}
		if depth < 1 {
			return nil, fmt.Errorf("invalid %s: must be at least 1", EnvQueueDepth)
		}
		cfg.queueDepth = depth
	}

	cfg.ffmpeg = os.Getenv(EnvFFmpeg)
	cfg.ffprobe = os.Getenv(EnvFFprobe)
	cfg.ytdlp = os.Getenv(EnvYtdlp)
	cfg.whisperBin = os.Getenv(EnvWhisperBin)
	cfg.whisperModelDir = os.Getenv(EnvWhisperModelDir)

	cfg.openRouterKey = os.Getenv(EnvOpenRouterKey)
	cfg.openRouterModel = os.Getenv(EnvOpenRouterModel)
	cfg.openRouterBaseURL = os.Getenv(EnvOpenRouterBaseURL)

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// WorkDir returns the scratch directory for in-flight jobs
func (c *EnvConfig) WorkDir() string {
	return filepath.Join(c.dataDir, "work")
}

// OutputDir returns the directory that holds finished clips and subtitles.
// Its contents are exposed over HTTP under /processed/.
func (c *EnvConfig) OutputDir() string {
	return filepath.Join(c.dataDir, "processed")
}

// Workers returns the pipeline worker pool size
func (c *EnvConfig) Workers() int {
	return c.workers
}

// QueueDepth returns the pipeline job queue capacity
func (c *EnvConfig) QueueDepth() int {
	return c.queueDepth
}

func (c *EnvConfig) FFmpegPath() string {
	if c.ffmpeg != "" {
		return c.ffmpeg
	}
	return "ffmpeg"
}

func (c *EnvConfig) FFprobePath() string {
	if c.ffprobe != "" {
		return c.ffprobe
	}
	return "ffprobe"
}

func (c *EnvConfig) YtdlpPath() string {
	if c.ytdlp != "" {
		return c.ytdlp
	}
	return "yt-dlp"
}

func (c *EnvConfig) WhisperBin() string {
	if c.whisperBin != "" {
		return c.whisperBin
	}
	return "whisper-cli"
}

func (c *EnvConfig) WhisperModelDir() string {
	if c.whisperModelDir != "" {
		return c.whisperModelDir
	}
	return filepath.Join(c.dataDir, "models")
}

func (c *EnvConfig) OpenRouterKey() string {
	return c.openRouterKey
}

func (c *EnvConfig) OpenRouterModel() string {
	if c.openRouterModel != "" {
		return c.openRouterModel
	}
	return "z-ai/glm-4.5-air:free"
}

func (c *EnvConfig) OpenRouterBaseURL() string {
	if c.openRouterBaseURL != "" {
		return c.openRouterBaseURL
	}
	return "https://openrouter.ai"
}

func (c *EnvConfig) TimeoutDownload() time.Duration {
	return time.Duration(DefaultTimeoutDownload) * time.Second
}

func (c *EnvConfig) TimeoutTranscode() time.Duration {
	return time.Duration(DefaultTimeoutTranscode) * time.Second
}

func (c *EnvConfig) TimeoutTranscribe() time.Duration {
	return time.Duration(DefaultTimeoutTranscribe) * time.Second
}

func (c *EnvConfig) TimeoutLLM() time.Duration {
	return time.Duration(DefaultTimeoutLLM) * time.Second
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
