package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipforge/clipforge/internal/api"
	"github.com/clipforge/clipforge/internal/asr"
	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/db"
	"github.com/clipforge/clipforge/internal/jobs"
	"github.com/clipforge/clipforge/internal/llm"
	"github.com/clipforge/clipforge/internal/logging"
	"github.com/clipforge/clipforge/internal/media/ffmpeg"
	"github.com/clipforge/clipforge/internal/media/ytdlp"
	"github.com/clipforge/clipforge/internal/metadata"
	"github.com/clipforge/clipforge/internal/pipeline"
	"github.com/clipforge/clipforge/internal/worker"
)

func runServe() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir(), cfg.WorkDir(), cfg.OutputDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting clipforge", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := jobs.NewRepository(database.Conn())

	user, err := ensureDefaultUser(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure default user: %w", err)
	}
	logger.Info("default user ready", "user_id", user.ID, "token", user.Token)

	transcoder := ffmpeg.New(cfg.FFmpegPath(), cfg.FFprobePath())
	downloader := ytdlp.New(cfg.YtdlpPath())
	transcriber := asr.New(cfg.WhisperBin(), cfg.WhisperModelDir())
	analyzer := llm.New(cfg.OpenRouterKey(), cfg.OpenRouterModel(), cfg.OpenRouterBaseURL())
	fetcher := metadata.NewFetcher(downloader, logger)

	processor := pipeline.NewProcessor(
		repo,
		transcoder,
		downloader,
		transcriber,
		analyzer,
		cfg.WorkDir(),
		cfg.OutputDir(),
		pipeline.Timeouts{
			Download:   cfg.TimeoutDownload(),
			Transcode:  cfg.TimeoutTranscode(),
			Transcribe: cfg.TimeoutTranscribe(),
			LLM:        cfg.TimeoutLLM(),
		},
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewPool(processor, repo, cfg.Workers(), cfg.QueueDepth(), logger)
	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		OutputDir:  cfg.OutputDir(),
		Repository: repo,
		Metadata:   fetcher,
		Pool:       pool,
		Logger:     logger,
		StartTime:  startTime,
		Version:    config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	logger.Info("initiating graceful shutdown")
	cancel()
	pool.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// ensureDefaultUser creates the single local user on first start. The
// generated token is the API credential and is logged once at startup.
func ensureDefaultUser(repo jobs.Repository) (*jobs.User, error) {
	ctx := context.Background()

	existing, err := repo.GetUser(ctx, "default")
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, err
	}

	user := &jobs.User{
		ID:        "default",
		Name:      "default",
		Token:     hex.EncodeToString(tokenBytes),
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
