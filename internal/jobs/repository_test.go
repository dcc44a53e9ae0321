package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/clipforge/clipforge/internal/db"
)

func setupTestRepo(t *testing.T) Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := db.New(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return NewRepository(database.Conn())
}

func newTestJob(userID string) *Job {
	now := time.Now().UTC().Truncate(time.Second)
	return &Job{
		ID:         NewID(),
		UserID:     userID,
		SourceType: SourceTypeLocal,
		SourceURL:  "/videos/input.mp4",
		Prompt:     "find the best moments",
		Duration:   DurationWindow{Min: 30, Max: 60},
		Subtitles:  SubtitleConfig{Generate: true, Language: "en", Style: DefaultStyle()},
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func createTestUser(t *testing.T, repo Repository, id, token string) {
	t.Helper()
	err := repo.CreateUser(context.Background(), &User{
		ID: id, Name: id, Token: token, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
}

func TestRepository_CreateAndGetJob(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	createTestUser(t, repo, "u1", "tok1")

	job := newTestJob("u1")
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	got, err := repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetJob() returned nil")
	}
	if got.Status != StatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if got.Duration.Min != 30 || got.Duration.Max != 60 {
		t.Errorf("duration = %+v", got.Duration)
	}
	if !got.Subtitles.Generate || got.Subtitles.Style.FontSize != 24 {
		t.Errorf("subtitles config not round-tripped: %+v", got.Subtitles)
	}
}

func TestRepository_GetJob_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	got, err := repo.GetJob(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got != nil {
		t.Fatal("GetJob() should return nil for unknown id")
	}
}

func TestRepository_MarkProcessing_ClaimsOnce(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	createTestUser(t, repo, "u1", "tok1")

	job := newTestJob("u1")
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	if err := repo.MarkProcessing(ctx, job.ID); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}
	if err := repo.MarkProcessing(ctx, job.ID); err != ErrConflict {
		t.Fatalf("second MarkProcessing() error = %v, want ErrConflict", err)
	}

	got, _ := repo.GetJob(ctx, job.ID)
	if got.Status != StatusProcessing {
		t.Errorf("status = %s, want processing", got.Status)
	}
}

func TestRepository_CompleteJob_AttachesClipsAtomically(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	createTestUser(t, repo, "u1", "tok1")

	job := newTestJob("u1")
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if err := repo.MarkProcessing(ctx, job.ID); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}

	clips := []Clip{
		{Idx: 1, Title: "Opening", Path: "/processed/x/clips/clip_1.mp4", Start: 0, End: 45, Duration: 45},
		{Idx: 2, Title: "Finale", Path: "/processed/x/clips/clip_2.mp4", Start: 100, End: 140, Duration: 40},
	}
	if err := repo.CompleteJob(ctx, job.ID, clips); err != nil {
		t.Fatalf("CompleteJob() error = %v", err)
	}

	got, err := repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if len(got.Clips) != 2 {
		t.Fatalf("clip count = %d, want 2", len(got.Clips))
	}
	if got.Clips[0].Idx != 1 || got.Clips[1].Idx != 2 {
		t.Errorf("clip order = %d, %d", got.Clips[0].Idx, got.Clips[1].Idx)
	}
	if got.Progress != 100 {
		t.Errorf("progress = %d, want 100", got.Progress)
	}
}

func TestRepository_CompleteJob_RejectsTerminalJob(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	createTestUser(t, repo, "u1", "tok1")

	job := newTestJob("u1")
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if err := repo.MarkProcessing(ctx, job.ID); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}
	if err := repo.FailJob(ctx, job.ID, "download failed"); err != nil {
		t.Fatalf("FailJob() error = %v", err)
	}

	if err := repo.CompleteJob(ctx, job.ID, nil); err == nil {
		t.Fatal("CompleteJob() should fail for a job already in a terminal state")
	}

	got, _ := repo.GetJob(ctx, job.ID)
	if got.Status != StatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
	if got.Error != "download failed" {
		t.Errorf("error = %q", got.Error)
	}
}

func TestRepository_FailJob_DoesNotRegressCompleted(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	createTestUser(t, repo, "u1", "tok1")

	job := newTestJob("u1")
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if err := repo.MarkProcessing(ctx, job.ID); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}
	if err := repo.CompleteJob(ctx, job.ID, []Clip{{Idx: 1, Title: "t", Path: "p", Start: 0, End: 30, Duration: 30}}); err != nil {
		t.Fatalf("CompleteJob() error = %v", err)
	}

	if err := repo.FailJob(ctx, job.ID, "late failure"); err == nil {
		t.Fatal("FailJob() should not overwrite a completed job")
	}

	got, _ := repo.GetJob(ctx, job.ID)
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
}

func TestRepository_ListPendingJobs(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	createTestUser(t, repo, "u1", "tok1")

	a := newTestJob("u1")
	b := newTestJob("u1")
	for _, j := range []*Job{a, b} {
		if err := repo.CreateJob(ctx, j); err != nil {
			t.Fatalf("CreateJob() error = %v", err)
		}
	}
	if err := repo.MarkProcessing(ctx, a.ID); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}

	pending, err := repo.ListPendingJobs(ctx)
	if err != nil {
		t.Fatalf("ListPendingJobs() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Fatalf("pending = %v", pending)
	}
}

func TestRepository_ListJobsByUser_ScopedToOwner(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	createTestUser(t, repo, "u1", "tok1")
	createTestUser(t, repo, "u2", "tok2")

	mine := newTestJob("u1")
	other := newTestJob("u2")
	for _, j := range []*Job{mine, other} {
		if err := repo.CreateJob(ctx, j); err != nil {
			t.Fatalf("CreateJob() error = %v", err)
		}
	}

	list, err := repo.ListJobsByUser(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListJobsByUser() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != mine.ID {
		t.Fatalf("list = %v", list)
	}
}

func TestRepository_SetAnalysisAndProgress(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	createTestUser(t, repo, "u1", "tok1")

	job := newTestJob("u1")
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	if err := repo.SetAnalysis(ctx, job.ID, 4); err != nil {
		t.Fatalf("SetAnalysis() error = %v", err)
	}
	if err := repo.SetProgress(ctx, job.ID, 25); err != nil {
		t.Fatalf("SetProgress() error = %v", err)
	}

	got, _ := repo.GetJob(ctx, job.ID)
	if got.TotalClips != 4 {
		t.Errorf("totalClips = %d, want 4", got.TotalClips)
	}
	if got.Progress != 25 {
		t.Errorf("progress = %d, want 25", got.Progress)
	}
}

func TestRepository_GetUserByToken(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	createTestUser(t, repo, "u1", "secret-token")

	user, err := repo.GetUserByToken(ctx, "secret-token")
	if err != nil {
		t.Fatalf("GetUserByToken() error = %v", err)
	}
	if user == nil || user.ID != "u1" {
		t.Fatalf("user = %+v", user)
	}

	missing, err := repo.GetUserByToken(ctx, "wrong")
	if err != nil {
		t.Fatalf("GetUserByToken() error = %v", err)
	}
	if missing != nil {
		t.Fatal("GetUserByToken() should return nil for unknown token")
	}
}
