package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrConflict is returned when a status transition is not legal for the
// job's current state (for example claiming a job that is not pending).
var ErrConflict = errors.New("job is not in a claimable state")

type Repository interface {
	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobsByUser(ctx context.Context, userID string, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	MarkProcessing(ctx context.Context, id string) error
	SetAnalysis(ctx context.Context, id string, totalClips int) error
	SetProgress(ctx context.Context, id string, progress int) error
	CompleteJob(ctx context.Context, id string, clips []Clip) error
	FailJob(ctx context.Context, id, reason string) error

	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByToken(ctx context.Context, token string) (*User, error)
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const jobColumns = `id, user_id, source_type, source_url, prompt,
	duration_min, duration_max, output_folder, subtitles,
	translate_title, save_original_srt, save_translated_srt,
	status, progress, total_clips, error, created_at, updated_at`

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	subs, err := json.Marshal(j.Subtitles)
	if err != nil {
		return fmt.Errorf("marshal subtitle config: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.UserID, j.SourceType, j.SourceURL, j.Prompt,
		j.Duration.Min, j.Duration.Max, j.OutputFolder, string(subs),
		boolToInt(j.TranslateTitle), boolToInt(j.SaveOriginalSrt), boolToInt(j.SaveTranslatedSrt),
		j.Status, j.Progress, j.TotalClips, nullString(j.Error),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil || job == nil {
		return job, err
	}

	clips, err := r.getClips(ctx, id)
	if err != nil {
		return nil, err
	}
	job.Clips = clips
	return job, nil
}

func (r *SQLiteRepository) ListJobsByUser(ctx context.Context, userID string, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE user_id = ? ORDER BY created_at DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(ctx, rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(ctx, rows)
}

// MarkProcessing claims a pending job. The guarded UPDATE keeps the status
// machine monotonic: only pending -> processing is possible here.
func (r *SQLiteRepository) MarkProcessing(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`, StatusProcessing, now(), id, StatusPending)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *SQLiteRepository) SetAnalysis(ctx context.Context, id string, totalClips int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET total_clips = ?, updated_at = ? WHERE id = ?
	`, totalClips, now(), id)
	return err
}

func (r *SQLiteRepository) SetProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = ? WHERE id = ?
	`, progress, now(), id)
	return err
}

// CompleteJob writes the terminal completed state and the clip list in one
// transaction, so a poller never observes completed with an empty clip list.
func (r *SQLiteRepository) CompleteJob(ctx context.Context, id string, clips []Clip) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range clips {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO clips (job_id, idx, title, path, start_sec, end_sec, duration_sec,
				subtitle_path, translated_subtitle_path)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, c.Idx, c.Title, c.Path, c.Start, c.End, c.Duration,
			nullString(c.SubtitlePath), nullString(c.TranslatedSubtitlePath)); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE jobs SET status = ?, progress = 100, error = NULL, updated_at = ?
		WHERE id = ? AND status = ?
	`, StatusCompleted, now(), id, StatusProcessing)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConflict
	}

	return tx.Commit()
}

func (r *SQLiteRepository) FailJob(ctx context.Context, id, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, progress = 0, error = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)
	`, StatusFailed, reason, now(), id, StatusPending, StatusProcessing)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *SQLiteRepository) getClips(ctx context.Context, jobID string) ([]Clip, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT idx, title, path, start_sec, end_sec, duration_sec,
			subtitle_path, translated_subtitle_path
		FROM clips WHERE job_id = ? ORDER BY idx ASC
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clips []Clip
	for rows.Next() {
		var c Clip
		var subPath, transPath sql.NullString
		if err := rows.Scan(&c.Idx, &c.Title, &c.Path, &c.Start, &c.End, &c.Duration,
			&subPath, &transPath); err != nil {
			return nil, err
		}
		c.SubtitlePath = subPath.String
		c.TranslatedSubtitlePath = transPath.String
		clips = append(clips, c)
	}
	return clips, rows.Err()
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u *User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, token, created_at) VALUES (?, ?, ?, ?)
	`, u.ID, u.Name, u.Token, u.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, token, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *SQLiteRepository) GetUserByToken(ctx context.Context, token string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, token, created_at FROM users WHERE token = ?`, token)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var createdAt string
	err := row.Scan(&u.ID, &u.Name, &u.Token, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

func scanJob(row *sql.Row) (*Job, error) {
	j, err := scanJobFields(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *SQLiteRepository) scanJobs(ctx context.Context, rows *sql.Rows) ([]*Job, error) {
	var out []*Job
	for rows.Next() {
		j, err := scanJobFields(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, j := range out {
		clips, err := r.getClips(ctx, j.ID)
		if err != nil {
			return nil, err
		}
		j.Clips = clips
	}
	return out, nil
}

func scanJobFields(scan func(dest ...any) error) (*Job, error) {
	var j Job
	var subs string
	var translateTitle, saveOrig, saveTrans int
	var errMsg sql.NullString
	var createdAt, updatedAt string

	err := scan(&j.ID, &j.UserID, &j.SourceType, &j.SourceURL, &j.Prompt,
		&j.Duration.Min, &j.Duration.Max, &j.OutputFolder, &subs,
		&translateTitle, &saveOrig, &saveTrans,
		&j.Status, &j.Progress, &j.TotalClips, &errMsg, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(subs), &j.Subtitles); err != nil {
		return nil, fmt.Errorf("unmarshal subtitle config for job %s: %w", j.ID, err)
	}
	j.TranslateTitle = translateTitle == 1
	j.SaveOriginalSrt = saveOrig == 1
	j.SaveTranslatedSrt = saveTrans == 1
	j.Error = errMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
