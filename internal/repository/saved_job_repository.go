package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/careers-portal/internal/model"
)

// SavedJobRepo stores candidate bookmarks.
type SavedJobRepo struct {
	db *sql.DB
}

func NewSavedJobRepo(db *sql.DB) *SavedJobRepo {
	return &SavedJobRepo{db: db}
}

// Save bookmarks a job.  Saving twice keeps the original saved_at.
func (r *SavedJobRepo) Save(ctx context.Context, userID, jobID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO saved_jobs (user_id, job_id) VALUES (?, ?)", userID, jobID)
	return err
}

// RemoveByNumber deletes a bookmark addressed by public job number, so a
// candidate can drop a job that has since been unpublished.  Removing a
// missing bookmark is not an error.
func (r *SavedJobRepo) RemoveByNumber(ctx context.Context, userID uint64, jobNumber string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE s FROM saved_jobs s JOIN jobs j ON j.id = s.job_id
		 WHERE s.user_id = ? AND j.job_number = ?`, userID, jobNumber)
	return err
}

// ListForUser returns the user's bookmarks with their jobs, newest first.
func (r *SavedJobRepo) ListForUser(ctx context.Context, userID uint64) ([]*model.SavedJob, error) {
	q := `SELECT s.saved_at, ` + jobSelect[len("SELECT "):] + `
	      JOIN saved_jobs s ON s.job_id = j.id
	      WHERE s.user_id = ?
	      ORDER BY s.saved_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.SavedJob
	for rows.Next() {
		var savedAt time.Time
		j, err := scanJob(prefixScanner{rows, &savedAt})
		if err != nil {
			return nil, err
		}
		out = append(out, &model.SavedJob{UserID: userID, JobID: j.ID, SavedAt: savedAt, Job: j})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// JobIDs returns the ids of every job the user saved.
func (r *SavedJobRepo) JobIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT job_id FROM saved_jobs WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// prefixScanner scans leading extra columns before handing the rest to a
// row scanner built for the plain job select.
type prefixScanner struct {
	rows  *sql.Rows
	extra any
}

func (p prefixScanner) Scan(dest ...any) error {
	return p.rows.Scan(append([]any{p.extra}, dest...)...)
}
