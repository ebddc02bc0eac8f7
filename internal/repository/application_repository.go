package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/careers-portal/internal/model"
	"github.com/iliyamo/careers-portal/internal/workflow"
)

// ErrApplicationNotFound is returned when an application cannot be found in the DB.
var ErrApplicationNotFound = fmt.Errorf("application %w", ErrNotFound)

// ApplicationRepo encapsulates queries on the applications table.
type ApplicationRepo struct {
	db *sql.DB
}

func NewApplicationRepo(db *sql.DB) *ApplicationRepo {
	return &ApplicationRepo{db: db}
}

const applicationSelect = `SELECT a.id, a.job_id, j.job_number, j.title, a.user_id, a.first_name, a.last_name,
	a.email, a.contact_number, a.address, a.resume_url, a.resume_file_name, a.status,
	COALESCE(a.notes, ''), a.custom_field_values, a.archived_at, a.created_at, a.updated_at
	FROM applications a JOIN jobs j ON j.id = a.job_id`

func scanApplication(s rowScanner) (*model.Application, error) {
	var (
		a        model.Application
		userID   sql.NullInt64
		status   string
		archived sql.NullTime
	)
	if err := s.Scan(&a.ID, &a.JobID, &a.JobNumber, &a.JobTitle, &userID, &a.FirstName, &a.LastName,
		&a.Email, &a.ContactNumber, &a.Address, &a.ResumeURL, &a.ResumeFileName, &status,
		&a.Notes, &a.CustomFieldValues, &archived, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.UserID = uint64Ptr(userID)
	a.Status = workflow.Status(status)
	a.ArchivedAt = timePtr(archived)
	return &a, nil
}

// Create inserts a new application in the initial status.
func (r *ApplicationRepo) Create(ctx context.Context, a *model.Application) error {
	const q = `INSERT INTO applications (job_id, user_id, first_name, last_name, email, contact_number,
		address, resume_url, resume_file_name, status, custom_field_values)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q, a.JobID, a.UserID, a.FirstName, a.LastName, a.Email,
		a.ContactNumber, a.Address, a.ResumeURL, a.ResumeFileName, string(workflow.Initial), a.CustomFieldValues)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*a = *created
	return nil
}

// GetByID fetches an application joined with its job's number and title.
func (r *ApplicationRepo) GetByID(ctx context.Context, id uint64) (*model.Application, error) {
	a, err := scanApplication(r.db.QueryRowContext(ctx, applicationSelect+" WHERE a.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return a, nil
}

// ExistsForUser reports whether the user already applied to the job.
func (r *ApplicationRepo) ExistsForUser(ctx context.Context, userID, jobID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM applications WHERE user_id = ? AND job_id = ?", userID, jobID).Scan(&n)
	return n > 0, err
}

// Archive filter values.
const (
	ArchivedExclude = "exclude"
	ArchivedOnly    = "only"
	ArchivedInclude = "include"
)

// ApplicationFilter narrows application listings.  Archived defaults to
// excluding archived rows.
type ApplicationFilter struct {
	Status   workflow.Status
	JobID    uint64
	UserID   uint64
	Search   string
	Archived string
	Page     int
	PageSize int
}

// List returns one page of applications plus the total match count.
func (r *ApplicationRepo) List(ctx context.Context, f ApplicationFilter) ([]*model.Application, int64, error) {
	where := []string{}
	args := []any{}

	switch f.Archived {
	case ArchivedInclude:
	case ArchivedOnly:
		where = append(where, "a.archived_at IS NOT NULL")
	default:
		where = append(where, "a.archived_at IS NULL")
	}
	if f.Status != "" {
		where = append(where, "a.status = ?")
		args = append(args, string(f.Status))
	}
	if f.JobID != 0 {
		where = append(where, "a.job_id = ?")
		args = append(args, f.JobID)
	}
	if f.UserID != 0 {
		where = append(where, "a.user_id = ?")
		args = append(args, f.UserID)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		where = append(where, "(LOWER(a.first_name) LIKE ? OR LOWER(a.last_name) LIKE ? OR LOWER(a.email) LIKE ?)")
		like := "%" + s + "%"
		args = append(args, like, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM applications a WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Page, f.PageSize)
	rows, err := r.db.QueryContext(ctx,
		applicationSelect+" WHERE "+cond+" ORDER BY a.created_at DESC, a.id DESC LIMIT ? OFFSET ?",
		append(append([]any{}, args...), limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]*model.Application, 0, limit)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateStatus moves an application from one status to another and replaces
// its notes.  The from status guards against a concurrent change: when the
// row no longer has it, ErrConflict is returned.
func (r *ApplicationRepo) UpdateStatus(ctx context.Context, id uint64, from, to workflow.Status, notes *string) error {
	q := "UPDATE applications SET status=?, updated_at=CURRENT_TIMESTAMP WHERE id=? AND status=?"
	args := []any{string(to), id, string(from)}
	if notes != nil {
		q = "UPDATE applications SET status=?, notes=?, updated_at=CURRENT_TIMESTAMP WHERE id=? AND status=?"
		args = []any{string(to), *notes, id, string(from)}
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// Archive stamps archived_at; status is left untouched.
func (r *ApplicationRepo) Archive(ctx context.Context, id uint64) error {
	return r.execOne(ctx, "UPDATE applications SET archived_at=COALESCE(archived_at, CURRENT_TIMESTAMP) WHERE id=?", id)
}

// Restore clears archived_at.
func (r *ApplicationRepo) Restore(ctx context.Context, id uint64) error {
	return r.execOne(ctx, "UPDATE applications SET archived_at=NULL WHERE id=?", id)
}

// Delete permanently removes an application.
func (r *ApplicationRepo) Delete(ctx context.Context, id uint64) error {
	return r.execOne(ctx, "DELETE FROM applications WHERE id=?", id)
}

func (r *ApplicationRepo) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

// CountByStatus returns the number of non-archived applications per status.
// Statuses without applications are reported with a zero count.
func (r *ApplicationRepo) CountByStatus(ctx context.Context) ([]model.StatusCount, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM applications WHERE archived_at IS NULL GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[workflow.Status]int64{}
	for rows.Next() {
		var (
			s string
			n int64
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		counts[workflow.Status(s)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]model.StatusCount, 0, len(workflow.All()))
	for _, st := range workflow.All() {
		out = append(out, model.StatusCount{Status: st, Count: counts[st]})
	}
	return out, nil
}
