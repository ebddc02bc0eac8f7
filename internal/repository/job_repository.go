// Package repository contains data access logic separated from HTTP handlers.
// This file defines the job repository: CRUD, publishing and the search used
// by both the public careers listing and the admin job table.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/careers-portal/internal/model"
)

// ErrJobNotFound is returned when a job cannot be found in the DB.
var ErrJobNotFound = fmt.Errorf("job %w", ErrNotFound)

// JobRepo encapsulates all database queries related to jobs.
type JobRepo struct {
	db *sql.DB
}

// NewJobRepo constructs a JobRepo with the provided DB handle.
func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{db: db}
}

const jobSelect = `SELECT j.id, j.job_number, j.title, j.description, j.industry_id, COALESCE(i.name, ''),
	j.location, j.work_type, j.job_type, j.shift_type, j.salary_min, j.salary_max,
	j.salary_currency, j.salary_period, j.is_published, j.published_at, j.expires_at,
	j.custom_fields, j.created_by, j.created_at, j.updated_at
	FROM jobs j LEFT JOIN industries i ON i.id = j.industry_id`

func scanJob(s rowScanner) (*model.Job, error) {
	var (
		j                      model.Job
		industryID, createdBy  sql.NullInt64
		salaryMin, salaryMax   sql.NullInt64
		publishedAt, expiresAt sql.NullTime
	)
	if err := s.Scan(&j.ID, &j.JobNumber, &j.Title, &j.Description, &industryID, &j.IndustryName,
		&j.Location, &j.WorkType, &j.JobType, &j.ShiftType, &salaryMin, &salaryMax,
		&j.SalaryCurrency, &j.SalaryPeriod, &j.IsPublished, &publishedAt, &expiresAt,
		&j.CustomFields, &createdBy, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.IndustryID = uint64Ptr(industryID)
	j.CreatedBy = uint64Ptr(createdBy)
	j.SalaryMin = int64Ptr(salaryMin)
	j.SalaryMax = int64Ptr(salaryMax)
	j.PublishedAt = timePtr(publishedAt)
	j.ExpiresAt = timePtr(expiresAt)
	return &j, nil
}

// Create inserts a draft job.  The caller assigns JobNumber; a collision
// yields ErrDuplicate so the caller can pick another number.
func (r *JobRepo) Create(ctx context.Context, j *model.Job) error {
	const q = `INSERT INTO jobs (job_number, title, description, industry_id, location, work_type, job_type,
		shift_type, salary_min, salary_max, salary_currency, salary_period, expires_at, custom_fields, created_by)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q, j.JobNumber, j.Title, j.Description, j.IndustryID, j.Location,
		j.WorkType, j.JobType, j.ShiftType, j.SalaryMin, j.SalaryMax, j.SalaryCurrency, j.SalaryPeriod,
		j.ExpiresAt, j.CustomFields, j.CreatedBy)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
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
	*j = *created
	return nil
}

// Update overwrites the editable fields.  job_number and the publishing
// columns are never touched here.
func (r *JobRepo) Update(ctx context.Context, j *model.Job) error {
	const q = `UPDATE jobs SET title=?, description=?, industry_id=?, location=?, work_type=?, job_type=?,
		shift_type=?, salary_min=?, salary_max=?, salary_currency=?, salary_period=?, expires_at=?,
		custom_fields=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=?`
	res, err := r.db.ExecContext(ctx, q, j.Title, j.Description, j.IndustryID, j.Location, j.WorkType,
		j.JobType, j.ShiftType, j.SalaryMin, j.SalaryMax, j.SalaryCurrency, j.SalaryPeriod, j.ExpiresAt,
		j.CustomFields, j.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// GetByID fetches a job by its internal id.
func (r *JobRepo) GetByID(ctx context.Context, id uint64) (*model.Job, error) {
	return r.getOne(ctx, jobSelect+" WHERE j.id = ?", id)
}

// GetByNumber fetches a job by its public job number.
func (r *JobRepo) GetByNumber(ctx context.Context, number string) (*model.Job, error) {
	return r.getOne(ctx, jobSelect+" WHERE j.job_number = ?", strings.TrimSpace(number))
}

func (r *JobRepo) getOne(ctx context.Context, q string, arg any) (*model.Job, error) {
	j, err := scanJob(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return j, nil
}

// SetPublished publishes (stamping published_at) or unpublishes a job.
func (r *JobRepo) SetPublished(ctx context.Context, id uint64, publish bool) error {
	q := "UPDATE jobs SET is_published=0 WHERE id=?"
	if publish {
		q = "UPDATE jobs SET is_published=1, published_at=CURRENT_TIMESTAMP WHERE id=?"
	}
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// Delete removes a job; its applications and bookmarks cascade.
func (r *JobRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM jobs WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// JobFilter defines filters & pagination for searching jobs.  PublicOnly
// restricts the result to published, unexpired postings.
type JobFilter struct {
	Search     string
	Location   string
	IndustryID uint64
	WorkType   string
	JobType    string
	ShiftType  string
	Published  *bool
	PublicOnly bool
	Page       int
	PageSize   int
}

// Search returns one page of jobs plus the total match count.
func (r *JobRepo) Search(ctx context.Context, f JobFilter) ([]*model.Job, int64, error) {
	where := []string{}
	args := []any{}

	if f.PublicOnly {
		where = append(where, "j.is_published = 1", "(j.expires_at IS NULL OR j.expires_at > NOW())")
	} else if f.Published != nil {
		where = append(where, "j.is_published = ?")
		args = append(args, *f.Published)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		where = append(where, "(LOWER(j.title) LIKE ? OR LOWER(j.job_number) LIKE ?)")
		args = append(args, "%"+s+"%", "%"+s+"%")
	}
	if l := strings.ToLower(strings.TrimSpace(f.Location)); l != "" {
		where = append(where, "LOWER(j.location) LIKE ?")
		args = append(args, "%"+l+"%")
	}
	if f.IndustryID != 0 {
		where = append(where, "j.industry_id = ?")
		args = append(args, f.IndustryID)
	}
	for _, eq := range [][2]string{{"j.work_type", f.WorkType}, {"j.job_type", f.JobType}, {"j.shift_type", f.ShiftType}} {
		if eq[1] != "" {
			where = append(where, eq[0]+" = ?")
			args = append(args, eq[1])
		}
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs j WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Page, f.PageSize)
	q := jobSelect + " WHERE " + cond + " ORDER BY COALESCE(j.published_at, j.created_at) DESC, j.id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(append([]any{}, args...), limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*model.Job, 0, limit)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Counts returns the total and published job counts for the dashboard.
func (r *JobRepo) Counts(ctx context.Context) (total, published int64, err error) {
	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(is_published), 0) FROM jobs").Scan(&total, &published)
	return total, published, err
}
