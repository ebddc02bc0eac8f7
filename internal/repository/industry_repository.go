package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/careers-portal/internal/model"
)

// ErrIndustryNotFound is returned when an industry cannot be found in the DB.
var ErrIndustryNotFound = fmt.Errorf("industry %w", ErrNotFound)

// IndustryRepo encapsulates queries on the industries table.
type IndustryRepo struct {
	db *sql.DB
}

func NewIndustryRepo(db *sql.DB) *IndustryRepo {
	return &IndustryRepo{db: db}
}

const industrySelect = `SELECT i.id, i.name, i.description, i.is_active,
	(SELECT COUNT(*) FROM jobs j WHERE j.industry_id = i.id), i.created_at, i.updated_at
	FROM industries i`

func scanIndustry(s rowScanner) (*model.Industry, error) {
	var in model.Industry
	if err := s.Scan(&in.ID, &in.Name, &in.Description, &in.IsActive, &in.JobCount, &in.CreatedAt, &in.UpdatedAt); err != nil {
		return nil, err
	}
	return &in, nil
}

// Create inserts an industry; a taken name yields ErrDuplicate.
func (r *IndustryRepo) Create(ctx context.Context, in *model.Industry) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO industries (name, description, is_active) VALUES (?,?,?)",
		in.Name, in.Description, in.IsActive)
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
	*in = *created
	return nil
}

// Update overwrites name, description and the active flag.
func (r *IndustryRepo) Update(ctx context.Context, in *model.Industry) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE industries SET name=?, description=?, is_active=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		in.Name, in.Description, in.IsActive, in.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrIndustryNotFound
	}
	return nil
}

// GetByID fetches an industry with its job count.
func (r *IndustryRepo) GetByID(ctx context.Context, id uint64) (*model.Industry, error) {
	in, err := scanIndustry(r.db.QueryRowContext(ctx, industrySelect+" WHERE i.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIndustryNotFound
		}
		return nil, err
	}
	return in, nil
}

// List returns industries ordered by name, optionally only active ones.
func (r *IndustryRepo) List(ctx context.Context, activeOnly bool) ([]*model.Industry, error) {
	q := industrySelect
	if activeOnly {
		q += " WHERE i.is_active = 1"
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY i.name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Industry
	for rows.Next() {
		in, err := scanIndustry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an industry and returns how many jobs lost their
// category.  Those jobs stay; the foreign key clears their industry_id.
func (r *IndustryRepo) Delete(ctx context.Context, id uint64) (affectedJobs int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs WHERE industry_id = ?", id).Scan(&affectedJobs); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, "UPDATE jobs SET industry_id = NULL WHERE industry_id = ?", id); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM industries WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrIndustryNotFound
		return 0, err
	}
	return affectedJobs, nil
}
