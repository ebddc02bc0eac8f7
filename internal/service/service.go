// Package service holds the business rules that sit between HTTP handlers
// and repositories: permission and authority checks, the application status
// workflow, input validation and notification fan-out.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/careers-portal/internal/access"
	"github.com/iliyamo/careers-portal/internal/model"
	"github.com/iliyamo/careers-portal/internal/repository"
	"github.com/iliyamo/careers-portal/internal/workflow"
)

var (
	// ErrValidation wraps every input validation failure.
	ErrValidation = errors.New("validation failed")
	// ErrAccessDenied is returned when a permission or authority rule fails.
	ErrAccessDenied = errors.New("access denied")
	// ErrJobClosed means the job is published but past its expiry date.
	ErrJobClosed = fmt.Errorf("job is not accepting applications: %w", repository.ErrConflict)
	// ErrAlreadyApplied means the signed-in candidate applied to the job before.
	ErrAlreadyApplied = fmt.Errorf("already applied to this job: %w", repository.ErrConflict)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func require(a access.Actor, p access.Permission) error {
	if !access.HasPermission(a, p) {
		return ErrAccessDenied
	}
	return nil
}

// JobStore is the persistence used by JobService and ApplicationService.
type JobStore interface {
	Create(ctx context.Context, j *model.Job) error
	Update(ctx context.Context, j *model.Job) error
	GetByID(ctx context.Context, id uint64) (*model.Job, error)
	GetByNumber(ctx context.Context, number string) (*model.Job, error)
	SetPublished(ctx context.Context, id uint64, publish bool) error
	Delete(ctx context.Context, id uint64) error
	Search(ctx context.Context, f repository.JobFilter) ([]*model.Job, int64, error)
	Counts(ctx context.Context) (total, published int64, err error)
}

// ApplicationStore is the persistence used by ApplicationService.
type ApplicationStore interface {
	Create(ctx context.Context, a *model.Application) error
	GetByID(ctx context.Context, id uint64) (*model.Application, error)
	ExistsForUser(ctx context.Context, userID, jobID uint64) (bool, error)
	List(ctx context.Context, f repository.ApplicationFilter) ([]*model.Application, int64, error)
	UpdateStatus(ctx context.Context, id uint64, from, to workflow.Status, notes *string) error
	Archive(ctx context.Context, id uint64) error
	Restore(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) error
	CountByStatus(ctx context.Context) ([]model.StatusCount, error)
}

// IndustryStore is the persistence used by IndustryService.
type IndustryStore interface {
	Create(ctx context.Context, in *model.Industry) error
	Update(ctx context.Context, in *model.Industry) error
	GetByID(ctx context.Context, id uint64) (*model.Industry, error)
	List(ctx context.Context, activeOnly bool) ([]*model.Industry, error)
	Delete(ctx context.Context, id uint64) (int64, error)
}

// UserStore is the persistence used by UserAdminService.
type UserStore interface {
	Invite(ctx context.Context, email string, a access.Assignment, tokenHash string, exp time.Time) (uint64, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	List(ctx context.Context, f repository.UserFilter) ([]*model.User, int64, error)
	SetRole(ctx context.Context, userID uint64, a access.Assignment) error
	SetPermissionLevel(ctx context.Context, userID uint64, level access.PermissionLevel) error
	SetActive(ctx context.Context, userID uint64, active bool) error
	Delete(ctx context.Context, userID uint64) error
	RotateInvitation(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
}

// TokenRevoker drops a user's refresh tokens so role or status changes take
// effect at the next refresh.
type TokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// Notifier hands a notification event to the e-mail pipeline.
type Notifier interface {
	Publish(ctx context.Context, payload any) error
}

// CacheInvalidator drops cached public job listings.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Page is one page of a listing plus the total match count.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func newPage[T any](items []T, total int64, page, size int) Page[T] {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = repository.DefaultPageSize
	}
	if size > repository.MaxPageSize {
		size = repository.MaxPageSize
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: page, PageSize: size}
}

// notifyTimeout bounds the detached publish after a committed change.
const notifyTimeout = 5 * time.Second

// noopNotifier is used when the broker is not configured.
type noopNotifier struct{}

func (noopNotifier) Publish(context.Context, any) error { return nil }

type noopCache struct{}

func (noopCache) Invalidate(context.Context) error { return nil }
