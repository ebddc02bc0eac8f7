package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/careers-portal/internal/access"
	"github.com/iliyamo/careers-portal/internal/model"
	"github.com/iliyamo/careers-portal/internal/repository"
	"github.com/iliyamo/careers-portal/internal/utils"
)

// JobInput is the editable part of a job posting.
type JobInput struct {
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	IndustryID     *uint64            `json:"industry_id"`
	Location       string             `json:"location"`
	WorkType       string             `json:"work_type"`
	JobType        string             `json:"job_type"`
	ShiftType      string             `json:"shift_type"`
	SalaryMin      *int64             `json:"salary_min"`
	SalaryMax      *int64             `json:"salary_max"`
	SalaryCurrency string             `json:"salary_currency"`
	SalaryPeriod   string             `json:"salary_period"`
	ExpiresAt      *time.Time         `json:"expires_at"`
	CustomFields   model.CustomFields `json:"custom_fields"`
}

var (
	fieldKeyRe  = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)
	currencyRe  = regexp.MustCompile(`^[A-Z]{3}$`)
	jobNumberRe = regexp.MustCompile(`^JOB-[0-9A-F]{8}$`)
)

// normalize trims strings and lower-cases the enumerations.
func (in *JobInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.WorkType = strings.ToLower(strings.TrimSpace(in.WorkType))
	in.JobType = strings.ToLower(strings.TrimSpace(in.JobType))
	in.ShiftType = strings.ToLower(strings.TrimSpace(in.ShiftType))
	in.SalaryCurrency = strings.ToUpper(strings.TrimSpace(in.SalaryCurrency))
	in.SalaryPeriod = strings.ToLower(strings.TrimSpace(in.SalaryPeriod))
	for i := range in.CustomFields {
		f := &in.CustomFields[i]
		f.Key = strings.TrimSpace(f.Key)
		f.Label = strings.TrimSpace(f.Label)
		f.Type = strings.ToLower(strings.TrimSpace(f.Type))
	}
}

// Validate checks a normalized input.
func (in *JobInput) Validate() error {
	if in.Title == "" {
		return invalid("title is required")
	}
	if len(in.Title) > 255 {
		return invalid("title must be at most 255 characters")
	}
	if in.Description == "" {
		return invalid("description is required")
	}
	enums := []struct {
		name, value string
		allowed     []string
	}{
		{"work_type", in.WorkType, model.WorkTypes},
		{"job_type", in.JobType, model.JobTypes},
		{"shift_type", in.ShiftType, model.ShiftTypes},
		{"salary_period", in.SalaryPeriod, model.SalaryPeriods},
	}
	for _, e := range enums {
		if e.value != "" && !model.Contains(e.allowed, e.value) {
			return invalid("%s must be one of %s", e.name, strings.Join(e.allowed, ", "))
		}
	}
	if in.SalaryMin != nil && *in.SalaryMin < 0 || in.SalaryMax != nil && *in.SalaryMax < 0 {
		return invalid("salary must not be negative")
	}
	if in.SalaryMin != nil && in.SalaryMax != nil && *in.SalaryMin > *in.SalaryMax {
		return invalid("salary_min must not exceed salary_max")
	}
	if in.SalaryCurrency != "" && !currencyRe.MatchString(in.SalaryCurrency) {
		return invalid("salary_currency must be a 3-letter code")
	}
	return validateCustomFields(in.CustomFields)
}

func validateCustomFields(fields model.CustomFields) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if !fieldKeyRe.MatchString(f.Key) {
			return invalid("custom field key %q must be lower_snake_case", f.Key)
		}
		if seen[f.Key] {
			return invalid("duplicate custom field key %q", f.Key)
		}
		seen[f.Key] = true
		if f.Label == "" {
			return invalid("custom field %q needs a label", f.Key)
		}
		if !model.Contains(model.FieldTypes, f.Type) {
			return invalid("custom field %q has unknown type %q", f.Key, f.Type)
		}
		if f.Type == model.FieldSelect && len(f.Options) == 0 {
			return invalid("select field %q needs options", f.Key)
		}
	}
	return nil
}

func (in *JobInput) apply(j *model.Job) {
	j.Title = in.Title
	j.Description = in.Description
	j.IndustryID = in.IndustryID
	j.Location = in.Location
	j.WorkType = in.WorkType
	j.JobType = in.JobType
	j.ShiftType = in.ShiftType
	j.SalaryMin = in.SalaryMin
	j.SalaryMax = in.SalaryMax
	j.SalaryCurrency = in.SalaryCurrency
	j.SalaryPeriod = in.SalaryPeriod
	j.ExpiresAt = in.ExpiresAt
	j.CustomFields = in.CustomFields
	if j.CustomFields == nil {
		j.CustomFields = model.CustomFields{}
	}
}

// JobService manages postings for the admin area and serves the public board.
type JobService struct {
	jobs  JobStore
	cache CacheInvalidator
	log   zerolog.Logger
}

func NewJobService(jobs JobStore, cache CacheInvalidator, log zerolog.Logger) *JobService {
	if cache == nil {
		cache = noopCache{}
	}
	return &JobService{jobs: jobs, cache: cache, log: log.With().Str("service", "jobs").Logger()}
}

// invalidate drops the public listing cache; failures only cost freshness.
func (s *JobService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("job cache invalidation failed")
	}
}

// Create stores a new draft with a freshly generated job number.
func (s *JobService) Create(ctx context.Context, actor access.Actor, in JobInput) (*model.Job, error) {
	if err := require(actor, access.JobsCreate); err != nil {
		return nil, err
	}
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	j := &model.Job{CreatedBy: &actor.UserID}
	in.apply(j)

	const attempts = 5
	for i := 0; i < attempts; i++ {
		j.JobNumber = utils.NewJobNumber()
		err := s.jobs.Create(ctx, j)
		if err == nil {
			s.log.Info().Uint64("job_id", j.ID).Str("job_number", j.JobNumber).Uint64("actor", actor.UserID).Msg("job created")
			return j, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create job: %w", err)
		}
	}
	return nil, fmt.Errorf("failed to allocate a job number: %w", repository.ErrConflict)
}

// Update edits a job.  The job number never changes.
func (s *JobService) Update(ctx context.Context, actor access.Actor, id uint64, in JobInput) (*model.Job, error) {
	if err := require(actor, access.JobsEdit); err != nil {
		return nil, err
	}
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	j, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(j)
	if err := s.jobs.Update(ctx, j); err != nil {
		return nil, err
	}
	updated, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated.IsPublished {
		s.invalidate(ctx)
	}
	s.log.Info().Uint64("job_id", id).Uint64("actor", actor.UserID).Msg("job updated")
	return updated, nil
}

// SetPublished publishes or unpublishes a job.
func (s *JobService) SetPublished(ctx context.Context, actor access.Actor, id uint64, publish bool) (*model.Job, error) {
	if err := require(actor, access.JobsPublish); err != nil {
		return nil, err
	}
	if err := s.jobs.SetPublished(ctx, id, publish); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.log.Info().Uint64("job_id", id).Bool("published", publish).Uint64("actor", actor.UserID).Msg("job publish state changed")
	return s.jobs.GetByID(ctx, id)
}

// Delete removes a job together with its applications.
func (s *JobService) Delete(ctx context.Context, actor access.Actor, id uint64) error {
	if err := require(actor, access.JobsDelete); err != nil {
		return err
	}
	if err := s.jobs.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.log.Info().Uint64("job_id", id).Uint64("actor", actor.UserID).Msg("job deleted")
	return nil
}

// Get returns any job, draft or published, to staff.
func (s *JobService) Get(ctx context.Context, actor access.Actor, id uint64) (*model.Job, error) {
	if err := require(actor, access.JobsView); err != nil {
		return nil, err
	}
	return s.jobs.GetByID(ctx, id)
}

// List is the admin job table.
func (s *JobService) List(ctx context.Context, actor access.Actor, f repository.JobFilter) (Page[*model.Job], error) {
	if err := require(actor, access.JobsView); err != nil {
		return Page[*model.Job]{}, err
	}
	f.PublicOnly = false
	jobs, total, err := s.jobs.Search(ctx, f)
	if err != nil {
		return Page[*model.Job]{}, err
	}
	return newPage(jobs, total, f.Page, f.PageSize), nil
}

// PublicList returns published, unexpired jobs.
func (s *JobService) PublicList(ctx context.Context, f repository.JobFilter) (Page[*model.Job], error) {
	f.PublicOnly = true
	f.Published = nil
	jobs, total, err := s.jobs.Search(ctx, f)
	if err != nil {
		return Page[*model.Job]{}, err
	}
	return newPage(jobs, total, f.Page, f.PageSize), nil
}

// PublicGet looks a job up by its public number.  Drafts are reported as
// not found.
func (s *JobService) PublicGet(ctx context.Context, number string) (*model.Job, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if !jobNumberRe.MatchString(number) {
		return nil, repository.ErrJobNotFound
	}
	j, err := s.jobs.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if !j.IsPublished {
		return nil, repository.ErrJobNotFound
	}
	return j, nil
}
