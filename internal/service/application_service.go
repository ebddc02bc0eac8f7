package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/careers-portal/internal/access"
	"github.com/iliyamo/careers-portal/internal/model"
	"github.com/iliyamo/careers-portal/internal/queue"
	"github.com/iliyamo/careers-portal/internal/repository"
	"github.com/iliyamo/careers-portal/internal/workflow"
)

// ApplicationInput is what a candidate submits.
type ApplicationInput struct {
	FirstName         string            `json:"first_name"`
	LastName          string            `json:"last_name"`
	Email             string            `json:"email"`
	ContactNumber     string            `json:"contact_number"`
	Address           string            `json:"address"`
	ResumeURL         string            `json:"resume_url"`
	ResumeFileName    string            `json:"resume_file_name"`
	CustomFieldValues model.FieldValues `json:"custom_field_values"`
}

// StatusChange is a request to move an application along the workflow.
// Notes, when present, replace the stored notes.
type StatusChange struct {
	Status    string           `json:"status"`
	Notes     *string          `json:"notes"`
	Interview *queue.Interview `json:"interview"`
}

// ApplicantEmail is an ad-hoc message from staff to a candidate.
type ApplicantEmail struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Dashboard summarizes the admin landing page.
type Dashboard struct {
	TotalJobs         int64                `json:"total_jobs"`
	PublishedJobs     int64                `json:"published_jobs"`
	TotalApplications int64                `json:"total_applications"`
	ByStatus          []model.StatusCount  `json:"applications_by_status"`
	Recent            []*model.Application `json:"recent_applications"`
}

// ApplicationService runs submissions and the status workflow.
type ApplicationService struct {
	apps   ApplicationStore
	jobs   JobStore
	notify Notifier
	log    zerolog.Logger
	now    func() time.Time

	wg sync.WaitGroup
}

func NewApplicationService(apps ApplicationStore, jobs JobStore, notify Notifier, log zerolog.Logger) *ApplicationService {
	if notify == nil {
		notify = noopNotifier{}
	}
	return &ApplicationService{
		apps:   apps,
		jobs:   jobs,
		notify: notify,
		log:    log.With().Str("service", "applications").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Wait blocks until every in-flight notification publish returned.
func (s *ApplicationService) Wait() { s.wg.Wait() }

// publish hands payload to the notifier in the background.  The request
// context may already be gone, so a detached one with its own deadline is used.
func (s *ApplicationService) publish(ctx context.Context, payload any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		if err := s.notify.Publish(ctx, payload); err != nil {
			s.log.Warn().Err(err).Type("event", payload).Msg("notification publish failed")
		}
	}()
}

func applicantOf(a *model.Application) queue.Applicant {
	return queue.Applicant{FirstName: a.FirstName, LastName: a.LastName, Email: a.Email}
}

func (in *ApplicationInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	in.Address = strings.TrimSpace(in.Address)
	in.ResumeURL = strings.TrimSpace(in.ResumeURL)
	in.ResumeFileName = strings.TrimSpace(in.ResumeFileName)
}

func (in *ApplicationInput) validate(fields model.CustomFields) error {
	if in.FirstName == "" || in.LastName == "" {
		return invalid("first_name and last_name are required")
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return invalid("a valid email is required")
	}
	if in.ResumeURL != "" {
		u, err := url.Parse(in.ResumeURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid("resume_url must be an http(s) URL")
		}
	}
	values, err := checkFieldValues(fields, in.CustomFieldValues)
	if err != nil {
		return err
	}
	in.CustomFieldValues = values
	return nil
}

// checkFieldValues validates answers against the job's field definitions and
// returns the cleaned map.  Unknown keys are rejected.
func checkFieldValues(fields model.CustomFields, values model.FieldValues) (model.FieldValues, error) {
	defs := make(map[string]model.CustomField, len(fields))
	for _, f := range fields {
		defs[f.Key] = f
	}
	for k := range values {
		if _, ok := defs[k]; !ok {
			return nil, invalid("unknown custom field %q", k)
		}
	}
	out := model.FieldValues{}
	for _, f := range fields {
		v, present := values[f.Key]
		if present && isBlank(v) {
			present = false
		}
		if !present {
			if f.Required {
				return nil, invalid("%s is required", f.Label)
			}
			continue
		}
		clean, err := coerceField(f, v)
		if err != nil {
			return nil, err
		}
		out[f.Key] = clean
	}
	return out, nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func coerceField(f model.CustomField, v any) (any, error) {
	switch f.Type {
	case model.FieldText, model.FieldTextarea:
		s, ok := v.(string)
		if !ok {
			return nil, invalid("%s must be text", f.Label)
		}
		return strings.TrimSpace(s), nil
	case model.FieldNumber:
		switch n := v.(type) {
		case float64:
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return nil, invalid("%s must be a number", f.Label)
			}
			return n, nil
		case string:
			x, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return nil, invalid("%s must be a number", f.Label)
			}
			return x, nil
		}
		return nil, invalid("%s must be a number", f.Label)
	case model.FieldCheckbox:
		b, ok := v.(bool)
		if !ok {
			return nil, invalid("%s must be true or false", f.Label)
		}
		if f.Required && !b {
			return nil, invalid("%s must be checked", f.Label)
		}
		return b, nil
	case model.FieldSelect:
		s, ok := v.(string)
		if !ok || !model.Contains(f.Options, s) {
			return nil, invalid("%s must be one of %s", f.Label, strings.Join(f.Options, ", "))
		}
		return s, nil
	case model.FieldDate:
		s, ok := v.(string)
		if !ok {
			return nil, invalid("%s must be a date (YYYY-MM-DD)", f.Label)
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return nil, invalid("%s must be a date (YYYY-MM-DD)", f.Label)
		}
		return s, nil
	}
	return nil, invalid("%s has unsupported type %q", f.Label, f.Type)
}

// Submit records an application to a published, unexpired job.  userID is
// nil for guests; signed-in candidates may apply once per job.
func (s *ApplicationService) Submit(ctx context.Context, jobNumber string, userID *uint64, in ApplicationInput) (*model.Application, error) {
	job, err := s.jobs.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(jobNumber)))
	if err != nil {
		return nil, err
	}
	if !job.IsPublished {
		return nil, repository.ErrJobNotFound
	}
	if job.Expired(s.now()) {
		return nil, ErrJobClosed
	}
	in.normalize()
	if err := in.validate(job.CustomFields); err != nil {
		return nil, err
	}
	if userID != nil {
		exists, err := s.apps.ExistsForUser(ctx, *userID, job.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check previous applications: %w", err)
		}
		if exists {
			return nil, ErrAlreadyApplied
		}
	}

	app := &model.Application{
		JobID:             job.ID,
		UserID:            userID,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Email:             in.Email,
		ContactNumber:     in.ContactNumber,
		Address:           in.Address,
		ResumeURL:         in.ResumeURL,
		ResumeFileName:    in.ResumeFileName,
		CustomFieldValues: in.CustomFieldValues,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	s.log.Info().Uint64("application_id", app.ID).Str("job_number", job.JobNumber).Bool("guest", userID == nil).Msg("application submitted")

	s.publish(ctx, queue.ApplicationReceivedEvent{
		ApplicationID: app.ID,
		Applicant:     applicantOf(app),
		JobTitle:      job.Title,
		JobNumber:     job.JobNumber,
	})
	return app, nil
}

// ChangeStatus validates the transition against the workflow, persists it
// and queues the applicant notification.  A failed publish never undoes the
// change.
func (s *ApplicationService) ChangeStatus(ctx context.Context, actor access.Actor, id uint64, req StatusChange) (*model.Application, error) {
	if err := require(actor, access.ApplicationsEdit); err != nil {
		return nil, err
	}
	to, err := workflow.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := app.Status
	if err := workflow.Validate(from, to); err != nil {
		return nil, err
	}
	if err := s.apps.UpdateStatus(ctx, id, from, to, req.Notes); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("application changed concurrently: %w", err)
		}
		return nil, err
	}
	updated, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint64("application_id", id).Str("from", string(from)).Str("to", string(to)).Uint64("actor", actor.UserID).Msg("application status changed")

	ev := queue.ApplicationStatusChangedEvent{
		ApplicationID: id,
		Applicant:     applicantOf(updated),
		JobTitle:      updated.JobTitle,
		JobNumber:     updated.JobNumber,
		OldStatus:     string(from),
		NewStatus:     string(to),
		Interview:     req.Interview,
	}
	if req.Notes != nil {
		ev.Notes = strings.TrimSpace(*req.Notes)
	}
	s.publish(ctx, ev)
	return updated, nil
}

// Archive hides an application from default listings.  Status is untouched.
func (s *ApplicationService) Archive(ctx context.Context, actor access.Actor, id uint64) (*model.Application, error) {
	if err := require(actor, access.ApplicationsEdit); err != nil {
		return nil, err
	}
	if err := s.apps.Archive(ctx, id); err != nil {
		return nil, err
	}
	s.log.Info().Uint64("application_id", id).Uint64("actor", actor.UserID).Msg("application archived")
	return s.apps.GetByID(ctx, id)
}

// Restore brings an archived application back.
func (s *ApplicationService) Restore(ctx context.Context, actor access.Actor, id uint64) (*model.Application, error) {
	if err := require(actor, access.ApplicationsEdit); err != nil {
		return nil, err
	}
	if err := s.apps.Restore(ctx, id); err != nil {
		return nil, err
	}
	s.log.Info().Uint64("application_id", id).Uint64("actor", actor.UserID).Msg("application restored")
	return s.apps.GetByID(ctx, id)
}

// Delete purges an application permanently.
func (s *ApplicationService) Delete(ctx context.Context, actor access.Actor, id uint64) error {
	if err := require(actor, access.ApplicationsDelete); err != nil {
		return err
	}
	if err := s.apps.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Uint64("application_id", id).Uint64("actor", actor.UserID).Msg("application deleted")
	return nil
}

// Get returns one application with the statuses it may move to next.
func (s *ApplicationService) Get(ctx context.Context, actor access.Actor, id uint64) (*model.Application, []workflow.Status, error) {
	if err := require(actor, access.ApplicationsView); err != nil {
		return nil, nil, err
	}
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	next := []workflow.Status{}
	if access.HasPermission(actor, access.ApplicationsEdit) {
		next = workflow.NextStatuses(app.Status)
	}
	return app, next, nil
}

// List is the admin application table.
func (s *ApplicationService) List(ctx context.Context, actor access.Actor, f repository.ApplicationFilter) (Page[*model.Application], error) {
	if err := require(actor, access.ApplicationsView); err != nil {
		return Page[*model.Application]{}, err
	}
	f.UserID = 0
	return s.list(ctx, f)
}

// ListMine returns the signed-in candidate's own applications, archived
// ones included.
func (s *ApplicationService) ListMine(ctx context.Context, userID uint64, page, size int) (Page[*model.Application], error) {
	return s.list(ctx, repository.ApplicationFilter{
		UserID:   userID,
		Archived: repository.ArchivedInclude,
		Page:     page,
		PageSize: size,
	})
}

func (s *ApplicationService) list(ctx context.Context, f repository.ApplicationFilter) (Page[*model.Application], error) {
	if f.Status != "" && !f.Status.Valid() {
		return Page[*model.Application]{}, invalid("unknown status %q", f.Status)
	}
	switch f.Archived {
	case "", repository.ArchivedExclude, repository.ArchivedOnly, repository.ArchivedInclude:
	default:
		return Page[*model.Application]{}, invalid("archived must be exclude, only or include")
	}
	apps, total, err := s.apps.List(ctx, f)
	if err != nil {
		return Page[*model.Application]{}, err
	}
	return newPage(apps, total, f.Page, f.PageSize), nil
}

// EmailApplicant queues a free-form message to the candidate.
func (s *ApplicationService) EmailApplicant(ctx context.Context, actor access.Actor, id uint64, msg ApplicantEmail) error {
	if err := require(actor, access.ApplicationsEmail); err != nil {
		return err
	}
	msg.Subject = strings.TrimSpace(msg.Subject)
	msg.Body = strings.TrimSpace(msg.Body)
	if msg.Body == "" {
		return invalid("body is required")
	}
	if len(msg.Subject) > 200 {
		return invalid("subject must be at most 200 characters")
	}
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return err
	}
	// Published synchronously so a queueing failure reaches the caller.
	err = s.notify.Publish(ctx, queue.ApplicantMessageEvent{
		ApplicationID: app.ID,
		Applicant:     applicantOf(app),
		JobTitle:      app.JobTitle,
		JobNumber:     app.JobNumber,
		Subject:       msg.Subject,
		Body:          msg.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to queue e-mail: %w", err)
	}
	s.log.Info().Uint64("application_id", id).Uint64("actor", actor.UserID).Msg("applicant e-mail queued")
	return nil
}

// Dashboard aggregates job and application counts.
func (s *ApplicationService) Dashboard(ctx context.Context, actor access.Actor) (*Dashboard, error) {
	if err := require(actor, access.DashboardView); err != nil {
		return nil, err
	}
	total, published, err := s.jobs.Counts(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.apps.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{TotalJobs: total, PublishedJobs: published, ByStatus: counts}
	for _, c := range counts {
		d.TotalApplications += c.Count
	}
	recent, _, err := s.apps.List(ctx, repository.ApplicationFilter{Page: 1, PageSize: 5})
	if err != nil {
		return nil, err
	}
	d.Recent = recent
	if d.Recent == nil {
		d.Recent = []*model.Application{}
	}
	return d, nil
}
