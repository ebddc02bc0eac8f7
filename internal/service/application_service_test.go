package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/careers-portal/internal/model"
	"github.com/iliyamo/careers-portal/internal/queue"
	"github.com/iliyamo/careers-portal/internal/repository"
	"github.com/iliyamo/careers-portal/internal/workflow"
)

func openJob() *model.Job {
	return &model.Job{
		ID:          10,
		JobNumber:   "JOB-0000000A",
		Title:       "Backend Engineer",
		IsPublished: true,
		CustomFields: model.CustomFields{
			{Key: "years", Label: "Years of experience", Type: model.FieldNumber, Required: true},
			{Key: "shift", Label: "Preferred shift", Type: model.FieldSelect, Options: []string{"day", "night"}},
			{Key: "start", Label: "Start date", Type: model.FieldDate},
			{Key: "consent", Label: "Consent", Type: model.FieldCheckbox, Required: true},
		},
	}
}

func validInput() ApplicationInput {
	return ApplicationInput{
		FirstName: " Ada ",
		LastName:  "Lovelace",
		Email:     "Ada@Example.com",
		ResumeURL: "https://files.example.com/cv.pdf",
		CustomFieldValues: model.FieldValues{
			"years":   "4",
			"shift":   "night",
			"consent": true,
		},
	}
}

func newAppService(jobs *fakeJobs, apps *fakeApps, n Notifier) *ApplicationService {
	return NewApplicationService(apps, jobs, n, zerolog.Nop())
}

func TestSubmitCreatesPendingApplication(t *testing.T) {
	n := &recordingNotifier{}
	svc := newAppService(newFakeJobs(openJob()), newFakeApps(), n)

	uid := uint64(42)
	app, err := svc.Submit(context.Background(), "job-0000000a", &uid, validInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	svc.Wait()
	if app.Status != workflow.Pending || app.FirstName != "Ada" || app.Email != "ada@example.com" {
		t.Errorf("app = %+v", app)
	}
	if got := app.CustomFieldValues["years"]; got != 4.0 {
		t.Errorf("years = %v (%T), want 4", got, got)
	}
	ev := n.Events()
	if len(ev) != 1 {
		t.Fatalf("events = %d, want 1", len(ev))
	}
	if _, ok := ev[0].(queue.ApplicationReceivedEvent); !ok {
		t.Errorf("event = %T", ev[0])
	}

	if _, err := svc.Submit(context.Background(), "JOB-0000000A", &uid, validInput()); !errors.Is(err, ErrAlreadyApplied) {
		t.Errorf("second submit err = %v, want ErrAlreadyApplied", err)
	}
	// Guests are never deduplicated.
	if _, err := svc.Submit(context.Background(), "JOB-0000000A", nil, validInput()); err != nil {
		t.Errorf("guest submit: %v", err)
	}
	svc.Wait()
}

func TestSubmitRejectsClosedJobs(t *testing.T) {
	draft := openJob()
	draft.IsPublished = false
	past := time.Now().Add(-time.Hour)
	expired := openJob()
	expired.ID, expired.JobNumber, expired.ExpiresAt = 11, "JOB-0000000B", &past

	svc := newAppService(newFakeJobs(draft, expired), newFakeApps(), nil)
	if _, err := svc.Submit(context.Background(), draft.JobNumber, nil, validInput()); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("draft: err = %v, want not found", err)
	}
	_, err := svc.Submit(context.Background(), expired.JobNumber, nil, validInput())
	if !errors.Is(err, ErrJobClosed) || !errors.Is(err, repository.ErrConflict) {
		t.Errorf("expired: err = %v, want ErrJobClosed", err)
	}
}

func TestSubmitValidatesCustomFields(t *testing.T) {
	cases := map[string]func(*ApplicationInput){
		"missing required":  func(in *ApplicationInput) { delete(in.CustomFieldValues, "years") },
		"blank required":    func(in *ApplicationInput) { in.CustomFieldValues["years"] = " " },
		"not a number":      func(in *ApplicationInput) { in.CustomFieldValues["years"] = "many" },
		"bad option":        func(in *ApplicationInput) { in.CustomFieldValues["shift"] = "evening" },
		"bad date":          func(in *ApplicationInput) { in.CustomFieldValues["start"] = "02/11/2026" },
		"unchecked consent": func(in *ApplicationInput) { in.CustomFieldValues["consent"] = false },
		"unknown key":       func(in *ApplicationInput) { in.CustomFieldValues["hobby"] = "chess" },
		"bad email":         func(in *ApplicationInput) { in.Email = "not-an-email" },
		"missing name":      func(in *ApplicationInput) { in.LastName = "" },
		"bad resume url":    func(in *ApplicationInput) { in.ResumeURL = "ftp://x/cv.pdf" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc := newAppService(newFakeJobs(openJob()), newFakeApps(), nil)
			in := validInput()
			mutate(&in)
			if _, err := svc.Submit(context.Background(), "JOB-0000000A", nil, in); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func pendingApp(id uint64, status workflow.Status) *model.Application {
	return &model.Application{ID: id, JobID: 10, JobTitle: "Backend Engineer", JobNumber: "JOB-0000000A",
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Status: status, Notes: "old"}
}

func TestChangeStatusPersistsAndNotifies(t *testing.T) {
	n := &recordingNotifier{}
	apps := newFakeApps(pendingApp(1, workflow.Pending))
	svc := newAppService(newFakeJobs(), apps, n)

	notes := "Great interview"
	app, err := svc.ChangeStatus(context.Background(), staffEditor, 1, StatusChange{
		Status:    "Shortlisted",
		Notes:     &notes,
		Interview: &queue.Interview{Date: "2026-11-02"},
	})
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	svc.Wait()
	if app.Status != workflow.Shortlisted || app.Notes != notes {
		t.Errorf("app = %+v", app)
	}
	ev := n.Events()
	if len(ev) != 1 {
		t.Fatalf("events = %d", len(ev))
	}
	sc, ok := ev[0].(queue.ApplicationStatusChangedEvent)
	if !ok || sc.NewStatus != "shortlisted" || sc.OldStatus != "pending" || sc.Interview == nil || sc.Applicant.Email != "ada@example.com" {
		t.Errorf("event = %+v", ev[0])
	}
}

func TestChangeStatusKeepsNotesWhenOmitted(t *testing.T) {
	apps := newFakeApps(pendingApp(1, workflow.Reviewed))
	svc := newAppService(newFakeJobs(), apps, nil)
	app, err := svc.ChangeStatus(context.Background(), superAdmin, 1, StatusChange{Status: "hired"})
	if err != nil {
		t.Fatal(err)
	}
	svc.Wait()
	if app.Notes != "old" {
		t.Errorf("notes = %q, want old", app.Notes)
	}
}

func TestChangeStatusNotifierFailureDoesNotRollBack(t *testing.T) {
	n := &recordingNotifier{err: errors.New("broker down")}
	apps := newFakeApps(pendingApp(1, workflow.Pending))
	svc := newAppService(newFakeJobs(), apps, n)
	if _, err := svc.ChangeStatus(context.Background(), staffEditor, 1, StatusChange{Status: "rejected"}); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	svc.Wait()
	if apps.byID[1].Status != workflow.Rejected {
		t.Errorf("status = %s, want rejected", apps.byID[1].Status)
	}
}

func TestChangeStatusRules(t *testing.T) {
	cases := []struct {
		name    string
		from    workflow.Status
		to      string
		wantErr error
	}{
		{"regress", workflow.Reviewed, "pending", workflow.ErrInvalidTransition},
		{"same", workflow.Reviewed, "reviewed", workflow.ErrInvalidTransition},
		{"terminal hired", workflow.Hired, "rejected", workflow.ErrTerminalStatus},
		{"terminal rejected", workflow.Rejected, "hired", workflow.ErrTerminalStatus},
		{"unknown", workflow.Pending, "archived", workflow.ErrUnknownStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newAppService(newFakeJobs(), newFakeApps(pendingApp(1, tc.from)), nil)
			_, err := svc.ChangeStatus(context.Background(), staffEditor, 1, StatusChange{Status: tc.to})
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}

	svc := newAppService(newFakeJobs(), newFakeApps(pendingApp(1, workflow.Pending)), nil)
	if _, err := svc.ChangeStatus(context.Background(), staffReader, 1, StatusChange{Status: "reviewed"}); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("read-only staff: err = %v", err)
	}
	if _, err := svc.ChangeStatus(context.Background(), staffEditor, 99, StatusChange{Status: "reviewed"}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("missing: err = %v", err)
	}

	apps := newFakeApps(pendingApp(1, workflow.Pending))
	apps.conflict = true
	svc = newAppService(newFakeJobs(), apps, nil)
	if _, err := svc.ChangeStatus(context.Background(), staffEditor, 1, StatusChange{Status: "reviewed"}); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("concurrent: err = %v", err)
	}
}

func TestArchiveRestoreKeepStatus(t *testing.T) {
	apps := newFakeApps(pendingApp(1, workflow.Shortlisted))
	svc := newAppService(newFakeJobs(), apps, nil)
	ctx := context.Background()

	app, err := svc.Archive(ctx, staffEditor, 1)
	if err != nil || !app.Archived() || app.Status != workflow.Shortlisted {
		t.Fatalf("Archive: %+v, %v", app, err)
	}
	app, err = svc.Restore(ctx, staffEditor, 1)
	if err != nil || app.Archived() || app.Status != workflow.Shortlisted {
		t.Fatalf("Restore: %+v, %v", app, err)
	}
	if _, err := svc.Archive(ctx, staffReader, 1); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("read-only archive: %v", err)
	}
	if err := svc.Delete(ctx, staffEditor, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := apps.byID[1]; ok {
		t.Error("application still present after delete")
	}
}

func TestGetOffersNextStatusesOnlyToEditors(t *testing.T) {
	svc := newAppService(newFakeJobs(), newFakeApps(pendingApp(1, workflow.Reviewed)), nil)
	_, next, err := svc.Get(context.Background(), staffEditor, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(next) != 3 {
		t.Errorf("editor next = %v", next)
	}
	_, next, err = svc.Get(context.Background(), staffReader, 1)
	if err != nil || len(next) != 0 {
		t.Errorf("reader next = %v, %v", next, err)
	}
	if _, _, err := svc.Get(context.Background(), candidate, 1); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("candidate: %v", err)
	}
}

func TestListRejectsBadFilters(t *testing.T) {
	svc := newAppService(newFakeJobs(), newFakeApps(), nil)
	if _, err := svc.List(context.Background(), staffReader, repository.ApplicationFilter{Status: "nope"}); !errors.Is(err, ErrValidation) {
		t.Errorf("status filter: %v", err)
	}
	if _, err := svc.List(context.Background(), staffReader, repository.ApplicationFilter{Archived: "maybe"}); !errors.Is(err, ErrValidation) {
		t.Errorf("archived filter: %v", err)
	}
	page, err := svc.List(context.Background(), staffReader, repository.ApplicationFilter{})
	if err != nil || page.Items == nil || page.PageSize != repository.DefaultPageSize {
		t.Errorf("page = %+v, %v", page, err)
	}
}

func TestEmailApplicant(t *testing.T) {
	n := &recordingNotifier{}
	svc := newAppService(newFakeJobs(), newFakeApps(pendingApp(1, workflow.Pending)), n)
	ctx := context.Background()

	if err := svc.EmailApplicant(ctx, staffEditor, 1, ApplicantEmail{Subject: "Hi", Body: "  "}); !errors.Is(err, ErrValidation) {
		t.Errorf("blank body: %v", err)
	}
	if err := svc.EmailApplicant(ctx, staffReader, 1, ApplicantEmail{Body: "x"}); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("reader: %v", err)
	}
	if err := svc.EmailApplicant(ctx, staffEditor, 1, ApplicantEmail{Subject: "Hi", Body: "Please call us"}); err != nil {
		t.Fatal(err)
	}
	if ev := n.Events(); len(ev) != 1 {
		t.Fatalf("events = %v", ev)
	}
	n.err = errors.New("broker down")
	if err := svc.EmailApplicant(ctx, staffEditor, 1, ApplicantEmail{Body: "again"}); err == nil {
		t.Error("publish failure swallowed")
	}
}

func TestDashboardTotals(t *testing.T) {
	jobs := newFakeJobs(openJob())
	apps := newFakeApps(pendingApp(1, workflow.Pending), pendingApp(2, workflow.Hired))
	svc := newAppService(jobs, apps, nil)

	d, err := svc.Dashboard(context.Background(), staffReader)
	if err != nil {
		t.Fatal(err)
	}
	if d.TotalJobs != 1 || d.PublishedJobs != 1 || d.TotalApplications != 2 || len(d.ByStatus) != 5 || len(d.Recent) != 2 {
		t.Errorf("dashboard = %+v", d)
	}
	if _, err := svc.Dashboard(context.Background(), candidate); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("candidate: %v", err)
	}
}
