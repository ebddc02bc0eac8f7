package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iliyamo/careers-portal/internal/model"
	"github.com/iliyamo/careers-portal/internal/repository"
)

func int64p(v int64) *int64 { return &v }

func TestJobInputValidate(t *testing.T) {
	base := func() JobInput {
		return JobInput{
			Title:        "Nurse",
			Description:  "Night ward",
			WorkType:     "ONSITE",
			JobType:      "full_time",
			SalaryMin:    int64p(100),
			SalaryMax:    int64p(200),
			SalaryPeriod: "month",
			CustomFields: model.CustomFields{{Key: "licence", Label: "Licence no.", Type: "text"}},
		}
	}
	in := base()
	in.normalize()
	if err := in.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	if in.WorkType != "onsite" {
		t.Errorf("WorkType not normalized: %q", in.WorkType)
	}

	cases := map[string]func(*JobInput){
		"no title":         func(in *JobInput) { in.Title = "  " },
		"no description":   func(in *JobInput) { in.Description = "" },
		"bad work type":    func(in *JobInput) { in.WorkType = "moon" },
		"bad period":       func(in *JobInput) { in.SalaryPeriod = "decade" },
		"min above max":    func(in *JobInput) { in.SalaryMin = int64p(300) },
		"negative salary":  func(in *JobInput) { in.SalaryMin = int64p(-1) },
		"bad currency":     func(in *JobInput) { in.SalaryCurrency = "EURO" },
		"duplicate key":    func(in *JobInput) { in.CustomFields = append(in.CustomFields, in.CustomFields[0]) },
		"bad key":          func(in *JobInput) { in.CustomFields[0].Key = "Licence No" },
		"select no option": func(in *JobInput) { in.CustomFields[0].Type = "select" },
		"unknown type":     func(in *JobInput) { in.CustomFields[0].Type = "file" },
		"missing label":    func(in *JobInput) { in.CustomFields[0].Label = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := base()
			mutate(&in)
			in.normalize()
			if err := in.Validate(); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestJobCreateRetriesDuplicateNumbers(t *testing.T) {
	jobs := newFakeJobs()
	jobs.dupes = 2
	svc := NewJobService(jobs, nil, zerolog.Nop())

	j, err := svc.Create(context.Background(), staffEditor, JobInput{Title: "Chef", Description: "Kitchen"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !jobNumberRe.MatchString(j.JobNumber) || j.IsPublished {
		t.Errorf("job = %+v", j)
	}
	if j.CreatedBy == nil || *j.CreatedBy != staffEditor.UserID {
		t.Errorf("CreatedBy = %v", j.CreatedBy)
	}

	jobs.dupes = 10
	if _, err := svc.Create(context.Background(), staffEditor, JobInput{Title: "Chef", Description: "Kitchen"}); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("exhausted retries: err = %v", err)
	}
}

func TestJobPermissions(t *testing.T) {
	jobs := newFakeJobs(&model.Job{ID: 1, JobNumber: "JOB-00000001", Title: "Chef", Description: "x"})
	svc := NewJobService(jobs, nil, zerolog.Nop())
	ctx := context.Background()
	in := JobInput{Title: "Chef", Description: "Kitchen"}

	if _, err := svc.Create(ctx, staffReader, in); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("reader create: %v", err)
	}
	if _, err := svc.Update(ctx, staffReader, 1, in); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("reader update: %v", err)
	}
	if _, err := svc.SetPublished(ctx, staffReader, 1, true); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("reader publish: %v", err)
	}
	if err := svc.Delete(ctx, candidate, 1); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("candidate delete: %v", err)
	}
	if _, err := svc.Get(ctx, staffReader, 1); err != nil {
		t.Errorf("reader get: %v", err)
	}
	if _, err := svc.List(ctx, candidate, repository.JobFilter{}); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("candidate list: %v", err)
	}
}

func TestJobPublishInvalidatesCache(t *testing.T) {
	jobs := newFakeJobs(&model.Job{ID: 1, JobNumber: "JOB-00000001", Title: "Chef", Description: "x"})
	cache := &countingCache{}
	svc := NewJobService(jobs, cache, zerolog.Nop())
	ctx := context.Background()

	j, err := svc.SetPublished(ctx, staffEditor, 1, true)
	if err != nil {
		t.Fatalf("publish despite cache error: %v", err)
	}
	if !j.IsPublished || cache.calls != 1 {
		t.Errorf("published=%v cache calls=%d", j.IsPublished, cache.calls)
	}
	if _, err := svc.Update(ctx, staffEditor, 1, JobInput{Title: "Head chef", Description: "Kitchen"}); err != nil {
		t.Fatal(err)
	}
	if cache.calls != 2 {
		t.Errorf("update of published job should invalidate, calls=%d", cache.calls)
	}
	if err := svc.Delete(ctx, staffEditor, 1); err != nil || cache.calls != 3 {
		t.Errorf("delete: %v calls=%d", err, cache.calls)
	}
}

func TestPublicGetHidesDrafts(t *testing.T) {
	jobs := newFakeJobs(
		&model.Job{ID: 1, JobNumber: "JOB-00000001", IsPublished: true},
		&model.Job{ID: 2, JobNumber: "JOB-00000002"},
	)
	svc := NewJobService(jobs, nil, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.PublicGet(ctx, "job-00000001"); err != nil {
		t.Errorf("published: %v", err)
	}
	for _, n := range []string{"JOB-00000002", "JOB-1", "1"} {
		if _, err := svc.PublicGet(ctx, n); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("%s: err = %v, want not found", n, err)
		}
	}
	page, err := svc.PublicList(ctx, repository.JobFilter{})
	if err != nil || page.Total != 1 {
		t.Errorf("public list = %+v, %v", page, err)
	}
}
