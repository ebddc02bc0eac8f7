package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/careers-portal/internal/access"
	"github.com/iliyamo/careers-portal/internal/model"
	"github.com/iliyamo/careers-portal/internal/repository"
	"github.com/iliyamo/careers-portal/internal/workflow"
)

type fakeJobs struct {
	byID      map[uint64]*model.Job
	nextID    uint64
	dupes     int // number of Create calls to fail with ErrDuplicate
	published map[uint64]bool
}

func newFakeJobs(jobs ...*model.Job) *fakeJobs {
	f := &fakeJobs{byID: map[uint64]*model.Job{}, nextID: 100, published: map[uint64]bool{}}
	for _, j := range jobs {
		f.byID[j.ID] = j
	}
	return f
}

func (f *fakeJobs) Create(_ context.Context, j *model.Job) error {
	if f.dupes > 0 {
		f.dupes--
		return repository.ErrDuplicate
	}
	f.nextID++
	j.ID = f.nextID
	cp := *j
	f.byID[j.ID] = &cp
	return nil
}

func (f *fakeJobs) Update(_ context.Context, j *model.Job) error {
	if _, ok := f.byID[j.ID]; !ok {
		return repository.ErrJobNotFound
	}
	cp := *j
	f.byID[j.ID] = &cp
	return nil
}

func (f *fakeJobs) GetByID(_ context.Context, id uint64) (*model.Job, error) {
	j, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

func (f *fakeJobs) GetByNumber(_ context.Context, number string) (*model.Job, error) {
	for _, j := range f.byID {
		if j.JobNumber == number {
			cp := *j
			return &cp, nil
		}
	}
	return nil, repository.ErrJobNotFound
}

func (f *fakeJobs) SetPublished(_ context.Context, id uint64, publish bool) error {
	j, ok := f.byID[id]
	if !ok {
		return repository.ErrJobNotFound
	}
	j.IsPublished = publish
	f.published[id] = publish
	return nil
}

func (f *fakeJobs) Delete(_ context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrJobNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeJobs) Search(_ context.Context, jf repository.JobFilter) ([]*model.Job, int64, error) {
	var out []*model.Job
	for _, j := range f.byID {
		if jf.PublicOnly && !j.AcceptsApplications(time.Now()) {
			continue
		}
		out = append(out, j)
	}
	return out, int64(len(out)), nil
}

func (f *fakeJobs) Counts(context.Context) (int64, int64, error) {
	var pub int64
	for _, j := range f.byID {
		if j.IsPublished {
			pub++
		}
	}
	return int64(len(f.byID)), pub, nil
}

type fakeApps struct {
	byID     map[uint64]*model.Application
	nextID   uint64
	conflict bool // UpdateStatus loses the optimistic race
}

func newFakeApps(apps ...*model.Application) *fakeApps {
	f := &fakeApps{byID: map[uint64]*model.Application{}, nextID: 500}
	for _, a := range apps {
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeApps) Create(_ context.Context, a *model.Application) error {
	f.nextID++
	a.ID = f.nextID
	a.Status = workflow.Initial
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeApps) GetByID(_ context.Context, id uint64) (*model.Application, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrApplicationNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeApps) ExistsForUser(_ context.Context, userID, jobID uint64) (bool, error) {
	for _, a := range f.byID {
		if a.UserID != nil && *a.UserID == userID && a.JobID == jobID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeApps) List(_ context.Context, af repository.ApplicationFilter) ([]*model.Application, int64, error) {
	var out []*model.Application
	for _, a := range f.byID {
		if af.UserID != 0 && (a.UserID == nil || *a.UserID != af.UserID) {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (f *fakeApps) UpdateStatus(_ context.Context, id uint64, from, to workflow.Status, notes *string) error {
	a, ok := f.byID[id]
	if !ok {
		return repository.ErrApplicationNotFound
	}
	if f.conflict || a.Status != from {
		return repository.ErrConflict
	}
	a.Status = to
	if notes != nil {
		a.Notes = *notes
	}
	return nil
}

func (f *fakeApps) Archive(_ context.Context, id uint64) error {
	a, ok := f.byID[id]
	if !ok {
		return repository.ErrApplicationNotFound
	}
	if a.ArchivedAt == nil {
		now := time.Now()
		a.ArchivedAt = &now
	}
	return nil
}

func (f *fakeApps) Restore(_ context.Context, id uint64) error {
	a, ok := f.byID[id]
	if !ok {
		return repository.ErrApplicationNotFound
	}
	a.ArchivedAt = nil
	return nil
}

func (f *fakeApps) Delete(_ context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrApplicationNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeApps) CountByStatus(context.Context) ([]model.StatusCount, error) {
	counts := map[workflow.Status]int64{}
	for _, a := range f.byID {
		counts[a.Status]++
	}
	var out []model.StatusCount
	for _, s := range workflow.All() {
		out = append(out, model.StatusCount{Status: s, Count: counts[s]})
	}
	return out, nil
}

type fakeUsers struct {
	byID    map[uint64]*model.User
	nextID  uint64
	rotated map[uint64]string
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{byID: map[uint64]*model.User{}, nextID: 900, rotated: map[uint64]string{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Invite(_ context.Context, email string, a access.Assignment, tokenHash string, exp time.Time) (uint64, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	f.nextID++
	f.byID[f.nextID] = &model.User{ID: f.nextID, Email: email, IsActive: true, Roles: []access.Assignment{a},
		InviteTokenHash: tokenHash, InviteExpiresAt: &exp}
	return f.nextID, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) List(context.Context, repository.UserFilter) ([]*model.User, int64, error) {
	var out []*model.User
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUsers) SetRole(_ context.Context, id uint64, a access.Assignment) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Roles = []access.Assignment{access.NormalizeAssignment(a)}
	return nil
}

func (f *fakeUsers) SetPermissionLevel(_ context.Context, id uint64, l access.PermissionLevel) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	for i := range u.Roles {
		if u.Roles[i].Role == access.RoleStaff {
			u.Roles[i].Level = &l
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (f *fakeUsers) SetActive(_ context.Context, id uint64, active bool) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsActive = active
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUsers) RotateInvitation(_ context.Context, id uint64, tokenHash string, _ time.Time) error {
	u, ok := f.byID[id]
	if !ok || u.FirstName != "" || u.LastName != "" {
		return repository.ErrUserNotFound
	}
	u.InviteTokenHash = tokenHash
	f.rotated[id] = tokenHash
	return nil
}

type fakeRevoker struct{ revoked []uint64 }

func (f *fakeRevoker) RevokeAllForUser(_ context.Context, id uint64) error {
	f.revoked = append(f.revoked, id)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []any
	err    error
}

func (r *recordingNotifier) Publish(_ context.Context, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, payload)
	return nil
}

func (r *recordingNotifier) Events() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.events...)
}

type countingCache struct{ calls int }

func (c *countingCache) Invalidate(context.Context) error {
	c.calls++
	return errors.New("redis down") // failures must not break writes
}

func level(l access.PermissionLevel) *access.PermissionLevel { return &l }

var (
	superAdmin  = access.Actor{UserID: 1, Roles: []access.Assignment{{Role: access.RoleAdmin}}, SuperAdmin: true}
	plainAdmin  = access.Actor{UserID: 2, Roles: []access.Assignment{{Role: access.RoleAdmin}}}
	staffEditor = access.Actor{UserID: 3, Roles: []access.Assignment{{Role: access.RoleStaff, Level: level(access.LevelCanEdit)}}}
	staffReader = access.Actor{UserID: 4, Roles: []access.Assignment{{Role: access.RoleStaff, Level: level(access.LevelCanRead)}}}
	candidate   = access.Actor{UserID: 5, Roles: []access.Assignment{{Role: access.RoleUser}}}
)
