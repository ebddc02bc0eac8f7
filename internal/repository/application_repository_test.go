package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/careers-portal/internal/workflow"
)

func TestApplicationUpdateStatusGuardsFrom(t *testing.T) {
	db, mock := newMock(t)
	repo := NewApplicationRepo(db)
	notes := "phone screen booked"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET status=?, notes=?, updated_at=CURRENT_TIMESTAMP WHERE id=? AND status=?")).
		WithArgs("shortlisted", notes, uint64(5), "reviewed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET status=?, updated_at=CURRENT_TIMESTAMP WHERE id=? AND status=?")).
		WithArgs("reviewed", uint64(6), "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateStatus(context.Background(), 5, workflow.Reviewed, workflow.Shortlisted, &notes); err != nil {
		t.Errorf("with notes: %v", err)
	}
	if err := repo.UpdateStatus(context.Background(), 6, workflow.Pending, workflow.Reviewed, nil); !errors.Is(err, ErrConflict) {
		t.Errorf("lost race: err = %v, want ErrConflict", err)
	}
}

func TestApplicationArchiveMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET archived_at=COALESCE(archived_at, CURRENT_TIMESTAMP) WHERE id=?")).
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewApplicationRepo(db).Archive(context.Background(), 1)
	if !errors.Is(err, ErrApplicationNotFound) || !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestApplicationCountByStatusFillsZeros(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) FROM applications WHERE archived_at IS NULL GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 4).
			AddRow("hired", 1))

	counts, err := NewApplicationRepo(db).CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	if len(counts) != len(workflow.All()) {
		t.Fatalf("got %d buckets, want %d", len(counts), len(workflow.All()))
	}
	got := map[workflow.Status]int64{}
	for i, c := range counts {
		if c.Status != workflow.All()[i] {
			t.Errorf("bucket %d = %s, want %s", i, c.Status, workflow.All()[i])
		}
		got[c.Status] = c.Count
	}
	if got[workflow.Pending] != 4 || got[workflow.Hired] != 1 || got[workflow.Rejected] != 0 {
		t.Errorf("counts = %v", got)
	}
}
