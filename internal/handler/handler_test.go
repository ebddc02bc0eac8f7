package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/careers-portal/internal/repository"
	"github.com/iliyamo/careers-portal/internal/service"
	"github.com/iliyamo/careers-portal/internal/utils"
	"github.com/iliyamo/careers-portal/internal/workflow"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("title: %w", service.ErrValidation), http.StatusBadRequest},
		{workflow.ErrUnknownStatus, http.StatusBadRequest},
		{utils.ErrWeakPassword, http.StatusBadRequest},
		{repository.ErrInvitationInvalid, http.StatusBadRequest},
		{repository.ErrRefreshInvalid, http.StatusUnauthorized},
		{utils.ErrInvalidToken, http.StatusUnauthorized},
		{service.ErrAccessDenied, http.StatusForbidden},
		{repository.ErrForbidden, http.StatusForbidden},
		{repository.ErrJobNotFound, http.StatusNotFound},
		{repository.ErrUserNotFound, http.StatusNotFound},
		{service.ErrAlreadyApplied, http.StatusConflict},
		{repository.ErrEmailExists, http.StatusConflict},
		{workflow.ErrTerminalStatus, http.StatusConflict},
		{workflow.ErrInvalidTransition, http.StatusConflict},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestFailHidesInternalErrors(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	cause := errors.New("dial tcp: refused")

	if err := fail(c, cause); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusInternalServerError || rec.Body.String() != "{\"error\":\"internal error\"}\n" {
		t.Errorf("response = %d %s", rec.Code, rec.Body.String())
	}
	if c.Get("error") != cause {
		t.Error("cause not stashed for the request logger")
	}
}

func TestParams(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?published=true&archived=maybe&page=2&page_size=x&job_id=9", nil), httptest.NewRecorder())
	c.SetParamNames("id", "bad")
	c.SetParamValues("15", "-1")

	if id, ok := idParam(c, "id"); !ok || id != 15 {
		t.Errorf("idParam(id) = %d, %v", id, ok)
	}
	if _, ok := idParam(c, "bad"); ok {
		t.Error("negative id accepted")
	}
	if _, ok := idParam(c, "missing"); ok {
		t.Error("missing id accepted")
	}
	if b := queryBool(c, "published"); b == nil || !*b {
		t.Errorf("published = %v", b)
	}
	if b := queryBool(c, "archived"); b != nil {
		t.Errorf("archived = %v, want nil", *b)
	}
	if page, size := paging(c); page != 2 || size != 0 {
		t.Errorf("paging = %d, %d", page, size)
	}
	if queryUint(c, "job_id") != 9 {
		t.Error("job_id not parsed")
	}
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestHealthAndReady(t *testing.T) {
	e := echo.New()
	ready := func(db Pinger) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/readyz", nil), rec)
		if err := Ready(db)(c); err != nil {
			t.Fatal(err)
		}
		return rec
	}

	rec := httptest.NewRecorder()
	if err := Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)); err != nil || rec.Body.String() != "ok" {
		t.Errorf("Health() = %v %q", err, rec.Body.String())
	}
	if rec := ready(pinger{}); rec.Code != http.StatusOK {
		t.Errorf("ready: %d", rec.Code)
	}
	if rec := ready(pinger{err: errors.New("down")}); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("db down: %d", rec.Code)
	}
}
