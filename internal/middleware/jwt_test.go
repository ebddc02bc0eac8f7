package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/careers-portal/internal/access"
	"github.com/iliyamo/careers-portal/internal/utils"
)

const testSecret = "test-secret"

func bearerFor(t *testing.T, a access.Actor) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, a, 5)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	return "Bearer " + tok.Token
}

// serve runs mw in front of a handler that reports the caller's id.
func serve(mw echo.MiddlewareFunc, authz string) *httptest.ResponseRecorder {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error {
		if a, ok := ActorFrom(c); ok {
			return c.JSON(http.StatusOK, echo.Map{"user_id": a.UserID})
		}
		return c.JSON(http.StatusOK, echo.Map{"user_id": nil})
	}, mw)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	valid := bearerFor(t, access.Actor{UserID: 7, Roles: []access.Assignment{{Role: access.RoleUser}}})
	other, err := utils.NewAccessToken("other-secret", access.Actor{UserID: 7}, 5)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		authz  string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + other.Token, http.StatusUnauthorized},
		{"valid", valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(JWTAuth(testSecret), tt.authz)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestOptionalJWT(t *testing.T) {
	if rec := serve(OptionalJWT(testSecret), ""); rec.Code != http.StatusOK {
		t.Errorf("guest: status = %d", rec.Code)
	}
	if rec := serve(OptionalJWT(testSecret), "Bearer expired.or.bad"); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
	rec := serve(OptionalJWT(testSecret), bearerFor(t, access.Actor{UserID: 3}))
	if rec.Code != http.StatusOK || rec.Body.String() != "{\"user_id\":3}\n" {
		t.Errorf("signed in: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRequireStaffAndPermission(t *testing.T) {
	editLvl := access.LevelCanEdit
	readLvl := access.LevelCanRead
	editor := access.Actor{UserID: 2, Roles: []access.Assignment{{Role: access.RoleStaff, Level: &editLvl}}}
	reader := access.Actor{UserID: 3, Roles: []access.Assignment{{Role: access.RoleStaff, Level: &readLvl}}}
	candidate := access.Actor{UserID: 4, Roles: []access.Assignment{{Role: access.RoleUser}}}

	tests := []struct {
		name   string
		mw     echo.MiddlewareFunc
		actor  *access.Actor
		status int
	}{
		{"staff guest", RequireStaff(), nil, http.StatusUnauthorized},
		{"staff candidate", RequireStaff(), &candidate, http.StatusForbidden},
		{"staff reader", RequireStaff(), &reader, http.StatusOK},
		{"perm reader view", RequirePermission(access.JobsView), &reader, http.StatusOK},
		{"perm reader edit", RequirePermission(access.JobsEdit), &reader, http.StatusForbidden},
		{"perm editor edit", RequirePermission(access.JobsEdit), &editor, http.StatusOK},
		{"perm editor users", RequirePermission(access.UsersView), &editor, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			if tt.actor != nil {
				setActor(c, *tt.actor)
			}
			h := tt.mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
			if err := h(c); err != nil {
				t.Fatal(err)
			}
			if got := c.Response().Status; got != tt.status {
				t.Errorf("status = %d, want %d", got, tt.status)
			}
		})
	}
}
