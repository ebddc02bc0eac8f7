package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		handler echo.HandlerFunc
		status  int
		level   string
	}{
		{"ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, http.StatusOK, "info"},
		{"not found", func(c echo.Context) error {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "job not found"})
		}, http.StatusNotFound, "warn"},
		{"returned error", func(c echo.Context) error { return errors.New("boom") }, http.StatusInternalServerError, "error"},
		{"stashed error", func(c echo.Context) error {
			c.Set("error", errors.New("db down"))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}, http.StatusInternalServerError, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := echo.New()
			e.GET("/x", tt.handler, RequestLogger(zerolog.New(&buf)))
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

			var line map[string]any
			if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
				t.Fatalf("log line %q: %v", buf.String(), err)
			}
			if line["level"] != tt.level || line["status"] != float64(tt.status) || line["route"] != "/x" {
				t.Errorf("log line = %v", line)
			}
			if tt.level == "error" && line["error"] == nil {
				t.Errorf("error not logged: %v", line)
			}
		})
	}
}
