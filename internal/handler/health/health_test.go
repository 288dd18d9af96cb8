package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/playperu/sketchclient/internal/handler/health"
)

type mockChecker struct{ err error }

func (m mockChecker) Check(_ context.Context) error { return m.err }

func TestHandler(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]health.Checker
		wantStatus int
		wantBody   map[string]string
	}{
		{
			name: "all healthy",
			checks: map[string]health.Checker{
				"upstream": mockChecker{},
				"journal":  mockChecker{},
				"redis":    mockChecker{},
			},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"upstream": "ok", "journal": "ok", "redis": "ok"},
		},
		{
			name: "upstream down",
			checks: map[string]health.Checker{
				"upstream": mockChecker{err: errors.New("connection refused")},
				"journal":  mockChecker{},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"upstream": "error", "journal": "ok"},
		},
		{
			name: "journal down",
			checks: map[string]health.Checker{
				"upstream": mockChecker{},
				"journal":  mockChecker{err: errors.New("locked")},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"upstream": "ok", "journal": "error"},
		},
		{
			name: "func checker",
			checks: map[string]health.Checker{
				"redis": health.CheckerFunc(func(context.Context) error { return errors.New("refused") }),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"redis": "error"},
		},
		{
			name:       "no checks",
			checks:     map[string]health.Checker{},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := health.NewHandler(slog.Default(), tt.checks)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]health.Result
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if len(body) != len(tt.wantBody) {
				t.Errorf("body has %d entries, want %d", len(body), len(tt.wantBody))
			}
			for name, want := range tt.wantBody {
				if got := body[name].Status; got != want {
					t.Errorf("%s status = %q, want %q", name, got, want)
				}
			}
		})
	}
}
