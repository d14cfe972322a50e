package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewChecker(t *testing.T) {
	checker := NewChecker("parser", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy, Message: "ok"}
	})

	if checker.Name() != "parser" {
		t.Errorf("Name() = %v, want parser", checker.Name())
	}
	if got := checker.Check(context.Background()); got.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", got.Status)
	}
}

func TestProbeCheck(t *testing.T) {
	ok := ProbeCheck("ok", func(ctx context.Context) error { return nil })
	if got := ok.Check(context.Background()); got.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", got.Status)
	}

	bad := ProbeCheck("bad", func(ctx context.Context) error { return errors.New("db locked") })
	got := bad.Check(context.Background())
	if got.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", got.Status)
	}
	if got.Message != "db locked" {
		t.Errorf("Message = %q", got.Message)
	}
}

func TestRegistry_Check(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry("koi", "1.0.0")
			for i, s := range tt.statuses {
				s := s
				r.Register(NewChecker(string(rune('a'+i)), func(ctx context.Context) CheckResult {
					return CheckResult{Status: s}
				}))
			}

			report := r.Check(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %v, want %v", report.Status, tt.want)
			}
			if len(report.Checks) != len(tt.statuses) {
				t.Fatalf("len(Checks) = %d, want %d", len(report.Checks), len(tt.statuses))
			}
			for i := 1; i < len(report.Checks); i++ {
				if report.Checks[i-1].Name > report.Checks[i].Name {
					t.Errorf("checks not sorted by name: %v", report.Checks)
				}
			}
		})
	}
}

func TestRegistry_ReplaceByName(t *testing.T) {
	r := NewRegistry("koi", "1.0.0")
	r.Register(ProbeCheck("store", func(ctx context.Context) error { return errors.New("down") }))
	r.Register(ProbeCheck("store", func(ctx context.Context) error { return nil }))

	report := r.Check(context.Background())
	if len(report.Checks) != 1 || report.Status != StatusHealthy {
		t.Errorf("report = %+v", report)
	}
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry("koi", "1.2.3")
	r.Register(ProbeCheck("parser", func(ctx context.Context) error { return nil }))

	rec := httptest.NewRecorder()
	r.Handler(time.Second).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var report Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Version != "1.2.3" || report.Status != StatusHealthy {
		t.Errorf("report = %+v", report)
	}

	r.Register(ProbeCheck("store", func(ctx context.Context) error { return errors.New("closed") }))
	rec = httptest.NewRecorder()
	r.Handler(time.Second).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
