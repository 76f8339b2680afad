package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	reportapp "genset-cloud/internal/analytics/application"
	analytics "genset-cloud/internal/analytics/domain"
	telemetry "genset-cloud/internal/telemetry/domain"
)

type stubQuery struct {
	records []telemetry.Snapshot
}

func (q *stubQuery) Range(_ context.Context, _ string, from, to time.Time, _ int, _ bool) ([]telemetry.Snapshot, error) {
	var out []telemetry.Snapshot
	for _, r := range q.records {
		if !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (q *stubQuery) Latest(_ context.Context, _ string) (*telemetry.Snapshot, error) {
	if len(q.records) == 0 {
		return nil, nil
	}
	r := q.records[len(q.records)-1]
	return &r, nil
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

func running(at time.Time, rpm float64) telemetry.Snapshot {
	snap := telemetry.NewSnapshot("GEN-01")
	snap.Timestamp = at
	snap.RPM = rpm
	return snap
}

func newReportsHandler(t *testing.T, query *stubQuery, now time.Time) *Handler {
	t.Helper()
	clock := fixedClock{at: now}
	service, err := reportapp.NewReportService("GEN-01", query, reportapp.WithClock(clock))
	if err != nil {
		t.Fatalf("new report service: %v", err)
	}
	handler, err := NewHandler("GEN-01", service, clock)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func TestActivityReport(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	base := now.Add(-3 * time.Hour)
	query := &stubQuery{records: []telemetry.Snapshot{
		running(base, 2000),
		running(base.Add(120*time.Second), 2000),
	}}
	handler := newReportsHandler(t, query, now)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/activity?days=3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var days []analytics.ActivityDay
	if err := json.Unmarshal(rec.Body.Bytes(), &days); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(days) != 3 {
		t.Fatalf("expected 3 day buckets, got %d", len(days))
	}
	if got := days[2].Hours; got != 120.0/3600.0 {
		t.Fatalf("expected 120s of runtime today, got %v hours", got)
	}
}

func TestChartReport(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	base := now.Add(-time.Hour)
	var records []telemetry.Snapshot
	for i := 0; i < 100; i++ {
		records = append(records, running(base.Add(time.Duration(i)*5*time.Second), float64(i)))
	}
	handler := newReportsHandler(t, &stubQuery{records: records}, now)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/chart?points=10&params=rpm", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var points []analytics.Point
	if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(points) != 10 {
		t.Fatalf("expected 10 downsampled points, got %d", len(points))
	}
	if points[0].Values["rpm"] == nil || *points[0].Values["rpm"] != 4.5 {
		t.Fatalf("expected first block mean 4.5, got %v", points[0].Values["rpm"])
	}
}

func TestSummaryReport(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	base := now.Add(-time.Hour)
	query := &stubQuery{records: []telemetry.Snapshot{
		running(base, 1000),
		running(base.Add(5*time.Second), 3000),
	}}
	handler := newReportsHandler(t, query, now)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Stats      analytics.SessionStats       `json:"stats"`
		Parameters []analytics.ParameterSummary `json:"parameters"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Parameters) == 0 {
		t.Fatal("expected parameter summaries")
	}
}

func TestExportEndpoints(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	query := &stubQuery{records: []telemetry.Snapshot{running(now.Add(-time.Hour), 2000)}}
	handler := newReportsHandler(t, query, now)

	for _, tc := range []struct {
		path        string
		contentType string
	}{
		{"/api/v1/exports/usage.pdf", "application/pdf"},
		{"/api/v1/exports/usage.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.path, rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != tc.contentType {
			t.Fatalf("%s: unexpected content type %q", tc.path, got)
		}
		if rec.Body.Len() == 0 {
			t.Fatalf("%s: empty payload", tc.path)
		}
	}
}

func TestSummaryHoursWindow(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	query := &stubQuery{records: []telemetry.Snapshot{
		running(now.Add(-30*time.Minute), 2000),
		running(now.Add(-2*time.Hour), 1000),
	}}
	handler := newReportsHandler(t, query, now)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/summary?hours=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Parameters []analytics.ParameterSummary `json:"parameters"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, p := range body.Parameters {
		if p.Parameter == "rpm" && p.Count != 1 {
			t.Fatalf("hours window must exclude older records, got count %d", p.Count)
		}
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/summary?hours=0", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for hours=0, got %d", rec.Code)
	}
}

func TestChartRejectsBadWindow(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	handler := newReportsHandler(t, &stubQuery{}, now)

	rec := httptest.NewRecorder()
	url := "/api/v1/reports/chart?startDate=2026-03-14T00:00:00Z&endDate=2026-03-13T00:00:00Z"
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
