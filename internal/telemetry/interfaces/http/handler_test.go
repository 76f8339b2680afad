package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"genset-cloud/internal/telemetry/application"
	telemetry "genset-cloud/internal/telemetry/domain"
)

type stubQuery struct {
	latest  *telemetry.Snapshot
	history []telemetry.Snapshot

	gotFrom  time.Time
	gotTo    time.Time
	gotLimit int
}

func (q *stubQuery) Range(_ context.Context, _ string, from, to time.Time, limit int, _ bool) ([]telemetry.Snapshot, error) {
	q.gotFrom, q.gotTo, q.gotLimit = from, to, limit
	return q.history, nil
}

func (q *stubQuery) Latest(_ context.Context, _ string) (*telemetry.Snapshot, error) {
	return q.latest, nil
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

func record(at time.Time, rpm float64) telemetry.Snapshot {
	snap := telemetry.NewSnapshot("GEN-01")
	snap.Timestamp = at
	snap.RPM = rpm
	snap.Status = telemetry.StatusRunning
	return snap
}

func newLatestHandler(t *testing.T, query *stubQuery, now time.Time) (*Handler, *application.SnapshotStore) {
	t.Helper()
	store := application.NewSnapshotStore("GEN-01")
	handler, err := NewHandler("GEN-01", store, query, WithClock(fixedClock{at: now}))
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler, store
}

func TestLatestServesFreshRecord(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	fresh := record(now.Add(-5*time.Second), 2400)
	handler, _ := newLatestHandler(t, &stubQuery{latest: &fresh}, now)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/engine-data/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got telemetry.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RPM != 2400 {
		t.Fatalf("expected the persisted record, got rpm %v", got.RPM)
	}
}

func TestLatestFallsBackToLiveSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	stale := record(now.Add(-30*time.Second), 2400)
	handler, store := newLatestHandler(t, &stubQuery{latest: &stale}, now)
	store.Apply("GEN-01", telemetry.FieldUpdate{Field: telemetry.FieldRPM, Value: 1800})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/engine-data/latest", nil))
	var got telemetry.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RPM != 1800 {
		t.Fatalf("stale record must yield the live snapshot, got rpm %v", got.RPM)
	}
}

func TestLatestWithEmptyHistory(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	handler, _ := newLatestHandler(t, &stubQuery{}, now)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/engine-data/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got telemetry.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != telemetry.StatusStopped {
		t.Fatalf("expected default snapshot, got %+v", got)
	}
}

func TestHistoryHoursWindow(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	query := &stubQuery{history: []telemetry.Snapshot{record(now, 2000)}}
	handler, _ := newLatestHandler(t, query, now)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/engine-data/history?hours=6&limit=100", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if want := now.Add(-6 * time.Hour); !query.gotFrom.Equal(want) {
		t.Fatalf("expected from %v, got %v", want, query.gotFrom)
	}
	if query.gotLimit != 100 {
		t.Fatalf("expected limit 100, got %d", query.gotLimit)
	}
}

func TestHistoryExplicitWindow(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	query := &stubQuery{}
	handler, _ := newLatestHandler(t, query, now)

	rec := httptest.NewRecorder()
	url := "/api/v1/engine-data/history?startDate=2026-03-13T00:00:00Z&endDate=2026-03-14T00:00:00Z"
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if query.gotFrom.IsZero() || !query.gotTo.After(query.gotFrom) {
		t.Fatalf("unexpected window %v..%v", query.gotFrom, query.gotTo)
	}
	if rec.Body.String() != "[]\n" {
		t.Fatalf("empty history must yield an empty array, got %q", rec.Body.String())
	}
}

func TestHistoryRejectsInvertedWindow(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	handler, _ := newLatestHandler(t, &stubQuery{}, now)

	rec := httptest.NewRecorder()
	url := "/api/v1/engine-data/history?startDate=2026-03-14T00:00:00Z&endDate=2026-03-13T00:00:00Z"
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHistoryRejectsBadHours(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	handler, _ := newLatestHandler(t, &stubQuery{}, now)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/engine-data/history?hours=-2", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
