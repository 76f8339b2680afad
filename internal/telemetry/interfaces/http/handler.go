package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"genset-cloud/internal/telemetry/application"
	telemetry "genset-cloud/internal/telemetry/domain"
)

const (
	timeLayout       = time.RFC3339
	freshnessWindow  = 15 * time.Second
	defaultHistLimit = 1000
)

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Handler provides the engine telemetry read endpoints.
type Handler struct {
	deviceID string
	store    *application.SnapshotStore
	query    telemetry.HistoryQuery
	cache    telemetry.LatestCache
	clock    Clock
}

// Option configures the handler.
type Option func(*Handler)

// WithCache attaches the hot-path cache consulted before the database.
func WithCache(cache telemetry.LatestCache) Option {
	return func(h *Handler) { h.cache = cache }
}

// WithClock overrides the wall clock.
func WithClock(clock Clock) Option {
	return func(h *Handler) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHandler constructs a handler.
func NewHandler(deviceID string, store *application.SnapshotStore, query telemetry.HistoryQuery, opts ...Option) (*Handler, error) {
	if deviceID == "" {
		return nil, errors.New("telemetry handler: empty device id")
	}
	if store == nil {
		return nil, errors.New("telemetry handler: nil store")
	}
	if query == nil {
		return nil, errors.New("telemetry handler: nil query")
	}
	h := &Handler{deviceID: deviceID, store: store, query: query, clock: systemClock{}}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ServeHTTP handles /api/v1/engine-data/latest and /api/v1/engine-data/history.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/v1/engine-data/latest":
		h.handleLatest(w, r)
	case "/api/v1/engine-data/history":
		h.handleHistory(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// handleLatest serves the most recent persisted record when it is fresh,
// falling back to the live snapshot when the trigger has gone quiet.
func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	record := h.latestRecord(r)
	now := h.clock.Now()
	if record != nil && now.Sub(record.Timestamp) < freshnessWindow {
		respondJSON(w, record)
		return
	}
	live := h.store.Get(h.deviceID)
	respondJSON(w, live)
}

func (h *Handler) latestRecord(r *http.Request) *telemetry.Snapshot {
	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), h.deviceID); err == nil && cached != nil {
			return cached
		}
	}
	record, err := h.query.Latest(r.Context(), h.deviceID)
	if err != nil {
		return nil
	}
	return record
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now()
	from, to, err := historyWindow(r, now)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit := defaultHistLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := h.query.Range(r.Context(), h.deviceID, from, to, limit, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []telemetry.Snapshot{}
	}
	respondJSON(w, records)
}

// historyWindow resolves the query window: either a rolling ?hours=N or an
// explicit ?startDate/?endDate pair. Defaults to the last 24 hours.
func historyWindow(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	q := r.URL.Query()
	if raw := q.Get("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return time.Time{}, time.Time{}, errors.New("hours must be a positive integer")
		}
		return now.Add(-time.Duration(hours) * time.Hour), now, nil
	}
	start := q.Get("startDate")
	end := q.Get("endDate")
	if start == "" && end == "" {
		return now.Add(-24 * time.Hour), now, nil
	}
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, errors.New("startDate and endDate must be given together")
	}
	from, err := time.Parse(timeLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("startDate must be RFC3339")
	}
	to, err := time.Parse(timeLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("endDate must be RFC3339")
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, errors.New("endDate must be after startDate")
	}
	return from.UTC(), to.UTC(), nil
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
