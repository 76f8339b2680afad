package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	reportapp "genset-cloud/internal/analytics/application"
	analytics "genset-cloud/internal/analytics/domain"
)

const timeLayout = time.RFC3339

// Handler provides report and export endpoints.
type Handler struct {
	deviceID string
	service  *reportapp.ReportService
	clock    reportapp.Clock
}

// NewHandler constructs a handler.
func NewHandler(deviceID string, service *reportapp.ReportService, clock reportapp.Clock) (*Handler, error) {
	if deviceID == "" {
		return nil, errors.New("reports handler: empty device id")
	}
	if service == nil {
		return nil, errors.New("reports handler: nil service")
	}
	if clock == nil {
		return nil, errors.New("reports handler: nil clock")
	}
	return &Handler{deviceID: deviceID, service: service, clock: clock}, nil
}

// ServeHTTP handles /api/v1/reports/* and /api/v1/exports/*.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/v1/reports/activity":
		h.handleActivity(w, r)
	case "/api/v1/reports/chart":
		h.handleChart(w, r)
	case "/api/v1/reports/summary":
		h.handleSummary(w, r)
	case "/api/v1/exports/usage.xlsx", "/api/v1/exports/usage.pdf":
		h.handleExport(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = parsed
	}
	activity, err := h.service.Activity(r.Context(), days)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, activity)
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	from, to, err := reportWindow(r, h.clock.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	target := 0
	if raw := r.URL.Query().Get("points"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "points must be a positive integer", http.StatusBadRequest)
			return
		}
		target = parsed
	}
	var params []string
	if raw := r.URL.Query().Get("params"); raw != "" {
		params = strings.Split(raw, ",")
	}
	points, err := h.service.Chart(r.Context(), from, to, target, params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if points == nil {
		points = []analytics.Point{}
	}
	respondJSON(w, points)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := reportWindow(r, h.clock.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	stats, summaries, err := h.service.Summary(r.Context(), from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]any{
		"stats":      stats,
		"parameters": summaries,
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	from, to, err := reportWindow(r, h.clock.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	days := int(to.Sub(from).Hours()/24) + 1

	stats, summaries, err := h.service.Summary(r.Context(), from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	activity, err := h.service.Activity(r.Context(), days)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var payload []byte
	var contentType, filename string
	if strings.HasSuffix(r.URL.Path, ".pdf") {
		payload, err = BuildUsagePDF(h.deviceID, from, to, stats, activity, summaries)
		contentType = "application/pdf"
		filename = "usage.pdf"
	} else {
		payload, err = BuildUsageXLSX(h.deviceID, from, to, stats, activity, summaries)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "usage.xlsx"
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(payload)
}

// reportWindow resolves ?hours or ?startDate/?endDate, defaulting to the last 7 days.
func reportWindow(r *http.Request, now time.Time) (time.Time, time.Time, error) {
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
		return now.AddDate(0, 0, -7), now, nil
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
