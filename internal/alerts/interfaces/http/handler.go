package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	alertapp "genset-cloud/internal/alerts/application"
	alerts "genset-cloud/internal/alerts/domain"
)

const defaultListLimit = 50

// Handler provides alert and threshold HTTP endpoints.
type Handler struct {
	service *alertapp.Service
	rules   *alertapp.RuleStore
}

// NewHandler constructs a handler.
func NewHandler(service *alertapp.Service, rules *alertapp.RuleStore) (*Handler, error) {
	if service == nil {
		return nil, errors.New("alerts handler: nil service")
	}
	if rules == nil {
		return nil, errors.New("alerts handler: nil rule store")
	}
	return &Handler{service: service, rules: rules}, nil
}

// ServeHTTP handles /api/v1/alerts, its subroutes, and /api/v1/thresholds.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/alerts":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleList(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/alerts/"):
		h.handleAlert(w, r)
	case r.URL.Path == "/api/v1/thresholds":
		h.handleThresholds(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	list, err := h.service.List(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []alerts.Alert{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (h *Handler) handleAlert(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/")
	parts := strings.Split(path, "/")

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "alert id must be numeric", http.StatusBadRequest)
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "ack":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		alert, err := h.service.Acknowledge(r.Context(), id)
		if err != nil {
			respondAlertError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(alert)
	case len(parts) == 1:
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := h.service.Remove(r.Context(), id); err != nil {
			respondAlertError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleThresholds(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(h.rules.Current())
	case http.MethodPost:
		var overlay alerts.RuleSet
		if err := json.NewDecoder(r.Body).Decode(&overlay); err != nil {
			http.Error(w, "invalid threshold document", http.StatusBadRequest)
			return
		}
		updated, err := h.rules.Update(r.Context(), overlay)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(updated)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func respondAlertError(w http.ResponseWriter, err error) {
	if errors.Is(err, alerts.ErrNotFound) {
		http.Error(w, "alert not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
