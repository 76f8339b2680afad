package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	maintenance "genset-cloud/internal/maintenance/domain"
)

// TaskRepository is the persistence port the handler drives.
type TaskRepository interface {
	Create(ctx context.Context, task *maintenance.Task) (int64, error)
	List(ctx context.Context) ([]maintenance.Task, error)
	GetByID(ctx context.Context, id int64) (*maintenance.Task, error)
	Update(ctx context.Context, task *maintenance.Task) error
	Delete(ctx context.Context, id int64) error
}

// Handler provides the maintenance task CRUD endpoints.
type Handler struct {
	repo TaskRepository
}

// NewHandler constructs a handler.
func NewHandler(repo TaskRepository) (*Handler, error) {
	if repo == nil {
		return nil, errors.New("maintenance handler: nil repository")
	}
	return &Handler{repo: repo}, nil
}

// ServeHTTP handles /api/v1/maintenance and /api/v1/maintenance/{id}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/maintenance":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/api/v1/maintenance/"):
		h.handleTask(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []maintenance.Task{}
	}
	respondJSON(w, tasks)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var task maintenance.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		http.Error(w, "invalid task document", http.StatusBadRequest)
		return
	}
	if err := task.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := h.repo.Create(r.Context(), &task); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	respondJSON(w, task)
}

func (h *Handler) handleTask(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/maintenance/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.Error(w, "task id must be numeric", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		task, err := h.repo.GetByID(r.Context(), id)
		if err != nil {
			respondTaskError(w, err)
			return
		}
		respondJSON(w, task)
	case http.MethodPut:
		h.handleUpdate(w, r, id)
	case http.MethodDelete:
		if err := h.repo.Delete(r.Context(), id); err != nil {
			respondTaskError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id int64) {
	existing, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondTaskError(w, err)
		return
	}
	var incoming maintenance.Task
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		http.Error(w, "invalid task document", http.StatusBadRequest)
		return
	}
	incoming.ID = existing.ID
	incoming.CreatedAt = existing.CreatedAt
	if incoming.Status == "" {
		incoming.Status = existing.Status
	}
	if incoming.Status == maintenance.StatusCompleted && incoming.CompletedAt == nil {
		now := time.Now().UTC()
		incoming.CompletedAt = &now
	}
	if err := incoming.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.repo.Update(r.Context(), &incoming); err != nil {
		respondTaskError(w, err)
		return
	}
	respondJSON(w, incoming)
}

func respondTaskError(w http.ResponseWriter, err error) {
	if errors.Is(err, maintenance.ErrNotFound) {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
