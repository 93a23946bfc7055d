package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starford/perthro/internal/anki"
	"github.com/starford/perthro/internal/apperr"
	"github.com/starford/perthro/internal/index"
	"github.com/starford/perthro/internal/reviewservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *reviewservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *reviewservice.Service) *Handler {
	return &Handler{svc: svc}
}

func queueItem(it index.ItemRow) QueueItem {
	return QueueItem{
		ID:         it.ID,
		NotePath:   it.NotePath,
		Kind:       string(it.Kind),
		Status:     string(it.Status),
		Due:        it.Due,
		Stability:  it.Stability,
		Difficulty: it.Difficulty,
		Priority:   it.Priority,
		Reps:       it.Reps,
		Lapses:     it.Lapses,
	}
}

// Queue handles GET /api/queue.
//
//	@Summary		Get the review queue, earliest due first
//	@Tags			review
//	@Produce		json
//	@Param			limit	query		int	false	"Max items"
//	@Success		200		{object}	QueueResponse
//	@Security		BearerAuth
//	@Router			/queue [get]
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	rows, err := h.svc.Queue(r.Context(), time.Now(), limit)
	if err != nil {
		slog.Error("queue failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	items := make([]QueueItem, len(rows))
	for i, it := range rows {
		items[i] = queueItem(it)
	}
	writeJSON(w, http.StatusOK, QueueResponse{Items: items})
}

// GetItem handles GET /api/items/{id}.
//
//	@Summary		Get a single review item with its note content
//	@Tags			review
//	@Produce		json
//	@Param			id	path		string	true	"Item id"
//	@Success		200	{object}	ItemDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id} [get]
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	detail, err := h.svc.GetItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get item failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, ItemDetail{
		QueueItem: queueItem(detail.Item),
		Content:   detail.Content,
		Question:  detail.Question,
		Answer:    detail.Answer,
	})
}

// Summary handles GET /api/summary.
//
//	@Summary		Get per-status item counts
//	@Tags			review
//	@Produce		json
//	@Success		200	{object}	index.StatusCounts
//	@Security		BearerAuth
//	@Router			/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.Summary(r.Context(), time.Now())
	if err != nil {
		slog.Error("summary failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// Import handles POST /api/import.
//
//	@Summary		Import an Anki collection into the vault
//	@Tags			import
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRequest	true	"Import parameters"
//	@Success		200		{object}	ImportResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		423		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.CollectionPath == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("collectionPath is required"))
		return
	}

	opts := anki.DefaultOptions(req.CollectionPath)
	opts.ProfileDir = req.ProfileDir
	opts.DeckFilter = req.DeckFilter
	opts.ExcludeSuspended = !req.IncludeSuspended
	opts.IncludeHistory = req.IncludeHistory
	if req.ImportFolder != "" {
		opts.ImportFolder = req.ImportFolder
	}
	if req.Priority > 0 {
		opts.Priority = req.Priority
	}

	summary, err := h.svc.Import(r.Context(), opts)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("collection not found"))
		case errors.Is(err, apperr.ErrSourceBusy):
			writeJSON(w, http.StatusLocked, errorBody(err.Error()))
		default:
			slog.Error("import failed", slog.String("collection", req.CollectionPath), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, importResponse(summary))
}
