package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starford/voicememo/internal/apperr"
	"github.com/starford/voicememo/internal/ledger"
	"github.com/starford/voicememo/internal/models"
)

var validStatuses = map[string]bool{
	models.StatusProcessing:    true,
	models.StatusProcessed:     true,
	models.StatusNoteFailed:    true,
	models.StatusFailed:        true,
	models.StatusArchiveFailed: true,
}

// Handler holds API route handlers.
type Handler struct {
	journal ledger.Journal
}

// NewHandler creates a new Handler.
func NewHandler(journal ledger.Journal) *Handler {
	return &Handler{journal: journal}
}

// ListMemos handles GET /api/memos.
//
//	@Summary		List processed memos, newest first
//	@Tags			memos
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"	Enums(processing, processed, note_failed, failed, archive_failed)
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	MemoListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/memos [get]
func (h *Handler) ListMemos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	status := q.Get("status")
	if status != "" && !validStatuses[status] {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown status"))
		return
	}

	items, total, err := h.journal.List(ledger.Filter{Status: status, Limit: limit, Offset: offset})
	if err != nil {
		slog.Error("list memos failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, MemoListResponse{Memos: items, Total: total})
}

// GetMemo handles GET /api/memos/{id}.
//
//	@Summary		Get a single memo record
//	@Tags			memos
//	@Produce		json
//	@Param			id	path		string	true	"Memo ID"
//	@Success		200	{object}	MemoRecord
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/memos/{id} [get]
func (h *Handler) GetMemo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.journal.Get(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get memo failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
