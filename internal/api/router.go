package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/voicememo/internal/ledger"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(journal ledger.Journal, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(journal)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Memo journal.
	r.Get("/memos", h.ListMemos)
	r.Get("/memos/{id}", h.GetMemo)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
