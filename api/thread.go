package api

import (
	"context"
	"net/http"

	"github.com/barnhand/barnhand/internal/log"
	"github.com/barnhand/barnhand/internal/thread"
)

// ThreadStore is the subset of *thread.Store the handlers need.
type ThreadStore interface {
	Messages(ctx context.Context, userID, threadID string) ([]thread.Turn, error)
	List(ctx context.Context, userID string) ([]thread.Summary, error)
	Delete(ctx context.Context, userID, threadID string) (bool, error)
}

// ThreadHandler handles conversation history endpoints.
type ThreadHandler struct {
	store  ThreadStore
	logger log.Logger
}

// NewThreadHandler creates a new thread handler.
func NewThreadHandler(store ThreadStore, logger log.Logger) *ThreadHandler {
	return &ThreadHandler{store: store, logger: logger}
}

// RegisterRoutes registers thread routes on the given mux.
func (h *ThreadHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/threads", h.list)
	mux.HandleFunc("GET /api/threads/{id}/messages", h.messages)
	mux.HandleFunc("DELETE /api/threads/{id}", h.delete)
}

// requestUserID resolves the caller identity: X-User-ID header, then the user_id
// query parameter, then "anonymous".
func requestUserID(r *http.Request) string {
	if uid := r.Header.Get("X-User-ID"); uid != "" {
		return uid
	}
	if uid := r.URL.Query().Get("user_id"); uid != "" {
		return uid
	}
	return "anonymous"
}

// list returns the caller's threads, newest first.
func (h *ThreadHandler) list(w http.ResponseWriter, r *http.Request) {
	uid := requestUserID(r)

	threads, err := h.store.List(r.Context(), uid)
	if err != nil {
		h.logger.Error("failed to list threads", "user_id", uid, "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "failed to list threads")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"threads": threads,
		"total":   len(threads),
	})
}

// messages returns the full history of one thread.
func (h *ThreadHandler) messages(w http.ResponseWriter, r *http.Request) {
	uid := requestUserID(r)
	threadID := r.PathValue("id")

	turns, err := h.store.Messages(r.Context(), uid, threadID)
	if err != nil {
		h.logger.Error("failed to load thread", "thread_id", threadID, "error", err)
		writeError(w, http.StatusInternalServerError, "load_failed", "failed to load thread")
		return
	}
	if turns == nil {
		turns = []thread.Turn{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id": threadID,
		"messages":  turns,
	})
}

// delete removes a thread. 404 when the thread does not exist.
func (h *ThreadHandler) delete(w http.ResponseWriter, r *http.Request) {
	uid := requestUserID(r)
	threadID := r.PathValue("id")

	existed, err := h.store.Delete(r.Context(), uid, threadID)
	if err != nil {
		h.logger.Error("failed to delete thread", "thread_id", threadID, "error", err)
		writeError(w, http.StatusInternalServerError, "delete_failed", "failed to delete thread")
		return
	}
	if !existed {
		writeError(w, http.StatusNotFound, "not_found", "thread not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
