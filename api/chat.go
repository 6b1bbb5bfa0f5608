package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/barnhand/barnhand/internal/log"
)

// Request validation limits.
const (
	MaxMessageLength  = 4000
	MaxThreadIDLength = 100
	MaxUserIDLength   = 100
)

// ChatService processes one chat message. *chat.Service implements this.
type ChatService interface {
	Chat(ctx context.Context, userID, threadID, message string) (string, error)
}

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	service ChatService
	logger  log.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(service ChatService, logger log.Logger) *ChatHandler {
	return &ChatHandler{service: service, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.send)
}

// ChatRequest is the chat endpoint request body. A missing thread_id
// starts a new thread; a missing user_id falls back to the X-User-ID
// header and then to "anonymous".
type ChatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

// ChatResponse is the chat endpoint response body.
type ChatResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"thread_id"`
}

// send processes a chat message and returns the reply.
func (h *ChatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}
	if len(req.Message) > MaxMessageLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "message too long")
		return
	}
	if len(req.ThreadID) > MaxThreadIDLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "thread_id too long")
		return
	}
	if len(req.UserID) > MaxUserIDLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id too long")
		return
	}

	if req.ThreadID == "" {
		req.ThreadID = uuid.New().String()
	}
	userID := req.UserID
	if userID == "" {
		userID = r.Header.Get("X-User-ID")
	}
	if userID == "" {
		userID = "anonymous"
	}

	h.logger.Info("chat request",
		"thread_id", req.ThreadID,
		"message_length", len(req.Message))

	reply, err := h.service.Chat(r.Context(), userID, req.ThreadID, req.Message)
	if err != nil {
		h.logger.Error("chat failed", "thread_id", req.ThreadID, "error", err)
		writeError(w, http.StatusInternalServerError, "chat_failed", "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Response: reply, ThreadID: req.ThreadID})
}
