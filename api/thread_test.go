package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/barnhand/barnhand/internal/log"
	"github.com/barnhand/barnhand/internal/thread"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockThreadStore struct {
	turns     []thread.Turn
	summaries []thread.Summary
	deleted   bool
	err       error

	userID   string
	threadID string
}

func (m *mockThreadStore) Messages(_ context.Context, userID, threadID string) ([]thread.Turn, error) {
	m.userID, m.threadID = userID, threadID
	return m.turns, m.err
}

func (m *mockThreadStore) List(_ context.Context, userID string) ([]thread.Summary, error) {
	m.userID = userID
	return m.summaries, m.err
}

func (m *mockThreadStore) Delete(_ context.Context, userID, threadID string) (bool, error) {
	m.userID, m.threadID = userID, threadID
	return m.deleted, m.err
}

func threadMux(store ThreadStore) *http.ServeMux {
	mux := http.NewServeMux()
	NewThreadHandler(store, log.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestThreadHandler_List(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &mockThreadStore{summaries: []thread.Summary{
		{ThreadID: "t-2", Preview: "newer", MessageCount: 4, CreatedAt: now, UpdatedAt: now},
		{ThreadID: "t-1", Preview: "older", MessageCount: 2, CreatedAt: now, UpdatedAt: now},
	}}
	mux := threadMux(store)

	req := httptest.NewRequest(http.MethodGet, "/api/threads", nil)
	req.Header.Set("X-User-ID", "alice")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", store.userID)

	var resp struct {
		Threads []thread.Summary `json:"threads"`
		Total   int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "t-2", resp.Threads[0].ThreadID)
}

func TestThreadHandler_ListError(t *testing.T) {
	t.Parallel()

	store := &mockThreadStore{err: errors.New("database down")}
	mux := threadMux(store)

	req := httptest.NewRequest(http.MethodGet, "/api/threads", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestThreadHandler_Messages(t *testing.T) {
	t.Parallel()

	store := &mockThreadStore{turns: []thread.Turn{
		{Role: thread.RoleUser, Content: "hi"},
		{Role: thread.RoleAssistant, Content: "hello"},
	}}
	mux := threadMux(store)

	req := httptest.NewRequest(http.MethodGet, "/api/threads/t-1/messages?user_id=bob", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob", store.userID)
	assert.Equal(t, "t-1", store.threadID)

	var resp struct {
		ThreadID string        `json:"thread_id"`
		Messages []thread.Turn `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "t-1", resp.ThreadID)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, thread.RoleAssistant, resp.Messages[1].Role)
}

func TestThreadHandler_MessagesUnknownThread(t *testing.T) {
	t.Parallel()

	// an unknown thread is an empty history, not an error
	store := &mockThreadStore{turns: nil}
	mux := threadMux(store)

	req := httptest.NewRequest(http.MethodGet, "/api/threads/missing/messages", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"thread_id":"missing","messages":[]}`, w.Body.String())
}

func TestThreadHandler_Delete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		deleted  bool
		err      error
		wantCode int
	}{
		{name: "existing thread", deleted: true, wantCode: http.StatusNoContent},
		{name: "missing thread", deleted: false, wantCode: http.StatusNotFound},
		{name: "store failure", err: errors.New("boom"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &mockThreadStore{deleted: tt.deleted, err: tt.err}
			mux := threadMux(store)

			req := httptest.NewRequest(http.MethodDelete, "/api/threads/t-1", nil)
			req.Header.Set("X-User-ID", "alice")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "t-1", store.threadID)
		})
	}
}

func TestRequestUserID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/threads", nil)
	assert.Equal(t, "anonymous", requestUserID(req))

	req = httptest.NewRequest(http.MethodGet, "/api/threads?user_id=carol", nil)
	assert.Equal(t, "carol", requestUserID(req))

	req.Header.Set("X-User-ID", "alice")
	assert.Equal(t, "alice", requestUserID(req))
}
