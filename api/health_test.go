package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/barnhand/barnhand/internal/livestock"
	"github.com/barnhand/barnhand/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

type mockSummarySource struct {
	summary livestock.Summary
	err     error
}

func (m *mockSummarySource) Summary(context.Context) (livestock.Summary, error) {
	return m.summary, m.err
}

func TestHealthHandler_Health(t *testing.T) {
	t.Parallel()

	t.Run("includes livestock summary", func(t *testing.T) {
		t.Parallel()

		source := &mockSummarySource{summary: livestock.Summary{TotalSpecies: 12, TotalBreeds: 340}}
		h := NewHealthHandler(&mockPinger{}, source, "1.2.3", log.NewNop())

		w := httptest.NewRecorder()
		h.health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp["status"])
		assert.Equal(t, "1.2.3", resp["version"])
		assert.Contains(t, resp, "livestock_database")
	})

	t.Run("healthy even when the source fails", func(t *testing.T) {
		t.Parallel()

		source := &mockSummarySource{err: errors.New("connection refused")}
		h := NewHealthHandler(&mockPinger{}, source, "dev", log.NewNop())

		w := httptest.NewRecorder()
		h.health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp["status"])
		assert.Equal(t, "unavailable", resp["livestock_database"])
	})

	t.Run("no source configured", func(t *testing.T) {
		t.Parallel()

		h := NewHealthHandler(&mockPinger{}, nil, "dev", log.NewNop())

		w := httptest.NewRecorder()
		h.health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotContains(t, resp, "livestock_database")
	})
}

func TestHealthHandler_Ready(t *testing.T) {
	t.Parallel()

	t.Run("ready when postgres answers", func(t *testing.T) {
		t.Parallel()

		h := NewHealthHandler(&mockPinger{}, &mockSummarySource{}, "dev", log.NewNop())

		w := httptest.NewRecorder()
		h.ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ready", resp["status"])
		assert.Equal(t, "ok", resp["postgres"])
		assert.Equal(t, "ok", resp["livestock_database"])
	})

	t.Run("not ready when postgres is down", func(t *testing.T) {
		t.Parallel()

		h := NewHealthHandler(&mockPinger{err: errors.New("dial tcp")}, nil, "dev", log.NewNop())

		w := httptest.NewRecorder()
		h.ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("source outage does not gate readiness", func(t *testing.T) {
		t.Parallel()

		source := &mockSummarySource{err: errors.New("login failed")}
		h := NewHealthHandler(&mockPinger{}, source, "dev", log.NewNop())

		w := httptest.NewRecorder()
		h.ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "unavailable", resp["livestock_database"])
	})
}
