package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLiveness(t *testing.T) {
	h := New("test")
	h.RegisterCheck("ledger", func(context.Context) error { return errors.New("down") })

	w := serve(t, h, "/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Run("all up", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("ledger", func(context.Context) error { return nil })
		h.RegisterCheck("kafka", func(context.Context) error { return nil })

		w := serve(t, h, "/health/ready")
		require.Equal(t, http.StatusOK, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, map[string]string{"ledger": "up", "kafka": "up"}, resp.Checks)
	})

	t.Run("one down", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("ledger", func(context.Context) error { return errors.New("circuit open") })
		h.RegisterCheck("redis", func(context.Context) error { return nil })

		w := serve(t, h, "/health/ready")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "down: circuit open", resp.Checks["ledger"])
		assert.Equal(t, "up", resp.Checks["redis"])
	})

	t.Run("slow check times out", func(t *testing.T) {
		h := New("test")
		h.checkTimeout = 20 * time.Millisecond
		h.RegisterCheck("kafka", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})

		w := serve(t, h, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "deadline exceeded")
	})
}

func TestStatus(t *testing.T) {
	h := New("staging")
	h.RegisterCheck("redis", func(context.Context) error { return nil })
	h.RegisterCheck("ledger", func(context.Context) error { return nil })

	w := serve(t, h, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "staging", resp.Environment)
	assert.Equal(t, Version, resp.Version)
	assert.Equal(t, []string{"ledger", "redis"}, resp.Checks)
}
