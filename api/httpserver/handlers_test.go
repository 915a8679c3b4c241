package httpserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ailabteam/go-qadr/protocol"
	"github.com/ailabteam/go-qadr/services"
)

func newTestHandler(t *testing.T) (*RunsHandler, *services.InMemoryStore, http.Handler) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := services.NewInMemoryStore()
	runner := services.NewRunner(log, store)

	cfg := protocol.Config{Participants: 4, SlotRatio: 3}
	cfg.Normalize()

	handler := NewRunsHandler(log, cfg, runner, store)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return handler, store, router
}

func TestHandleConfig(t *testing.T) {
	_, _, router := newTestHandler(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg protocol.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	require.Equal(t, 4, cfg.Participants)
	require.Equal(t, 3.0, cfg.SlotRatio)
}

func TestHandleCreateAndGetRun(t *testing.T) {
	_, _, router := newTestHandler(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var record services.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	require.True(t, record.Success)
	require.NotEmpty(t, record.ID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+record.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched services.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	require.Equal(t, record.ID, fetched.ID)
}

func TestHandleCreateRunWithOverrides(t *testing.T) {
	_, _, router := newTestHandler(t)

	body := strings.NewReader(`{"participants": 2, "slot_ratio": 3}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", body))
	require.Equal(t, http.StatusCreated, rec.Code)

	var record services.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	require.Equal(t, 2, record.Participants)
}

func TestHandleCreateRunInvalidConfig(t *testing.T) {
	_, _, router := newTestHandler(t)

	body := strings.NewReader(`{"participants": -1}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetRunNotFound(t *testing.T) {
	_, _, router := newTestHandler(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListRuns(t *testing.T) {
	_, store, router := newTestHandler(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRun(&services.RunRecord{ID: "old", StartedAt: base}))
	require.NoError(t, store.SaveRun(&services.RunRecord{ID: "new", StartedAt: base.Add(time.Hour)}))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var records []*services.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	require.Equal(t, "new", records[0].ID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=bogus", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
