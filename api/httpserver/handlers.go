package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ailabteam/go-qadr/protocol"
	"github.com/ailabteam/go-qadr/services"
)

// RunsHandler exposes the run history and triggers new runs.
type RunsHandler struct {
	log    *slog.Logger
	cfg    protocol.Config
	runner *services.Runner
	store  services.RunStore
}

// NewRunsHandler creates the run inspection handler. cfg is the default
// configuration for runs triggered over HTTP.
func NewRunsHandler(log *slog.Logger, cfg protocol.Config, runner *services.Runner, store services.RunStore) *RunsHandler {
	return &RunsHandler{log: log, cfg: cfg, runner: runner, store: store}
}

// RegisterRoutes implements RouteRegistrar.
func (h *RunsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/config", h.handleConfig)
	r.Get("/api/v1/runs", h.handleListRuns)
	r.Get("/api/v1/runs/{runID}", h.handleGetRun)
	r.Post("/api/v1/runs", h.handleCreateRun)
}

func (h *RunsHandler) handleConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.cfg)
}

func (h *RunsHandler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := h.store.LoadRuns(limit)
	if err != nil {
		h.log.Error("loading runs", "err", err)
		http.Error(w, "could not load runs", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*services.RunRecord{}
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *RunsHandler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")

	record, err := h.store.LoadRun(id)
	if errors.Is(err, services.ErrRunNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("loading run", "run_id", id, "err", err)
		http.Error(w, "could not load run", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

// handleCreateRun executes a protocol run. The request body may carry a
// JSON configuration overriding the server default; an empty body uses the
// default as is.
func (h *RunsHandler) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	cfg := h.cfg

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "could not read body", http.StatusBadRequest)
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &cfg); err != nil {
			http.Error(w, "invalid configuration: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, _, err := h.runner.Execute(cfg, protocol.Dependencies{})
	if err != nil {
		// The run itself failed; the record still describes it.
		h.writeJSON(w, http.StatusUnprocessableEntity, record)
		return
	}
	h.writeJSON(w, http.StatusCreated, record)
}

func (h *RunsHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("encoding response", "err", err)
	}
}
