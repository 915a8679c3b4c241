package services

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/ailabteam/go-qadr/crypto"
	"github.com/ailabteam/go-qadr/protocol"
)

// RunRecord is the persisted summary of one protocol run.
type RunRecord struct {
	ID                string    `json:"id"`
	StartedAt         time.Time `json:"started_at"`
	DurationMillis    int64     `json:"duration_ms"`
	Participants      int       `json:"participants"`
	SlotRatio         float64   `json:"slot_ratio"`
	SlotCount         int       `json:"slot_count"`
	ReservationRounds int       `json:"reservation_rounds"`
	Resubmit          string    `json:"resubmit"`
	Success           bool      `json:"success"`
	Error             string    `json:"error,omitempty"`
}

// Runner drives protocol runs, logs their progress, and records their
// outcomes. The store is optional; without one, runs are only logged.
type Runner struct {
	log   *slog.Logger
	store RunStore
}

// NewRunner creates a runner. A nil store disables persistence.
func NewRunner(log *slog.Logger, store RunStore) *Runner {
	return &Runner{log: log, store: store}
}

// Execute performs one full protocol run. The outcome is recorded in the
// store (when configured) whether the run succeeds or fails; the record is
// returned alongside the result.
func (r *Runner) Execute(cfg protocol.Config, deps protocol.Dependencies) (*RunRecord, *protocol.RunResult, error) {
	cfg.Normalize()

	record := &RunRecord{
		ID:           newRunID(),
		StartedAt:    time.Now().UTC(),
		Participants: cfg.Participants,
		SlotRatio:    cfg.SlotRatio,
		Resubmit:     string(cfg.Resubmit),
	}

	log := r.log.With("run_id", record.ID, "participants", cfg.Participants, "slot_ratio", cfg.SlotRatio)
	if deps.Observer == nil {
		deps.Observer = &logObserver{log: log}
	}

	log.Info("starting run")

	coordinator, err := protocol.NewCoordinator(cfg, deps)
	if err != nil {
		return nil, nil, err
	}
	record.SlotCount = coordinator.SlotCount()

	result, err := coordinator.Run()
	record.DurationMillis = time.Since(record.StartedAt).Milliseconds()
	record.ReservationRounds = coordinator.ReservationRounds()
	if err != nil {
		record.Error = err.Error()
		log.Error("run failed", "err", err, "rounds", record.ReservationRounds)
	} else {
		record.Success = true
		log.Info("run finished", "rounds", result.ReservationRounds, "duration_ms", record.DurationMillis)
	}

	if r.store != nil {
		if saveErr := r.store.SaveRun(record); saveErr != nil {
			log.Error("saving run record", "err", saveErr)
		}
	}

	if err != nil {
		return record, nil, err
	}
	return record, result, nil
}

// logObserver translates round telemetry into structured log lines.
type logObserver struct {
	log *slog.Logger
}

func (o *logObserver) RoundCompleted(round, pending int) {
	o.log.Info("reservation round completed", "round", round, "pending", pending)
}

func (o *logObserver) ReservationFinished(success bool, rounds int) {
	if success {
		o.log.Info("reservation finished", "rounds", rounds)
		return
	}
	o.log.Warn("reservation gave up", "rounds", rounds)
}

func newRunID() string {
	buf := make([]byte, 8)
	if err := crypto.NewSecureSource().Read(buf); err != nil {
		// crypto/rand failure is unrecoverable anyway; fall back to time.
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
