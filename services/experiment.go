package services

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/ailabteam/go-qadr/protocol"
)

// ErrNoRuns is returned when an experiment is asked to summarize zero runs.
var ErrNoRuns = errors.New("experiment needs at least one run")

// ExperimentConfig describes a repeated-run experiment.
type ExperimentConfig struct {
	Runs     int             `toml:"runs" json:"runs"`
	Protocol protocol.Config `toml:"protocol" json:"protocol"`
}

// ExperimentSummary aggregates round counts and wall-clock durations over
// the successful runs of an experiment.
type ExperimentSummary struct {
	Runs     int `json:"runs"`
	Failures int `json:"failures"`

	MeanRounds   float64 `json:"mean_rounds"`
	MedianRounds float64 `json:"median_rounds"`
	P95Rounds    float64 `json:"p95_rounds"`
	MaxRounds    float64 `json:"max_rounds"`

	MeanDurationMillis float64 `json:"mean_duration_ms"`
	MaxDurationMillis  float64 `json:"max_duration_ms"`
}

// RunExperiment executes cfg.Runs independent protocol runs and summarizes
// them. Individual run failures (timeouts, slot exhaustion) are counted,
// not fatal; the summary covers the successful runs.
func (r *Runner) RunExperiment(cfg ExperimentConfig) (*ExperimentSummary, error) {
	if cfg.Runs < 1 {
		return nil, ErrNoRuns
	}

	rounds := make([]float64, 0, cfg.Runs)
	durations := make([]float64, 0, cfg.Runs)
	failures := 0

	for i := 0; i < cfg.Runs; i++ {
		record, _, err := r.Execute(cfg.Protocol, protocol.Dependencies{})
		if err != nil {
			failures++
			continue
		}
		rounds = append(rounds, float64(record.ReservationRounds))
		durations = append(durations, float64(record.DurationMillis))
	}

	summary := &ExperimentSummary{Runs: cfg.Runs, Failures: failures}
	if len(rounds) == 0 {
		return summary, nil
	}

	var err error
	if summary.MeanRounds, err = stats.Mean(rounds); err != nil {
		return nil, fmt.Errorf("summarizing rounds: %w", err)
	}
	if summary.MedianRounds, err = stats.Median(rounds); err != nil {
		return nil, fmt.Errorf("summarizing rounds: %w", err)
	}
	if summary.P95Rounds, err = stats.Percentile(rounds, 95); err != nil {
		// Percentile needs more than one sample; degrade to the max.
		summary.P95Rounds, _ = stats.Max(rounds)
	}
	if summary.MaxRounds, err = stats.Max(rounds); err != nil {
		return nil, fmt.Errorf("summarizing rounds: %w", err)
	}
	if summary.MeanDurationMillis, err = stats.Mean(durations); err != nil {
		return nil, fmt.Errorf("summarizing durations: %w", err)
	}
	if summary.MaxDurationMillis, err = stats.Max(durations); err != nil {
		return nil, fmt.Errorf("summarizing durations: %w", err)
	}

	return summary, nil
}
