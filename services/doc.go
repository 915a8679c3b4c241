// Package services provides the operational layer above the core protocol:
// a structured-logging run driver, a repeated-run experiment harness with
// summary statistics, TOML configuration loading, and a run-history store
// with PostgreSQL and in-memory backends.
//
// The core packages stay silent and report telemetry as data; this package
// is where that telemetry meets logging and persistence.
package services
