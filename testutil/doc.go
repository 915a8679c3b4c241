// Package testutil provides shared helpers for tests: a deterministic
// randomness source that satisfies crypto.Source, option-based protocol
// config builders, and an observer that records telemetry events.
package testutil
