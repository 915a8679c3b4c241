package testutil

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/ailabteam/go-qadr/protocol"
)

// =====================================
// Deterministic Randomness
// =====================================

// DeterministicSource implements crypto.Source with a SHAKE256 stream
// seeded from a single integer, so property tests can replay runs exactly.
type DeterministicSource struct {
	stream sha3.ShakeHash
}

// NewDeterministicSource creates a source whose entire output is a
// function of seed.
func NewDeterministicSource(seed uint64) *DeterministicSource {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seed)

	stream := sha3.NewShake256()
	stream.Write(buf[:])
	return &DeterministicSource{stream: stream}
}

// Read fills p from the seeded stream.
func (s *DeterministicSource) Read(p []byte) error {
	s.stream.Read(p)
	return nil
}

// Intn returns a pseudorandom integer in [0, n). The slight modulo bias is
// irrelevant for tests.
func (s *DeterministicSource) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("testutil: Intn bound must be positive, got %d", n)
	}
	var buf [8]byte
	s.stream.Read(buf[:])
	return int(binary.BigEndian.Uint64(buf[:]) % uint64(n)), nil
}

// =====================================
// Configuration Generators
// =====================================

// ConfigOption is a function that modifies a protocol.Config.
type ConfigOption func(*protocol.Config)

// WithParticipants sets the participant count.
func WithParticipants(n int) ConfigOption {
	return func(cfg *protocol.Config) {
		cfg.Participants = n
	}
}

// WithSlotRatio sets the slot-to-participant ratio.
func WithSlotRatio(gamma float64) ConfigOption {
	return func(cfg *protocol.Config) {
		cfg.SlotRatio = gamma
	}
}

// WithPseudonymLength sets the pseudonym width in bytes.
func WithPseudonymLength(width int) ConfigOption {
	return func(cfg *protocol.Config) {
		cfg.PseudonymLength = width
	}
}

// WithMessageLength sets the message width in bytes.
func WithMessageLength(width int) ConfigOption {
	return func(cfg *protocol.Config) {
		cfg.MessageLength = width
	}
}

// WithMaxRounds overrides the reservation round budget.
func WithMaxRounds(rounds int) ConfigOption {
	return func(cfg *protocol.Config) {
		cfg.MaxRounds = rounds
	}
}

// WithResubmitPolicy sets the resubmission policy.
func WithResubmitPolicy(policy protocol.ResubmitPolicy) ConfigOption {
	return func(cfg *protocol.Config) {
		cfg.Resubmit = policy
	}
}

// NewTestConfig creates a protocol configuration with generous defaults
// (n=4, γ=3) that can be customized using options.
func NewTestConfig(options ...ConfigOption) protocol.Config {
	cfg := protocol.Config{
		Participants:    4,
		SlotRatio:       3,
		PseudonymLength: protocol.DefaultPseudonymLength,
		MessageLength:   protocol.DefaultMessageLength,
		Resubmit:        protocol.ResubmitAll,
	}

	for _, option := range options {
		option(&cfg)
	}

	return cfg
}

// =====================================
// Telemetry Recording
// =====================================

// RoundEvent is one recorded RoundCompleted call.
type RoundEvent struct {
	Round   int
	Pending int
}

// RecordingObserver implements protocol.RoundObserver and records every
// event for later assertions.
type RecordingObserver struct {
	Rounds      []RoundEvent
	Finished    bool
	Success     bool
	TotalRounds int
}

// RoundCompleted implements protocol.RoundObserver.
func (o *RecordingObserver) RoundCompleted(round, pending int) {
	o.Rounds = append(o.Rounds, RoundEvent{Round: round, Pending: pending})
}

// ReservationFinished implements protocol.RoundObserver.
func (o *RecordingObserver) ReservationFinished(success bool, rounds int) {
	o.Finished = true
	o.Success = success
	o.TotalRounds = rounds
}
