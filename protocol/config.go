package protocol

import (
	"fmt"
	"math"
)

// ResubmitPolicy selects which participants submit vectors in each
// reservation round.
type ResubmitPolicy string

const (
	// ResubmitAll is the canonical policy: every participant submits
	// every round until the whole batch finalizes, so successful
	// participants still look active and round-to-round traffic analysis
	// learns nothing.
	ResubmitAll ResubmitPolicy = "all"

	// ResubmitPending is a cheaper policy where only participants still
	// contending for a slot submit. Masking is computed against the
	// round's submitting set so pads still cancel, but the collector can
	// observe who has already finished.
	ResubmitPending ResubmitPolicy = "pending"
)

// Valid reports whether the policy is a known value.
func (p ResubmitPolicy) Valid() bool {
	return p == ResubmitAll || p == ResubmitPending
}

// Default protocol parameters.
const (
	// DefaultParticipants is the default participant count n.
	DefaultParticipants = 10

	// DefaultSlotRatio is the default slot-to-participant ratio γ.
	DefaultSlotRatio = 2.0

	// DefaultPseudonymLength is the pseudonym width P in bytes. With
	// P = 8, a collision masquerading as a success has probability 2⁻⁶⁴.
	DefaultPseudonymLength = 8

	// DefaultMessageLength is the per-participant message width in bytes.
	DefaultMessageLength = 32
)

// Config provides the parameters of a protocol run.
type Config struct {
	// Participants is the number of participants n.
	Participants int `json:"participants" toml:"participants"`

	// SlotRatio is the slot-to-participant ratio γ; the reservation
	// vector has ceil(n·γ) slots. Values below 1 cannot finish and even
	// values near 1 may exhaust the round budget; γ ≥ 2 is realistic.
	SlotRatio float64 `json:"slot_ratio" toml:"slot_ratio"`

	// PseudonymLength is the pseudonym width in bytes.
	PseudonymLength int `json:"pseudonym_length" toml:"pseudonym_length"`

	// MessageLength is the fixed per-participant message width in bytes.
	MessageLength int `json:"message_length" toml:"message_length"`

	// MaxRounds bounds the reservation phase. Zero selects the default
	// budget of 2n rounds.
	MaxRounds int `json:"max_rounds" toml:"max_rounds"`

	// Resubmit selects the resubmission policy. Empty selects
	// ResubmitAll.
	Resubmit ResubmitPolicy `json:"resubmit_policy" toml:"resubmit_policy"`
}

// DefaultConfig returns the default run parameters.
func DefaultConfig() Config {
	return Config{
		Participants:    DefaultParticipants,
		SlotRatio:       DefaultSlotRatio,
		PseudonymLength: DefaultPseudonymLength,
		MessageLength:   DefaultMessageLength,
		Resubmit:        ResubmitAll,
	}
}

// Normalize fills unset optional fields with their defaults.
func (c *Config) Normalize() {
	if c.PseudonymLength == 0 {
		c.PseudonymLength = DefaultPseudonymLength
	}
	if c.MessageLength == 0 {
		c.MessageLength = DefaultMessageLength
	}
	if c.Resubmit == "" {
		c.Resubmit = ResubmitAll
	}
}

// Validate checks the configuration. All failures wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if c.Participants < 1 {
		return fmt.Errorf("%w: participants must be at least 1, got %d", ErrInvalidConfig, c.Participants)
	}
	if !(c.SlotRatio > 0) {
		return fmt.Errorf("%w: slot ratio must be positive, got %v", ErrInvalidConfig, c.SlotRatio)
	}
	if c.PseudonymLength < 1 {
		return fmt.Errorf("%w: pseudonym length must be at least 1, got %d", ErrInvalidConfig, c.PseudonymLength)
	}
	if c.MessageLength < 1 {
		return fmt.Errorf("%w: message length must be at least 1, got %d", ErrInvalidConfig, c.MessageLength)
	}
	if c.MaxRounds < 0 {
		return fmt.Errorf("%w: max rounds must not be negative, got %d", ErrInvalidConfig, c.MaxRounds)
	}
	if !c.Resubmit.Valid() {
		return fmt.Errorf("%w: unknown resubmit policy %q", ErrInvalidConfig, c.Resubmit)
	}
	return nil
}

// SlotCount returns the reservation slot count m = ceil(n·γ).
func (c Config) SlotCount() int {
	return int(math.Ceil(float64(c.Participants) * c.SlotRatio))
}

// RoundBudget returns the reservation round budget: MaxRounds if set,
// otherwise 2n.
func (c Config) RoundBudget() int {
	if c.MaxRounds > 0 {
		return c.MaxRounds
	}
	return 2 * c.Participants
}
