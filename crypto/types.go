package crypto

import (
	"encoding/hex"
	"slices"
)

// SecretLength is the fixed width in bytes of a pairwise shared secret.
// Simulated QKD links and X25519 derivation both produce secrets of this
// length, and Expand rejects anything else.
const SecretLength = 32

// Secret represents a shared secret established between an unordered pair
// of participants. Secrets are created once at network setup, never
// transmitted, and must not be mutated by callers.
type Secret []byte

// NewSecretFromBytes creates a Secret from a byte slice.
// This function makes a copy of the input data to ensure immutability.
func NewSecretFromBytes(data []byte) Secret {
	s := make([]byte, len(data))
	copy(s, data)
	return Secret(s)
}

// Bytes returns a copy of the secret's raw bytes.
func (s Secret) Bytes() []byte {
	return slices.Clone(s)
}

// Equal compares two secrets for byte equality.
func (s Secret) Equal(other Secret) bool {
	return slices.Equal(s, other)
}

// Pseudonym is an ephemeral per-round random token used only to detect
// reservation success or collision. It is discarded after the round.
type Pseudonym []byte

// NewPseudonymFromBytes creates a Pseudonym from a byte slice.
// This function makes a copy of the input data to ensure immutability.
func NewPseudonymFromBytes(data []byte) Pseudonym {
	p := make([]byte, len(data))
	copy(p, data)
	return Pseudonym(p)
}

// Bytes returns a copy of the pseudonym's raw bytes.
func (p Pseudonym) Bytes() []byte {
	return slices.Clone(p)
}

// Equal compares two pseudonyms for byte equality.
func (p Pseudonym) Equal(other Pseudonym) bool {
	return slices.Equal(p, other)
}

// String returns a hex-encoded representation of the pseudonym.
// This is useful for logging and debugging.
func (p Pseudonym) String() string {
	return hex.EncodeToString(p)
}
