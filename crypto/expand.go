package crypto

import (
	"errors"

	"golang.org/x/crypto/sha3"
)

// ErrInvalidSecretLength is returned when a secret does not have the fixed
// width SecretLength.
var ErrInvalidSecretLength = errors.New("crypto: secret must be exactly SecretLength bytes")

// Expander deterministically stretches a pairwise secret into a
// pseudorandom pad of the requested length.
type Expander interface {
	Expand(secret Secret, outLen int) ([]byte, error)
}

// Expand stretches a fixed-length secret into outLen pseudorandom bytes
// using SHAKE256. The output depends on the secret alone, so two
// participants expanding their shared secret to the same length obtain
// bit-identical pads. The cancellation invariant rests on this.
func Expand(secret Secret, outLen int) ([]byte, error) {
	if len(secret) != SecretLength {
		return nil, ErrInvalidSecretLength
	}

	shake := sha3.NewShake256()
	shake.Write(secret)

	out := make([]byte, outLen)
	shake.Read(out)
	return out, nil
}

// ShakeExpander implements Expander with SHAKE256. It is stateless; the
// zero value is ready to use.
type ShakeExpander struct{}

// Expand implements Expander.
func (ShakeExpander) Expand(secret Secret, outLen int) ([]byte, error) {
	return Expand(secret, outLen)
}
