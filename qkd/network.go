package qkd

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ailabteam/go-qadr/crypto"
)

var (
	// ErrInvalidParticipantSet is returned when the participant set is
	// empty or contains duplicate ids.
	ErrInvalidParticipantSet = errors.New("qkd: participant ids must be non-empty and distinct")

	// ErrSelfPairing is returned when a secret is requested for a
	// participant paired with itself.
	ErrSelfPairing = errors.New("qkd: participant cannot share a secret with itself")

	// ErrUnknownPair is returned when either requested id was not part of
	// the network's participant set.
	ErrUnknownPair = errors.New("qkd: no shared secret for participant pair")
)

// pairKey indexes a secret by its normalized (min, max) participant pair.
type pairKey struct {
	lo, hi int
}

func newPairKey(a, b int) pairKey {
	if a < b {
		return pairKey{a, b}
	}
	return pairKey{b, a}
}

// Network holds the pairwise secrets for a fixed set of participants.
// It is populated once at construction and read-only afterwards, so
// concurrent Secret lookups are safe without locking.
type Network struct {
	ids     []int
	secrets map[pairKey]crypto.Secret
}

// NewNetwork establishes one fresh secret for every unordered pair in ids,
// n·(n−1)/2 secrets in total, using the provided link. A duplicate id is an
// error, not a silent dedup.
func NewNetwork(ids []int, link Link) (*Network, error) {
	if len(ids) == 0 {
		return nil, ErrInvalidParticipantSet
	}
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidParticipantSet, id)
		}
		seen[id] = true
	}

	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	n := &Network{
		ids:     sorted,
		secrets: make(map[pairKey]crypto.Secret, len(sorted)*(len(sorted)-1)/2),
	}

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			secret, err := link.Establish(sorted[i], sorted[j])
			if err != nil {
				return nil, fmt.Errorf("establishing secret for pair (%d,%d): %w", sorted[i], sorted[j], err)
			}
			if len(secret) != crypto.SecretLength {
				return nil, fmt.Errorf("pair (%d,%d): %w", sorted[i], sorted[j], crypto.ErrInvalidSecretLength)
			}
			n.secrets[newPairKey(sorted[i], sorted[j])] = secret
		}
	}

	return n, nil
}

// Secret returns the shared secret for the unordered pair {a, b} in O(1).
// The returned value is read-only; callers must not mutate it.
func (n *Network) Secret(a, b int) (crypto.Secret, error) {
	if a == b {
		return nil, ErrSelfPairing
	}
	secret, ok := n.secrets[newPairKey(a, b)]
	if !ok {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrUnknownPair, a, b)
	}
	return secret, nil
}

// IDs returns the network's participant ids in ascending order.
func (n *Network) IDs() []int {
	return slices.Clone(n.ids)
}

// PairCount returns the number of established pairwise secrets.
func (n *Network) PairCount() int {
	return len(n.secrets)
}
