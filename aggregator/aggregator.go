// Package aggregator implements the service provider of the QADR protocol:
// the central collector that combines masked participant vectors.
//
// The service provider is honest-but-curious. It follows the protocol but
// may try to infer information from what it observes; its role here is
// purely computational. Because every pairwise pad appears in exactly two
// contributions of a batch, the XOR fold cancels all pads and reveals only
// the sum of the participants' plaintext vectors, never their origin.
package aggregator

import (
	"errors"

	"github.com/ailabteam/go-qadr/crypto"
)

var (
	// ErrEmptyBatch is returned when there are no vectors to aggregate.
	ErrEmptyBatch = errors.New("aggregator: vector batch is empty")

	// ErrLengthMismatch is returned when the batch's vectors do not all
	// share the same length.
	ErrLengthMismatch = errors.New("aggregator: vectors differ in length")
)

// Aggregate XOR-folds a non-empty batch of equal-length vectors into the
// public vector. XOR is commutative and associative, so the result does not
// depend on the order of the batch. The inputs are not modified.
func Aggregate(vectors [][]byte) ([]byte, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyBatch
	}

	out := make([]byte, len(vectors[0]))
	for _, v := range vectors {
		if len(v) != len(out) {
			return nil, ErrLengthMismatch
		}
		crypto.XorInplace(out, v)
	}
	return out, nil
}

// ServiceProvider is the stateless collector role. It exists as a type so
// callers can pass the collector around as a dependency; all work happens
// in Aggregate.
type ServiceProvider struct{}

// New creates a ServiceProvider.
func New() *ServiceProvider {
	return &ServiceProvider{}
}

// Aggregate combines a round's masked vectors into the public vector.
func (sp *ServiceProvider) Aggregate(vectors [][]byte) ([]byte, error) {
	return Aggregate(vectors)
}
