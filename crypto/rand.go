package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Source provides the randomness the protocol consumes: secret and
// pseudonym bytes, and uniform slot choices. All randomized protocol
// decisions route through a Source so tests can substitute deterministic
// randomness without weakening the production path.
type Source interface {
	// Read fills p with random bytes.
	Read(p []byte) error

	// Intn returns a uniform random integer in [0, n). n must be positive.
	Intn(n int) (int, error)
}

// secureSource implements Source with crypto/rand.
type secureSource struct{}

// NewSecureSource returns the production randomness source backed by the
// operating system's CSPRNG.
func NewSecureSource() Source {
	return secureSource{}
}

func (secureSource) Read(p []byte) error {
	_, err := rand.Read(p)
	return err
}

func (secureSource) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("crypto: Intn bound must be positive, got %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
