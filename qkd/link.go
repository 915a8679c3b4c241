package qkd

import (
	"fmt"

	"github.com/ailabteam/go-qadr/crypto"
)

// Link produces one shared secret per unordered participant pair. Establish
// is called exactly once per pair during network setup.
type Link interface {
	Establish(a, b int) (crypto.Secret, error)
}

// SimulatedLink abstracts the physical QKD process to its outcome: a
// uniformly random secret per pair, drawn from a secure randomness source.
type SimulatedLink struct {
	Rand crypto.Source
}

// Establish implements Link.
func (l SimulatedLink) Establish(a, b int) (crypto.Secret, error) {
	secret := make([]byte, crypto.SecretLength)
	if err := l.Rand.Read(secret); err != nil {
		return nil, err
	}
	return crypto.Secret(secret), nil
}

// ExchangeLink derives pairwise secrets with X25519 key agreement between
// per-participant keypairs, followed by HKDF extraction. It is the
// substitute for a quantum link when no QKD hardware is present: both
// participants of a pair derive the same secret from their own private key
// and the peer's public key.
type ExchangeLink struct {
	Rand crypto.Source

	keys map[int]exchangeKeyPair
}

type exchangeKeyPair struct {
	pub  crypto.ExchangePublicKey
	priv crypto.ExchangePrivateKey
}

// NewExchangeLink creates an ExchangeLink drawing key material from rand.
func NewExchangeLink(rand crypto.Source) *ExchangeLink {
	return &ExchangeLink{
		Rand: rand,
		keys: make(map[int]exchangeKeyPair),
	}
}

// Establish implements Link. Keypairs are generated lazily per participant;
// the HKDF info bytes bind the normalized pair so the derived secret is
// unique to {a, b}.
func (l *ExchangeLink) Establish(a, b int) (crypto.Secret, error) {
	keyA, err := l.keyPairFor(a)
	if err != nil {
		return nil, err
	}
	keyB, err := l.keyPairFor(b)
	if err != nil {
		return nil, err
	}

	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	info := fmt.Appendf(nil, "qadr-pair:%d:%d", lo, hi)

	return crypto.DerivePairSecret(keyA.priv, keyB.pub, info)
}

func (l *ExchangeLink) keyPairFor(id int) (exchangeKeyPair, error) {
	if kp, ok := l.keys[id]; ok {
		return kp, nil
	}
	pub, priv, err := crypto.GenerateExchangeKeyPair(l.Rand)
	if err != nil {
		return exchangeKeyPair{}, err
	}
	kp := exchangeKeyPair{pub: pub, priv: priv}
	l.keys[id] = kp
	return kp, nil
}
