package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

// ExchangePublicKey represents a public key for pairwise key agreement.
type ExchangePublicKey [32]byte

// ExchangePrivateKey represents a private key for pairwise key agreement.
type ExchangePrivateKey [32]byte

// GenerateExchangeKeyPair generates a new X25519 key pair for establishing
// pairwise secrets. Randomness is drawn from the provided Source.
func GenerateExchangeKeyPair(rand Source) (ExchangePublicKey, ExchangePrivateKey, error) {
	var privKey ExchangePrivateKey
	var pubKey ExchangePublicKey

	if err := rand.Read(privKey[:]); err != nil {
		return pubKey, privKey, err
	}

	curve25519.ScalarBaseMult((*[32]byte)(&pubKey), (*[32]byte)(&privKey))
	return pubKey, privKey, nil
}

// DerivePairSecret performs X25519 key agreement and derives a fixed-length
// pairwise Secret via HKDF-SHA256. Both sides of the exchange obtain the
// same secret when they pass the same info bytes, so info should bind the
// normalized (min, max) participant pair.
func DerivePairSecret(privateKey ExchangePrivateKey, publicKey ExchangePublicKey, info []byte) (Secret, error) {
	sharedPoint, err := curve25519.X25519(privateKey[:], publicKey[:])
	if err != nil {
		return nil, err
	}

	kdf := hkdf.New(sha256.New, sharedPoint, nil, info)
	secret := make([]byte, SecretLength)
	if _, err := kdf.Read(secret); err != nil {
		return nil, err
	}

	return Secret(secret), nil
}
