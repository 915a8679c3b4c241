package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandDeterministic(t *testing.T) {
	secret := make([]byte, SecretLength)
	for i := range secret {
		secret[i] = byte(i)
	}

	first, err := Expand(Secret(secret), 1024)
	require.NoError(t, err)
	require.Len(t, first, 1024)

	second, err := Expand(Secret(secret), 1024)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestExpandDiffersPerSecret(t *testing.T) {
	secret := make([]byte, SecretLength)
	flipped := make([]byte, SecretLength)
	copy(flipped, secret)
	flipped[0] ^= 0x01

	a, err := Expand(Secret(secret), 256)
	require.NoError(t, err)
	b, err := Expand(Secret(flipped), 256)
	require.NoError(t, err)

	require.NotEqual(t, a, b, "flipping one secret bit must change the pad")
}

func TestExpandRejectsBadLength(t *testing.T) {
	_, err := Expand(Secret(make([]byte, SecretLength-1)), 16)
	require.ErrorIs(t, err, ErrInvalidSecretLength)

	_, err = Expand(Secret(make([]byte, SecretLength+1)), 16)
	require.ErrorIs(t, err, ErrInvalidSecretLength)

	_, err = Expand(nil, 16)
	require.ErrorIs(t, err, ErrInvalidSecretLength)
}

func TestExpandZeroLength(t *testing.T) {
	out, err := Expand(Secret(make([]byte, SecretLength)), 0)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestXorInplaceSelfInverse(t *testing.T) {
	src := NewSecureSource()

	buf := make([]byte, 64)
	pad := make([]byte, 64)
	require.NoError(t, src.Read(buf))
	require.NoError(t, src.Read(pad))

	orig := bytes.Clone(buf)
	XorInplace(buf, pad)
	require.NotEqual(t, orig, buf)
	XorInplace(buf, pad)
	require.Equal(t, orig, buf)
}
