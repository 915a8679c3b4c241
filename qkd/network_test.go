package qkd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ailabteam/go-qadr/crypto"
)

func testNetwork(t *testing.T, ids []int) *Network {
	t.Helper()
	n, err := NewNetwork(ids, SimulatedLink{Rand: crypto.NewSecureSource()})
	require.NoError(t, err)
	return n
}

func TestNetworkPairCount(t *testing.T) {
	n := testNetwork(t, []int{0, 1, 2, 3, 4})
	require.Equal(t, 10, n.PairCount())
	require.Equal(t, []int{0, 1, 2, 3, 4}, n.IDs())
}

func TestNetworkPairingSymmetry(t *testing.T) {
	ids := []int{0, 1, 2, 3}
	n := testNetwork(t, ids)

	for _, a := range ids {
		for _, b := range ids {
			if a == b {
				continue
			}
			ab, err := n.Secret(a, b)
			require.NoError(t, err)
			ba, err := n.Secret(b, a)
			require.NoError(t, err)
			require.True(t, ab.Equal(ba), "Secret(%d,%d) != Secret(%d,%d)", a, b, b, a)
			require.Len(t, []byte(ab), crypto.SecretLength)
		}
	}
}

func TestNetworkSecretsAreDistinct(t *testing.T) {
	n := testNetwork(t, []int{0, 1, 2})

	s01, err := n.Secret(0, 1)
	require.NoError(t, err)
	s02, err := n.Secret(0, 2)
	require.NoError(t, err)
	s12, err := n.Secret(1, 2)
	require.NoError(t, err)

	require.False(t, s01.Equal(s02))
	require.False(t, s01.Equal(s12))
	require.False(t, s02.Equal(s12))
}

func TestNetworkSelfPairing(t *testing.T) {
	n := testNetwork(t, []int{0, 1})
	_, err := n.Secret(1, 1)
	require.ErrorIs(t, err, ErrSelfPairing)
}

func TestNetworkUnknownPair(t *testing.T) {
	n := testNetwork(t, []int{0, 1})
	_, err := n.Secret(0, 7)
	require.ErrorIs(t, err, ErrUnknownPair)
}

func TestNetworkRejectsDuplicateIDs(t *testing.T) {
	_, err := NewNetwork([]int{0, 1, 1}, SimulatedLink{Rand: crypto.NewSecureSource()})
	require.ErrorIs(t, err, ErrInvalidParticipantSet)
}

func TestNetworkRejectsEmptySet(t *testing.T) {
	_, err := NewNetwork(nil, SimulatedLink{Rand: crypto.NewSecureSource()})
	require.ErrorIs(t, err, ErrInvalidParticipantSet)
}

func TestNetworkSingleParticipant(t *testing.T) {
	n := testNetwork(t, []int{0})
	require.Equal(t, 0, n.PairCount())
}

func TestExchangeLinkSecretLength(t *testing.T) {
	n, err := NewNetwork([]int{0, 1, 2}, NewExchangeLink(crypto.NewSecureSource()))
	require.NoError(t, err)
	require.Equal(t, 3, n.PairCount())

	s, err := n.Secret(0, 2)
	require.NoError(t, err)
	require.Len(t, []byte(s), crypto.SecretLength)
}
