package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ailabteam/go-qadr/crypto"
	"github.com/ailabteam/go-qadr/protocol"
	"github.com/ailabteam/go-qadr/testutil"
)

func TestNewCoordinatorRejectsInvalidConfig(t *testing.T) {
	cases := []protocol.Config{
		testutil.NewTestConfig(testutil.WithParticipants(0)),
		testutil.NewTestConfig(testutil.WithSlotRatio(0)),
		testutil.NewTestConfig(testutil.WithSlotRatio(-1)),
		testutil.NewTestConfig(testutil.WithPseudonymLength(-1)),
		testutil.NewTestConfig(testutil.WithResubmitPolicy("half")),
	}
	for _, cfg := range cases {
		_, err := protocol.NewCoordinator(cfg, protocol.Dependencies{})
		require.ErrorIs(t, err, protocol.ErrInvalidConfig, "config %+v", cfg)
	}
}

func TestCoordinatorSlotCount(t *testing.T) {
	cfg := testutil.NewTestConfig(testutil.WithParticipants(4), testutil.WithSlotRatio(3))
	c, err := protocol.NewCoordinator(cfg, protocol.Dependencies{
		Rand: testutil.NewDeterministicSource(1),
	})
	require.NoError(t, err)
	require.Equal(t, 12, c.SlotCount())

	// Fractional ratios round up.
	cfg = testutil.NewTestConfig(testutil.WithParticipants(3), testutil.WithSlotRatio(1.5))
	c, err = protocol.NewCoordinator(cfg, protocol.Dependencies{
		Rand: testutil.NewDeterministicSource(2),
	})
	require.NoError(t, err)
	require.Equal(t, 5, c.SlotCount())
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testutil.NewTestConfig(testutil.WithParticipants(4), testutil.WithSlotRatio(3))
	observer := &testutil.RecordingObserver{}

	c, err := protocol.NewCoordinator(cfg, protocol.Dependencies{
		Rand:     testutil.NewDeterministicSource(42),
		Observer: observer,
	})
	require.NoError(t, err)

	result, err := c.Run()
	require.NoError(t, err)

	require.GreaterOrEqual(t, result.ReservationRounds, 1)
	require.LessOrEqual(t, result.ReservationRounds, cfg.RoundBudget())
	require.Equal(t, 12, result.SlotCount)
	require.Len(t, result.DataVector, 4*cfg.MessageLength)

	// The data vector is the concatenation, in id order, of every
	// participant's original message, byte for byte.
	segments := result.Messages(cfg.MessageLength)
	require.Len(t, segments, 4)
	for i, p := range c.Participants() {
		require.Equal(t, p.Message(), segments[i], "segment %d must carry participant %d's message", i, p.ID())
	}

	require.True(t, observer.Finished)
	require.True(t, observer.Success)
	require.Equal(t, result.ReservationRounds, observer.TotalRounds)
	require.NotEmpty(t, observer.Rounds)
	require.Zero(t, observer.Rounds[len(observer.Rounds)-1].Pending)
}

func TestRunSingleParticipant(t *testing.T) {
	cfg := testutil.NewTestConfig(testutil.WithParticipants(1), testutil.WithSlotRatio(1))

	c, err := protocol.NewCoordinator(cfg, protocol.Dependencies{
		Rand: testutil.NewDeterministicSource(7),
	})
	require.NoError(t, err)

	result, err := c.Run()
	require.NoError(t, err)
	require.Equal(t, 1, result.ReservationRounds, "a lone participant cannot collide")
	require.Equal(t, c.Participants()[0].Message(), result.DataVector)
}

func TestRunPendingOnlyPolicy(t *testing.T) {
	cfg := testutil.NewTestConfig(
		testutil.WithParticipants(5),
		testutil.WithSlotRatio(3),
		testutil.WithResubmitPolicy(protocol.ResubmitPending),
	)

	c, err := protocol.NewCoordinator(cfg, protocol.Dependencies{
		Rand: testutil.NewDeterministicSource(99),
	})
	require.NoError(t, err)

	result, err := c.Run()
	require.NoError(t, err)

	segments := result.Messages(cfg.MessageLength)
	require.Len(t, segments, 5)
	for i, p := range c.Participants() {
		require.Equal(t, p.Message(), segments[i])
	}
}

// Termination property: with a generous slot ratio the reservation phase
// finishes within the 2n round budget across many seeds.
func TestReservationTerminates(t *testing.T) {
	for seed := uint64(0); seed < 25; seed++ {
		cfg := testutil.NewTestConfig(testutil.WithParticipants(6), testutil.WithSlotRatio(3))

		c, err := protocol.NewCoordinator(cfg, protocol.Dependencies{
			Rand: testutil.NewDeterministicSource(seed),
		})
		require.NoError(t, err)

		result, err := c.Run()
		require.NoError(t, err, "seed %d", seed)
		require.LessOrEqual(t, result.ReservationRounds, 12, "seed %d", seed)
		require.Len(t, result.DataVector, 6*cfg.MessageLength)
	}
}

func TestRunInsufficientSlots(t *testing.T) {
	// 5 participants contending for a single slot can never all finish.
	cfg := testutil.NewTestConfig(testutil.WithParticipants(5), testutil.WithSlotRatio(0.2))

	c, err := protocol.NewCoordinator(cfg, protocol.Dependencies{
		Rand: testutil.NewDeterministicSource(3),
	})
	require.NoError(t, err)

	_, err = c.Run()
	require.ErrorIs(t, err, protocol.ErrInsufficientSlots)
}

// stuckSource always picks the first available slot, forcing every
// contender into the same slot and the reservation into its round budget.
type stuckSource struct {
	crypto.Source
}

func (s stuckSource) Intn(n int) (int, error) {
	return 0, nil
}

func TestRunReservationTimeout(t *testing.T) {
	cfg := testutil.NewTestConfig(testutil.WithParticipants(3), testutil.WithSlotRatio(2))
	observer := &testutil.RecordingObserver{}

	c, err := protocol.NewCoordinator(cfg, protocol.Dependencies{
		Rand:     stuckSource{testutil.NewDeterministicSource(4)},
		Observer: observer,
	})
	require.NoError(t, err)

	_, err = c.Run()
	require.ErrorIs(t, err, protocol.ErrReservationTimeout)
	require.True(t, observer.Finished)
	require.False(t, observer.Success)
	require.Equal(t, cfg.RoundBudget(), observer.TotalRounds)
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "pending", protocol.StatusPending.String())
	require.Equal(t, "successful", protocol.StatusSuccessful.String())
	require.Equal(t, "collided", protocol.StatusCollided.String())
}
