package services

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ailabteam/go-qadr/protocol"
	"github.com/ailabteam/go-qadr/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunnerExecuteRecordsSuccess(t *testing.T) {
	store := NewInMemoryStore()
	runner := NewRunner(testLogger(), store)

	cfg := testutil.NewTestConfig(testutil.WithParticipants(4), testutil.WithSlotRatio(3))
	record, result, err := runner.Execute(cfg, protocol.Dependencies{
		Rand: testutil.NewDeterministicSource(1),
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	require.True(t, record.Success)
	require.Empty(t, record.Error)
	require.Equal(t, 4, record.Participants)
	require.Equal(t, 12, record.SlotCount)
	require.Equal(t, result.ReservationRounds, record.ReservationRounds)
	require.Equal(t, string(protocol.ResubmitAll), record.Resubmit)

	stored, err := store.LoadRun(record.ID)
	require.NoError(t, err)
	require.Equal(t, record, stored)
}

func TestRunnerExecuteRecordsFailure(t *testing.T) {
	store := NewInMemoryStore()
	runner := NewRunner(testLogger(), store)

	// One slot for five contenders fails in the first round.
	cfg := testutil.NewTestConfig(testutil.WithParticipants(5), testutil.WithSlotRatio(0.2))
	record, result, err := runner.Execute(cfg, protocol.Dependencies{
		Rand: testutil.NewDeterministicSource(2),
	})
	require.ErrorIs(t, err, protocol.ErrInsufficientSlots)
	require.Nil(t, result)

	require.False(t, record.Success)
	require.NotEmpty(t, record.Error)

	stored, err := store.LoadRun(record.ID)
	require.NoError(t, err)
	require.False(t, stored.Success)
}

func TestRunnerExecuteWithoutStore(t *testing.T) {
	runner := NewRunner(testLogger(), nil)

	cfg := testutil.NewTestConfig(testutil.WithParticipants(2))
	record, result, err := runner.Execute(cfg, protocol.Dependencies{
		Rand: testutil.NewDeterministicSource(3),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.True(t, record.Success)
}

func TestRunnerExecuteInvalidConfig(t *testing.T) {
	runner := NewRunner(testLogger(), nil)

	_, _, err := runner.Execute(protocol.Config{}, protocol.Dependencies{})
	require.ErrorIs(t, err, protocol.ErrInvalidConfig)
}
