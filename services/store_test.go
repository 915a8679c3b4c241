package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreRoundTrip(t *testing.T) {
	store := NewInMemoryStore()

	record := &RunRecord{
		ID:                "abc123",
		StartedAt:         time.Now().UTC(),
		Participants:      4,
		SlotRatio:         2,
		SlotCount:         8,
		ReservationRounds: 3,
		Resubmit:          "all",
		Success:           true,
	}
	require.NoError(t, store.SaveRun(record))

	loaded, err := store.LoadRun("abc123")
	require.NoError(t, err)
	require.Equal(t, record, loaded)

	// The store holds a copy, not the caller's pointer.
	record.Success = false
	loaded, err = store.LoadRun("abc123")
	require.NoError(t, err)
	require.True(t, loaded.Success)
}

func TestInMemoryStoreNotFound(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.LoadRun("missing")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestInMemoryStoreListOrderAndLimit(t *testing.T) {
	store := NewInMemoryStore()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveRun(&RunRecord{
			ID:        string(rune('a' + i)),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := store.LoadRuns(0)
	require.NoError(t, err)
	require.Len(t, records, 5)
	require.Equal(t, "e", records[0].ID, "newest first")
	require.Equal(t, "a", records[4].ID)

	records, err = store.LoadRuns(2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "e", records[0].ID)
	require.Equal(t, "d", records[1].ID)
}

func TestPostgresConnectionString(t *testing.T) {
	cfg := &PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "qadr",
		Password: "secret",
		Database: "qadr_runs",
	}
	require.Equal(t,
		"host=localhost port=5432 user=qadr password=secret dbname=qadr_runs sslmode=disable",
		cfg.ConnectionString())

	cfg.SSLMode = "require"
	require.Contains(t, cfg.ConnectionString(), "sslmode=require")
}
