package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

// ErrRunNotFound is returned when a run id has no stored record.
var ErrRunNotFound = errors.New("run not found")

// RunStore persists run records.
type RunStore interface {
	SaveRun(record *RunRecord) error
	LoadRun(id string) (*RunRecord, error)
	// LoadRuns returns up to limit records, newest first. limit <= 0 means
	// no limit.
	LoadRuns(limit int) ([]*RunRecord, error)
	Close() error
}

// PostgresStore implements RunStore with PostgreSQL persistence.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"ssl_mode"`
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS protocol_runs (
		id VARCHAR(32) PRIMARY KEY,
		started_at TIMESTAMP WITH TIME ZONE NOT NULL,
		duration_ms BIGINT NOT NULL,
		participants INT NOT NULL,
		slot_ratio DOUBLE PRECISION NOT NULL,
		slot_count INT NOT NULL,
		reservation_rounds INT NOT NULL,
		resubmit VARCHAR(16) NOT NULL,
		success BOOLEAN NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON protocol_runs(started_at);
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveRun persists a run record, overwriting any record with the same id.
func (s *PostgresStore) SaveRun(record *RunRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
	INSERT INTO protocol_runs
		(id, started_at, duration_ms, participants, slot_ratio, slot_count, reservation_rounds, resubmit, success, error)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		started_at = EXCLUDED.started_at,
		duration_ms = EXCLUDED.duration_ms,
		participants = EXCLUDED.participants,
		slot_ratio = EXCLUDED.slot_ratio,
		slot_count = EXCLUDED.slot_count,
		reservation_rounds = EXCLUDED.reservation_rounds,
		resubmit = EXCLUDED.resubmit,
		success = EXCLUDED.success,
		error = EXCLUDED.error
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.StartedAt,
		record.DurationMillis,
		record.Participants,
		record.SlotRatio,
		record.SlotCount,
		record.ReservationRounds,
		record.Resubmit,
		record.Success,
		record.Error,
	)
	return err
}

// LoadRun retrieves one run record by id.
func (s *PostgresStore) LoadRun(id string) (*RunRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, duration_ms, participants, slot_ratio, slot_count, reservation_rounds, resubmit, success, error
		FROM protocol_runs WHERE id = $1
	`, id)

	record, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return record, err
}

// LoadRuns retrieves stored run records, newest first.
func (s *PostgresStore) LoadRuns(limit int) ([]*RunRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	query := `
		SELECT id, started_at, duration_ms, participants, slot_ratio, slot_count, reservation_rounds, resubmit, success, error
		FROM protocol_runs ORDER BY started_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var record RunRecord
	err := row.Scan(
		&record.ID,
		&record.StartedAt,
		&record.DurationMillis,
		&record.Participants,
		&record.SlotRatio,
		&record.SlotCount,
		&record.ReservationRounds,
		&record.Resubmit,
		&record.Success,
		&record.Error,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// InMemoryStore implements RunStore for testing and database-free runs.
type InMemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*RunRecord
}

// NewInMemoryStore creates an in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{runs: make(map[string]*RunRecord)}
}

// SaveRun stores a run record in memory.
func (s *InMemoryStore) SaveRun(record *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	s.runs[record.ID] = &clone
	return nil
}

// LoadRun retrieves one run record by id.
func (s *InMemoryStore) LoadRun(id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	clone := *record
	return &clone, nil
}

// LoadRuns returns stored run records, newest first.
func (s *InMemoryStore) LoadRuns(limit int) ([]*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*RunRecord, 0, len(s.runs))
	for _, record := range s.runs {
		clone := *record
		records = append(records, &clone)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
