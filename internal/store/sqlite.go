package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/tanklab/internal/models"
	"github.com/nvandessel/tanklab/internal/ranking"
	_ "modernc.org/sqlite" // SQLite driver
)

// MemoryDSN opens a private in-memory SQLite database.
const MemoryDSN = ":memory:"

// SQLiteStore implements ResultStore using SQLite for persistence.
// Float arrays are stored as raw little-endian blobs (see EncodeFloats).
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// initializes its schema. Pass MemoryDSN for a throwaway database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, storageErr("open", fmt.Errorf("failed to create database directory: %w", err))
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, storageErr("open", fmt.Errorf("failed to open database: %w", err))
	}

	// SQLite works best with a single writer; an in-memory database also
	// only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, storageErr("open", fmt.Errorf("failed to connect to database: %w", err))
	}

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, storageErr("open", fmt.Errorf("failed to initialize schema: %w", err))
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database location the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// SaveUser inserts the user or overwrites name and role of an existing email.
func (s *SQLiteStore) SaveUser(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, name, role) VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET name = excluded.name, role = excluded.role`,
		user.Email, user.Name, string(user.Role))
	if err != nil {
		return storageErr("save user", err)
	}
	return nil
}

// GetUser retrieves a user by email. Returns nil if not found.
func (s *SQLiteStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var user models.User
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT email, name, role FROM users WHERE email = ?`, email).
		Scan(&user.Email, &user.Name, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}
	user.Role = models.Role(role)
	return &user, nil
}

// ListUsers returns all users ordered by email.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT email, name, role FROM users ORDER BY email`)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var user models.User
		var role string
		if err := rows.Scan(&user.Email, &user.Name, &role); err != nil {
			return nil, storageErr("list users", err)
		}
		user.Role = models.Role(role)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list users", err)
	}
	return users, nil
}

// SaveResult appends a result row for email inside a single transaction,
// so readers never observe a partially written history entry.
func (s *SQLiteStore) SaveResult(ctx context.Context, email string, result models.SimulationResult) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("save result", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email = ?`, email).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &StorageError{Op: "save result", Err: fmt.Errorf("%w: %s", ErrUnknownUser, email)}
	}
	if err != nil {
		return 0, storageErr("save result", err)
	}

	createdAt := result.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var runID sql.NullString
	if result.RunID != "" {
		runID = sql.NullString{String: result.RunID, Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO results (
			run_id, email, time, ideal_level, plant_level,
			mean_absolute_error, peak_level, total_duration_seconds, iae, isae,
			inflow_rate, outflow_rate, max_height, noise_level, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, email,
		EncodeFloats(result.Time), EncodeFloats(result.IdealLevel), EncodeFloats(result.PlantLevel),
		result.MeanAbsoluteError, result.PeakLevel, result.TotalDurationSeconds, result.IAE, result.ISAE,
		result.InflowRate, result.OutflowRate, result.MaxHeight, result.NoiseLevel,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, storageErr("save result", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("save result", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, storageErr("save result", fmt.Errorf("failed to commit: %w", err))
	}
	return id, nil
}

// resultColumns is the column list scanned by scanResult.
const resultColumns = `id, email, run_id, time, ideal_level, plant_level,
	mean_absolute_error, peak_level, total_duration_seconds, iae, isae,
	inflow_rate, outflow_rate, max_height, noise_level, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanResult decodes one results row. Blob decoding failures are reported
// as ErrCorruptBlob.
func scanResult(row rowScanner) (int64, string, *models.SimulationResult, error) {
	var (
		id                             int64
		email                          string
		runID                          sql.NullString
		timeBlob, idealBlob, plantBlob []byte
		createdAt                      string
		r                              models.SimulationResult
	)
	if err := row.Scan(&id, &email, &runID, &timeBlob, &idealBlob, &plantBlob,
		&r.MeanAbsoluteError, &r.PeakLevel, &r.TotalDurationSeconds, &r.IAE, &r.ISAE,
		&r.InflowRate, &r.OutflowRate, &r.MaxHeight, &r.NoiseLevel, &createdAt); err != nil {
		return 0, "", nil, err
	}

	var err error
	if r.Time, err = DecodeFloats(timeBlob); err != nil {
		return 0, "", nil, fmt.Errorf("result %d time: %w", id, err)
	}
	if r.IdealLevel, err = DecodeFloats(idealBlob); err != nil {
		return 0, "", nil, fmt.Errorf("result %d ideal_level: %w", id, err)
	}
	if r.PlantLevel, err = DecodeFloats(plantBlob); err != nil {
		return 0, "", nil, fmt.Errorf("result %d plant_level: %w", id, err)
	}
	if len(r.IdealLevel) != len(r.Time) || len(r.PlantLevel) != len(r.Time) {
		return 0, "", nil, fmt.Errorf("%w: result %d has mismatched series lengths (%d, %d, %d)",
			ErrCorruptBlob, id, len(r.Time), len(r.IdealLevel), len(r.PlantLevel))
	}

	r.RunID = runID.String
	if t, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
		r.CreatedAt = t
	}
	return id, email, &r, nil
}

// GetLatestResult returns the result with the highest id for email, or nil.
func (s *SQLiteStore) GetLatestResult(ctx context.Context, email string) (*models.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+resultColumns+` FROM results WHERE email = ? ORDER BY id DESC LIMIT 1`, email)
	_, _, result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get latest result", err)
	}
	return result, nil
}

// ListResults returns the user's results in insertion order.
func (s *SQLiteStore) ListResults(ctx context.Context, email string) ([]models.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM results WHERE email = ? ORDER BY id ASC`, email)
	if err != nil {
		return nil, storageErr("list results", err)
	}
	defer rows.Close()

	results := make([]models.SimulationResult, 0)
	for rows.Next() {
		_, _, result, err := scanResult(rows)
		if err != nil {
			return nil, storageErr("list results", err)
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list results", err)
	}
	return results, nil
}

// ListAllResultsRanked returns every result in leaderboard order. The
// ORDER BY mirrors ranking.Key.Less.
func (s *SQLiteStore) ListAllResultsRanked(ctx context.Context) ([]models.RankedResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+resultColumns+` FROM results
		ORDER BY mean_absolute_error ASC, total_duration_seconds ASC, id ASC`)
	if err != nil {
		return nil, storageErr("list ranked results", err)
	}
	defer rows.Close()

	ranked := make([]models.RankedResult, 0)
	for rows.Next() {
		_, email, result, err := scanResult(rows)
		if err != nil {
			return nil, storageErr("list ranked results", err)
		}
		ranked = append(ranked, models.RankedResult{Email: email, Result: *result})
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list ranked results", err)
	}
	return ranking.Number(ranked), nil
}

// Reset drops and recreates all tables.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return storageErr("reset", ResetSchema(ctx, s.db))
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return storageErr("close", err)
}
