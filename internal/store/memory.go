package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nvandessel/tanklab/internal/models"
	"github.com/nvandessel/tanklab/internal/ranking"
)

// memoryRow is one appended result.
type memoryRow struct {
	id     int64
	email  string
	result models.SimulationResult
}

// InMemoryStore implements ResultStore for tests and throwaway sessions.
// Everything is lost when the process exits.
type InMemoryStore struct {
	mu      sync.RWMutex
	users   map[string]models.User
	results []memoryRow
	nextID  int64
	nowFunc func() time.Time
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:   make(map[string]models.User),
		results: make([]memoryRow, 0),
		nextID:  1,
		nowFunc: time.Now,
	}
}

// SaveUser inserts the user or overwrites name and role of an existing email.
func (s *InMemoryStore) SaveUser(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.Email] = user
	return nil
}

// GetUser retrieves a user by email. Returns nil if not found.
func (s *InMemoryStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[email]
	if !exists {
		return nil, nil
	}
	return &user, nil
}

// ListUsers returns all users ordered by email.
func (s *InMemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

// SaveResult appends a copy of result to the user's history.
func (s *InMemoryStore) SaveResult(ctx context.Context, email string, result models.SimulationResult) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[email]; !exists {
		return 0, &StorageError{Op: "save result", Err: ErrUnknownUser}
	}

	stored := result.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.nowFunc().UTC()
	}

	id := s.nextID
	s.nextID++
	s.results = append(s.results, memoryRow{id: id, email: email, result: *stored})
	return id, nil
}

// GetLatestResult returns the last result appended for email, or nil.
func (s *InMemoryStore) GetLatestResult(ctx context.Context, email string) (*models.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.results) - 1; i >= 0; i-- {
		if s.results[i].email == email {
			return s.results[i].result.Clone(), nil
		}
	}
	return nil, nil
}

// ListResults returns the user's results in insertion order.
func (s *InMemoryStore) ListResults(ctx context.Context, email string) ([]models.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.SimulationResult, 0)
	for _, row := range s.results {
		if row.email == email {
			results = append(results, *row.result.Clone())
		}
	}
	return results, nil
}

// ListAllResultsRanked returns every result in leaderboard order.
func (s *InMemoryStore) ListAllResultsRanked(ctx context.Context) ([]models.RankedResult, error) {
	s.mu.RLock()
	rows := make([]memoryRow, len(s.results))
	copy(rows, s.results)
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		return ranking.KeyOf(&rows[i].result, rows[i].id).Less(ranking.KeyOf(&rows[j].result, rows[j].id))
	})

	ranked := make([]models.RankedResult, len(rows))
	for i, row := range rows {
		ranked[i] = models.RankedResult{Email: row.email, Result: *row.result.Clone()}
	}
	return ranking.Number(ranked), nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

// Reset drops all users and results.
func (s *InMemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]models.User)
	s.results = make([]memoryRow, 0)
	s.nextID = 1
	return nil
}
