// Package store defines the ResultStore interface for persisting lab users
// and experiment results, with an in-memory and a SQLite implementation.
package store

import (
	"context"

	"github.com/nvandessel/tanklab/internal/models"
)

// ResultStore persists users and their simulation results.
//
// Implementations are safe for concurrent use. Every returned value is a
// copy; mutating it never changes stored state.
type ResultStore interface {
	// User operations
	SaveUser(ctx context.Context, user models.User) error // upsert by email
	GetUser(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error) // ordered by email

	// SaveResult appends a result to the user's history and returns its row id.
	// The user must already exist.
	SaveResult(ctx context.Context, email string, result models.SimulationResult) (int64, error)

	// GetLatestResult returns the most recently saved result for email,
	// or nil if the user has none.
	GetLatestResult(ctx context.Context, email string) (*models.SimulationResult, error)

	// ListResults returns the user's history, oldest first.
	ListResults(ctx context.Context, email string) ([]models.SimulationResult, error)

	// ListAllResultsRanked returns every stored result across all users,
	// ascending by mean absolute error, then by duration.
	ListAllResultsRanked(ctx context.Context) ([]models.RankedResult, error)

	Close() error
}

// Resetter is implemented by stores that can drop all users and results.
type Resetter interface {
	Reset(ctx context.Context) error
}
