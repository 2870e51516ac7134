// Package session orchestrates user registration, login and experiment runs
// on top of a ResultStore and the simulation engine.
//
// The surfaces (CLI, MCP server) talk to the lab only through Service.
// Which user is signed in is explicit State owned by the caller.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nvandessel/tanklab/internal/logging"
	"github.com/nvandessel/tanklab/internal/models"
	"github.com/nvandessel/tanklab/internal/sanitize"
	"github.com/nvandessel/tanklab/internal/simulation"
	"github.com/nvandessel/tanklab/internal/store"
)

// Runner produces a result for a set of parameters. *simulation.Engine
// satisfies it.
type Runner interface {
	Run(params models.ExperimentParams) models.SimulationResult
}

// Service is the application API of the lab. It is safe for concurrent use
// when its store is.
type Service struct {
	store        store.ResultStore
	engine       Runner
	logger       *slog.Logger
	journal      *logging.RunJournal
	strictBounds bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the operational logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithJournal records every run to j. A nil journal records nothing.
func WithJournal(j *logging.RunJournal) Option {
	return func(s *Service) { s.journal = j }
}

// WithStrictBounds toggles the dashboard range checks on RunExperiment.
// Default: on.
func WithStrictBounds(strict bool) Option {
	return func(s *Service) { s.strictBounds = strict }
}

// NewService composes a store and an engine. A nil engine uses a noiseless
// engine with the default model constants.
func NewService(s store.ResultStore, engine Runner, opts ...Option) *Service {
	if engine == nil {
		engine = simulation.NewEngine(simulation.DefaultConfig(), nil)
	}
	svc := &Service{
		store:        s,
		engine:       engine,
		logger:       logging.Discard(),
		strictBounds: true,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Store returns the underlying store.
func (s *Service) Store() store.ResultStore {
	return s.store
}

// Register creates the user or overwrites name and role of an existing email.
// role accepts the values understood by models.ParseRole; empty means student.
func (s *Service) Register(ctx context.Context, name, email, role string) (*models.User, error) {
	name = sanitize.Name(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	r := models.RoleStudent
	if strings.TrimSpace(role) != "" {
		if r, err = models.ParseRole(role); err != nil {
			return nil, invalid("role", "%v", err)
		}
	}

	user := models.User{Name: name, Email: email, Role: r}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("registering %s: %w", email, err)
	}

	s.logger.Info("user registered", "email", email, "role", r)
	return &user, nil
}

// Login returns the user for email, creating a student named nameIfNew
// (or models.DefaultUserName) when none exists. No credentials are checked.
func (s *Service) Login(ctx context.Context, email, nameIfNew string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", email, err)
	}
	if existing != nil {
		s.logger.Debug("user logged in", "email", email)
		return existing, nil
	}

	name := sanitize.Name(nameIfNew)
	if name == "" {
		name = models.DefaultUserName
	}
	user := models.User{Name: name, Email: email, Role: models.RoleStudent}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("provisioning %s: %w", email, err)
	}

	s.logger.Info("user provisioned on login", "email", email)
	return &user, nil
}

// RunExperiment simulates params, stores the result under email and returns
// it. The user is provisioned with login semantics if needed.
func (s *Service) RunExperiment(ctx context.Context, email string, params models.ExperimentParams) (*models.SimulationResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if s.strictBounds {
		if err := ValidateParams(params); err != nil {
			return nil, err
		}
	}

	if _, err := s.Login(ctx, email, ""); err != nil {
		return nil, err
	}

	result := s.engine.Run(params)
	if _, err := s.store.SaveResult(ctx, email, result); err != nil {
		return nil, fmt.Errorf("saving result for %s: %w", email, err)
	}

	s.journal.Record(email, &result)
	s.logger.Info("experiment run",
		"email", email,
		"run_id", result.RunID,
		"duration", params.DurationSeconds,
		"mae", result.MeanAbsoluteError,
		"peak", result.PeakLevel)
	s.logger.Log(ctx, logging.LevelTrace, "experiment series",
		"run_id", result.RunID,
		"ideal", result.IdealLevel,
		"plant", result.PlantLevel)

	return &result, nil
}

// LatestResult returns the user's most recent result, or nil if there is none.
func (s *Service) LatestResult(ctx context.Context, email string) (*models.SimulationResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, invalid("email", "is required")
	}
	r, err := s.store.GetLatestResult(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("latest result for %s: %w", email, err)
	}
	return r, nil
}

// History returns all of the user's results, oldest first.
func (s *Service) History(ctx context.Context, email string) ([]models.SimulationResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, invalid("email", "is required")
	}
	rs, err := s.store.ListResults(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", email, err)
	}
	return rs, nil
}

// ListRanked returns every stored result in leaderboard order.
func (s *Service) ListRanked(ctx context.Context) ([]models.RankedResult, error) {
	rs, err := s.store.ListAllResultsRanked(ctx)
	if err != nil {
		return nil, fmt.Errorf("ranking: %w", err)
	}
	return rs, nil
}

// ValidateParams checks params against the ranges the dashboard offers.
func ValidateParams(p models.ExperimentParams) error {
	if p.DurationSeconds < models.MinDurationSeconds || p.DurationSeconds > models.MaxDurationSeconds {
		return invalid("duration_seconds", "must be between %d and %d, got %d",
			models.MinDurationSeconds, models.MaxDurationSeconds, p.DurationSeconds)
	}
	if p.InflowRate < 0 {
		return invalid("inflow_rate", "must be non-negative, got %g", p.InflowRate)
	}
	if p.OutflowRate < 0 {
		return invalid("outflow_rate", "must be non-negative, got %g", p.OutflowRate)
	}
	if p.MaxHeight <= 0 {
		return invalid("max_height", "must be positive, got %g", p.MaxHeight)
	}
	return nil
}
