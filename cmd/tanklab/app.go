package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/nvandessel/tanklab/internal/config"
	"github.com/nvandessel/tanklab/internal/logging"
	"github.com/nvandessel/tanklab/internal/session"
	"github.com/nvandessel/tanklab/internal/simulation"
	"github.com/nvandessel/tanklab/internal/store"
	"github.com/spf13/cobra"
)

// app is everything a command needs, built from flags and config.
type app struct {
	cfg     *config.TanklabConfig
	home    string // ~/.tanklab
	store   store.ResultStore
	svc     *session.Service
	logger  *slog.Logger
	journal *logging.RunJournal
}

// loadConfig resolves configuration and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.TanklabConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Store.Backend = backend
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Store.Path = db
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openApp loads config and opens the store. Callers must Close the app.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if err := store.EnsureGlobalTanklabDir(); err != nil {
		return nil, fmt.Errorf("failed to create tanklab directory: %w", err)
	}
	home, err := store.GlobalTanklabPath()
	if err != nil {
		return nil, err
	}

	s, err := store.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)
	journal := logging.NewRunJournal(home, cfg.Logging.Level)

	engine := simulation.NewEngine(simulation.Config{
		IdealTau:       cfg.Simulation.IdealTau,
		PlantTau:       cfg.Simulation.PlantTau,
		PlantGainRatio: cfg.Simulation.PlantGainRatio,
		NoiseLevel:     cfg.Simulation.NoiseLevel,
	}, simulation.NewSeededNoise(cfg.Simulation.Seed))

	svc := session.NewService(s, engine,
		session.WithLogger(logger),
		session.WithJournal(journal),
		session.WithStrictBounds(cfg.Simulation.StrictBounds),
	)

	logger.Debug("store opened", "backend", cfg.Store.Backend, "path", cfg.Store.Path)
	return &app{cfg: cfg, home: home, store: s, svc: svc, logger: logger, journal: journal}, nil
}

// Close releases the store and the run journal.
func (a *app) Close() {
	a.journal.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", "error", err)
	}
}

// resolveEmail returns --email if given, otherwise the logged-in user.
func (a *app) resolveEmail(cmd *cobra.Command) (string, error) {
	if email, _ := cmd.Flags().GetString("email"); email != "" {
		return email, nil
	}
	st, err := session.LoadState(a.home)
	if err != nil {
		return "", err
	}
	if !st.LoggedIn() {
		return "", fmt.Errorf("not logged in: run 'tanklab login <email>' or pass --email")
	}
	return st.Email(), nil
}

func encodeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
