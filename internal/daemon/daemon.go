// Package daemon wires the robomgr services together and owns their
// lifecycle: the SQLite store, the interactive session manager, the
// one-shot command runner, port identification, recording management,
// the calibration watcher, the retention janitor, and the HTTP API.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robolab/robomgr/internal/config"
	"github.com/robolab/robomgr/internal/logger"
	"github.com/robolab/robomgr/internal/server"
	"github.com/robolab/robomgr/internal/store"
	"github.com/robolab/robomgr/pkg/calibration"
	"github.com/robolab/robomgr/pkg/interactive"
	"github.com/robolab/robomgr/pkg/oneshot"
	"github.com/robolab/robomgr/pkg/ports"
	"github.com/robolab/robomgr/pkg/recording"
)

// Daemon represents the robomgr daemon service
type Daemon struct {
	config *config.Config
	logger *logger.Logger

	// Core modules
	store      *store.Store
	sessions   *interactive.Manager
	commands   *oneshot.Runner
	ports      *ports.Service
	recordings *recording.Service

	// Services
	calibrations *calibration.Service
	calWatcher   *calibration.Watcher
	janitor      *interactive.Janitor
	apiServer    *server.Server

	mu        sync.Mutex
	running   bool
	startTime time.Time
	serverErr chan error
}

// New builds the daemon from config, initializing modules in
// dependency order.
func New(cfg *config.Config, log *logger.Logger) (*Daemon, error) {
	d := &Daemon{
		config:    cfg,
		logger:    log,
		serverErr: make(chan error, 1),
	}

	zl := log.Zerolog()

	st, err := store.Open(cfg.Store.Path, zl)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	d.store = st

	grace := time.Duration(cfg.Session.GraceSeconds) * time.Second
	d.sessions = interactive.NewManager(grace, zl)
	d.commands = oneshot.NewRunner(zl)

	d.ports, err = ports.NewService(ports.GlobScanner{Globs: cfg.Robot.SerialGlobs}, st, zl)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize port service: %w", err)
	}

	d.recordings = recording.NewService(st, zl)
	d.calibrations = calibration.NewService(cfg.Robot.CalibrationDir, zl)

	d.calWatcher, err = calibration.NewWatcher(d.calibrations, zl)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize calibration watcher: %w", err)
	}

	if cfg.Session.Retention.Enabled {
		maxAge := time.Duration(cfg.Session.Retention.MaxAgeHours) * time.Hour
		d.janitor, err = interactive.NewJanitor(d.sessions, maxAge, cfg.Session.Retention.Schedule, zl)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to initialize retention janitor: %w", err)
		}
	}

	d.apiServer, err = server.New(server.Options{
		Config:       cfg.Server,
		TailBytes:    cfg.Session.ResponseTailBytes,
		Sessions:     d.sessions,
		Commands:     d.commands,
		Ports:        d.ports,
		Recordings:   d.recordings,
		Calibrations: d.calibrations,
		CalWatcher:   d.calWatcher,
	}, zl)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize API server: %w", err)
	}

	return d, nil
}

// Start starts the daemon services
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	log := d.logger.Zerolog()
	log.Info().Msg("Starting robomgr daemon")

	if err := d.calWatcher.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start calibration watcher, list requests will hit disk")
		d.calWatcher = nil
	} else {
		log.Info().Msg("Calibration watcher started")
	}

	if d.janitor != nil {
		d.janitor.Start()
		log.Info().Msg("Session retention janitor started")
	}

	go func() {
		d.serverErr <- d.apiServer.Start()
	}()

	log.Info().Msg("Daemon started successfully")
	return nil
}

// Stop stops the daemon services gracefully
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	log := d.logger.Zerolog()
	log.Info().Msg("Stopping robomgr daemon")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := d.apiServer.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to stop API server")
	}

	// Cancel every live session so no robot process outlives the daemon.
	if err := d.sessions.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Session shutdown incomplete")
	}
	d.commands.Clear()

	if d.janitor != nil {
		d.janitor.Stop()
	}
	if d.calWatcher != nil {
		if err := d.calWatcher.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop calibration watcher")
		}
	}
	if err := d.store.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close store")
	}

	log.Info().Msg("Daemon stopped")
	return nil
}

// Wait blocks until the daemon receives a termination signal or the
// API server fails, then stops the daemon.
func (d *Daemon) Wait() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		zl := d.logger.Zerolog()
		zl.Info().Str("signal", sig.String()).Msg("Received signal")
		return d.Stop()
	case err := <-d.serverErr:
		if stopErr := d.Stop(); stopErr != nil && err == nil {
			return stopErr
		}
		return err
	}
}

// Status describes the daemon's runtime state.
type Status struct {
	Running  bool          `json:"running"`
	Uptime   time.Duration `json:"uptime"`
	Sessions int           `json:"sessions"`
	Commands int           `json:"commands"`
}

// GetStatus returns the daemon's runtime state.
func (d *Daemon) GetStatus() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := Status{Running: d.running}
	if d.running {
		st.Uptime = time.Since(d.startTime)
		st.Sessions = len(d.sessions.List())
		st.Commands = len(d.commands.List())
	}
	return st
}

// GetSessionManager returns the interactive session manager
func (d *Daemon) GetSessionManager() *interactive.Manager {
	return d.sessions
}

// GetCommandRunner returns the one-shot command runner
func (d *Daemon) GetCommandRunner() *oneshot.Runner {
	return d.commands
}
