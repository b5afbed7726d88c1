// Package server exposes the engine over HTTP: workflow launches,
// session polling and input relay, one-shot commands, port
// identification, recording management, and calibration inspection.
package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/robolab/robomgr/internal/config"
	"github.com/robolab/robomgr/internal/metrics"
	"github.com/robolab/robomgr/pkg/calibration"
	"github.com/robolab/robomgr/pkg/interactive"
	"github.com/robolab/robomgr/pkg/oneshot"
	"github.com/robolab/robomgr/pkg/ports"
	"github.com/robolab/robomgr/pkg/recording"
)

// Server is the robomgr HTTP API server.
type Server struct {
	cfg       config.ServerConfig
	tailBytes int

	sessions     *interactive.Manager
	commands     *oneshot.Runner
	ports        *ports.Service
	recordings   *recording.Service
	calibrations *calibration.Service
	calWatcher   *calibration.Watcher

	server    *http.Server
	logger    zerolog.Logger
	startTime time.Time
}

// Options carries the services the server fronts.
type Options struct {
	Config       config.ServerConfig
	TailBytes    int
	Sessions     *interactive.Manager
	Commands     *oneshot.Runner
	Ports        *ports.Service
	Recordings   *recording.Service
	Calibrations *calibration.Service
	CalWatcher   *calibration.Watcher
}

// New creates the API server.
func New(opts Options, logger zerolog.Logger) (*Server, error) {
	if opts.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if opts.Commands == nil {
		return nil, fmt.Errorf("command runner is required")
	}
	if opts.Config.Host == "" {
		opts.Config.Host = "0.0.0.0"
	}
	if opts.Config.Port == 0 {
		opts.Config.Port = 8080
	}
	if opts.TailBytes <= 0 {
		opts.TailBytes = 30_000
	}

	metrics.EnsureRegistered()

	return &Server{
		cfg:          opts.Config,
		tailBytes:    opts.TailBytes,
		sessions:     opts.Sessions,
		commands:     opts.Commands,
		ports:        opts.Ports,
		recordings:   opts.Recordings,
		calibrations: opts.Calibrations,
		calWatcher:   opts.CalWatcher,
		logger:       logger.With().Str("component", "server").Logger(),
		startTime:    time.Now(),
	}, nil
}

// Start builds the routes and serves until Stop is called. It blocks.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler: s.withLogging(s.routes()),
	}

	s.logger.Info().
		Str("host", s.cfg.Host).
		Int("port", s.cfg.Port).
		Msg("Starting API server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info().Msg("Shutting down API server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	// Interactive sessions
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /api/sessions/{id}/enter", s.handleSendEnter)
	mux.HandleFunc("POST /api/sessions/{id}/input", s.handleSendInput)
	mux.HandleFunc("POST /api/sessions/{id}/cancel", s.handleCancelSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDisposeSession)
	mux.HandleFunc("GET /api/sessions/{id}/stream", s.handleStreamSession)

	// Robot workflows, each spawning an interactive session
	mux.HandleFunc("POST /api/workflows/calibrate", s.handleCalibrate)
	mux.HandleFunc("POST /api/workflows/teleoperate", s.handleTeleoperate)
	mux.HandleFunc("POST /api/workflows/replay", s.handleReplay)
	mux.HandleFunc("POST /api/workflows/train", s.handleTrain)
	mux.HandleFunc("POST /api/workflows/eval", s.handleEval)
	mux.HandleFunc("POST /api/workflows/find-cameras", s.handleFindCameras)

	// One-shot commands
	mux.HandleFunc("POST /api/commands", s.handleRunCommand)
	mux.HandleFunc("GET /api/commands", s.handleListCommands)
	mux.HandleFunc("GET /api/commands/{id}", s.handleGetCommand)
	mux.HandleFunc("POST /api/commands/{id}/cancel", s.handleCancelCommand)
	mux.HandleFunc("DELETE /api/commands", s.handleClearCommands)
	mux.HandleFunc("POST /api/commands/chmod", s.handleChmodPort)
	mux.HandleFunc("POST /api/commands/video-devices", s.handleListVideoDevices)

	// Port identification
	if s.ports != nil {
		mux.HandleFunc("POST /api/commands/find-port", s.handleFindSerialPorts)
		mux.HandleFunc("GET /api/ports", s.handleListPorts)
		mux.HandleFunc("POST /api/ports/probe", s.handleStartProbe)
		mux.HandleFunc("POST /api/ports/probe/{id}/detect", s.handleDetectPort)
		mux.HandleFunc("POST /api/ports/probe/{id}/refresh", s.handleRefreshProbe)
		mux.HandleFunc("PUT /api/ports/{arm}", s.handleSetPort)
		mux.HandleFunc("DELETE /api/ports/{arm}", s.handleDeletePort)
		mux.HandleFunc("DELETE /api/ports", s.handleClearPorts)
	}

	// Recording configs, datasets, and episodes
	if s.recordings != nil {
		mux.HandleFunc("POST /api/recordings/configs", s.handleCreateConfig)
		mux.HandleFunc("GET /api/recordings/configs", s.handleListConfigs)
		mux.HandleFunc("GET /api/recordings/configs/{id}", s.handleGetConfig)
		mux.HandleFunc("PUT /api/recordings/configs/{id}", s.handleUpdateConfig)
		mux.HandleFunc("DELETE /api/recordings/configs/{id}", s.handleDeleteConfig)
		mux.HandleFunc("POST /api/recordings/configs/{id}/record", s.handleStartRecording)
		mux.HandleFunc("GET /api/recordings/datasets", s.handleListDatasets)
		mux.HandleFunc("GET /api/recordings/datasets/{id}", s.handleGetDataset)
		mux.HandleFunc("PATCH /api/recordings/datasets/{id}", s.handleUpdateDataset)
		mux.HandleFunc("DELETE /api/recordings/datasets/{id}", s.handleDeleteDataset)
		mux.HandleFunc("POST /api/recordings/datasets/{id}/episodes", s.handleCreateEpisode)
		mux.HandleFunc("GET /api/recordings/datasets/{id}/episodes", s.handleListEpisodes)
		mux.HandleFunc("PATCH /api/recordings/episodes/{id}", s.handleUpdateEpisode)
	}

	// Calibration files
	if s.calibrations != nil {
		mux.HandleFunc("GET /api/calibrations", s.handleListCalibrations)
		mux.HandleFunc("POST /api/calibrations/prune", s.handlePruneCalibrations)
		mux.HandleFunc("DELETE /api/calibrations/{id}", s.handleResetCalibration)
	}

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(s.startTime).Seconds(),
		"sessions":  len(s.sessions.List()),
		"timestamp": time.Now().UnixMilli(),
	})
}

// statusRecorder captures the response code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}
		duration := time.Since(start)
		metrics.ObserveHTTPRequest(r.Method, route, fmt.Sprintf("%d", rec.status), duration)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", duration).
			Msg("Request completed")
	})
}
