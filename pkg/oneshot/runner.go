// Package oneshot runs short non-interactive commands (port listings,
// permission fixes, calibration resets) and keeps their results
// addressable by id, mirroring the poll model of the interactive
// session engine without the pty machinery.
package oneshot

import (
	"bytes"
	"context"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robolab/robomgr/internal/metrics"
	"github.com/robolab/robomgr/pkg/interactive"
)

// Record is a read-only copy of one command run.
type Record struct {
	ID          string             `json:"id"`
	Argv        []string           `json:"argv"`
	Status      interactive.Status `json:"status"`
	Stdout      string             `json:"stdout,omitempty"`
	Stderr      string             `json:"stderr,omitempty"`
	ExitCode    *int               `json:"exit_code,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	StartedAt   *time.Time         `json:"started_at,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

type run struct {
	mu          sync.Mutex
	id          string
	argv        []string
	status      interactive.Status
	stdout      bytes.Buffer
	stderr      bytes.Buffer
	exitCode    int
	exited      bool
	createdAt   time.Time
	startedAt   time.Time
	completedAt time.Time
	cancel      context.CancelFunc
	done        chan struct{}
}

func (r *run) record() Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := Record{
		ID:        r.id,
		Argv:      append([]string(nil), r.argv...),
		Status:    r.status,
		Stdout:    r.stdout.String(),
		Stderr:    r.stderr.String(),
		CreatedAt: r.createdAt,
	}
	if r.exited {
		code := r.exitCode
		rec.ExitCode = &code
	}
	if !r.startedAt.IsZero() {
		t := r.startedAt
		rec.StartedAt = &t
	}
	if !r.completedAt.IsZero() {
		t := r.completedAt
		rec.CompletedAt = &t
	}
	return rec
}

// Runner executes one-shot commands asynchronously and records results.
type Runner struct {
	mu     sync.RWMutex
	runs   map[string]*run
	order  []string
	logger zerolog.Logger
}

// NewRunner creates a one-shot command runner.
func NewRunner(logger zerolog.Logger) *Runner {
	metrics.EnsureRegistered()
	return &Runner{
		runs:   make(map[string]*run),
		logger: logger.With().Str("component", "oneshot").Logger(),
	}
}

// Run starts argv asynchronously and returns the pending record.
func (r *Runner) Run(argv []string) (Record, error) {
	if len(argv) == 0 {
		return Record{}, interactive.ErrEmptyArgv
	}

	ctx, cancel := context.WithCancel(context.Background())
	rn := &run{
		id:        uuid.NewString(),
		argv:      append([]string(nil), argv...),
		status:    interactive.StatusPending,
		createdAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	r.mu.Lock()
	r.runs[rn.id] = rn
	r.order = append(r.order, rn.id)
	r.mu.Unlock()

	r.logger.Info().Str("command_id", rn.id).Strs("argv", argv).Msg("Command queued")
	go r.execute(ctx, rn)

	return rn.record(), nil
}

func (r *Runner) execute(ctx context.Context, rn *run) {
	defer close(rn.done)
	defer rn.cancel()

	cmd := exec.CommandContext(ctx, rn.argv[0], rn.argv[1:]...)
	cmd.Stdout = &lockedWriter{mu: &rn.mu, buf: &rn.stdout}
	cmd.Stderr = &lockedWriter{mu: &rn.mu, buf: &rn.stderr}

	rn.mu.Lock()
	rn.status = interactive.StatusRunning
	rn.startedAt = time.Now()
	rn.mu.Unlock()

	err := cmd.Run()

	rn.mu.Lock()
	rn.completedAt = time.Now()
	if cmd.ProcessState != nil {
		rn.exited = true
		rn.exitCode = cmd.ProcessState.ExitCode()
	}
	switch {
	case ctx.Err() != nil:
		rn.status = interactive.StatusCancelled
	case err != nil:
		rn.status = interactive.StatusFailed
	default:
		rn.status = interactive.StatusCompleted
	}
	status := rn.status
	rn.mu.Unlock()

	metrics.IncCommandRuns(string(status))
	r.logger.Info().
		Str("command_id", rn.id).
		Str("status", string(status)).
		Msg("Command finished")
}

// lockedWriter serializes subprocess writes with record snapshots.
type lockedWriter struct {
	mu  *sync.Mutex
	buf *bytes.Buffer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

// Get returns the record for id.
func (r *Runner) Get(id string) (Record, error) {
	r.mu.RLock()
	rn, ok := r.runs[id]
	r.mu.RUnlock()
	if !ok {
		return Record{}, interactive.ErrSessionNotFound
	}
	return rn.record(), nil
}

// List returns all records in creation order.
func (r *Runner) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.order))
	for _, id := range r.order {
		if rn, ok := r.runs[id]; ok {
			out = append(out, rn.record())
		}
	}
	return out
}

// Cancel stops a pending or running command. Cancelling a terminal
// command is a no-op.
func (r *Runner) Cancel(id string) (Record, error) {
	r.mu.RLock()
	rn, ok := r.runs[id]
	r.mu.RUnlock()
	if !ok {
		return Record{}, interactive.ErrSessionNotFound
	}

	rn.mu.Lock()
	terminal := rn.status.Terminal()
	rn.mu.Unlock()
	if !terminal {
		rn.cancel()
		<-rn.done
	}
	return rn.record(), nil
}

// Clear cancels any live commands and removes all records.
func (r *Runner) Clear() {
	r.mu.Lock()
	runs := make([]*run, 0, len(r.runs))
	for _, rn := range r.runs {
		runs = append(runs, rn)
	}
	r.runs = make(map[string]*run)
	r.order = nil
	r.mu.Unlock()

	for _, rn := range runs {
		rn.mu.Lock()
		terminal := rn.status.Terminal()
		rn.mu.Unlock()
		if !terminal {
			rn.cancel()
			<-rn.done
		}
	}
	r.logger.Info().Int("cleared", len(runs)).Msg("Command history cleared")
}
