package interactive

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robolab/robomgr/internal/metrics"
)

// DefaultGrace is the default window allowed for graceful process
// termination before escalating to a forced kill.
const DefaultGrace = 3 * time.Second

// Manager is the session registry. It owns creation, lookup, and
// disposal of sessions; each session's process lifecycle runs on its
// own supervisor goroutine so one session's I/O never blocks another's.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string

	grace  time.Duration
	logger zerolog.Logger
}

// NewManager creates a session manager. grace bounds how long Cancel
// waits for a graceful exit before force-killing the process group.
func NewManager(grace time.Duration, logger zerolog.Logger) *Manager {
	metrics.EnsureRegistered()
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Manager{
		sessions: make(map[string]*Session),
		grace:    grace,
		logger:   logger.With().Str("component", "interactive").Logger(),
	}
}

type startOptions struct {
	dir         string
	env         []string
	maxDuration time.Duration
}

// Option configures a session at creation time.
type Option func(*startOptions)

// WithDir sets the working directory for the process.
func WithDir(dir string) Option {
	return func(o *startOptions) { o.dir = dir }
}

// WithEnv appends extra environment entries (KEY=VALUE) for the process.
func WithEnv(env ...string) Option {
	return func(o *startOptions) { o.env = append(o.env, env...) }
}

// WithMaxDuration arms a watchdog that cancels the session if it is
// still alive after d. Zero (the default) means no timeout: intentionally
// long operations such as training runs are left untouched.
func WithMaxDuration(d time.Duration) Option {
	return func(o *startOptions) { o.maxDuration = d }
}

// Start allocates a new session in pending status and hands it to the
// supervisor asynchronously. The returned snapshot reflects the state
// at creation; clients observe spawn success or failure through polls.
func (m *Manager) Start(argv []string, opts ...Option) (Snapshot, error) {
	if len(argv) == 0 {
		return Snapshot{}, ErrEmptyArgv
	}

	var o startOptions
	for _, opt := range opts {
		opt(&o)
	}

	s := newSession(uuid.NewString(), argv)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.order = append(m.order, s.id)
	tracked := len(m.sessions)
	m.mu.Unlock()

	metrics.IncSessionsStarted()
	metrics.SetSessionsTracked(tracked)
	m.logger.Info().Str("session_id", s.id).Strs("argv", argv).Msg("Session created")

	go m.supervise(s, o)
	if o.maxDuration > 0 {
		go m.watchdog(s, o.maxDuration)
	}

	return s.Snapshot(), nil
}

// watchdog cancels the session if it outlives its maximum duration.
func (m *Manager) watchdog(s *Session, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.Done():
	case <-timer.C:
		m.logger.Warn().
			Str("session_id", s.id).
			Dur("max_duration", d).
			Msg("Session exceeded maximum duration, cancelling")
		ctx, cancel := context.WithTimeout(context.Background(), m.grace+5*time.Second)
		defer cancel()
		if _, err := m.Cancel(ctx, s.id); err != nil {
			m.logger.Error().Err(err).Str("session_id", s.id).Msg("Watchdog cancel failed")
		}
	}
}

// lookup returns the live session for id.
func (m *Manager) lookup(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Get returns a read-only snapshot of the session.
func (m *Manager) Get(id string) (Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// Session returns the live session handle, used by the streaming
// transport to read output increments. Mutation stays with the manager.
func (m *Manager) Session(id string) (*Session, error) {
	return m.lookup(id)
}

// List returns summaries of all known sessions in creation order.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.order))
	for _, id := range m.order {
		if s, ok := m.sessions[id]; ok {
			out = append(out, s.Summary())
		}
	}
	return out
}

// SendEnter writes a single newline to the process's input stream.
func (m *Manager) SendEnter(id string) error {
	return m.SendText(id, "")
}

// SendText writes text followed by a newline to the process's input
// stream. Input is only accepted while the session is running; anything
// else is rejected with ErrSessionNotRunning, never queued.
func (m *Manager) SendText(id, text string) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning || s.ptmx == nil {
		return ErrSessionNotRunning
	}
	if _, err := s.ptmx.WriteString(text + "\n"); err != nil {
		return err
	}
	metrics.IncInputRelays()
	m.logger.Debug().Str("session_id", id).Int("bytes", len(text)+1).Msg("Input relayed")
	return nil
}

// Cancel terminates the session's process group and drives the session
// to cancelled. Two-phase: SIGTERM to the whole group, then SIGKILL
// once the grace window elapses. Cancelling an already terminal session
// is a no-op returning the current snapshot.
func (m *Manager) Cancel(ctx context.Context, id string) (Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	if s.status.Terminal() {
		s.mu.Unlock()
		return s.Snapshot(), nil
	}
	alreadyRequested := s.cancelReq
	s.cancelReq = true
	pid := 0
	if s.cmd != nil && s.cmd.Process != nil {
		pid = s.cmd.Process.Pid
	}
	s.mu.Unlock()

	if alreadyRequested {
		// Another cancel is already in flight; just wait it out.
		select {
		case <-s.Done():
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		}
		return s.Snapshot(), nil
	}

	m.logger.Info().Str("session_id", id).Int("pid", pid).Msg("Cancelling session")

	if pid > 0 {
		if err := terminateTree(pid, false); err != nil {
			m.logger.Debug().Err(err).Str("session_id", id).Msg("Graceful signal failed")
		}
	}

	select {
	case <-s.Done():
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	case <-time.After(m.grace):
		m.logger.Warn().Str("session_id", id).Dur("grace", m.grace).Msg("Grace window elapsed, force killing")
		if pid > 0 {
			if err := terminateTree(pid, true); err != nil {
				m.logger.Debug().Err(err).Str("session_id", id).Msg("Force kill failed")
			}
		}
		select {
		case <-s.Done():
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		}
	}

	return s.Snapshot(), nil
}

// Dispose removes a terminal session from the registry. A session that
// is still pending or running must be cancelled first.
func (m *Manager) Dispose(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if !s.Status().Terminal() {
		return ErrInvalidState
	}

	delete(m.sessions, id)
	m.removeFromOrder(id)
	metrics.SetSessionsTracked(len(m.sessions))
	m.logger.Info().Str("session_id", id).Msg("Session disposed")
	return nil
}

// removeFromOrder drops id from the creation-order index. Callers hold mu.
func (m *Manager) removeFromOrder(id string) {
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

// Sweep disposes terminal sessions whose completion is older than
// maxAge and returns how many were removed. It backs the opt-in
// retention janitor.
func (m *Manager) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		expired := s.status.Terminal() && !s.completedAt.IsZero() && s.completedAt.Before(cutoff)
		s.mu.Unlock()
		if expired {
			delete(m.sessions, id)
			m.removeFromOrder(id)
			removed++
		}
	}
	if removed > 0 {
		metrics.SetSessionsTracked(len(m.sessions))
		m.logger.Info().Int("removed", removed).Msg("Swept terminal sessions")
	}
	return removed
}

// Shutdown cancels every live session and waits for supervisors to
// finish, bounded by ctx.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.RLock()
	live := make([]string, 0, len(m.sessions))
	for id, s := range m.sessions {
		if !s.Status().Terminal() {
			live = append(live, id)
		}
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, id := range live {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := m.Cancel(ctx, id); err != nil {
				m.logger.Error().Err(err).Str("session_id", id).Msg("Shutdown cancel failed")
			}
		}(id)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
