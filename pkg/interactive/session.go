package interactive

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Session is one supervised run of an external interactive process.
// All mutable state is serialized behind mu; the output buffer carries
// its own lock so polls never wait on an in-flight stream read.
type Session struct {
	id        string
	argv      []string
	createdAt time.Time

	out *outputBuffer

	mu          sync.Mutex
	status      Status
	startedAt   time.Time
	completedAt time.Time
	exitCode    int
	exited      bool
	reason      string
	cancelReq   bool

	cmd  *exec.Cmd
	ptmx *os.File

	// done is closed once the supervisor has driven the session to a
	// terminal status and released its process resources.
	done chan struct{}
}

// Snapshot is a read-only copy of a session's state at one instant.
type Snapshot struct {
	ID          string     `json:"id"`
	Argv        []string   `json:"argv"`
	Status      Status     `json:"status"`
	Output      string     `json:"output"`
	ExitCode    *int       `json:"exit_code,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Summary is the output-free form of a Snapshot, used by list views.
type Summary struct {
	ID          string     `json:"id"`
	Argv        []string   `json:"argv"`
	Status      Status     `json:"status"`
	OutputLen   int        `json:"output_len"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func newSession(id string, argv []string) *Session {
	return &Session{
		id:        id,
		argv:      append([]string(nil), argv...),
		createdAt: time.Now(),
		status:    StatusPending,
		out:       newOutputBuffer(),
		done:      make(chan struct{}),
	}
}

// transition moves the session to a new status, recording timestamps.
// It enforces the state machine: an off-table transition is rejected
// with ErrInvalidState and state is left unchanged. Callers hold mu.
func (s *Session) transition(to Status) error {
	if !canTransition(s.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, s.status, to)
	}
	s.status = to
	switch {
	case to == StatusRunning:
		s.startedAt = time.Now()
	case to.Terminal():
		s.completedAt = time.Now()
	}
	return nil
}

// Snapshot returns a prefix-consistent copy of the session state. The
// output is read after the status so a terminal snapshot always carries
// the complete output.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		ID:        s.id,
		Argv:      append([]string(nil), s.argv...),
		Status:    s.status,
		Reason:    s.reason,
		CreatedAt: s.createdAt,
	}
	if s.exited {
		code := s.exitCode
		snap.ExitCode = &code
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		snap.StartedAt = &t
	}
	if !s.completedAt.IsZero() {
		t := s.completedAt
		snap.CompletedAt = &t
	}
	s.mu.Unlock()

	snap.Output = s.out.String()
	return snap
}

// Summary returns the session state without the output payload.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := Summary{
		ID:        s.id,
		Argv:      append([]string(nil), s.argv...),
		Status:    s.status,
		OutputLen: s.out.Len(),
		CreatedAt: s.createdAt,
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		sum.StartedAt = &t
	}
	if !s.completedAt.IsZero() {
		t := s.completedAt
		sum.CompletedAt = &t
	}
	return sum
}

// ID returns the session's opaque identifier.
func (s *Session) ID() string {
	return s.id
}

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// OutputSince returns output bytes appended after offset.
func (s *Session) OutputSince(offset int) []byte {
	return s.out.Since(offset)
}

// OutputLen returns the accumulated output length in bytes.
func (s *Session) OutputLen() int {
	return s.out.Len()
}

// Done returns a channel closed when the session reaches a terminal
// status and its process resources are released.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
