package interactive

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/creack/pty"

	"github.com/robolab/robomgr/internal/metrics"
)

// finalDrainWindow bounds how long the supervisor waits for trailing
// output after process exit before forcing the drain loop closed. A
// descendant that inherited the pty could otherwise hold the stream
// open indefinitely.
const finalDrainWindow = 500 * time.Millisecond

// readChunkSize matches the pty read granularity of the drain loop.
const readChunkSize = 4096

// supervise owns the whole process lifecycle for one session: spawn,
// output drain, exit wait, and the final status transition. It runs on
// its own goroutine; exactly one supervisor exists per session.
func (m *Manager) supervise(s *Session, opts startOptions) {
	defer close(s.done)

	s.mu.Lock()
	if s.cancelReq {
		// Cancelled before the process was ever spawned.
		_ = s.transition(StatusCancelled)
		s.mu.Unlock()
		m.logger.Info().Str("session_id", s.id).Msg("Session cancelled before spawn")
		metrics.IncSessionsFinished(string(StatusCancelled))
		return
	}

	cmd := exec.Command(s.argv[0], s.argv[1:]...)
	if opts.dir != "" {
		cmd.Dir = opts.dir
	}
	cmd.Env = buildEnv(opts.env)

	// The pty gives us a single combined output channel and makes the
	// child a session leader, so its process group can be signalled as
	// a whole on cancellation.
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: ptyCols, Rows: ptyRows})
	if err != nil {
		s.reason = fmt.Sprintf("spawn failed: %v", err)
		_ = s.transition(StatusFailed)
		s.mu.Unlock()
		m.logger.Error().
			Err(err).
			Str("session_id", s.id).
			Strs("argv", s.argv).
			Msg("Failed to spawn process")
		metrics.IncSessionsFinished(string(StatusFailed))
		return
	}

	s.cmd = cmd
	s.ptmx = ptmx
	_ = s.transition(StatusRunning)
	s.mu.Unlock()

	m.logger.Info().
		Str("session_id", s.id).
		Int("pid", cmd.Process.Pid).
		Strs("argv", s.argv).
		Msg("Process started")

	// Drain the combined output stream into the session buffer. The
	// loop ends when the master side errors out: EOF/EIO once the
	// child closed its end, or ErrClosed after the forced close below.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		buf := make([]byte, readChunkSize)
		for {
			n, rerr := ptmx.Read(buf)
			if n > 0 {
				s.out.Append(buf[:n])
				metrics.AddSessionOutputBytes(n)
			}
			if rerr != nil {
				return
			}
		}
	}()

	waitErr := cmd.Wait()

	// Let trailing output flush, then force the drain loop out.
	select {
	case <-drained:
	case <-time.After(finalDrainWindow):
	}
	_ = ptmx.Close()
	<-drained

	s.mu.Lock()
	s.exited = true
	s.exitCode = exitCodeOf(cmd, waitErr)
	switch {
	case s.cancelReq:
		_ = s.transition(StatusCancelled)
	case waitErr == nil:
		_ = s.transition(StatusCompleted)
	default:
		s.reason = waitErr.Error()
		_ = s.transition(StatusFailed)
	}
	status := s.status
	exitCode := s.exitCode
	s.mu.Unlock()

	m.logger.Info().
		Str("session_id", s.id).
		Str("status", string(status)).
		Int("exit_code", exitCode).
		Msg("Process finished")
	metrics.IncSessionsFinished(string(status))
}

// exitCodeOf extracts the process exit code from cmd.Wait's result.
// A process killed by a signal reports -1.
func exitCodeOf(cmd *exec.Cmd, waitErr error) int {
	if waitErr == nil {
		return 0
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	return -1
}

// Terminal geometry presented to the child. Wide enough for the status
// tables the lerobot tools print.
const (
	ptyCols = 120
	ptyRows = 40
)

// buildEnv merges the parent environment with terminal hints and any
// caller-supplied overrides.
func buildEnv(extra []string) []string {
	env := append(os.Environ(),
		"TERM=xterm",
		fmt.Sprintf("COLUMNS=%d", ptyCols),
		fmt.Sprintf("LINES=%d", ptyRows),
	)
	return append(env, extra...)
}
