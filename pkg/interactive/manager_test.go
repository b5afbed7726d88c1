//go:build unix

package interactive

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(2*time.Second, zerolog.Nop())
}

// waitStatus polls until the session reaches want or the timeout trips.
func waitStatus(t *testing.T, m *Manager, id string, want Status, timeout time.Duration) Snapshot {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		snap, err := m.Get(id)
		require.NoError(t, err)
		if snap.Status == want {
			return snap
		}
		require.True(t, time.Now().Before(deadline),
			"session %s stuck in %s waiting for %s", id, snap.Status, want)
		time.Sleep(10 * time.Millisecond)
	}
}

func TestManager_StartRejectsEmptyArgv(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Start(nil)
	assert.ErrorIs(t, err, ErrEmptyArgv)
}

func TestManager_SessionCompletes(t *testing.T) {
	m := newTestManager(t)

	snap, err := m.Start([]string{"/bin/sh", "-c", "echo session-done"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, snap.Status)
	assert.Nil(t, snap.ExitCode)

	final := waitStatus(t, m, snap.ID, StatusCompleted, 5*time.Second)
	require.NotNil(t, final.ExitCode)
	assert.Equal(t, 0, *final.ExitCode)
	assert.Contains(t, final.Output, "session-done")
	assert.NotNil(t, final.StartedAt)
	assert.NotNil(t, final.CompletedAt)
}

func TestManager_SpawnFailure(t *testing.T) {
	m := newTestManager(t)

	snap, err := m.Start([]string{"/nonexistent/robomgr-test-binary"})
	require.NoError(t, err)

	final := waitStatus(t, m, snap.ID, StatusFailed, 5*time.Second)
	assert.Contains(t, final.Reason, "spawn failed")
	assert.Nil(t, final.StartedAt)
	assert.Nil(t, final.ExitCode)
}

func TestManager_NonZeroExitFails(t *testing.T) {
	m := newTestManager(t)

	snap, err := m.Start([]string{"/bin/sh", "-c", "exit 3"})
	require.NoError(t, err)

	final := waitStatus(t, m, snap.ID, StatusFailed, 5*time.Second)
	require.NotNil(t, final.ExitCode)
	assert.Equal(t, 3, *final.ExitCode)
}

func TestManager_SendTextUnblocksProcess(t *testing.T) {
	m := newTestManager(t)

	snap, err := m.Start([]string{"/bin/sh", "-c", "read line; echo got:$line"})
	require.NoError(t, err)
	waitStatus(t, m, snap.ID, StatusRunning, 5*time.Second)

	require.NoError(t, m.SendText(snap.ID, "hi"))

	final := waitStatus(t, m, snap.ID, StatusCompleted, 5*time.Second)
	assert.Contains(t, final.Output, "got:hi")
}

func TestManager_SendEnterConfirmsPrompt(t *testing.T) {
	m := newTestManager(t)

	snap, err := m.Start([]string{"/bin/sh", "-c", "echo press enter; read x; echo confirmed"})
	require.NoError(t, err)
	waitStatus(t, m, snap.ID, StatusRunning, 5*time.Second)

	// The prompt must be visible before the keystroke lands.
	deadline := time.Now().Add(5 * time.Second)
	for {
		cur, err := m.Get(snap.ID)
		require.NoError(t, err)
		if strings.Contains(cur.Output, "press enter") {
			break
		}
		require.True(t, time.Now().Before(deadline), "prompt never appeared")
		time.Sleep(10 * time.Millisecond)
	}

	require.NoError(t, m.SendEnter(snap.ID))

	final := waitStatus(t, m, snap.ID, StatusCompleted, 5*time.Second)
	assert.Contains(t, final.Output, "confirmed")
}

func TestManager_SendTextToTerminalSession(t *testing.T) {
	m := newTestManager(t)

	snap, err := m.Start([]string{"/bin/sh", "-c", "true"})
	require.NoError(t, err)
	waitStatus(t, m, snap.ID, StatusCompleted, 5*time.Second)

	err = m.SendText(snap.ID, "too late")
	assert.ErrorIs(t, err, ErrSessionNotRunning)
}

func TestManager_SendTextToUnknownSession(t *testing.T) {
	m := newTestManager(t)
	err := m.SendText("no-such-id", "hello")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_CancelRunningSession(t *testing.T) {
	m := newTestManager(t)

	snap, err := m.Start([]string{"/bin/sh", "-c", "sleep 30"})
	require.NoError(t, err)
	waitStatus(t, m, snap.ID, StatusRunning, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	final, err := m.Cancel(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, final.Status)
	assert.NotNil(t, final.CompletedAt)
}

func TestManager_CancelKillsProcessGroup(t *testing.T) {
	m := newTestManager(t)

	// The shell spawns a child; cancelling must take down both.
	snap, err := m.Start([]string{"/bin/sh", "-c", "sleep 30 & wait"})
	require.NoError(t, err)
	waitStatus(t, m, snap.ID, StatusRunning, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	final, err := m.Cancel(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, final.Status)
}

func TestManager_CancelIsIdempotent(t *testing.T) {
	m := newTestManager(t)

	snap, err := m.Start([]string{"/bin/sh", "-c", "sleep 30"})
	require.NoError(t, err)
	waitStatus(t, m, snap.ID, StatusRunning, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	first, err := m.Cancel(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, first.Status)

	second, err := m.Cancel(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, second.Status)
}

func TestManager_CancelUnknownSession(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Cancel(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_DisposeRequiresTerminalState(t *testing.T) {
	m := newTestManager(t)

	snap, err := m.Start([]string{"/bin/sh", "-c", "sleep 30"})
	require.NoError(t, err)
	waitStatus(t, m, snap.ID, StatusRunning, 5*time.Second)

	err = m.Dispose(snap.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = m.Cancel(ctx, snap.ID)
	require.NoError(t, err)

	require.NoError(t, m.Dispose(snap.ID))
	_, err = m.Get(snap.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_ListPreservesCreationOrder(t *testing.T) {
	m := newTestManager(t)

	first, err := m.Start([]string{"/bin/sh", "-c", "true"})
	require.NoError(t, err)
	second, err := m.Start([]string{"/bin/sh", "-c", "true"})
	require.NoError(t, err)

	summaries := m.List()
	require.Len(t, summaries, 2)
	assert.Equal(t, first.ID, summaries[0].ID)
	assert.Equal(t, second.ID, summaries[1].ID)
	waitStatus(t, m, first.ID, StatusCompleted, 5*time.Second)
	waitStatus(t, m, second.ID, StatusCompleted, 5*time.Second)
}

func TestManager_PollsObservePrefixes(t *testing.T) {
	m := newTestManager(t)

	snap, err := m.Start([]string{"/bin/sh", "-c", "for i in 1 2 3 4 5; do echo line-$i; done"})
	require.NoError(t, err)

	var polls []string
	deadline := time.Now().Add(5 * time.Second)
	for {
		cur, err := m.Get(snap.ID)
		require.NoError(t, err)
		polls = append(polls, cur.Output)
		if cur.Status.Terminal() {
			break
		}
		require.True(t, time.Now().Before(deadline))
		time.Sleep(5 * time.Millisecond)
	}

	final := polls[len(polls)-1]
	for _, p := range polls {
		assert.True(t, strings.HasPrefix(final, p))
	}
	for i := 1; i <= 5; i++ {
		assert.Contains(t, final, "line-")
	}
}

func TestManager_SweepDisposesOldTerminalSessions(t *testing.T) {
	m := newTestManager(t)

	done, err := m.Start([]string{"/bin/sh", "-c", "true"})
	require.NoError(t, err)
	live, err := m.Start([]string{"/bin/sh", "-c", "sleep 30"})
	require.NoError(t, err)

	waitStatus(t, m, done.ID, StatusCompleted, 5*time.Second)
	waitStatus(t, m, live.ID, StatusRunning, 5*time.Second)
	time.Sleep(20 * time.Millisecond)

	removed := m.Sweep(10 * time.Millisecond)
	assert.Equal(t, 1, removed)

	_, err = m.Get(done.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(live.ID)
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = m.Cancel(ctx, live.ID)
	require.NoError(t, err)
}

func TestManager_WithMaxDurationCancelsRunaway(t *testing.T) {
	m := newTestManager(t)

	snap, err := m.Start([]string{"/bin/sh", "-c", "sleep 30"}, WithMaxDuration(200*time.Millisecond))
	require.NoError(t, err)

	final := waitStatus(t, m, snap.ID, StatusCancelled, 10*time.Second)
	assert.Equal(t, StatusCancelled, final.Status)
}

func TestManager_ShutdownCancelsAllLiveSessions(t *testing.T) {
	m := newTestManager(t)

	a, err := m.Start([]string{"/bin/sh", "-c", "sleep 30"})
	require.NoError(t, err)
	b, err := m.Start([]string{"/bin/sh", "-c", "sleep 30"})
	require.NoError(t, err)
	waitStatus(t, m, a.ID, StatusRunning, 5*time.Second)
	waitStatus(t, m, b.ID, StatusRunning, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	for _, id := range []string{a.ID, b.ID} {
		snap, err := m.Get(id)
		require.NoError(t, err)
		assert.True(t, snap.Status.Terminal())
	}
}
