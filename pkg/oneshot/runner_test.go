//go:build unix

package oneshot

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robolab/robomgr/pkg/interactive"
)

func waitRecord(t *testing.T, r *Runner, id string, want interactive.Status) Record {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec, err := r.Get(id)
		require.NoError(t, err)
		if rec.Status == want {
			return rec
		}
		require.True(t, time.Now().Before(deadline),
			"command %s stuck in %s waiting for %s", id, rec.Status, want)
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunner_RejectsEmptyArgv(t *testing.T) {
	r := NewRunner(zerolog.Nop())
	_, err := r.Run(nil)
	assert.ErrorIs(t, err, interactive.ErrEmptyArgv)
}

func TestRunner_CapturesStdoutAndStderr(t *testing.T) {
	r := NewRunner(zerolog.Nop())

	rec, err := r.Run([]string{"/bin/sh", "-c", "echo to-stdout; echo to-stderr >&2"})
	require.NoError(t, err)

	final := waitRecord(t, r, rec.ID, interactive.StatusCompleted)
	assert.Contains(t, final.Stdout, "to-stdout")
	assert.Contains(t, final.Stderr, "to-stderr")
	require.NotNil(t, final.ExitCode)
	assert.Equal(t, 0, *final.ExitCode)
}

func TestRunner_NonZeroExitFails(t *testing.T) {
	r := NewRunner(zerolog.Nop())

	rec, err := r.Run([]string{"/bin/sh", "-c", "exit 7"})
	require.NoError(t, err)

	final := waitRecord(t, r, rec.ID, interactive.StatusFailed)
	require.NotNil(t, final.ExitCode)
	assert.Equal(t, 7, *final.ExitCode)
}

func TestRunner_Cancel(t *testing.T) {
	r := NewRunner(zerolog.Nop())

	rec, err := r.Run([]string{"/bin/sh", "-c", "sleep 30"})
	require.NoError(t, err)
	waitRecord(t, r, rec.ID, interactive.StatusRunning)

	final, err := r.Cancel(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, interactive.StatusCancelled, final.Status)

	// No-op on an already terminal command.
	again, err := r.Cancel(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, interactive.StatusCancelled, again.Status)
}

func TestRunner_GetUnknown(t *testing.T) {
	r := NewRunner(zerolog.Nop())
	_, err := r.Get("no-such-id")
	assert.ErrorIs(t, err, interactive.ErrSessionNotFound)
}

func TestRunner_ListAndClear(t *testing.T) {
	r := NewRunner(zerolog.Nop())

	a, err := r.Run([]string{"/bin/sh", "-c", "true"})
	require.NoError(t, err)
	b, err := r.Run([]string{"/bin/sh", "-c", "true"})
	require.NoError(t, err)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	waitRecord(t, r, a.ID, interactive.StatusCompleted)
	waitRecord(t, r, b.ID, interactive.StatusCompleted)

	r.Clear()
	assert.Empty(t, r.List())
	_, err = r.Get(a.ID)
	assert.ErrorIs(t, err, interactive.ErrSessionNotFound)
}
