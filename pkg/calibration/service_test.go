package calibration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robolab/robomgr/pkg/workflow"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	return NewService(t.TempDir(), zerolog.Nop())
}

func writeCalibration(t *testing.T, svc *Service, kindDir, typeDir, id, content string) string {
	t.Helper()
	dir := filepath.Join(svc.Root(), kindDir, typeDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, id+".json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestService_FilePath(t *testing.T) {
	svc := setupService(t)

	// so100 and so101 share calibration directories.
	assert.Equal(t,
		filepath.Join(svc.Root(), "robots", "so_follower", "main.json"),
		svc.FilePath(workflow.SO101Follower, "main", false))
	assert.Equal(t,
		filepath.Join(svc.Root(), "teleoperators", "so_leader", "main.json"),
		svc.FilePath(workflow.SO100Leader, "main", true))
}

func TestService_List(t *testing.T) {
	svc := setupService(t)
	writeCalibration(t, svc, "robots", "so_follower", "main_follower", `{"shoulder": 2048}`)
	writeCalibration(t, svc, "teleoperators", "so_leader", "main_leader", `{"shoulder": 1024}`)
	writeCalibration(t, svc, "teleoperators", "so_leader", "broken", "")

	entries, err := svc.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byID := make(map[string]Entry)
	for _, e := range entries {
		byID[e.DeviceID] = e
	}
	assert.Equal(t, KindRobot, byID["main_follower"].Kind)
	assert.Equal(t, "so_follower", byID["main_follower"].TypeDir)
	assert.False(t, byID["main_follower"].Corrupt)
	assert.Equal(t, KindTeleop, byID["main_leader"].Kind)
	assert.True(t, byID["broken"].Corrupt)
}

func TestService_ListEmptyRoot(t *testing.T) {
	svc := setupService(t)
	entries, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_PruneCorrupt(t *testing.T) {
	svc := setupService(t)
	keep := writeCalibration(t, svc, "robots", "so_follower", "good", `{"shoulder": 2048}`)
	empty := writeCalibration(t, svc, "robots", "so_follower", "empty", "")
	invalid := writeCalibration(t, svc, "teleoperators", "so_leader", "mangled", "{not json")

	removed, err := svc.PruneCorrupt()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{empty, invalid}, removed)

	_, err = os.Stat(keep)
	assert.NoError(t, err)
	_, err = os.Stat(empty)
	assert.True(t, os.IsNotExist(err))
}

func TestService_Reset(t *testing.T) {
	svc := setupService(t)
	robot := writeCalibration(t, svc, "robots", "so_follower", "main", `{}`)
	teleop := writeCalibration(t, svc, "teleoperators", "so_leader", "main", `{}`)
	other := writeCalibration(t, svc, "robots", "so_follower", "other", `{}`)

	removed, err := svc.Reset("main", KindRobot)
	require.NoError(t, err)
	assert.Equal(t, []string{robot}, removed)
	_, err = os.Stat(teleop)
	assert.NoError(t, err)

	removed, err = svc.Reset("main", KindAll)
	require.NoError(t, err)
	assert.Equal(t, []string{teleop}, removed)

	// Untouched device survives every reset.
	_, err = os.Stat(other)
	assert.NoError(t, err)

	// Resetting a device with no files removes nothing.
	removed, err = svc.Reset("ghost", KindAll)
	require.NoError(t, err)
	assert.Empty(t, removed)
}
