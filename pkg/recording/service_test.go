package recording

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robolab/robomgr/internal/store"
	"github.com/robolab/robomgr/pkg/workflow"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewService(st, zerolog.Nop())
}

func validConfig() *store.RecordingConfig {
	return &store.RecordingConfig{
		Name:      "pick place",
		RobotType: workflow.SO101Follower,
		RobotPort: "/dev/ttyACM0",
		RobotID:   "main_follower",
		Cameras: []workflow.Camera{
			{Name: "front", IndexOrPath: "0"},
		},
		TeleopType:  workflow.SO101Leader,
		TeleopPort:  "/dev/ttyACM1",
		TeleopID:    "main_leader",
		RepoID:      "lab/pick-place",
		NumEpisodes: 5,
		SingleTask:  "pick the cube",
		FPS:         30,
	}
}

func TestService_CreateConfigAssignsID(t *testing.T) {
	svc := setupService(t)

	created, err := svc.CreateConfig(validConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := svc.GetConfig(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "pick place", got.Name)
}

func TestService_CreateConfigValidates(t *testing.T) {
	svc := setupService(t)

	cfg := validConfig()
	cfg.NumEpisodes = 0
	_, err := svc.CreateConfig(cfg)
	assert.Error(t, err)

	// Teleop and policy together are rejected.
	cfg = validConfig()
	cfg.PolicyPath = "outputs/train/act"
	_, err = svc.CreateConfig(cfg)
	assert.Error(t, err)
}

func TestService_UpdateConfig(t *testing.T) {
	svc := setupService(t)
	created, err := svc.CreateConfig(validConfig())
	require.NoError(t, err)

	created.Name = "renamed"
	require.NoError(t, svc.UpdateConfig(created))

	got, err := svc.GetConfig(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	missing := validConfig()
	missing.ID = "missing"
	assert.ErrorIs(t, svc.UpdateConfig(missing), store.ErrNotFound)
}

func TestService_DatasetLifecycle(t *testing.T) {
	svc := setupService(t)
	cfg, err := svc.CreateConfig(validConfig())
	require.NoError(t, err)

	d, err := svc.CreateDataset(cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, DatasetCreated, d.Status)
	assert.Equal(t, cfg.RepoID, d.RepoID)
	assert.Equal(t, cfg.NumEpisodes, d.TotalEpisodes)

	require.NoError(t, svc.UpdateDatasetStatus(d.ID, DatasetRecording, -1))
	require.NoError(t, svc.UpdateDatasetStatus(d.ID, DatasetCompleted, 5))

	got, err := svc.GetDataset(d.ID)
	require.NoError(t, err)
	assert.Equal(t, DatasetCompleted, got.Status)
	assert.Equal(t, 5, got.CompletedEpisodes)

	_, err = svc.CreateDataset("missing-config")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_Episodes(t *testing.T) {
	svc := setupService(t)
	cfg, err := svc.CreateConfig(validConfig())
	require.NoError(t, err)
	d, err := svc.CreateDataset(cfg.ID)
	require.NoError(t, err)

	e, err := svc.CreateEpisode(d.ID, 0)
	require.NoError(t, err)
	assert.NotZero(t, e.ID)

	e.Status = "completed"
	e.SessionID = "sess-1"
	require.NoError(t, svc.UpdateEpisode(e))

	episodes, err := svc.ListEpisodes(d.ID)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, "completed", episodes[0].Status)

	_, err = svc.CreateEpisode("missing-dataset", 0)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_BuildRecord(t *testing.T) {
	svc := setupService(t)
	cfg, err := svc.CreateConfig(validConfig())
	require.NoError(t, err)

	rec, err := svc.BuildRecord(cfg.ID, false)
	require.NoError(t, err)
	assert.Equal(t, cfg.RobotType, rec.RobotType)
	assert.Equal(t, cfg.RepoID, rec.RepoID)

	joined := strings.Join(rec.Argv(), " ")
	assert.Contains(t, joined, "--dataset.repo_id=lab/pick-place")
	assert.Contains(t, joined, "--teleop.id=main_leader")

	_, err = svc.BuildRecord("missing", false)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDatasetDir(t *testing.T) {
	dir, err := DatasetDir("lab/pick-place")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(dir, filepath.Join(".cache", "huggingface", "lerobot", "lab", "pick-place")))
}
