package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibrate(t *testing.T) {
	c := Calibrate{DeviceType: SO101Follower, Port: "/dev/ttyACM0", DeviceID: "main_follower"}
	require.NoError(t, c.Validate())
	assert.Equal(t, []string{
		"lerobot-calibrate",
		"--robot.type=so101_follower",
		"--robot.port=/dev/ttyACM0",
		"--robot.id=main_follower",
	}, c.Argv())

	c.Teleop = true
	c.DeviceType = SO101Leader
	require.NoError(t, c.Validate())
	assert.Equal(t, []string{
		"lerobot-calibrate",
		"--teleop.type=so101_leader",
		"--teleop.port=/dev/ttyACM0",
		"--teleop.id=main_follower",
	}, c.Argv())
}

func TestCalibrate_Validate(t *testing.T) {
	tests := []struct {
		name string
		c    Calibrate
	}{
		{"unknown type", Calibrate{DeviceType: "so99_leader", Port: "/dev/ttyACM0", DeviceID: "x"}},
		{"missing port", Calibrate{DeviceType: SO100Leader, DeviceID: "x"}},
		{"missing id", Calibrate{DeviceType: SO100Leader, Port: "/dev/ttyACM0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.c.Validate())
		})
	}
}

func validTeleoperate() Teleoperate {
	return Teleoperate{
		RobotType:  SO101Follower,
		RobotPort:  "/dev/ttyACM0",
		RobotID:    "main_follower",
		TeleopType: SO101Leader,
		TeleopPort: "/dev/ttyACM1",
		TeleopID:   "main_leader",
	}
}

func TestTeleoperate(t *testing.T) {
	tp := validTeleoperate()
	require.NoError(t, tp.Validate())

	argv := tp.Argv()
	assert.Equal(t, "lerobot-teleoperate", argv[0])
	assert.Contains(t, argv, "--robot.type=so101_follower")
	assert.Contains(t, argv, "--teleop.port=/dev/ttyACM1")
	assert.NotContains(t, strings.Join(argv, " "), "--fps")
	assert.NotContains(t, argv, "--display_data=true")

	tp.FPS = 60
	tp.DisplayData = true
	argv = tp.Argv()
	assert.Contains(t, argv, "--fps=60")
	assert.Contains(t, argv, "--display_data=true")
}

func TestTeleoperate_LeaderFollowerMustDiffer(t *testing.T) {
	tp := validTeleoperate()
	tp.TeleopType = tp.RobotType
	assert.Error(t, tp.Validate())
}

func validRecord() Record {
	return Record{
		RobotType:   SO100Follower,
		RobotPort:   "/dev/ttyACM0",
		RobotID:     "main_follower",
		TeleopType:  SO100Leader,
		TeleopPort:  "/dev/ttyACM1",
		TeleopID:    "main_leader",
		RepoID:      "lab/pick-place",
		NumEpisodes: 5,
		SingleTask:  "pick the cube",
		FPS:         30,
	}
}

func TestRecord_TeleopDriven(t *testing.T) {
	r := validRecord()
	require.NoError(t, r.Validate())

	argv := r.Argv()
	assert.Equal(t, "lerobot-record", argv[0])
	assert.Contains(t, argv, "--teleop.type=so100_leader")
	assert.Contains(t, argv, "--dataset.repo_id=lab/pick-place")
	assert.Contains(t, argv, "--dataset.num_episodes=5")
	assert.Contains(t, argv, "--dataset.single_task=pick the cube")
	// Timing defaults apply when unset.
	assert.Contains(t, argv, "--dataset.episode_time_s=30")
	assert.Contains(t, argv, "--dataset.reset_time_s=10")
	assert.NotContains(t, strings.Join(argv, " "), "--policy")
}

func TestRecord_PolicyDriven(t *testing.T) {
	r := validRecord()
	r.TeleopType = ""
	r.TeleopPort = ""
	r.TeleopID = ""
	r.PolicyPath = "outputs/train/act/checkpoint"
	r.PolicyType = "act"
	r.PolicyDevice = "cuda"
	require.NoError(t, r.Validate())

	argv := r.Argv()
	assert.Contains(t, argv, "--policy.path=outputs/train/act/checkpoint")
	assert.Contains(t, argv, "--policy.type=act")
	assert.Contains(t, argv, "--policy.device=cuda")
	assert.NotContains(t, strings.Join(argv, " "), "--teleop")
}

func TestRecord_TeleopPolicyExclusive(t *testing.T) {
	r := validRecord()
	r.PolicyPath = "outputs/train/act/checkpoint"
	assert.Error(t, r.Validate())

	r = validRecord()
	r.TeleopType = ""
	r.TeleopPort = ""
	r.TeleopID = ""
	assert.Error(t, r.Validate())
}

func TestRecord_CameraRendering(t *testing.T) {
	r := validRecord()
	r.Cameras = []Camera{
		{Name: "front", IndexOrPath: "0"},
		{Name: "wrist", Type: "opencv", IndexOrPath: "/dev/video2", Width: 1280, Height: 720, FPS: 60},
	}
	require.NoError(t, r.Validate())

	joined := strings.Join(r.Argv(), " ")
	assert.Contains(t, joined, "--robot.cameras={front: {type: opencv, index_or_path: 0, width: 640, height: 480, fps: 30}, wrist: {type: opencv, index_or_path: /dev/video2, width: 1280, height: 720, fps: 60}}")
}

func TestRecord_CameraValidation(t *testing.T) {
	r := validRecord()
	r.Cameras = []Camera{{Name: "", IndexOrPath: "0"}}
	assert.Error(t, r.Validate())

	r.Cameras = []Camera{{Name: "front"}}
	assert.Error(t, r.Validate())
}

func TestReplay(t *testing.T) {
	r := Replay{RobotType: SO101Follower, RobotPort: "/dev/ttyACM0", RobotID: "f", RepoID: "lab/demo", Episode: 2}
	require.NoError(t, r.Validate())
	assert.Equal(t, []string{
		"lerobot-replay",
		"--robot.type=so101_follower",
		"--robot.port=/dev/ttyACM0",
		"--robot.id=f",
		"--dataset.repo_id=lab/demo",
		"--dataset.episode=2",
	}, r.Argv())

	r.Episode = -1
	assert.Error(t, r.Validate())
}

func TestTrain(t *testing.T) {
	tr := Train{
		PolicyType:    "act",
		PolicyDevice:  "cuda",
		DatasetRepoID: "lab/demo",
		OutputDir:     "outputs/train/act",
		Steps:         1000,
	}
	require.NoError(t, tr.Validate())

	argv := tr.Argv()
	assert.Contains(t, argv, "--policy.push_to_hub=false")
	assert.Contains(t, argv, "--steps=1000")
	assert.NotContains(t, strings.Join(argv, " "), "--policy.repo_id")

	tr.PolicyRepoID = "lab/act-policy"
	tr.PushToHub = true
	argv = tr.Argv()
	assert.Contains(t, argv, "--policy.repo_id=lab/act-policy")
	assert.Contains(t, argv, "--policy.push_to_hub=true")

	tr.Steps = 0
	assert.Error(t, tr.Validate())
}

func TestEval(t *testing.T) {
	e := Eval{PolicyType: "act", PolicyDevice: "cuda", PolicyPath: "outputs/train/act", DatasetRepoID: "lab/demo"}
	require.NoError(t, e.Validate())
	assert.Equal(t, "lerobot-eval", e.Argv()[0])

	e.PolicyPath = ""
	assert.Error(t, e.Validate())
}

func TestFindCameras(t *testing.T) {
	f := FindCameras{}
	require.NoError(t, f.Validate())
	assert.Equal(t, []string{"lerobot-find-cameras", "opencv"}, f.Argv())

	f.Backend = "realsense"
	require.NoError(t, f.Validate())
	assert.Equal(t, []string{"lerobot-find-cameras", "realsense"}, f.Argv())

	f.Backend = "gstreamer"
	assert.Error(t, f.Validate())
}

func TestDeviceType(t *testing.T) {
	assert.True(t, SO100Leader.Valid())
	assert.True(t, SO101Follower.Valid())
	assert.False(t, DeviceType("so99_leader").Valid())

	assert.True(t, SO100Leader.Leader())
	assert.True(t, SO101Leader.Leader())
	assert.False(t, SO100Follower.Leader())
}
