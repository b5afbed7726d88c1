package workflow

import (
	"fmt"
	"strings"
)

// Record describes a `lerobot-record` dataset recording run. The robot
// is driven either by a teleoperator arm or by a trained policy,
// exactly one of the two.
type Record struct {
	RobotType DeviceType `json:"robot_type"`
	RobotPort string     `json:"robot_port"`
	RobotID   string     `json:"robot_id"`
	Cameras   []Camera   `json:"cameras,omitempty"`

	TeleopType DeviceType `json:"teleop_type,omitempty"`
	TeleopPort string     `json:"teleop_port,omitempty"`
	TeleopID   string     `json:"teleop_id,omitempty"`

	PolicyPath   string `json:"policy_path,omitempty"`
	PolicyType   string `json:"policy_type,omitempty"`
	PolicyDevice string `json:"policy_device,omitempty"`

	RepoID        string `json:"repo_id"`
	NumEpisodes   int    `json:"num_episodes"`
	SingleTask    string `json:"single_task,omitempty"`
	FPS           int    `json:"fps"`
	EpisodeTimeS  int    `json:"episode_time_s"`
	ResetTimeS    int    `json:"reset_time_s"`
	PushToHub     bool   `json:"push_to_hub"`
	DisplayData   bool   `json:"display_data"`
	PlaySounds    bool   `json:"play_sounds"`
}

// Kind implements Descriptor.
func (r Record) Kind() string { return "record" }

// Validate implements Descriptor.
func (r Record) Validate() error {
	if !r.RobotType.Valid() {
		return fmt.Errorf("record: unknown robot type %q", r.RobotType)
	}
	if r.RobotPort == "" || r.RobotID == "" {
		return fmt.Errorf("record: robot port and id are required")
	}
	if r.RepoID == "" {
		return fmt.Errorf("record: dataset repo id is required")
	}
	if r.NumEpisodes < 1 {
		return fmt.Errorf("record: num_episodes must be at least 1, got %d", r.NumEpisodes)
	}
	if r.FPS < 1 {
		return fmt.Errorf("record: fps must be at least 1, got %d", r.FPS)
	}

	hasTeleop := r.TeleopType != "" || r.TeleopPort != "" || r.TeleopID != ""
	hasPolicy := r.PolicyPath != ""
	switch {
	case hasTeleop && hasPolicy:
		return fmt.Errorf("record: teleop and policy are mutually exclusive")
	case !hasTeleop && !hasPolicy:
		return fmt.Errorf("record: either a teleop arm or a policy path is required")
	case hasTeleop:
		if !r.TeleopType.Valid() {
			return fmt.Errorf("record: unknown teleop type %q", r.TeleopType)
		}
		if r.TeleopPort == "" || r.TeleopID == "" {
			return fmt.Errorf("record: teleop port and id are required")
		}
	}

	for _, cam := range r.Cameras {
		if err := cam.validate(); err != nil {
			return fmt.Errorf("record: %w", err)
		}
	}
	return nil
}

// Argv implements Descriptor.
func (r Record) Argv() []string {
	argv := []string{
		"lerobot-record",
		fmt.Sprintf("--robot.type=%s", r.RobotType),
		fmt.Sprintf("--robot.port=%s", r.RobotPort),
		fmt.Sprintf("--robot.id=%s", r.RobotID),
	}

	if len(r.Cameras) > 0 {
		argv = append(argv, "--robot.cameras="+renderCameras(r.Cameras))
	}

	if r.PolicyPath != "" {
		argv = append(argv, fmt.Sprintf("--policy.path=%s", r.PolicyPath))
		if r.PolicyType != "" {
			argv = append(argv, fmt.Sprintf("--policy.type=%s", r.PolicyType))
		}
		if r.PolicyDevice != "" {
			argv = append(argv, fmt.Sprintf("--policy.device=%s", r.PolicyDevice))
		}
	} else {
		argv = append(argv,
			fmt.Sprintf("--teleop.type=%s", r.TeleopType),
			fmt.Sprintf("--teleop.port=%s", r.TeleopPort),
			fmt.Sprintf("--teleop.id=%s", r.TeleopID),
		)
	}

	argv = append(argv,
		fmt.Sprintf("--dataset.repo_id=%s", r.RepoID),
		fmt.Sprintf("--dataset.num_episodes=%d", r.NumEpisodes),
	)
	if r.SingleTask != "" {
		argv = append(argv, fmt.Sprintf("--dataset.single_task=%s", r.SingleTask))
	}

	episodeTime := r.EpisodeTimeS
	if episodeTime == 0 {
		episodeTime = 30
	}
	resetTime := r.ResetTimeS
	if resetTime == 0 {
		resetTime = 10
	}

	argv = append(argv,
		fmt.Sprintf("--dataset.fps=%d", r.FPS),
		fmt.Sprintf("--dataset.episode_time_s=%d", episodeTime),
		fmt.Sprintf("--dataset.reset_time_s=%d", resetTime),
		fmt.Sprintf("--dataset.push_to_hub=%t", r.PushToHub),
		fmt.Sprintf("--display_data=%t", r.DisplayData),
		fmt.Sprintf("--play_sounds=%t", r.PlaySounds),
	)
	return argv
}

// renderCameras renders the camera map literal the lerobot config
// parser expects: {name: {type: opencv, index_or_path: 0, ...}, ...}.
func renderCameras(cams []Camera) string {
	parts := make([]string, 0, len(cams))
	for _, cam := range cams {
		c := cam.normalize()
		parts = append(parts, fmt.Sprintf(
			"%s: {type: %s, index_or_path: %s, width: %d, height: %d, fps: %d}",
			c.Name, c.Type, c.IndexOrPath, c.Width, c.Height, c.FPS,
		))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
