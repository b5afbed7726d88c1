package workflow

import "fmt"

// Replay describes a `lerobot-replay` run of one recorded episode.
type Replay struct {
	RobotType DeviceType `json:"robot_type"`
	RobotPort string     `json:"robot_port"`
	RobotID   string     `json:"robot_id"`
	RepoID    string     `json:"repo_id"`
	Episode   int        `json:"episode"`
}

// Kind implements Descriptor.
func (r Replay) Kind() string { return "replay" }

// Validate implements Descriptor.
func (r Replay) Validate() error {
	if !r.RobotType.Valid() {
		return fmt.Errorf("replay: unknown robot type %q", r.RobotType)
	}
	if r.RobotPort == "" || r.RobotID == "" {
		return fmt.Errorf("replay: robot port and id are required")
	}
	if r.RepoID == "" {
		return fmt.Errorf("replay: dataset repo id is required")
	}
	if r.Episode < 0 {
		return fmt.Errorf("replay: episode must not be negative, got %d", r.Episode)
	}
	return nil
}

// Argv implements Descriptor.
func (r Replay) Argv() []string {
	return []string{
		"lerobot-replay",
		fmt.Sprintf("--robot.type=%s", r.RobotType),
		fmt.Sprintf("--robot.port=%s", r.RobotPort),
		fmt.Sprintf("--robot.id=%s", r.RobotID),
		fmt.Sprintf("--dataset.repo_id=%s", r.RepoID),
		fmt.Sprintf("--dataset.episode=%d", r.Episode),
	}
}
