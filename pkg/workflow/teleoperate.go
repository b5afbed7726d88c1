package workflow

import "fmt"

// Teleoperate describes a `lerobot-teleoperate` run pairing a leader
// arm with a follower arm.
type Teleoperate struct {
	RobotType  DeviceType `json:"robot_type"`
	RobotPort  string     `json:"robot_port"`
	RobotID    string     `json:"robot_id"`
	TeleopType DeviceType `json:"teleop_type"`
	TeleopPort string     `json:"teleop_port"`
	TeleopID   string     `json:"teleop_id"`

	FPS         int  `json:"fps,omitempty"`
	DisplayData bool `json:"display_data,omitempty"`
}

// Kind implements Descriptor.
func (t Teleoperate) Kind() string { return "teleoperate" }

// Validate implements Descriptor.
func (t Teleoperate) Validate() error {
	if !t.RobotType.Valid() {
		return fmt.Errorf("teleoperate: unknown robot type %q", t.RobotType)
	}
	if !t.TeleopType.Valid() {
		return fmt.Errorf("teleoperate: unknown teleop type %q", t.TeleopType)
	}
	if t.TeleopType == t.RobotType {
		return fmt.Errorf("teleoperate: leader and follower must differ, both are %q", t.RobotType)
	}
	for name, v := range map[string]string{
		"robot port":  t.RobotPort,
		"robot id":    t.RobotID,
		"teleop port": t.TeleopPort,
		"teleop id":   t.TeleopID,
	} {
		if v == "" {
			return fmt.Errorf("teleoperate: %s is required", name)
		}
	}
	if t.FPS < 0 {
		return fmt.Errorf("teleoperate: fps must not be negative, got %d", t.FPS)
	}
	return nil
}

// Argv implements Descriptor.
func (t Teleoperate) Argv() []string {
	argv := []string{
		"lerobot-teleoperate",
		fmt.Sprintf("--robot.type=%s", t.RobotType),
		fmt.Sprintf("--robot.port=%s", t.RobotPort),
		fmt.Sprintf("--robot.id=%s", t.RobotID),
		fmt.Sprintf("--teleop.type=%s", t.TeleopType),
		fmt.Sprintf("--teleop.port=%s", t.TeleopPort),
		fmt.Sprintf("--teleop.id=%s", t.TeleopID),
	}
	if t.FPS > 0 {
		argv = append(argv, fmt.Sprintf("--fps=%d", t.FPS))
	}
	if t.DisplayData {
		argv = append(argv, "--display_data=true")
	}
	return argv
}
