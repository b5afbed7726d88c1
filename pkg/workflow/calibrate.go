package workflow

import "fmt"

// Calibrate describes a `lerobot-calibrate` run for one arm. Teleop
// selects whether the arm is addressed as a teleoperator or a robot,
// which changes the flag namespace the tool expects.
type Calibrate struct {
	DeviceType DeviceType `json:"device_type"`
	Port       string     `json:"port"`
	DeviceID   string     `json:"device_id"`
	Teleop     bool       `json:"teleop"`
}

// Kind implements Descriptor.
func (c Calibrate) Kind() string { return "calibrate" }

// Validate implements Descriptor.
func (c Calibrate) Validate() error {
	if !c.DeviceType.Valid() {
		return fmt.Errorf("calibrate: unknown device type %q", c.DeviceType)
	}
	if c.Port == "" {
		return fmt.Errorf("calibrate: port is required")
	}
	if c.DeviceID == "" {
		return fmt.Errorf("calibrate: device id is required")
	}
	return nil
}

// Argv implements Descriptor.
func (c Calibrate) Argv() []string {
	prefix := "robot"
	if c.Teleop {
		prefix = "teleop"
	}
	return []string{
		"lerobot-calibrate",
		fmt.Sprintf("--%s.type=%s", prefix, c.DeviceType),
		fmt.Sprintf("--%s.port=%s", prefix, c.Port),
		fmt.Sprintf("--%s.id=%s", prefix, c.DeviceID),
	}
}
