package workflow

import "fmt"

// DeviceType identifies a supported arm model and role.
type DeviceType string

const (
	SO100Leader   DeviceType = "so100_leader"
	SO100Follower DeviceType = "so100_follower"
	SO101Leader   DeviceType = "so101_leader"
	SO101Follower DeviceType = "so101_follower"
)

var knownDeviceTypes = map[DeviceType]bool{
	SO100Leader:   true,
	SO100Follower: true,
	SO101Leader:   true,
	SO101Follower: true,
}

// Valid reports whether the device type is a supported arm model.
func (d DeviceType) Valid() bool {
	return knownDeviceTypes[d]
}

// Leader reports whether the device is a leader (teleoperator) arm.
func (d DeviceType) Leader() bool {
	return d == SO100Leader || d == SO101Leader
}

// Camera describes one camera attached to a recording run.
type Camera struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	IndexOrPath string `json:"index_or_path"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	FPS         int    `json:"fps"`
}

// normalize fills camera defaults the way the lerobot tools expect them.
func (c Camera) normalize() Camera {
	if c.Type == "" {
		c.Type = "opencv"
	}
	if c.Width == 0 {
		c.Width = 640
	}
	if c.Height == 0 {
		c.Height = 480
	}
	if c.FPS == 0 {
		c.FPS = 30
	}
	return c
}

func (c Camera) validate() error {
	if c.Name == "" {
		return fmt.Errorf("camera name is required")
	}
	if c.IndexOrPath == "" {
		return fmt.Errorf("camera %q: index_or_path is required", c.Name)
	}
	return nil
}

// Descriptor is a validated, structured description of one lerobot
// invocation. Argv renders the exact argument vector to spawn.
type Descriptor interface {
	Kind() string
	Validate() error
	Argv() []string
}
