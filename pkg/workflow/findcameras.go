package workflow

import "fmt"

// FindCameras describes a `lerobot-find-cameras` discovery run.
type FindCameras struct {
	Backend string `json:"backend,omitempty"`
}

var knownCameraBackends = map[string]bool{
	"opencv":    true,
	"realsense": true,
}

// Kind implements Descriptor.
func (f FindCameras) Kind() string { return "find-cameras" }

// Validate implements Descriptor.
func (f FindCameras) Validate() error {
	if f.Backend != "" && !knownCameraBackends[f.Backend] {
		return fmt.Errorf("find-cameras: unknown backend %q", f.Backend)
	}
	return nil
}

// Argv implements Descriptor.
func (f FindCameras) Argv() []string {
	backend := f.Backend
	if backend == "" {
		backend = "opencv"
	}
	return []string{"lerobot-find-cameras", backend}
}
