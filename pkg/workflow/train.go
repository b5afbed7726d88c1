package workflow

import "fmt"

// Train describes a `lerobot-train` policy training run. Training runs
// are typically the longest sessions the engine supervises; callers
// should not arm a maximum duration on them.
type Train struct {
	PolicyType    string `json:"policy_type"`
	PolicyDevice  string `json:"policy_device"`
	PolicyRepoID  string `json:"policy_repo_id,omitempty"`
	PushToHub     bool   `json:"push_to_hub"`
	DatasetRepoID string `json:"dataset_repo_id"`
	OutputDir     string `json:"output_dir"`
	Steps         int    `json:"steps"`
}

// Kind implements Descriptor.
func (t Train) Kind() string { return "train" }

// Validate implements Descriptor.
func (t Train) Validate() error {
	if t.PolicyType == "" {
		return fmt.Errorf("train: policy type is required")
	}
	if t.PolicyDevice == "" {
		return fmt.Errorf("train: policy device is required")
	}
	if t.DatasetRepoID == "" {
		return fmt.Errorf("train: dataset repo id is required")
	}
	if t.OutputDir == "" {
		return fmt.Errorf("train: output dir is required")
	}
	if t.Steps < 1 {
		return fmt.Errorf("train: steps must be at least 1, got %d", t.Steps)
	}
	return nil
}

// Argv implements Descriptor.
func (t Train) Argv() []string {
	argv := []string{
		"lerobot-train",
		fmt.Sprintf("--policy.type=%s", t.PolicyType),
		fmt.Sprintf("--policy.device=%s", t.PolicyDevice),
	}
	if t.PolicyRepoID != "" {
		argv = append(argv, fmt.Sprintf("--policy.repo_id=%s", t.PolicyRepoID))
	}
	argv = append(argv,
		fmt.Sprintf("--policy.push_to_hub=%t", t.PushToHub),
		fmt.Sprintf("--dataset.repo_id=%s", t.DatasetRepoID),
		fmt.Sprintf("--output_dir=%s", t.OutputDir),
		fmt.Sprintf("--steps=%d", t.Steps),
	)
	return argv
}
