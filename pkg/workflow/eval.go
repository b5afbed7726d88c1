package workflow

import "fmt"

// Eval describes a `lerobot-eval` policy evaluation run.
type Eval struct {
	PolicyType    string `json:"policy_type"`
	PolicyDevice  string `json:"policy_device"`
	PolicyPath    string `json:"policy_path"`
	DatasetRepoID string `json:"dataset_repo_id"`
}

// Kind implements Descriptor.
func (e Eval) Kind() string { return "eval" }

// Validate implements Descriptor.
func (e Eval) Validate() error {
	if e.PolicyType == "" {
		return fmt.Errorf("eval: policy type is required")
	}
	if e.PolicyDevice == "" {
		return fmt.Errorf("eval: policy device is required")
	}
	if e.PolicyPath == "" {
		return fmt.Errorf("eval: policy path is required")
	}
	if e.DatasetRepoID == "" {
		return fmt.Errorf("eval: dataset repo id is required")
	}
	return nil
}

// Argv implements Descriptor.
func (e Eval) Argv() []string {
	return []string{
		"lerobot-eval",
		fmt.Sprintf("--policy.type=%s", e.PolicyType),
		fmt.Sprintf("--policy.device=%s", e.PolicyDevice),
		fmt.Sprintf("--policy.path=%s", e.PolicyPath),
		fmt.Sprintf("--dataset.repo_id=%s", e.DatasetRepoID),
	}
}
