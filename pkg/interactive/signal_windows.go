//go:build windows

package interactive

import "os"

// terminateTree kills the process directly. Windows has no process
// groups in the POSIX sense; descendant cleanup would require job
// objects, which the supported robot tooling does not need.
func terminateTree(pid int, force bool) error {
	_ = force
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}
