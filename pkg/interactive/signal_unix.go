//go:build unix

package interactive

import "syscall"

// terminateTree signals the whole process group rooted at pid. The
// supervisor starts every child on its own pty session, which makes it
// a session and group leader, so signalling -pgid reaches any
// descendants it spawned. force escalates from SIGTERM to SIGKILL.
func terminateTree(pid int, force bool) error {
	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}

	pgid, err := syscall.Getpgid(pid)
	if err != nil {
		// Group already gone; fall back to the direct pid in case the
		// process was reparented.
		return syscall.Kill(pid, sig)
	}
	return syscall.Kill(-pgid, sig)
}
