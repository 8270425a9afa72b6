//go:build !unix

package shell

import (
	"os"
	"os/exec"
)

// setProcessGroup is a no-op on platforms without POSIX process groups
// (e.g. Windows); the timeout helper falls back to killing the direct
// child process only.
func setProcessGroup(cmd *exec.Cmd) {}

// KillProcessGroup kills pid directly; platforms without POSIX process
// groups have no way to reach the whole group from just a PID.
func KillProcessGroup(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}
