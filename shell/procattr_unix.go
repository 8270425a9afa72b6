//go:build unix

package shell

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts the child in its own process group so that a
// timeout or cancellation can kill it together with any of its own
// children, per spec §5's "killed via process group" requirement.
// Grounded on the source's platform split (_platform/ProcessUtilsUnix.cpp).
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends sig to the process group led by pid.
func killProcessGroup(pid int, sig syscall.Signal) error {
	return syscall.Kill(-pid, sig)
}

// KillProcessGroup kills the process group led by pid, for use by a
// timeout helper that only knows the child's PID. Exported for reuse
// outside this package (the scheduler's per-test Timer).
func KillProcessGroup(pid int) error {
	return killProcessGroup(pid, syscall.SIGKILL)
}
