//go:build !windows

package executor

import (
	"errors"
	"os/exec"
	"syscall"
)

// configureCommand starts the child in its own process group so the whole
// group can be signalled, including descendants that outlive the child.
func configureCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessTree kills the process group led by pid. The group survives its
// leader, so this also reaches background descendants after the direct child
// has exited.
func killProcessTree(pid int) error {
	err := syscall.Kill(-pid, syscall.SIGKILL)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	// Group kill refused; walk the tree instead.
	return killTree(int32(pid))
}
