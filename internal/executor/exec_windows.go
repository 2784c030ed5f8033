//go:build windows

package executor

import (
	"os/exec"
	"syscall"
)

// createNoWindow keeps console tools from flashing a window when the host
// application is a GUI process.
const createNoWindow = 0x08000000

func configureCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: createNoWindow,
		HideWindow:    true,
	}
}

// killProcessTree walks the descendants of pid and kills them with pid.
// Windows has no process groups that can be signalled as a unit.
func killProcessTree(pid int) error {
	return killTree(int32(pid))
}
