//go:build !windows

package worker

import (
	"fmt"
	"os/exec"
	"syscall"
)

// configureProcAttr puts the child in its own process group so the worker can
// kill the script together with any processes it spawned.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// killProcessGroup signals an entire process group (negative PID); if that
// fails it falls back to signalling the single process.
func killProcessGroup(pid int, sig syscall.Signal) error {
	if err := syscall.Kill(-pid, sig); err != nil {
		if err2 := syscall.Kill(pid, sig); err2 != nil {
			return fmt.Errorf("failed to kill process group -%d: %v, also failed to kill process %d: %v",
				pid, err, pid, err2)
		}
	}
	return nil
}
