//go:build unix

package testrun

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcGroup runs the command in its own process group so test runners
// that fork workers can be killed as a unit.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcGroup kills the entire process group of the command.
func killProcGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
}

// setDetached starts the command in a new session, detached from the
// invoking hook's terminal and process group.
func setDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
