//go:build unix

package plugin

import (
	"os/exec"
	"syscall"
)

// isolate starts the plugin in its own process group so a timeout kills
// anything it spawned along with it.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
