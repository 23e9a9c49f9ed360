//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

func builtinShells() map[string]Shell {
	return map[string]Shell{
		"sh":   {Name: "sh", Command: "/bin/sh", Args: []string{"-c"}},
		"bash": {Name: "bash", Command: "bash", Args: []string{"-c"}},
		"zsh":  {Name: "zsh", Command: "zsh", Args: []string{"-c"}},
		"node": {Name: "node", Command: "node", Args: []string{"-e"}},
	}
}

func defaultShellName() string { return "sh" }

func prepareCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup signals the script's whole process group.
func signalGroup(cmd *exec.Cmd, force bool) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil || pgid <= 0 {
		_ = cmd.Process.Signal(sig)
		return
	}
	_ = syscall.Kill(-pgid, sig)
}
