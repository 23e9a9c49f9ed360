//go:build windows

package process

import "os/exec"

func builtinShells() map[string]Shell {
	return map[string]Shell{
		"cmd":        {Name: "cmd", Command: "cmd", Args: []string{"/C"}},
		"powershell": {Name: "powershell", Command: "powershell", Args: []string{"-NoProfile", "-Command"}},
		"node":       {Name: "node", Command: "node", Args: []string{"-e"}},
	}
}

func defaultShellName() string { return "cmd" }

func prepareCommand(cmd *exec.Cmd) {}

func signalGroup(cmd *exec.Cmd, force bool) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
