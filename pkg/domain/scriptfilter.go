package domain

import "time"

// ScriptFilterResult is the normalized output of a script filter, whatever its encoding.
type ScriptFilterResult struct {
	Items     []ScriptFilterItem `json:"items"`
	Variables map[string]string  `json:"variables,omitempty"`
	// Rerun is the re-execution interval in milliseconds; zero disables it.
	Rerun float64 `json:"rerun,omitempty"`
}

// RerunInterval converts Rerun to a duration.
func (r ScriptFilterResult) RerunInterval() time.Duration {
	if r.Rerun <= 0 {
		return 0
	}
	return time.Duration(r.Rerun * float64(time.Millisecond))
}

// ScriptRequest asks the script runner to execute a shell command string.
type ScriptRequest struct {
	BundleID string

	// Dir is the working directory, usually the extension's install dir.
	Dir    string
	Script string

	// Shell overrides the runner's default shell.
	Shell string

	// Env is overlaid on the parent environment.
	Env     map[string]string
	Timeout time.Duration
}

// ScriptOutput is what a finished script produced.
type ScriptOutput struct {
	Stdout string
	Stderr string

	// All is stdout and stderr interleaved in arrival order.
	All      string
	ExitCode int
	Duration time.Duration
}
