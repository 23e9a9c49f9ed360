package desktop

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"sync"
)

// ErrEmptyTarget is returned when there is nothing to open.
var ErrEmptyTarget = errors.New("nothing to open")

// CommandOpener hands targets to the platform's default handler
// (open, xdg-open or the Windows URL handler).
type CommandOpener struct {
	goos string
}

// NewOpener returns an opener for the running platform.
func NewOpener() *CommandOpener {
	return &CommandOpener{goos: runtime.GOOS}
}

// Command returns the command line that opens target.
func (o *CommandOpener) Command(target string) (string, []string) {
	switch o.goos {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}

func (o *CommandOpener) Open(ctx context.Context, target string) error {
	if target == "" {
		return ErrEmptyTarget
	}
	name, args := o.Command(target)
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %q: %w", target, err)
	}
	// The handler may outlive the launcher; reap it without blocking the caller.
	go func() { _ = cmd.Wait() }()
	return nil
}

// RecordingOpener remembers opened targets instead of opening them.
type RecordingOpener struct {
	mu     sync.Mutex
	opened []string
}

func (r *RecordingOpener) Open(ctx context.Context, target string) error {
	if target == "" {
		return ErrEmptyTarget
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, target)
	return nil
}

// Opened returns the targets opened so far.
func (r *RecordingOpener) Opened() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.opened...)
}
