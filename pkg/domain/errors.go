package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrHostNotSet is returned when an entry point that reaches the host runs before all host
// callbacks are registered.
var ErrHostNotSet = errors.New("host callbacks are not set")

// ErrMissingCommand is returned when a script filter starts on an empty stack without a command.
var ErrMissingCommand = errors.New("a command must be given when the trigger stack is empty")

// ErrExtensionNotFound is returned when a bundle id is not installed.
var ErrExtensionNotFound = errors.New("extension not found")

// ErrNotScriptFilter is returned when a frame's origin carries no script filter.
var ErrNotScriptFilter = errors.New("origin is not a script filter")

// ErrEmptyStack is returned by operations that need an active trigger frame.
var ErrEmptyStack = errors.New("trigger stack is empty")

// ScriptError is the tagged failure of a script run.
type ScriptError struct {
	Script   string
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Canceled bool
	Err      error
}

func (e *ScriptError) Error() string {
	var b strings.Builder
	switch {
	case e.TimedOut:
		b.WriteString("script timed out")
	case e.Canceled:
		b.WriteString("script canceled")
	default:
		fmt.Fprintf(&b, "script failed with exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, "\n%s", s)
	}
	return b.String()
}

func (e *ScriptError) Unwrap() error { return e.Err }

// ParseError wraps a script filter output that could not be parsed.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("script format error: %v\n\nstdout: %s", e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsCanceled reports whether err is a cancellation.
func IsCanceled(err error) bool {
	var se *ScriptError
	if errors.As(err, &se) && se.Canceled {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool {
	var se *ScriptError
	if errors.As(err, &se) && se.TimedOut {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
