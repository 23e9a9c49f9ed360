package domain

import (
	"time"

	"github.com/aretw0/arvis/pkg/async"
)

// TriggerType is the kind of interactive mode a stack frame represents.
type TriggerType string

const (
	TriggerKeyword      TriggerType = "keyword"
	TriggerScriptFilter TriggerType = "scriptFilter"
	TriggerHotkey       TriggerType = "hotkey"
)

// IsTriggerType reports whether an action or command type opens a new interactive mode.
// Hotkeys are entry points, not modes, so they are excluded.
func IsTriggerType(t string) bool {
	return t == string(TriggerKeyword) || t == string(TriggerScriptFilter)
}

// ScriptFilterState is the tri-state completion flag of a script filter frame.
type ScriptFilterState int

const (
	// ScriptFilterUnknown means no script filter was started for the frame.
	ScriptFilterUnknown ScriptFilterState = iota
	ScriptFilterRunning
	ScriptFilterCompleted
)

// Trigger is one frame of the trigger stack.
// The top frame is always the one receiving input.
type Trigger struct {
	// Type is fixed for the lifetime of the frame.
	Type TriggerType

	// Input is the raw text associated with this mode.
	Input string

	// BundleID identifies the owning extension.
	BundleID string

	// Args is the last computed argument mapping.
	Args Args

	// Actions run when an item of this frame is activated.
	Actions []Action

	// Origin is the command, plugin item or action that created the frame.
	Origin Origin

	// ScriptFilter tracks whether the frame's script filter is running or completed.
	ScriptFilter ScriptFilterState

	// Proc is the outstanding script filter future, if any.
	Proc *async.Future[ScriptOutput]

	// Rerun is the automatic re-execution interval declared by the last result.
	Rerun time.Duration

	// Items caches the last rendered rows so the view can be restored on pop.
	Items []ScriptFilterItem
}

// NewTrigger creates a frame of the given type.
func NewTrigger(t TriggerType, bundleID, input string, origin Origin) *Trigger {
	return &Trigger{
		Type:     t,
		BundleID: bundleID,
		Input:    input,
		Origin:   origin,
		Args:     Args{},
	}
}

// OriginType returns the type of the frame's origin, or "" when it has none.
func (t *Trigger) OriginType() string {
	if t == nil || t.Origin == nil {
		return ""
	}
	return t.Origin.OriginType()
}
