package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTriggerPush      EventType = "trigger_push"
	EventTriggerPop       EventType = "trigger_pop"
	EventScriptFilterRun  EventType = "scriptfilter_run"
	EventScriptFilterDone EventType = "scriptfilter_done"
	EventActionDispatch   EventType = "action_dispatch"
)

// ScriptFilterStatus is how a script filter run ended.
type ScriptFilterStatus string

const (
	StatusCompleted ScriptFilterStatus = "completed"
	StatusCanceled  ScriptFilterStatus = "canceled"
	StatusTimeout   ScriptFilterStatus = "timeout"
	StatusFailed    ScriptFilterStatus = "failed"
	// StatusStale marks a result discarded because a newer run superseded it.
	StatusStale ScriptFilterStatus = "stale"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// TriggerEvent represents a push or pop of the trigger stack.
type TriggerEvent struct {
	EventBase
	TriggerType TriggerType `json:"trigger_type"`
	BundleID    string      `json:"bundle_id"`
	Depth       int         `json:"depth"`
}

// ScriptFilterEvent represents the start or end of a script filter run.
type ScriptFilterEvent struct {
	EventBase
	BundleID string             `json:"bundle_id"`
	Input    string             `json:"input"`
	Status   ScriptFilterStatus `json:"status,omitempty"`
	Items    int                `json:"items,omitempty"`
	Duration time.Duration      `json:"duration,omitempty"`
}

// ActionEvent represents an action handed to the dispatcher.
type ActionEvent struct {
	EventBase
	ActionType ActionType `json:"action_type"`
	BundleID   string     `json:"bundle_id"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTriggerPush      func(context.Context, *TriggerEvent)
	OnTriggerPop       func(context.Context, *TriggerEvent)
	OnScriptFilterRun  func(context.Context, *ScriptFilterEvent)
	OnScriptFilterDone func(context.Context, *ScriptFilterEvent)
	OnActionDispatch   func(context.Context, *ActionEvent)
}

// Merge combines two hook sets; both callbacks run, a first.
func (a LifecycleHooks) Merge(b LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTriggerPush:      chain(a.OnTriggerPush, b.OnTriggerPush),
		OnTriggerPop:       chain(a.OnTriggerPop, b.OnTriggerPop),
		OnScriptFilterRun:  chain(a.OnScriptFilterRun, b.OnScriptFilterRun),
		OnScriptFilterDone: chain(a.OnScriptFilterDone, b.OnScriptFilterDone),
		OnActionDispatch:   chain(a.OnActionDispatch, b.OnActionDispatch),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
