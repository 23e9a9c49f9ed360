package runtime

import (
	"context"

	"github.com/aretw0/arvis/pkg/domain"
)

// Top returns the frame currently receiving input, or nil when the stack is empty.
func (e *Engine) Top() *domain.Trigger {
	if len(e.stack) == 0 {
		return nil
	}
	return e.stack[len(e.stack)-1]
}

// Depth returns the number of frames on the trigger stack.
func (e *Engine) Depth() int { return len(e.stack) }

// Triggers returns a snapshot of the stack, bottom first.
func (e *Engine) Triggers() []domain.Trigger {
	out := make([]domain.Trigger, len(e.stack))
	for i, t := range e.stack {
		out[i] = *t
	}
	return out
}

// PushTrigger appends a frame to the stack.
func (e *Engine) PushTrigger(t *domain.Trigger) {
	e.stack = append(e.stack, t)
	e.logger.Debug("trigger pushed", "type", t.Type, "bundle", t.BundleID, "depth", len(e.stack))

	if e.hooks.OnTriggerPush != nil {
		e.hooks.OnTriggerPush(context.Background(), &domain.TriggerEvent{
			EventBase:   e.event(domain.EventTriggerPush),
			TriggerType: t.Type,
			BundleID:    t.BundleID,
			Depth:       len(e.stack),
		})
	}
}

// UpdateTopTrigger mutates the top frame in place. It is a no-op on an empty stack.
func (e *Engine) UpdateTopTrigger(fn func(t *domain.Trigger)) {
	if top := e.Top(); top != nil {
		fn(top)
	}
}

func (e *Engine) pop() *domain.Trigger {
	top := e.stack[len(e.stack)-1]
	e.stack[len(e.stack)-1] = nil
	e.stack = e.stack[:len(e.stack)-1]

	if top.Proc != nil && top.ScriptFilter == domain.ScriptFilterRunning {
		top.Proc.Cancel()
	}

	e.logger.Debug("trigger popped", "type", top.Type, "bundle", top.BundleID, "depth", len(e.stack))
	if e.hooks.OnTriggerPop != nil {
		e.hooks.OnTriggerPop(context.Background(), &domain.TriggerEvent{
			EventBase:   e.event(domain.EventTriggerPop),
			TriggerType: top.Type,
			BundleID:    top.BundleID,
			Depth:       len(e.stack),
		})
	}
	return top
}

// PopTrigger goes back one interactive mode and restores its view.
//
// A hotkey frame is popped together with the frame beneath it. Popping the last
// frame clears the stack and the input; popping an empty stack also ends the work.
func (e *Engine) PopTrigger(ctx context.Context) error {
	if err := e.requireHost(); err != nil {
		return err
	}

	switch {
	case len(e.stack) >= 2:
		if e.Top().Type == domain.TriggerHotkey {
			e.pop()
		}
		e.pop()
		e.stopRerun()

		top := e.Top()
		if top == nil {
			e.ClearTriggerStack()
			e.host.UpdateInput("", true)
			return nil
		}

		switch top.Type {
		case domain.TriggerScriptFilter:
			e.host.UpdateItems(domain.CloneItems(top.Items), true)
		case domain.TriggerKeyword:
			e.host.UpdateItems([]domain.ScriptFilterItem{originRow(top)}, true)
		}
		e.host.UpdateInput(top.Input, false)

	case len(e.stack) == 1:
		e.ClearTriggerStack()
		e.host.UpdateInput("", true)

	default:
		e.ClearTriggerStack()
		e.host.UpdateInput("", true)
		e.host.WorkEnd()
	}
	return nil
}

// ClearTriggerStack resets the interaction: frames, global variables, the rerun
// timer and the active extension. Script filters still running are canceled.
func (e *Engine) ClearTriggerStack() {
	for len(e.stack) > 0 {
		e.pop()
	}
	e.stopRerun()
	e.globals = map[string]string{}
	e.initialTrigger = true
	e.extension = nil
	e.logger.Debug("trigger stack cleared")
}

// ScriptFilterRunning reports whether the top frame's script filter has not completed yet.
func (e *Engine) ScriptFilterRunning() bool {
	top := e.Top()
	return top != nil && top.Type == domain.TriggerScriptFilter && top.ScriptFilter == domain.ScriptFilterRunning
}

func (e *Engine) stopRerun() {
	if e.rerun != nil {
		e.rerun.Stop()
		e.rerun = nil
	}
}

// isRootCommand reports whether t is the bottom frame and was started from a typed command.
func (e *Engine) isRootCommand(t *domain.Trigger) bool {
	if len(e.stack) == 0 || e.stack[0] != t {
		return false
	}
	_, ok := t.Origin.(*domain.Command)
	return ok
}

func originRow(t *domain.Trigger) domain.ScriptFilterItem {
	row := domain.ScriptFilterItem{BundleID: t.BundleID}
	if t.Origin != nil {
		row.Title, row.Subtitle = t.Origin.Describe()
	}
	return row
}
