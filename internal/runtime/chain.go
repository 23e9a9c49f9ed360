package runtime

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/ports"
)

// continuation is one pass of the action chain: what to run, with which args,
// under which modifiers, on behalf of which item and extension.
type continuation struct {
	item     domain.Item
	targets  []domain.Action
	args     domain.Args
	modifier domain.Modifier
	bundleID string
}

// partitionTriggers returns a copy of actions with every trigger-type action
// after every other action, keeping the relative order inside both groups.
func partitionTriggers(actions []domain.Action) []domain.Action {
	out := append([]domain.Action(nil), actions...)
	sort.SliceStable(out, func(i, j int) bool {
		return !out[i].IsTrigger() && out[j].IsTrigger()
	})
	return out
}

// parentIsTrigger reports whether the top frame was opened by a trigger-type origin.
func (e *Engine) parentIsTrigger() bool {
	return domain.IsTriggerType(e.Top().OriginType())
}

// handleActionChain runs c.targets. Immediate actions go to the dispatcher,
// trigger actions open new frames and async continuations are rescheduled.
// It reports false when a frame was opened, so the interaction needs more input.
func (e *Engine) handleActionChain(ctx context.Context, c continuation) (bool, error) {
	if err := e.requireHost(); err != nil {
		return false, err
	}

	quit := true
	a := c.args
	if a == nil {
		a = domain.Args{}
	}
	working := partitionTriggers(c.targets)

	for len(working) > 0 {
		first := working[0]

		if first.IsTrigger() && (!e.initialTrigger || e.parentIsTrigger()) {
			working = working[1:]
			if !c.modifier.Matches(first.Modifiers) {
				continue
			}
			e.handleTriggerAction(ctx, first, a, c.bundleID)
			e.initialTrigger = false
			quit = false
			continue
		}

		e.emitDispatch(ctx, working, c.bundleID)
		res, err := e.dispatcher.Dispatch(ctx, ports.DispatchRequest{
			Actions:  working,
			Args:     a.Clone(),
			Modifier: c.modifier,
			BundleID: c.bundleID,
		})
		if err != nil {
			return false, fmt.Errorf("failed to dispatch actions: %w", err)
		}
		if res.Args != nil {
			a = res.Args
		}

		working = nil
		for _, p := range res.Next {
			if p.Chain != nil {
				e.scheduleAsync(ctx, c, p, a.Clone())
				continue
			}
			if !c.modifier.Matches(p.Action.Modifiers) {
				continue
			}
			if p.Action.Type == domain.ActionResetInput {
				e.handleTriggerAction(ctx, p.Action, a, c.bundleID)
				working = nil
				break
			}
			if p.Action.IsTrigger() {
				e.handleTriggerAction(ctx, p.Action, a, c.bundleID)
				quit = false
				continue
			}
			working = append(working, p.Action)
		}
	}
	return quit, nil
}

// scheduleAsync resumes the chain with p's action once its future settles.
// The resolved value lands in "{query}" and "$1".
func (e *Engine) scheduleAsync(ctx context.Context, c continuation, p domain.Pending, a domain.Args) {
	next := continuation{
		item:     c.item,
		targets:  []domain.Action{p.Action},
		args:     a,
		modifier: c.modifier,
		bundleID: c.bundleID,
	}

	resume := func(value string, err error) {
		e.sched.Post(func() {
			if err != nil {
				if domain.IsCanceled(err) {
					e.logger.Debug("async action canceled", "action", p.Action.Type)
					return
				}
				e.logger.Error("async action failed", "kind", p.Chain.Kind, "action", p.Action.Type, "error", err)
				return
			}
			next.args[domain.ArgQuery] = value
			next.args[domain.ArgFirst] = value
			if _, err := e.handleActionChain(ctx, next); err != nil {
				e.logger.Error("async action chain failed", "action", p.Action.Type, "error", err)
			}
		})
	}

	switch p.Chain.Kind {
	case domain.AsyncScript:
		if p.Chain.Script == nil {
			e.logger.Error("script async chain without a future", "action", p.Action.Type)
			return
		}
		p.Chain.Script.OnSettled(func(out domain.ScriptOutput, err error) {
			resume(out.All, err)
		})
	case domain.AsyncClipboard:
		if p.Chain.Text == nil {
			e.logger.Error("clipboard async chain without a future", "action", p.Action.Type)
			return
		}
		p.Chain.Text.OnSettled(resume)
	default:
		e.logger.Error("unknown async chain kind", "kind", p.Chain.Kind)
	}
}

// handleTriggerAction opens the mode an action describes. resetInput only resets
// the host's input.
func (e *Engine) handleTriggerAction(ctx context.Context, action domain.Action, a domain.Args, fallbackBundle string) {
	if action.Type == domain.ActionResetInput {
		e.host.UpdateInput(action.NewInput, true)
		return
	}
	if !action.IsTrigger() {
		return
	}

	nextInput := a[domain.ArgQuery]
	separator := ""
	if action.ArgType == domain.ArgRequired {
		separator = " "
	}

	bundleID := fallbackBundle
	if top := e.Top(); top != nil {
		bundleID = top.BundleID
	}

	t := domain.NewTrigger(domain.TriggerType(action.Type), bundleID, nextInput, action)
	t.Actions = action.Actions
	t.Args = a.Clone()
	e.PushTrigger(t)

	switch action.Type {
	case domain.ActionScriptFilter:
		if err := e.ScriptFilterExecute(ctx, nextInput, nil); err != nil {
			e.logger.Error("failed to start script filter", "bundle", bundleID, "error", err)
		}
	case domain.ActionKeyword:
		e.host.UpdateItems([]domain.ScriptFilterItem{originRow(t)}, true)
	}

	e.host.UpdateInput(nextInput+separator, false)
	e.host.ItemPressed()
}

func (e *Engine) emitDispatch(ctx context.Context, actions []domain.Action, bundleID string) {
	for _, act := range actions {
		if act.IsTrigger() {
			continue
		}
		e.logger.Debug("dispatching action", "type", act.Type, "bundle", bundleID)
		if e.hooks.OnActionDispatch != nil {
			e.hooks.OnActionDispatch(ctx, &domain.ActionEvent{
				EventBase:  e.event(domain.EventActionDispatch),
				ActionType: act.Type,
				BundleID:   bundleID,
			})
		}
	}
}
