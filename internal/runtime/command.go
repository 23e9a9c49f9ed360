package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/arvis/pkg/domain"
)

// HandleItemPress runs item and, when the interaction is over, clears the stack
// and tells the host. Presses are ignored while the top script filter is still running.
func (e *Engine) HandleItemPress(ctx context.Context, item domain.Item, input string, mod domain.Modifier) error {
	if err := e.requireHost(); err != nil {
		return err
	}
	if e.ScriptFilterRunning() {
		e.logger.Debug("item press ignored while script filter runs")
		return nil
	}

	done, err := e.CommandExecute(ctx, item, input, mod)
	if err != nil {
		return err
	}
	if done {
		e.ClearTriggerStack()
		e.host.UpdateItems([]domain.ScriptFilterItem{}, true)
		e.host.ItemPressed()
		e.host.WorkEnd()
	}
	return nil
}

// CommandExecute resolves the actions and args for item and runs the action chain.
// It reports true when the chain completed without opening a new mode.
func (e *Engine) CommandExecute(ctx context.Context, item domain.Item, input string, mod domain.Modifier) (bool, error) {
	if err := e.requireHost(); err != nil {
		return false, err
	}
	ctx = context.WithoutCancel(ctx)

	actions := e.nextActions(item)
	a := e.prepareArgs(item, input)

	if len(e.stack) == 0 {
		if err := e.pushRoot(ctx, item, input, actions, a); err != nil {
			return false, err
		}
	} else {
		e.initialTrigger = false
	}

	if top := e.Top(); top.Type == domain.TriggerScriptFilter {
		top.Input = input
	}

	return e.handleActionChain(ctx, continuation{
		item:     item,
		targets:  actions,
		args:     a,
		modifier: mod,
		bundleID: e.Top().BundleID,
	})
}

// nextActions returns the item's own actions on an empty stack, else the top frame's.
func (e *Engine) nextActions(item domain.Item) []domain.Action {
	if top := e.Top(); top != nil {
		return top.Actions
	}
	switch it := item.(type) {
	case *domain.Command:
		return it.Actions
	case *domain.PluginItem:
		return it.Actions
	}
	return nil
}

// pushRoot opens the first frame of an interaction.
func (e *Engine) pushRoot(ctx context.Context, item domain.Item, input string, actions []domain.Action, a domain.Args) error {
	var (
		t       *domain.Trigger
		history string
	)
	switch it := item.(type) {
	case *domain.Command:
		t = domain.NewTrigger(it.Type, it.BundleID, input, it)
		history = it.Command
	case *domain.PluginItem:
		// Plugin frames have no trigger type; they are never re-rendered on pop.
		t = domain.NewTrigger("", it.BundleID, input, it)
		history = it.Title
	default:
		return fmt.Errorf("a %s cannot start an interaction", item.Kind())
	}
	t.Actions = actions
	t.Args = a

	e.PushTrigger(t)
	e.setExtension(t.BundleID)
	e.recordHistory(ctx, t.BundleID, history)
	return nil
}
