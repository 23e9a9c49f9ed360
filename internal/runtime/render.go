package runtime

import (
	"errors"

	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/scriptfilter"
)

// SetErrorItem shows an error to the user as rows. Structured rows recovered
// from the error output take precedence over the synthetic error row.
func (e *Engine) SetErrorItem(err error, items []domain.ScriptFilterItem) error {
	if herr := e.requireHost(); herr != nil {
		return herr
	}
	if len(items) > 0 {
		e.host.UpdateItems(items, true)
		return nil
	}
	if err == nil {
		return errors.New("an error is required when no error rows are given")
	}
	e.host.UpdateItems([]domain.ScriptFilterItem{scriptfilter.ErrorItem(err)}, true)
	return nil
}

// SetModifierOnScriptFilterItem previews the row at index as it looks while mod is held.
// The cached rows of the frame are left untouched.
func (e *Engine) SetModifierOnScriptFilterItem(index int, mod domain.Modifier) error {
	if err := e.requireHost(); err != nil {
		return err
	}
	top := e.completedScriptFilter()
	if top == nil || mod.Pressed() == domain.ModNormal {
		return nil
	}
	if index < 0 || index >= len(top.Items) {
		return nil
	}

	items := domain.CloneItems(top.Items)
	items[index] = scriptfilter.ApplyMod(items[index], mod)
	e.host.UpdateItems(items, false)
	return nil
}

// ClearModifierOnScriptFilterItem restores the rows after a modifier is released.
func (e *Engine) ClearModifierOnScriptFilterItem() error {
	if err := e.requireHost(); err != nil {
		return err
	}
	if top := e.completedScriptFilter(); top != nil {
		e.host.UpdateItems(domain.CloneItems(top.Items), false)
	}
	return nil
}

// SetRunningText shows cmd with its running subtext while its script filter starts.
func (e *Engine) SetRunningText(cmd *domain.Command) error {
	if err := e.requireHost(); err != nil {
		return err
	}
	e.host.UpdateItems([]domain.ScriptFilterItem{{
		Title:    cmd.Title,
		Subtitle: cmd.RunningSubtext,
		BundleID: cmd.BundleID,
	}}, true)
	return nil
}

func (e *Engine) completedScriptFilter() *domain.Trigger {
	top := e.Top()
	if top == nil || top.Type != domain.TriggerScriptFilter || top.ScriptFilter != domain.ScriptFilterCompleted {
		return nil
	}
	return top
}
