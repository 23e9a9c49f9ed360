package runtime

import (
	"strings"

	"github.com/aretw0/arvis/pkg/args"
	"github.com/aretw0/arvis/pkg/domain"
)

// prepareArgs extracts the args for item. The extraction depends on whether the
// stack is empty and on the top frame's type; extension variables are then
// filled in as defaults.
func (e *Engine) prepareArgs(item domain.Item, input string) domain.Args {
	top := e.Top()

	bundleID := item.Bundle()
	if top != nil {
		bundleID = top.BundleID
	}
	vars := e.extensionFor(bundleID).Variables

	var extracted domain.Args
	switch {
	case top == nil && item.Kind() == domain.KindPluginItem:
		extracted = args.FromPluginItem(item.(*domain.PluginItem))

	case top == nil && item.Kind() == domain.KindCommand:
		cmd := item.(*domain.Command)
		if cmd.Type == domain.TriggerHotkey {
			extracted = args.EmptyQuery()
			break
		}
		extracted = args.FromQuery(strings.Fields(afterKeyword(input, cmd.Command)))

	case top != nil && top.Type == domain.TriggerKeyword:
		extracted = args.FromQuery(strings.Fields(input))

	case top != nil && top.Type == domain.TriggerScriptFilter && item.Kind() == domain.KindScriptFilterItem:
		sfi := item.(*domain.ScriptFilterItem)
		merged := make(map[string]string, len(e.globals)+len(sfi.Variables))
		for k, v := range e.globals {
			merged[k] = v
		}
		for k, v := range sfi.Variables {
			merged[k] = v
		}
		extracted = args.FromScriptFilterItem(sfi, merged)

	default:
		topType := domain.TriggerType("")
		if top != nil {
			topType = top.Type
		}
		e.logger.Error("args type infer failed", "item", item.Kind().String(), "top", topType)
		return args.EmptyQuery()
	}

	return args.ApplyExtensionVars(extracted, vars)
}

// afterKeyword returns what follows the first occurrence of keyword in input.
func afterKeyword(input, keyword string) string {
	if keyword == "" {
		return input
	}
	_, rest, found := strings.Cut(input, keyword)
	if !found {
		return ""
	}
	return rest
}
