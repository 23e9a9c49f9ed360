package session

import (
	"context"
	"strings"

	"github.com/aretw0/arvis/pkg/domain"
)

// match is a command found for typed text.
type match struct {
	cmd  *domain.Command
	icon string
}

// lookup returns the commands of enabled extensions whose keyword starts with
// the first token of text, exact matches first.
func (s *Session) lookup(text string) (exact *match, all []match) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, nil
	}
	word := strings.ToLower(tokens[0])

	var prefixed []match
	for _, ext := range s.catalog.Extensions() {
		if !ext.Enabled {
			continue
		}
		for i := range ext.Commands {
			cmd := &ext.Commands[i]
			if cmd.Command == "" || !strings.HasPrefix(strings.ToLower(cmd.Command), word) {
				continue
			}
			m := match{cmd: cmd, icon: ext.DefaultIcon}
			if strings.EqualFold(cmd.Command, tokens[0]) {
				all = append(all, m)
				continue
			}
			prefixed = append(prefixed, m)
		}
	}
	if len(all) > 0 {
		exact = &all[0]
	}
	return exact, append(all, prefixed...)
}

// runsOn reports whether text should start cmd's script filter right away.
// Commands requiring an argument wait for text after the keyword.
func runsOn(cmd *domain.Command, text string) bool {
	if cmd.Type != domain.TriggerScriptFilter {
		return false
	}
	rest, ok := afterKeyword(cmd.Command, text)
	if !ok {
		return false
	}
	if cmd.ArgType == domain.ArgRequired {
		return strings.TrimSpace(rest) != ""
	}
	return true
}

func afterKeyword(keyword, text string) (string, bool) {
	trimmed := strings.TrimLeft(text, " \t")
	if len(trimmed) < len(keyword) || !strings.EqualFold(trimmed[:len(keyword)], keyword) {
		return "", false
	}
	rest := trimmed[len(keyword):]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return rest, true
}

// pluginRows asks the plugin source for rows. Rows of disabled extensions are dropped.
func (s *Session) pluginRows(ctx context.Context, text string) []Row {
	if s.plugins == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	items, err := s.plugins.PluginItems(ctx, text)
	if err != nil {
		s.logger.Warn("plugin items failed", "input", text, "error", err)
		return nil
	}

	var rows []Row
	for _, it := range items {
		icon := ""
		if ext, err := s.catalog.Extension(it.BundleID); err == nil {
			if !ext.Enabled {
				continue
			}
			icon = ext.DefaultIcon
		}
		rows = append(rows, pluginRow(it, icon))
	}
	return rows
}
