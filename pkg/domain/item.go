package domain

// ItemKind is the discriminant of the Item union.
type ItemKind int

const (
	KindCommand ItemKind = iota + 1
	KindPluginItem
	KindScriptFilterItem
)

func (k ItemKind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindPluginItem:
		return "plugin_item"
	case KindScriptFilterItem:
		return "scriptfilter_item"
	default:
		return "unknown"
	}
}

// Item is a selectable row handed to the engine by the host.
// It is one of *Command, *PluginItem or *ScriptFilterItem.
type Item interface {
	Kind() ItemKind
	Bundle() string
}

// Origin is what created a trigger frame: an Item or an Action.
type Origin interface {
	// OriginType is the trigger or action type of the origin, "" when not applicable.
	OriginType() string
	// Describe returns the title and subtitle used to rebuild a row for the origin.
	Describe() (title, subtitle string)
}

// Command is a manifest-declared entry point of a workflow.
type Command struct {
	Type           TriggerType `json:"type" mapstructure:"type"`
	Command        string      `json:"command,omitempty" mapstructure:"command"`
	Title          string      `json:"title,omitempty" mapstructure:"title"`
	Subtitle       string      `json:"subtitle,omitempty" mapstructure:"subtitle"`
	BundleID       string      `json:"bundleId,omitempty" mapstructure:"bundleId"`
	ArgType        ArgType     `json:"argType,omitempty" mapstructure:"argType"`
	RunningSubtext string      `json:"runningSubtext,omitempty" mapstructure:"runningSubtext"`
	ScriptFilter   Script      `json:"scriptFilter,omitempty" mapstructure:"scriptFilter"`
	Actions        []Action    `json:"actions,omitempty" mapstructure:"actions"`
}

func (c *Command) Kind() ItemKind             { return KindCommand }
func (c *Command) Bundle() string             { return c.BundleID }
func (c *Command) OriginType() string         { return string(c.Type) }
func (c *Command) Describe() (string, string) { return c.Title, c.Subtitle }

// PluginItem is a row produced by a plugin. Its Arg is the stored payload args are extracted from.
type PluginItem struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	BundleID string   `json:"bundleId"`
	Arg      any      `json:"arg,omitempty"`
	Icon     *Icon    `json:"icon,omitempty"`
	Actions  []Action `json:"actions,omitempty"`
}

func (p *PluginItem) Kind() ItemKind             { return KindPluginItem }
func (p *PluginItem) Bundle() string             { return p.BundleID }
func (p *PluginItem) OriginType() string         { return "" }
func (p *PluginItem) Describe() (string, string) { return p.Title, p.Subtitle }

// Icon points at an image for a row.
type Icon struct {
	Path string `json:"path,omitempty"`
}

// ItemText holds the copy and large type texts of a row.
type ItemText struct {
	Copy      string `json:"copy,omitempty"`
	Largetype string `json:"largetype,omitempty"`
}

// Mod is a partial row override applied while a modifier key is held.
type Mod struct {
	Valid     *bool             `json:"valid,omitempty"`
	Arg       any               `json:"arg,omitempty"`
	Subtitle  *string           `json:"subtitle,omitempty"`
	Icon      *Icon             `json:"icon,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
}

// ScriptFilterItem is a result row emitted by a script filter.
type ScriptFilterItem struct {
	UID          string            `json:"uid,omitempty"`
	Arg          any               `json:"arg,omitempty"`
	Autocomplete string            `json:"autocomplete,omitempty"`
	Valid        *bool             `json:"valid,omitempty"`
	Type         string            `json:"type,omitempty"`
	Title        string            `json:"title"`
	Subtitle     string            `json:"subtitle,omitempty"`
	Mods         map[string]Mod    `json:"mods,omitempty"`
	Text         *ItemText         `json:"text,omitempty"`
	QuicklookURL string            `json:"quicklookurl,omitempty"`
	Icon         *Icon             `json:"icon,omitempty"`
	BundleID     string            `json:"bundleId,omitempty"`
	Variables    map[string]string `json:"variables,omitempty"`
}

func (s *ScriptFilterItem) Kind() ItemKind { return KindScriptFilterItem }
func (s *ScriptFilterItem) Bundle() string { return s.BundleID }

// IsValid reports whether the row can be actioned. Rows are valid unless marked otherwise.
func (s *ScriptFilterItem) IsValid() bool {
	return s.Valid == nil || *s.Valid
}

// Clone returns a deep copy of the row.
func (s ScriptFilterItem) Clone() ScriptFilterItem {
	out := s
	if s.Valid != nil {
		v := *s.Valid
		out.Valid = &v
	}
	if s.Text != nil {
		t := *s.Text
		out.Text = &t
	}
	if s.Icon != nil {
		i := *s.Icon
		out.Icon = &i
	}
	out.Variables = cloneStrings(s.Variables)
	out.Arg = cloneAny(s.Arg)
	if s.Mods != nil {
		out.Mods = make(map[string]Mod, len(s.Mods))
		for k, m := range s.Mods {
			cm := m
			if m.Valid != nil {
				v := *m.Valid
				cm.Valid = &v
			}
			if m.Subtitle != nil {
				st := *m.Subtitle
				cm.Subtitle = &st
			}
			if m.Icon != nil {
				i := *m.Icon
				cm.Icon = &i
			}
			cm.Variables = cloneStrings(m.Variables)
			cm.Arg = cloneAny(m.Arg)
			out.Mods[k] = cm
		}
	}
	return out
}

// CloneItems deep-copies a row slice.
func CloneItems(items []ScriptFilterItem) []ScriptFilterItem {
	if items == nil {
		return nil
	}
	out := make([]ScriptFilterItem, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneAny(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneAny(val)
		}
		return out
	default:
		return v
	}
}
