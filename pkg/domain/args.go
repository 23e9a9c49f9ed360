package domain

import (
	"sort"
	"strings"
)

// Well-known argument keys.
const (
	ArgQuery = "{query}"
	ArgFirst = "$1"
)

// Args is the flat key/value mapping actions and scripts are rendered with.
// Keys are placeholders such as "{query}", "$1" or "{var:name}".
type Args map[string]string

// Clone returns a copy that can be mutated independently.
func (a Args) Clone() Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Query returns the "{query}" slot.
func (a Args) Query() string { return a[ArgQuery] }

// Modifier is the set of modifier keys held when an item is activated.
type Modifier map[string]bool

// Common modifier names.
const (
	ModNormal = "normal"
	ModCmd    = "cmd"
	ModShift  = "shift"
	ModCtrl   = "ctrl"
	ModAlt    = "alt"
)

// NewModifier builds a Modifier from pressed key names.
func NewModifier(keys ...string) Modifier {
	m := Modifier{}
	for _, k := range keys {
		if k == "" || k == ModNormal {
			continue
		}
		m[k] = true
	}
	return m
}

// ParseModifier parses a "cmd+shift" style combination.
func ParseModifier(combo string) Modifier {
	if combo == "" {
		return Modifier{}
	}
	return NewModifier(strings.Split(combo, "+")...)
}

// Pressed returns the canonical "+"-joined combination, or "normal" when nothing is held.
func (m Modifier) Pressed() string {
	keys := make([]string, 0, len(m))
	for k, held := range m {
		if held && k != ModNormal {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ModNormal
	}
	sort.Strings(keys)
	return strings.Join(keys, "+")
}

// Matches reports whether an action restricted to combo may run under m.
func (m Modifier) Matches(combo string) bool {
	if combo == "" {
		return true
	}
	return ParseModifier(combo).Pressed() == m.Pressed()
}
