package domain

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/aretw0/arvis/pkg/async"
)

// ActionType identifies the kind of an action descriptor.
type ActionType string

const (
	ActionScript          ActionType = "script"
	ActionOpen            ActionType = "open"
	ActionCopyToClipboard ActionType = "copyToClipboard"
	ActionKeyword         ActionType = "keyword"
	ActionScriptFilter    ActionType = "scriptFilter"
	ActionResetInput      ActionType = "resetInput"
	ActionArgs            ActionType = "args"
)

// ArgType is the argument policy of keyword and script filter triggers.
type ArgType string

const (
	ArgRequired ArgType = "required"
	ArgOptional ArgType = "optional"
	ArgNo       ArgType = "no"
)

// Action is an immutable action descriptor loaded from an extension manifest.
// The engine only reads actions; continuations are carried by Pending values instead.
type Action struct {
	Type ActionType `json:"type" mapstructure:"type"`

	// Modifiers restricts the action to a modifier combination ("cmd", "cmd+shift", "normal").
	// Empty means the action runs regardless of modifiers.
	Modifiers string `json:"modifiers,omitempty" mapstructure:"modifiers"`

	// Actions is the static continuation list.
	Actions []Action `json:"actions,omitempty" mapstructure:"actions"`

	Script       Script `json:"script,omitempty" mapstructure:"script"`
	ScriptFilter Script `json:"scriptFilter,omitempty" mapstructure:"scriptFilter"`

	Target   string `json:"target,omitempty" mapstructure:"target"`
	Text     string `json:"text,omitempty" mapstructure:"text"`
	Arg      string `json:"arg,omitempty" mapstructure:"arg"`
	NewInput string `json:"newInput,omitempty" mapstructure:"newInput"`

	Title          string  `json:"title,omitempty" mapstructure:"title"`
	Subtitle       string  `json:"subtitle,omitempty" mapstructure:"subtitle"`
	ArgType        ArgType `json:"argType,omitempty" mapstructure:"argType"`
	RunningSubtext string  `json:"runningSubtext,omitempty" mapstructure:"runningSubtext"`
}

// IsTrigger reports whether the action opens a new interactive mode.
func (a Action) IsTrigger() bool {
	return IsTriggerType(string(a.Type))
}

// OriginType implements Origin.
func (a Action) OriginType() string { return string(a.Type) }

// Describe implements Origin.
func (a Action) Describe() (string, string) { return a.Title, a.Subtitle }

// AsyncChainKind tags what an async continuation resolves to.
type AsyncChainKind string

const (
	AsyncScript    AsyncChainKind = "script"
	AsyncClipboard AsyncChainKind = "clipboard"
)

// AsyncChain is a pending future whose value must be merged into args before the
// attached action may run.
type AsyncChain struct {
	Kind AsyncChainKind

	// Script is set when Kind is AsyncScript.
	Script *async.Future[ScriptOutput]
	// Text is set when Kind is AsyncClipboard.
	Text *async.Future[string]
}

// Pending is an action returned by the dispatcher, optionally waiting on an async chain.
type Pending struct {
	Action Action
	Chain  *AsyncChain
}

// Script is a script body, optionally specialised per platform (GOOS names or node-style
// "darwin", "win32", "linux").
type Script struct {
	Default  string            `json:"default,omitempty" mapstructure:"default"`
	Platform map[string]string `json:"platform,omitempty" mapstructure:"platform"`
	Shell    string            `json:"shell,omitempty" mapstructure:"shell"`
}

// IsZero reports whether no script body was declared.
func (s Script) IsZero() bool {
	return s.Default == "" && len(s.Platform) == 0
}

// ForPlatform returns the script body for the given GOOS.
func (s Script) ForPlatform(goos string) string {
	for _, key := range platformKeys(goos) {
		if body, ok := s.Platform[key]; ok {
			return body
		}
	}
	return s.Default
}

// Current returns the script body for the running platform.
func (s Script) Current() string {
	return s.ForPlatform(runtime.GOOS)
}

func platformKeys(goos string) []string {
	switch goos {
	case "windows":
		return []string{"windows", "win32"}
	default:
		return []string{goos}
	}
}

// UnmarshalJSON accepts either a plain string or an object keyed by platform.
func (s *Script) UnmarshalJSON(data []byte) error {
	var body string
	if err := json.Unmarshal(data, &body); err == nil {
		*s = Script{Default: body}
		return nil
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err == nil {
		*s = ScriptFromMap(raw)
		return nil
	}

	type plain Script
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("script must be a string or a platform map: %w", err)
	}
	*s = Script(p)
	return nil
}

// ScriptFromMap builds a Script from a platform map where "shell" and "default" are reserved.
func ScriptFromMap(raw map[string]string) Script {
	s := Script{Platform: make(map[string]string, len(raw))}
	for k, v := range raw {
		switch k {
		case "shell":
			s.Shell = v
		case "default":
			s.Default = v
		default:
			s.Platform[k] = v
		}
	}
	return s
}
