// Package args turns typed text and item payloads into the flat argument
// mapping that actions and scripts are rendered with.
//
// Keys follow three shapes: "{query}" for the whole query, "$1".."$n" for
// positional tokens, and "{var:name}" for variables.
package args

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/aretw0/arvis/pkg/domain"
)

const varPrefix, varSuffix = "{var:", "}"

// VarKey returns the argument key of a variable.
func VarKey(name string) string {
	return varPrefix + name + varSuffix
}

// VarName reports the variable name of a "{var:name}" key.
func VarName(key string) (string, bool) {
	if !strings.HasPrefix(key, varPrefix) || !strings.HasSuffix(key, varSuffix) {
		return "", false
	}
	name := key[len(varPrefix) : len(key)-len(varSuffix)]
	return name, name != ""
}

// EmptyQuery returns args with empty query slots.
func EmptyQuery() domain.Args {
	return domain.Args{domain.ArgQuery: "", domain.ArgFirst: ""}
}

// FromQuery builds args from query tokens: "{query}" is the tokens joined by a
// space and "$i" is the i-th token.
func FromQuery(tokens []string) domain.Args {
	out := EmptyQuery()
	var kept []string
	for _, tok := range tokens {
		if tok = strings.TrimSpace(tok); tok != "" {
			kept = append(kept, tok)
		}
	}
	out[domain.ArgQuery] = strings.Join(kept, " ")
	for i, tok := range kept {
		out[fmt.Sprintf("$%d", i+1)] = tok
	}
	return out
}

// FromText splits text on whitespace and builds args from the tokens.
func FromText(text string) domain.Args {
	return FromQuery(strings.Fields(text))
}

// FromPluginItem extracts args from a plugin item's stored payload.
func FromPluginItem(item *domain.PluginItem) domain.Args {
	return fromPayload(item.Arg)
}

// FromScriptFilterItem extracts args from a result row's payload, exposing vars
// as "{var:name}" keys.
func FromScriptFilterItem(item *domain.ScriptFilterItem, vars map[string]string) domain.Args {
	out := fromPayload(item.Arg)
	for k, v := range vars {
		out[VarKey(k)] = v
	}
	return out
}

// fromPayload handles the payload shapes rows carry: a scalar becomes the query,
// a list becomes positional args, and a map becomes variables plus an optional
// "query" entry.
func fromPayload(payload any) domain.Args {
	switch p := payload.(type) {
	case nil:
		return EmptyQuery()
	case []any:
		tokens := make([]string, 0, len(p))
		for _, v := range p {
			tokens = append(tokens, cast.ToString(v))
		}
		out := EmptyQuery()
		out[domain.ArgQuery] = strings.Join(tokens, " ")
		for i, tok := range tokens {
			out[fmt.Sprintf("$%d", i+1)] = tok
		}
		return out
	case []string:
		items := make([]any, len(p))
		for i, s := range p {
			items[i] = s
		}
		return fromPayload(items)
	case map[string]any:
		out := EmptyQuery()
		for k, v := range p {
			s := cast.ToString(v)
			if k == "query" {
				out[domain.ArgQuery] = s
				out[domain.ArgFirst] = s
				continue
			}
			out[VarKey(k)] = s
		}
		return out
	default:
		s, err := cast.ToStringE(p)
		if err != nil {
			return EmptyQuery()
		}
		return domain.Args{domain.ArgQuery: s, domain.ArgFirst: s}
	}
}

// ApplyExtensionVars fills in extension-declared variables as defaults.
// Values already present in a are never overridden.
func ApplyExtensionVars(a domain.Args, vars map[string]string) domain.Args {
	out := a.Clone()
	for k, v := range vars {
		key := VarKey(k)
		if _, ok := out[key]; !ok {
			out[key] = v
		}
	}
	return out
}

// ApplyToScript substitutes every arg key in script with its value.
// Longer keys go first so "$10" is not clobbered by "$1".
func ApplyToScript(script string, a domain.Args) string {
	keys := make([]string, 0, len(a))
	for k := range a {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, a[k])
	}
	return strings.NewReplacer(pairs...).Replace(script)
}

// Env returns the variables in a as environment entries ("{var:name}" -> "name").
func Env(a domain.Args) map[string]string {
	env := make(map[string]string)
	for k, v := range a {
		if name, ok := VarName(k); ok {
			env[name] = v
		}
	}
	return env
}
