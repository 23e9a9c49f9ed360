package args

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/arvis/pkg/domain"
)

func TestFromQuery(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   domain.Args
	}{
		{"empty", nil, domain.Args{"{query}": "", "$1": ""}},
		{"single", []string{"hello"}, domain.Args{"{query}": "hello", "$1": "hello"}},
		{
			"drops blanks",
			[]string{"", "a", " ", "b"},
			domain.Args{"{query}": "a b", "$1": "a", "$2": "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromQuery(tt.tokens))
		})
	}
}

func TestFromText(t *testing.T) {
	got := FromText("  weather   seoul ")
	assert.Equal(t, "weather seoul", got.Query())
	assert.Equal(t, "seoul", got["$2"])
}

func TestFromPluginItem(t *testing.T) {
	assert.Equal(t,
		domain.Args{"{query}": "https://x.y", "$1": "https://x.y"},
		FromPluginItem(&domain.PluginItem{Arg: "https://x.y"}))

	assert.Equal(t,
		domain.Args{"{query}": "42", "$1": "42"},
		FromPluginItem(&domain.PluginItem{Arg: 42}))

	got := FromPluginItem(&domain.PluginItem{Arg: map[string]any{"query": "q", "lang": "ko"}})
	assert.Equal(t, "q", got.Query())
	assert.Equal(t, "ko", got["{var:lang}"])

	assert.Equal(t, EmptyQuery(), FromPluginItem(&domain.PluginItem{}))
}

func TestFromScriptFilterItem(t *testing.T) {
	item := &domain.ScriptFilterItem{Arg: []any{"a", 2}}
	got := FromScriptFilterItem(item, map[string]string{"token": "t"})

	assert.Equal(t, "a 2", got.Query())
	assert.Equal(t, "a", got["$1"])
	assert.Equal(t, "2", got["$2"])
	assert.Equal(t, "t", got["{var:token}"])
}

func TestApplyExtensionVars_NeverOverrides(t *testing.T) {
	a := domain.Args{"{query}": "q", "{var:lang}": "en"}
	got := ApplyExtensionVars(a, map[string]string{"lang": "ko", "key": "secret"})

	assert.Equal(t, "en", got["{var:lang}"])
	assert.Equal(t, "secret", got["{var:key}"])
	assert.NotContains(t, a, "{var:key}", "input args must not be mutated")
}

func TestApplyToScript(t *testing.T) {
	a := domain.Args{
		"{query}": "hello world",
		"$1":      "one",
		"$10":     "ten",
		"{var:x}": "$1",
	}
	got := ApplyToScript(`echo "{query}" $10 $1 {var:x}`, a)
	assert.Equal(t, `echo "hello world" ten one $1`, got)
}

func TestEnv(t *testing.T) {
	env := Env(domain.Args{"{query}": "q", "{var:lang}": "ko", "{var:}": "x"})
	assert.Equal(t, map[string]string{"lang": "ko"}, env)
}

func TestVarName(t *testing.T) {
	name, ok := VarName(VarKey("token"))
	assert.True(t, ok)
	assert.Equal(t, "token", name)

	_, ok = VarName("{query}")
	assert.False(t, ok)
}
