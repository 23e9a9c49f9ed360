package scriptfilter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arvis/pkg/domain"
)

func TestExtractResults(t *testing.T) {
	text := `Command failed with exit code 1: ./search.sh
{"level":"warn","msg":"not a result"}
{"items":[{"title":"API key missing","subtitle":"set it in the workflow variables"}]}
trailing { garbage
{"items":[{"title":"second"}],"variables":{"a":"b"}}`

	results := ExtractResults(text)
	require.Len(t, results, 2)
	assert.Equal(t, "API key missing", results[0].Items[0].Title)
	assert.Equal(t, "second", results[1].Items[0].Title)
	assert.Equal(t, map[string]string{"a": "b"}, results[1].Variables)

	items := ExtractItems(text)
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[1].Title)
}

func TestExtractResults_None(t *testing.T) {
	assert.Empty(t, ExtractResults("plain failure"))
	assert.Empty(t, ExtractResults(`{"items": "nope"}`))
	assert.Empty(t, ExtractResults(""))
}

func TestErrorItem(t *testing.T) {
	err := &domain.ScriptError{ExitCode: 2, Stderr: "boom"}
	item := ErrorItem(err)

	assert.Equal(t, ErrorBundleID, item.BundleID)
	assert.False(t, item.IsValid())
	assert.Equal(t, "Script error", item.Title)
	assert.Equal(t, err.Error(), item.Subtitle)
	require.NotNil(t, item.Text)
	assert.Equal(t, err.Error(), item.Text.Copy)
	assert.Equal(t, err.Error(), item.Text.Largetype)

	assert.Equal(t, "Script timeout", ErrorItem(&domain.ScriptError{TimedOut: true, Err: context.DeadlineExceeded}).Title)
	assert.Equal(t, "Script format error", ErrorItem(&domain.ParseError{Raw: "x", Err: errors.New("bad")}).Title)
	assert.Equal(t, "Error", ErrorItem(errors.New("plain")).Title)
}

func TestApplyMod(t *testing.T) {
	sub := "reveal in finder"
	item := domain.ScriptFilterItem{
		Title:     "Desktop",
		Subtitle:  "~/Desktop",
		Arg:       "~/Desktop",
		Variables: map[string]string{"a": "1"},
		Mods: map[string]domain.Mod{
			"cmd": {Subtitle: &sub, Arg: "reveal", Variables: map[string]string{"b": "2"}},
		},
	}

	withCmd := ApplyMod(item, domain.NewModifier("cmd"))
	assert.Equal(t, sub, withCmd.Subtitle)
	assert.Equal(t, "reveal", withCmd.Arg)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, withCmd.Variables)

	withAlt := ApplyMod(item, domain.NewModifier("alt"))
	assert.Empty(t, withAlt.Subtitle)

	none := ApplyMod(item, domain.Modifier{})
	assert.Equal(t, item.Subtitle, none.Subtitle)

	assert.Equal(t, "~/Desktop", item.Subtitle, "source row must not change")
	assert.Equal(t, map[string]string{"a": "1"}, item.Variables)
}
