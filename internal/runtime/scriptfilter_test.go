package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arvis/internal/runtime"
	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/scriptfilter"
)

func TestScriptFilter_RequiresCommandOnEmptyStack(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.engine.ScriptFilterExecute(h.ctx, "gh", nil), domain.ErrMissingCommand)
	assert.Zero(t, h.engine.Depth())
}

func TestScriptFilter_TopMustBeScriptFilter(t *testing.T) {
	h := newHarness(t)
	h.engine.PushTrigger(domain.NewTrigger(domain.TriggerKeyword, bundle, "kw", keywordCommand()))
	assert.ErrorIs(t, h.engine.ScriptFilterExecute(h.ctx, "kw", nil), domain.ErrNotScriptFilter)
	assert.Empty(t, h.runner.reqs)
}

func TestScriptFilter_BuildsRequest(t *testing.T) {
	h := newHarness(t, runtime.WithScriptTimeout(3*time.Second))

	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh  react   hooks", sfCommand()))

	require.Len(t, h.runner.reqs, 1)
	req := h.runner.reqs[0]
	assert.Equal(t, "search react hooks", req.Script, "the keyword token is dropped for the root command")
	assert.Equal(t, 3*time.Second, req.Timeout)
	assert.Equal(t, "en", req.Env["lang"])
	assert.Equal(t, "wf", req.Env["arvis_extension_name"])

	top := h.engine.Top()
	require.NotNil(t, top)
	assert.Equal(t, domain.TriggerScriptFilter, top.Type)
	assert.Equal(t, "gh  react   hooks", top.Input)
	assert.True(t, h.engine.ScriptFilterRunning())
}

func TestScriptFilter_PlatformScript(t *testing.T) {
	h := newHarness(t)
	cmd := sfCommand()
	cmd.ScriptFilter = domain.Script{Default: "default {query}", Platform: map[string]string{"linux": "linux {query}"}}

	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh q", cmd))
	assert.Equal(t, "linux q", h.runner.reqs[0].Script)
}

func TestScriptFilter_CompletesAndStampsRows(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh foo", sfCommand()))

	resolveStdout(h.runner.last(), `{"items":[
		{"title":"plain"},
		{"title":"with icon","icon":{"path":"own.png"}}
	]}`)
	assert.True(t, h.engine.ScriptFilterRunning(), "results apply on the scheduler")
	h.sched.Drain()

	assert.False(t, h.engine.ScriptFilterRunning())
	items := h.host.lastItems()
	require.Len(t, items, 2)
	assert.Equal(t, bundle, items[0].BundleID)
	assert.Equal(t, bundle, items[1].BundleID)
	require.NotNil(t, items[0].Icon)
	assert.Equal(t, "icon.png", items[0].Icon.Path)
	assert.Equal(t, "own.png", items[1].Icon.Path)
	assert.True(t, h.host.resets[len(h.host.resets)-1])

	assert.Equal(t, items, h.engine.Top().Items)
}

func TestScriptFilter_NoDefaultIconWithoutExtensionIcon(t *testing.T) {
	h := newHarness(t)
	cmd := sfCommand()
	cmd.BundleID = "@someone.unknown"

	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh", cmd))
	resolveStdout(h.runner.last(), `{"items":[{"title":"bare"}]}`)
	h.sched.Drain()

	items := h.host.lastItems()
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Icon)
	assert.Equal(t, "@someone.unknown", items[0].BundleID)
}

func TestScriptFilter_XMLOutput(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh", sfCommand()))

	resolveStdout(h.runner.last(), `<?xml version="1.0"?><items><item uid="1" arg="a"><title>From XML</title></item></items>`)
	h.sched.Drain()

	items := h.host.lastItems()
	require.Len(t, items, 1)
	assert.Equal(t, "From XML", items[0].Title)
}

func TestScriptFilter_NewRunCancelsPrevious(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh a", sfCommand()))
	first := h.runner.last()

	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh ab", nil))
	second := h.runner.last()

	_, err := first.Result()
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, second.Settled())
	assert.Equal(t, 1, h.engine.Depth(), "typing reuses the frame")

	resolveStdout(second, `{"items":[{"title":"B"}]}`)
	h.sched.Drain()

	require.Len(t, h.host.items, 1, "only the latest run renders")
	assert.Equal(t, "B", h.host.lastItems()[0].Title)
	assert.Equal(t, "gh ab", h.engine.Top().Input)
}

func TestScriptFilter_LateResultIsDiscarded(t *testing.T) {
	var statuses []domain.ScriptFilterStatus
	h := newHarness(t, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnScriptFilterDone: func(_ context.Context, e *domain.ScriptFilterEvent) { statuses = append(statuses, e.Status) },
	}))
	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh a", sfCommand()))
	first := h.runner.last()

	// The first run finishes, but its result is still queued when the user types again.
	resolveStdout(first, `{"items":[{"title":"A"}]}`)
	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh ab", nil))
	h.sched.Drain()

	assert.Empty(t, h.host.items)
	assert.Equal(t, []domain.ScriptFilterStatus{domain.StatusStale}, statuses)
	assert.True(t, h.engine.ScriptFilterRunning())

	resolveStdout(h.runner.last(), `{"items":[{"title":"AB"}]}`)
	h.sched.Drain()
	require.Len(t, h.host.items, 1)
	assert.Equal(t, "AB", h.host.lastItems()[0].Title)
}

func TestScriptFilter_ResultAfterPopIsDiscarded(t *testing.T) {
	h := newHarness(t)
	h.engine.PushTrigger(domain.NewTrigger(domain.TriggerKeyword, bundle, "kw", keywordCommand()))
	sf := domain.NewTrigger(domain.TriggerScriptFilter, bundle, "", domain.Action{
		Type:         domain.ActionScriptFilter,
		ScriptFilter: domain.Script{Default: "x"},
	})
	h.engine.PushTrigger(sf)
	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "q", nil))
	proc := h.runner.last()

	resolveStdout(proc, `{"items":[{"title":"late"}]}`)
	require.NoError(t, h.engine.PopTrigger(h.ctx))
	rendered := len(h.host.items)
	h.sched.Drain()

	assert.Len(t, h.host.items, rendered)
	assert.Nil(t, sf.Items)
}

func TestScriptFilter_Rerun(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh foo", sfCommand()))
	resolveStdout(h.runner.last(), `{"items":[{"title":"tick"}],"rerun":500}`)
	h.sched.Drain()

	assert.Equal(t, 500*time.Millisecond, h.engine.Top().Rerun)
	h.sched.Advance(499 * time.Millisecond)
	assert.Len(t, h.runner.reqs, 1)

	h.sched.Advance(time.Millisecond)
	require.Len(t, h.runner.reqs, 2)
	assert.Equal(t, "search foo", h.runner.reqs[1].Script)
	assert.Equal(t, "gh foo", h.engine.Top().Input)

	// The rerun produces no new rerun until its own result arrives.
	h.sched.Advance(time.Second)
	assert.Len(t, h.runner.reqs, 2)
}

func TestScriptFilter_RerunStoppedByNewInput(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh foo", sfCommand()))
	resolveStdout(h.runner.last(), `{"items":[],"rerun":500}`)
	h.sched.Drain()
	require.Equal(t, 1, h.sched.Pending())

	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh food", nil))
	assert.Zero(t, h.sched.Pending())

	h.sched.Advance(time.Second)
	assert.Len(t, h.runner.reqs, 2)
}

func TestScriptFilter_RerunStoppedByClear(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh foo", sfCommand()))
	resolveStdout(h.runner.last(), `{"items":[],"rerun":500}`)
	h.sched.Drain()

	h.engine.ClearTriggerStack()
	h.sched.Advance(time.Second)
	assert.Len(t, h.runner.reqs, 1)
}

func TestScriptFilter_GlobalVariablesKeepFirstValue(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh a", sfCommand()))
	resolveStdout(h.runner.last(), `{"items":[],"variables":{"a":"1"}}`)
	h.sched.Drain()

	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh ab", nil))
	resolveStdout(h.runner.last(), `{"items":[],"variables":{"a":"2","b":"3"}}`)
	h.sched.Drain()

	assert.Equal(t, map[string]string{"a": "1", "b": "3"}, h.engine.GlobalVariables())
}

func TestScriptFilter_Failures(t *testing.T) {
	tests := []struct {
		name      string
		settle    func(h *harness)
		wantTitle string
		wantRows  []string
	}{
		{
			name: "script error",
			settle: func(h *harness) {
				h.runner.last().Reject(&domain.ScriptError{ExitCode: 2, Stderr: "no such repo", Err: errors.New("exit status 2")})
			},
			wantTitle: "Script error",
		},
		{
			name: "timeout",
			settle: func(h *harness) {
				h.runner.last().Reject(&domain.ScriptError{TimedOut: true, Err: context.DeadlineExceeded})
			},
			wantTitle: "Script timeout",
		},
		{
			name:      "format error",
			settle:    func(h *harness) { resolveStdout(h.runner.last(), "definitely not json") },
			wantTitle: "Script format error",
		},
		{
			name: "rows embedded in stderr",
			settle: func(h *harness) {
				h.runner.last().Reject(&domain.ScriptError{
					ExitCode: 1,
					Stderr:   `warning {"items":[{"title":"first"},{"title":"second"}]}`,
				})
			},
			wantRows: []string{"first", "second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh x", sfCommand()))

			tt.settle(h)
			h.sched.Drain()

			items := h.host.lastItems()
			if tt.wantRows != nil {
				var titles []string
				for _, it := range items {
					titles = append(titles, it.Title)
				}
				assert.Equal(t, tt.wantRows, titles)
			} else {
				require.Len(t, items, 1)
				assert.Equal(t, tt.wantTitle, items[0].Title)
				assert.Equal(t, scriptfilter.ErrorBundleID, items[0].BundleID)
				assert.False(t, items[0].IsValid())
			}

			assert.True(t, h.engine.ScriptFilterRunning(), "a failed run does not complete the frame")
			assert.Nil(t, h.engine.Top().Items)
		})
	}
}

func TestScriptFilter_CancelIsSilent(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh x", sfCommand()))

	h.runner.last().Cancel()
	h.sched.Drain()
	assert.Empty(t, h.host.items)
}

func TestScriptFilter_FailureOnEmptyStackIsSilent(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh x", sfCommand()))

	h.runner.last().Reject(errors.New("crashed"))
	h.engine.ClearTriggerStack()
	h.sched.Drain()
	assert.Empty(t, h.host.items)
}

func TestScriptFilter_ModifierPreview(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh", sfCommand()))
	resolveStdout(h.runner.last(), `{"items":[
		{"title":"A","subtitle":"open","mods":{"cmd":{"subtitle":"reveal","arg":"a-cmd"}}},
		{"title":"B","subtitle":"open"}
	]}`)
	h.sched.Drain()

	require.NoError(t, h.engine.SetModifierOnScriptFilterItem(0, domain.NewModifier(domain.ModCmd)))
	items := h.host.lastItems()
	assert.Equal(t, "reveal", items[0].Subtitle)
	assert.Equal(t, "a-cmd", items[0].Arg)
	assert.Equal(t, "open", items[1].Subtitle)
	assert.False(t, h.host.resets[len(h.host.resets)-1], "previews keep the selection")
	assert.Equal(t, "open", h.engine.Top().Items[0].Subtitle, "cached rows are untouched")

	require.NoError(t, h.engine.SetModifierOnScriptFilterItem(1, domain.NewModifier(domain.ModCmd)))
	assert.Equal(t, "", h.host.lastItems()[1].Subtitle, "rows without the override lose their subtitle")

	renders := len(h.host.items)
	require.NoError(t, h.engine.SetModifierOnScriptFilterItem(5, domain.NewModifier(domain.ModCmd)))
	require.NoError(t, h.engine.SetModifierOnScriptFilterItem(0, nil))
	assert.Len(t, h.host.items, renders)

	require.NoError(t, h.engine.ClearModifierOnScriptFilterItem())
	assert.Equal(t, "open", h.host.lastItems()[0].Subtitle)
	assert.Equal(t, "open", h.host.lastItems()[1].Subtitle)
}

func TestScriptFilter_ModifierPreviewIgnoredWhileRunning(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh", sfCommand()))

	require.NoError(t, h.engine.SetModifierOnScriptFilterItem(0, domain.NewModifier(domain.ModCmd)))
	require.NoError(t, h.engine.ClearModifierOnScriptFilterItem())
	assert.Empty(t, h.host.items)
}

func TestScriptFilter_SetRunningText(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.SetRunningText(sfCommand()))

	items := h.host.lastItems()
	require.Len(t, items, 1)
	assert.Equal(t, "GitHub", items[0].Title)
	assert.Equal(t, "searching...", items[0].Subtitle)
	assert.Equal(t, bundle, items[0].BundleID)
}

func TestScriptFilter_SetErrorItem(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.SetErrorItem(errors.New("oops"), nil))
	require.Len(t, h.host.lastItems(), 1)
	assert.Equal(t, "Error", h.host.lastItems()[0].Title)
	assert.Equal(t, "oops", h.host.lastItems()[0].Subtitle)

	rows := []domain.ScriptFilterItem{{Title: "given"}}
	require.NoError(t, h.engine.SetErrorItem(nil, rows))
	assert.Equal(t, rows, h.host.lastItems())

	assert.Error(t, h.engine.SetErrorItem(nil, nil))
}
