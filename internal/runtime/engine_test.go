package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arvis/internal/runtime"
	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/scheduler"
)

func TestEngine_HostNotSet(t *testing.T) {
	e := runtime.NewEngine(&fakeRunner{log: new([]string)}, &fakeDispatcher{log: new([]string)}, fakeCatalog{}, scheduler.NewManual())
	ctx := context.Background()

	assert.ErrorIs(t, e.PopTrigger(ctx), domain.ErrHostNotSet)
	assert.ErrorIs(t, e.HandleItemPress(ctx, &domain.PluginItem{}, "", nil), domain.ErrHostNotSet)
	_, err := e.CommandExecute(ctx, &domain.PluginItem{}, "", nil)
	assert.ErrorIs(t, err, domain.ErrHostNotSet)
	assert.ErrorIs(t, e.ScriptFilterExecute(ctx, "gh", sfCommand()), domain.ErrHostNotSet)
	assert.ErrorIs(t, e.SetModifierOnScriptFilterItem(0, domain.NewModifier("cmd")), domain.ErrHostNotSet)

	// A partially registered host is still not set.
	e.SetHost(runtime.Host{UpdateItems: func([]domain.ScriptFilterItem, bool) {}})
	assert.ErrorIs(t, e.PopTrigger(ctx), domain.ErrHostNotSet)
}

func TestEngine_PushPopRestoresPreviousFrame(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh foo", sfCommand()))
	resolveStdout(h.runner.last(), `{"items":[{"title":"A"}],"variables":{"x":"1"}}`)
	h.sched.Drain()
	require.Equal(t, 1, h.engine.Depth())

	h.engine.PushTrigger(domain.NewTrigger(domain.TriggerKeyword, bundle, "typed in child", domain.Action{Type: domain.ActionKeyword}))
	require.Equal(t, 2, h.engine.Depth())

	require.NoError(t, h.engine.PopTrigger(h.ctx))

	assert.Equal(t, 1, h.engine.Depth())
	assert.Equal(t, "gh foo", h.engine.Top().Input)
	assert.Equal(t, "gh foo", h.host.lastInput())
	assert.False(t, h.host.refresh[len(h.host.refresh)-1], "pop restores input without recomputing results")
	require.Len(t, h.host.lastItems(), 1)
	assert.Equal(t, "A", h.host.lastItems()[0].Title)
	assert.Equal(t, map[string]string{"x": "1"}, h.engine.GlobalVariables())
	assert.Zero(t, h.host.ended)
}

func TestEngine_PopKeywordFrameShowsOriginRow(t *testing.T) {
	h := newHarness(t)

	h.engine.PushTrigger(domain.NewTrigger(domain.TriggerKeyword, bundle, "kw", keywordCommand()))
	h.engine.PushTrigger(domain.NewTrigger(domain.TriggerKeyword, bundle, "child", domain.Action{Type: domain.ActionKeyword}))
	require.NoError(t, h.engine.PopTrigger(h.ctx))

	require.Len(t, h.host.lastItems(), 1)
	assert.Equal(t, "Keyword", h.host.lastItems()[0].Title)
	assert.Equal(t, "keyword subtitle", h.host.lastItems()[0].Subtitle)
	assert.Equal(t, "kw", h.host.lastInput())
}

func TestEngine_PopHotkeyDoublePops(t *testing.T) {
	h := newHarness(t)

	h.engine.PushTrigger(domain.NewTrigger(domain.TriggerKeyword, bundle, "root", keywordCommand()))
	h.engine.PushTrigger(domain.NewTrigger(domain.TriggerKeyword, bundle, "middle", domain.Action{Type: domain.ActionKeyword}))
	h.engine.PushTrigger(domain.NewTrigger(domain.TriggerHotkey, bundle, "", nil))

	require.NoError(t, h.engine.PopTrigger(h.ctx))
	assert.Equal(t, 1, h.engine.Depth())
	assert.Equal(t, "root", h.host.lastInput())
}

func TestEngine_PopHotkeyOverSingleFrameClears(t *testing.T) {
	h := newHarness(t)

	h.engine.PushTrigger(domain.NewTrigger(domain.TriggerKeyword, bundle, "root", keywordCommand()))
	h.engine.PushTrigger(domain.NewTrigger(domain.TriggerHotkey, bundle, "", nil))

	require.NoError(t, h.engine.PopTrigger(h.ctx))
	assert.Zero(t, h.engine.Depth())
	assert.Equal(t, "", h.host.lastInput())
	assert.True(t, h.host.refresh[len(h.host.refresh)-1])
}

func TestEngine_PopLastFrameClears(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh foo", sfCommand()))
	resolveStdout(h.runner.last(), `{"items":[],"variables":{"x":"1"}}`)
	h.sched.Drain()

	require.NoError(t, h.engine.PopTrigger(h.ctx))
	assert.Zero(t, h.engine.Depth())
	assert.Empty(t, h.engine.GlobalVariables())
	assert.Equal(t, "", h.host.lastInput())
	assert.True(t, h.host.refresh[len(h.host.refresh)-1])
	assert.Zero(t, h.host.ended, "popping the last frame does not end the work")

	require.NoError(t, h.engine.PopTrigger(h.ctx))
	assert.Equal(t, 1, h.host.ended, "popping an empty stack ends the work")
	require.NoError(t, h.engine.PopTrigger(h.ctx))
	assert.Equal(t, 2, h.host.ended)
}

func TestEngine_PopCancelsRunningScriptFilter(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh foo", sfCommand()))
	proc := h.runner.last()

	require.NoError(t, h.engine.PopTrigger(h.ctx))
	_, err := proc.Result()
	assert.ErrorIs(t, err, context.Canceled)

	before := len(h.host.items)
	h.sched.Drain()
	assert.Len(t, h.host.items, before, "a canceled run is silent")
}

func TestEngine_PluginItemWithoutActionsCompletes(t *testing.T) {
	h := newHarness(t)

	done, err := h.engine.CommandExecute(h.ctx, &domain.PluginItem{Title: "calc", BundleID: bundle, Arg: "42"}, "1+41", nil)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Empty(t, h.disp.ran)
}

func TestEngine_HandleItemPressCompletes(t *testing.T) {
	h := newHarness(t)
	item := &domain.PluginItem{
		Title:    "open",
		BundleID: bundle,
		Arg:      "https://example.com",
		Actions:  []domain.Action{{Type: domain.ActionOpen, Target: "{query}"}},
	}

	require.NoError(t, h.engine.HandleItemPress(h.ctx, item, "open", nil))

	require.Len(t, h.disp.ran, 1)
	assert.Equal(t, "https://example.com", h.disp.seenArgs[0].Query())
	assert.Zero(t, h.engine.Depth())
	assert.Empty(t, h.host.lastItems())
	assert.True(t, h.host.resets[len(h.host.resets)-1])
	assert.Equal(t, 1, h.host.pressed)
	assert.Equal(t, 1, h.host.ended)
}

func TestEngine_HandleItemPressIgnoredWhileScriptFilterRuns(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh foo", sfCommand()))
	row := &domain.ScriptFilterItem{Title: "A", Arg: "a"}

	require.NoError(t, h.engine.HandleItemPress(h.ctx, row, "gh foo", nil))
	assert.Empty(t, h.disp.ran)
	assert.Equal(t, 1, h.engine.Depth())

	resolveStdout(h.runner.last(), `{"items":[{"title":"A","arg":"a"}]}`)
	h.sched.Drain()

	require.NoError(t, h.engine.HandleItemPress(h.ctx, row, "gh foo", nil))
	require.Len(t, h.disp.ran, 1)
	assert.Equal(t, domain.ActionOpen, h.disp.ran[0].Type)
	assert.Equal(t, "a", h.disp.seenArgs[0].Query())
	assert.Zero(t, h.engine.Depth())
	assert.Equal(t, 1, h.host.ended)
}

func TestEngine_PrepareArgs(t *testing.T) {
	t.Run("keyword command strips the keyword", func(t *testing.T) {
		h := newHarness(t)
		cmd := keywordCommand(domain.Action{Type: domain.ActionOpen})

		_, err := h.engine.CommandExecute(h.ctx, cmd, "kw hello world", nil)
		require.NoError(t, err)
		require.Len(t, h.disp.seenArgs, 1)
		got := h.disp.seenArgs[0]
		assert.Equal(t, "hello world", got.Query())
		assert.Equal(t, "hello", got["$1"])
		assert.Equal(t, "world", got["$2"])
		assert.Equal(t, "en", got["{var:lang}"], "extension variables fill in defaults")
	})

	t.Run("hotkey command gets an empty query", func(t *testing.T) {
		h := newHarness(t)
		cmd := &domain.Command{Type: domain.TriggerHotkey, BundleID: bundle, Actions: []domain.Action{{Type: domain.ActionOpen}}}

		_, err := h.engine.CommandExecute(h.ctx, cmd, "ignored text", nil)
		require.NoError(t, err)
		assert.Equal(t, "", h.disp.seenArgs[0].Query())
		assert.Equal(t, "", h.disp.seenArgs[0]["$1"])
		assert.Equal(t, "en", h.disp.seenArgs[0]["{var:lang}"])
	})

	t.Run("plugin item uses its payload", func(t *testing.T) {
		h := newHarness(t)
		item := &domain.PluginItem{BundleID: bundle, Arg: "payload", Actions: []domain.Action{{Type: domain.ActionOpen}}}

		_, err := h.engine.CommandExecute(h.ctx, item, "whatever", nil)
		require.NoError(t, err)
		assert.Equal(t, "payload", h.disp.seenArgs[0].Query())
	})

	t.Run("keyword frame splits input on whitespace", func(t *testing.T) {
		h := newHarness(t)
		frame := domain.NewTrigger(domain.TriggerKeyword, bundle, "", domain.Action{Type: domain.ActionKeyword})
		frame.Actions = []domain.Action{{Type: domain.ActionOpen}}
		h.engine.PushTrigger(frame)

		_, err := h.engine.CommandExecute(h.ctx, &domain.ScriptFilterItem{Title: "row"}, "a b", nil)
		require.NoError(t, err)
		assert.Equal(t, "a b", h.disp.seenArgs[0].Query())
		assert.Equal(t, "b", h.disp.seenArgs[0]["$2"])
	})

	t.Run("script filter row: row variables beat globals beat extension variables", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh q", sfCommand()))
		resolveStdout(h.runner.last(), `{"items":[{"title":"A"}],"variables":{"x":"global","y":"global","lang":"ko"}}`)
		h.sched.Drain()

		row := &domain.ScriptFilterItem{Title: "A", Arg: "picked", Variables: map[string]string{"x": "row"}}
		_, err := h.engine.CommandExecute(h.ctx, row, "gh q", nil)
		require.NoError(t, err)

		got := h.disp.seenArgs[0]
		assert.Equal(t, "picked", got.Query())
		assert.Equal(t, "row", got["{var:x}"])
		assert.Equal(t, "global", got["{var:y}"])
		assert.Equal(t, "ko", got["{var:lang}"])
	})

	t.Run("unknown combination falls back to an empty query", func(t *testing.T) {
		h := newHarness(t)
		frame := domain.NewTrigger(domain.TriggerScriptFilter, bundle, "", domain.Action{Type: domain.ActionScriptFilter})
		frame.Actions = []domain.Action{{Type: domain.ActionOpen}}
		h.engine.PushTrigger(frame)

		_, err := h.engine.CommandExecute(h.ctx, &domain.PluginItem{Arg: "x"}, "text", nil)
		require.NoError(t, err)
		assert.Equal(t, domain.Args{"{query}": "", "$1": ""}, h.disp.seenArgs[0])
	})
}

func TestEngine_ScriptFilterRowCannotStartInteraction(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.CommandExecute(h.ctx, &domain.ScriptFilterItem{Title: "orphan"}, "", nil)
	assert.Error(t, err)
	assert.Zero(t, h.engine.Depth())
}

func TestEngine_RecordsHistoryOnRootPush(t *testing.T) {
	store := &fakeHistory{}
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	h := newHarness(t,
		runtime.WithHistory(store),
		runtime.WithClock(func() time.Time { return now }),
		runtime.WithIDGenerator(func() string { return "id-1" }),
	)

	_, err := h.engine.CommandExecute(h.ctx, keywordCommand(domain.Action{Type: domain.ActionOpen}), "kw x", nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		got, _ := store.List(h.ctx, 0)
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	got, _ := store.List(h.ctx, 0)
	assert.Equal(t, domain.HistoryEntry{ID: "id-1", BundleID: bundle, Input: "kw", Time: now}, got[0])
}

func TestEngine_CurrentExtension(t *testing.T) {
	h := newHarness(t)
	_, ok := h.engine.CurrentExtension()
	assert.False(t, ok)

	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh", sfCommand()))
	ext, ok := h.engine.CurrentExtension()
	require.True(t, ok)
	assert.Equal(t, bundle, ext.BundleID)

	h.engine.ClearTriggerStack()
	_, ok = h.engine.CurrentExtension()
	assert.False(t, ok)
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var pushes, pops, runs []int
	var statuses []domain.ScriptFilterStatus
	hooks := domain.LifecycleHooks{
		OnTriggerPush:      func(_ context.Context, e *domain.TriggerEvent) { pushes = append(pushes, e.Depth) },
		OnTriggerPop:       func(_ context.Context, e *domain.TriggerEvent) { pops = append(pops, e.Depth) },
		OnScriptFilterRun:  func(_ context.Context, e *domain.ScriptFilterEvent) { runs = append(runs, 1) },
		OnScriptFilterDone: func(_ context.Context, e *domain.ScriptFilterEvent) { statuses = append(statuses, e.Status) },
	}
	h := newHarness(t, runtime.WithLifecycleHooks(hooks))

	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh a", sfCommand()))
	require.NoError(t, h.engine.ScriptFilterExecute(h.ctx, "gh ab", nil))
	resolveStdout(h.runner.last(), `{"items":[]}`)
	h.sched.Drain()
	require.NoError(t, h.engine.PopTrigger(h.ctx))

	assert.Equal(t, []int{1}, pushes)
	assert.Equal(t, []int{0}, pops)
	assert.Len(t, runs, 2)
	assert.Equal(t, []domain.ScriptFilterStatus{domain.StatusCanceled, domain.StatusCompleted}, statuses)
}
