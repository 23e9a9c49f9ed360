package runtime_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/aretw0/arvis/internal/runtime"
	"github.com/aretw0/arvis/pkg/async"
	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/ports"
	"github.com/aretw0/arvis/pkg/scheduler"
)

const bundle = "@test.wf"

// fakeRunner hands out futures the test settles by hand.
type fakeRunner struct {
	log   *[]string
	reqs  []domain.ScriptRequest
	procs []*async.Future[domain.ScriptOutput]
}

func (r *fakeRunner) Run(ctx context.Context, req domain.ScriptRequest) *async.Future[domain.ScriptOutput] {
	*r.log = append(*r.log, "run:"+req.Script)
	f := async.New[domain.ScriptOutput]()
	r.reqs = append(r.reqs, req)
	r.procs = append(r.procs, f)
	return f
}

func (r *fakeRunner) last() *async.Future[domain.ScriptOutput] {
	return r.procs[len(r.procs)-1]
}

// fakeDispatcher records immediate actions and passes trigger and resetInput actions through.
// Script actions with nested actions return them chained on a future the test resolves.
type fakeDispatcher struct {
	log      *[]string
	ran      []domain.Action
	seenArgs []domain.Args
	scripts  []*async.Future[domain.ScriptOutput]
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, req ports.DispatchRequest) (ports.DispatchResult, error) {
	var next []domain.Pending
	for _, a := range req.Actions {
		if !req.Modifier.Matches(a.Modifiers) {
			continue
		}
		if a.IsTrigger() || a.Type == domain.ActionResetInput {
			next = append(next, domain.Pending{Action: a})
			continue
		}
		*d.log = append(*d.log, "dispatch:"+string(a.Type))
		d.ran = append(d.ran, a)
		d.seenArgs = append(d.seenArgs, req.Args.Clone())

		if a.Type == domain.ActionScript && len(a.Actions) > 0 {
			f := async.New[domain.ScriptOutput]()
			d.scripts = append(d.scripts, f)
			for _, n := range a.Actions {
				next = append(next, domain.Pending{
					Action: n,
					Chain:  &domain.AsyncChain{Kind: domain.AsyncScript, Script: f},
				})
			}
			continue
		}
		for _, n := range a.Actions {
			next = append(next, domain.Pending{Action: n})
		}
	}
	return ports.DispatchResult{Next: next, Args: req.Args}, nil
}

type fakeCatalog map[string]domain.Extension

func (c fakeCatalog) Extension(id string) (domain.Extension, error) {
	ext, ok := c[id]
	if !ok {
		return domain.Extension{}, domain.ErrExtensionNotFound
	}
	return ext, nil
}

func (c fakeCatalog) Extensions() []domain.Extension {
	var out []domain.Extension
	for _, ext := range c {
		out = append(out, ext)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BundleID < out[j].BundleID })
	return out
}

type recordingHost struct {
	items   [][]domain.ScriptFilterItem
	resets  []bool
	inputs  []string
	refresh []bool
	pressed int
	ended   int
}

func (h *recordingHost) host() runtime.Host {
	return runtime.Host{
		UpdateItems: func(items []domain.ScriptFilterItem, resetIndex bool) {
			h.items = append(h.items, items)
			h.resets = append(h.resets, resetIndex)
		},
		UpdateInput: func(text string, refresh bool) {
			h.inputs = append(h.inputs, text)
			h.refresh = append(h.refresh, refresh)
		},
		ItemPressed: func() { h.pressed++ },
		WorkEnd:     func() { h.ended++ },
	}
}

func (h *recordingHost) lastItems() []domain.ScriptFilterItem {
	if len(h.items) == 0 {
		return nil
	}
	return h.items[len(h.items)-1]
}

func (h *recordingHost) lastInput() string {
	if len(h.inputs) == 0 {
		return ""
	}
	return h.inputs[len(h.inputs)-1]
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (f *fakeHistory) Push(ctx context.Context, e domain.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeHistory) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.HistoryEntry(nil), f.entries...), nil
}

func (f *fakeHistory) Clear(ctx context.Context) error { return nil }

type harness struct {
	t      *testing.T
	ctx    context.Context
	log    []string
	engine *runtime.Engine
	runner *fakeRunner
	disp   *fakeDispatcher
	host   *recordingHost
	sched  *scheduler.Manual
}

func newHarness(t *testing.T, opts ...runtime.Option) *harness {
	t.Helper()
	h := &harness{t: t, ctx: context.Background(), host: &recordingHost{}, sched: scheduler.NewManual()}
	h.runner = &fakeRunner{log: &h.log}
	h.disp = &fakeDispatcher{log: &h.log}

	catalog := fakeCatalog{
		bundle: {
			BundleID:    bundle,
			Name:        "wf",
			Type:        domain.ExtensionWorkflow,
			DefaultIcon: "icon.png",
			Variables:   map[string]string{"lang": "en"},
		},
	}
	opts = append([]runtime.Option{runtime.WithPlatform("linux")}, opts...)
	h.engine = runtime.NewEngine(h.runner, h.disp, catalog, h.sched, opts...)
	h.engine.SetHost(h.host.host())
	return h
}

func sfCommand() *domain.Command {
	return &domain.Command{
		Type:           domain.TriggerScriptFilter,
		Command:        "gh",
		Title:          "GitHub",
		Subtitle:       "search repositories",
		RunningSubtext: "searching...",
		BundleID:       bundle,
		ScriptFilter:   domain.Script{Default: "search {query}"},
		Actions:        []domain.Action{{Type: domain.ActionOpen, Target: "{query}"}},
	}
}

func keywordCommand(actions ...domain.Action) *domain.Command {
	return &domain.Command{
		Type:     domain.TriggerKeyword,
		Command:  "kw",
		Title:    "Keyword",
		Subtitle: "keyword subtitle",
		BundleID: bundle,
		Actions:  actions,
	}
}

func resolveStdout(f *async.Future[domain.ScriptOutput], stdout string) {
	f.Resolve(domain.ScriptOutput{Stdout: stdout, All: stdout})
}
