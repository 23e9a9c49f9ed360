// Package runtime implements the trigger/action-chain engine.
//
// The engine owns the trigger stack and the global variables of one
// interaction. It is not safe for concurrent use: every entry point and every
// callback runs on the goroutine behind its ports.Scheduler.
package runtime

import (
	"context"
	"errors"
	"log/slog"
	goruntime "runtime"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/arvis/internal/logging"
	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/ports"
	"github.com/aretw0/arvis/pkg/scheduler"
)

// Host is the set of callbacks the UI layer registers with the engine.
type Host struct {
	// UpdateItems replaces the visible rows. resetIndex asks the host to reset its selection.
	UpdateItems func(items []domain.ScriptFilterItem, resetIndex bool)
	// UpdateInput replaces the visible input. refresh asks the host to recompute results for it.
	UpdateInput func(text string, refresh bool)
	// ItemPressed is called after an item press was handled.
	ItemPressed func()
	// WorkEnd is called when the interaction is over.
	WorkEnd func()
}

func (h Host) complete() bool {
	return h.UpdateItems != nil && h.UpdateInput != nil && h.ItemPressed != nil && h.WorkEnd != nil
}

// Engine is the trigger/action-chain state machine.
type Engine struct {
	stack          []*domain.Trigger
	globals        map[string]string
	rerun          scheduler.Timer
	initialTrigger bool
	extension      *domain.Extension
	host           Host

	runner     ports.ScriptRunner
	dispatcher ports.ActionDispatcher
	catalog    ports.ExtensionCatalog
	sched      ports.Scheduler
	history    ports.HistoryStore

	logger        *slog.Logger
	hooks         domain.LifecycleHooks
	now           func() time.Time
	newID         func() string
	scriptTimeout time.Duration
	goos          string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = e.hooks.Merge(hooks) }
}

// WithHistory records the input that started each interaction.
func WithHistory(store ports.HistoryStore) Option {
	return func(e *Engine) { e.history = store }
}

// WithScriptTimeout bounds every script filter run. Zero means no timeout.
func WithScriptTimeout(d time.Duration) Option {
	return func(e *Engine) { e.scriptTimeout = d }
}

// WithClock overrides the time source used for history and durations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how history entry ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithPlatform selects which platform-specific script bodies run (a GOOS value).
func WithPlatform(goos string) Option {
	return func(e *Engine) { e.goos = goos }
}

// NewEngine creates an engine with an empty trigger stack.
func NewEngine(
	runner ports.ScriptRunner,
	dispatcher ports.ActionDispatcher,
	catalog ports.ExtensionCatalog,
	sched ports.Scheduler,
	opts ...Option,
) *Engine {
	e := &Engine{
		globals:        map[string]string{},
		initialTrigger: true,
		runner:         runner,
		dispatcher:     dispatcher,
		catalog:        catalog,
		sched:          sched,
		logger:         logging.NewNop(),
		now:            time.Now,
		newID:          uuid.NewString,
		goos:           goruntime.GOOS,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetHost registers the host callbacks. Entry points that reach the host fail
// with domain.ErrHostNotSet until all four are set.
func (e *Engine) SetHost(h Host) {
	e.host = h
}

func (e *Engine) requireHost() error {
	if !e.host.complete() {
		return domain.ErrHostNotSet
	}
	return nil
}

// GlobalVariables returns a copy of the variables accumulated in this interaction.
func (e *Engine) GlobalVariables() map[string]string {
	out := make(map[string]string, len(e.globals))
	for k, v := range e.globals {
		out[k] = v
	}
	return out
}

// CurrentExtension returns the extension that owns the active interaction.
func (e *Engine) CurrentExtension() (domain.Extension, bool) {
	if e.extension == nil {
		return domain.Extension{}, false
	}
	return *e.extension, true
}

func (e *Engine) setExtension(bundleID string) {
	ext, err := e.catalog.Extension(bundleID)
	if err != nil {
		e.logger.Warn("extension lookup failed", "bundle", bundleID, "error", err)
		e.extension = nil
		return
	}
	e.extension = &ext
}

// extensionFor returns the installed extension for bundleID, or a bare one when it is unknown.
func (e *Engine) extensionFor(bundleID string) domain.Extension {
	if e.extension != nil && e.extension.BundleID == bundleID {
		return *e.extension
	}
	ext, err := e.catalog.Extension(bundleID)
	if err != nil {
		if !errors.Is(err, domain.ErrExtensionNotFound) {
			e.logger.Warn("extension lookup failed", "bundle", bundleID, "error", err)
		}
		return domain.Extension{BundleID: bundleID}
	}
	return ext
}

func (e *Engine) recordHistory(ctx context.Context, bundleID, input string) {
	if e.history == nil {
		return
	}
	entry := domain.HistoryEntry{
		ID:       e.newID(),
		BundleID: bundleID,
		Input:    input,
		Time:     e.now(),
	}
	store, logger := e.history, e.logger
	go func() {
		if err := store.Push(ctx, entry); err != nil {
			logger.Error("failed to record history", "bundle", bundleID, "error", err)
		}
	}()
}

func (e *Engine) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t}
}
