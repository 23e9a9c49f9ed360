package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/arvis/internal/logging"
	"github.com/aretw0/arvis/internal/runtime"
	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/ports"
)

// ErrNoRow is returned when a gesture targets a row that is not visible.
var ErrNoRow = errors.New("no such row")

// Executor runs functions on the engine's goroutine.
// scheduler.Loop and scheduler.Manual implement it.
type Executor interface {
	ports.Scheduler
	Do(ctx context.Context, fn func()) error
}

// Session is the launcher window state driving one engine.
type Session struct {
	engine  *runtime.Engine
	catalog ports.ExtensionCatalog
	plugins ports.PluginSource
	exec    Executor
	logger  *slog.Logger

	view      View
	onChange  func(View)
	onWorkEnd func()
	presses   int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithPlugins lists the rows of src after the matching commands.
func WithPlugins(src ports.PluginSource) Option {
	return func(s *Session) {
		s.plugins = src
	}
}

// OnChange registers fn to receive the view after every change.
// fn runs on the engine's goroutine and must not call back into the session.
func OnChange(fn func(View)) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

// OnWorkEnd registers fn to run when an interaction finishes.
func OnWorkEnd(fn func()) Option {
	return func(s *Session) {
		s.onWorkEnd = fn
	}
}

// New creates a session and registers it as the engine's host.
// exec must be the scheduler the engine was built with.
func New(engine *runtime.Engine, catalog ports.ExtensionCatalog, exec Executor, opts ...Option) *Session {
	s := &Session{
		engine:  engine,
		catalog: catalog,
		exec:    exec,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	engine.SetHost(runtime.Host{
		UpdateItems: s.updateItems,
		UpdateInput: s.updateInput,
		ItemPressed: func() { s.presses++ },
		WorkEnd:     s.workEnd,
	})
	return s
}

// Type replaces the input with text.
func (s *Session) Type(ctx context.Context, text string) error {
	return s.do(ctx, func() error {
		s.view.Input = text
		return s.route(ctx, text)
	})
}

// Press activates the row at index with mod held.
func (s *Session) Press(ctx context.Context, index int, mod domain.Modifier) error {
	return s.do(ctx, func() error {
		if index < 0 || index >= len(s.view.Rows) {
			return fmt.Errorf("%w: %d", ErrNoRow, index)
		}
		row := s.view.Rows[index]
		s.view.Selected = index
		if !row.Valid {
			s.logger.Debug("ignoring press on invalid row", "title", row.Title)
			return nil
		}

		// A script filter command picked from the list only completes the keyword.
		if cmd, ok := row.item.(*domain.Command); ok && s.engine.Depth() == 0 && cmd.Type == domain.TriggerScriptFilter {
			text := cmd.Command + " "
			s.view.Input = text
			return s.route(ctx, text)
		}
		return s.engine.HandleItemPress(ctx, row.item, s.view.Input, mod)
	})
}

// Back leaves the current mode.
func (s *Session) Back(ctx context.Context) error {
	return s.do(ctx, func() error {
		return s.engine.PopTrigger(ctx)
	})
}

// Preview shows the row at index as it looks while mod is held. An empty
// modifier restores the rows.
func (s *Session) Preview(ctx context.Context, index int, mod domain.Modifier) error {
	return s.do(ctx, func() error {
		if mod.Pressed() == domain.ModNormal {
			return s.engine.ClearModifierOnScriptFilterItem()
		}
		return s.engine.SetModifierOnScriptFilterItem(index, mod)
	})
}

// Reset abandons the interaction and clears the window.
func (s *Session) Reset(ctx context.Context) error {
	return s.do(ctx, func() error {
		s.engine.ClearTriggerStack()
		s.view = View{}
		return nil
	})
}

// Snapshot returns a copy of the current view.
func (s *Session) Snapshot(ctx context.Context) (View, error) {
	var v View
	err := s.exec.Do(ctx, func() { v = s.snapshot() })
	return v, err
}

// Presses returns how many presses completed an interaction.
func (s *Session) Presses(ctx context.Context) (int, error) {
	var n int
	err := s.exec.Do(ctx, func() { n = s.presses })
	return n, err
}

func (s *Session) do(ctx context.Context, fn func() error) error {
	var err error
	if derr := s.exec.Do(ctx, func() {
		err = fn()
		s.changed()
	}); derr != nil {
		return derr
	}
	return err
}

// route sends typed text to the active mode or to the matching commands.
func (s *Session) route(ctx context.Context, text string) error {
	if top := s.engine.Top(); top != nil {
		if top.Type == domain.TriggerScriptFilter {
			return s.engine.ScriptFilterExecute(ctx, text, nil)
		}
		return nil
	}

	exact, all := s.lookup(text)
	if exact != nil && runsOn(exact.cmd, text) {
		if exact.cmd.RunningSubtext != "" {
			if err := s.engine.SetRunningText(exact.cmd); err != nil {
				return err
			}
		}
		return s.engine.ScriptFilterExecute(ctx, text, exact.cmd)
	}

	rows := make([]Row, 0, len(all))
	for _, m := range all {
		rows = append(rows, commandRow(m.cmd, m.icon))
	}
	s.view.Rows = append(rows, s.pluginRows(ctx, text)...)
	s.view.Selected = 0
	return nil
}

func (s *Session) updateItems(items []domain.ScriptFilterItem, resetIndex bool) {
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, scriptFilterRow(it))
	}
	s.view.Rows = rows
	if resetIndex || s.view.Selected >= len(rows) {
		s.view.Selected = 0
	}
	s.changed()
}

func (s *Session) updateInput(text string, refresh bool) {
	s.view.Input = text
	s.changed()
	if !refresh {
		return
	}
	// The engine is mid-call; route the new input once it returns.
	s.exec.Post(func() {
		if s.view.Input != text {
			return
		}
		if err := s.route(context.Background(), text); err != nil {
			s.logger.Error("failed to refresh input", "input", text, "error", err)
		}
		s.changed()
	})
}

func (s *Session) workEnd() {
	s.view = View{}
	s.changed()
	if s.onWorkEnd != nil {
		s.onWorkEnd()
	}
}

func (s *Session) snapshot() View {
	v := s.view.clone()
	v.Busy = s.engine.ScriptFilterRunning()
	v.Depth = s.engine.Depth()
	if ext, ok := s.engine.CurrentExtension(); ok {
		v.Extension = ext.BundleID
	}
	return v
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange(s.snapshot())
	}
}

// Commands lists every command of the enabled extensions as rows, for hosts
// that show a catalog before anything is typed.
func (s *Session) Commands() []Row {
	var rows []Row
	for _, ext := range s.catalog.Extensions() {
		if !ext.Enabled {
			continue
		}
		for i := range ext.Commands {
			if strings.TrimSpace(ext.Commands[i].Command) == "" {
				continue
			}
			rows = append(rows, commandRow(&ext.Commands[i], ext.DefaultIcon))
		}
	}
	return rows
}
