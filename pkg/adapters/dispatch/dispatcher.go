// Package dispatch executes the immediate actions of an action chain.
//
// Scripts run in the background through a ports.ScriptRunner; URLs and files
// open through a ports.Opener; text goes to a ports.Clipboard. Actions that
// open a new mode (keyword, scriptFilter) and resetInput are not executed here:
// they are handed back to the engine, in order, as pending actions, once they
// pass the modifier filter like any other action.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	goruntime "runtime"
	"time"

	"github.com/aretw0/arvis/internal/logging"
	"github.com/aretw0/arvis/pkg/args"
	"github.com/aretw0/arvis/pkg/async"
	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/ports"
)

// ErrUnknownAction is returned for action types the dispatcher cannot execute.
var ErrUnknownAction = errors.New("unknown action type")

// Dispatcher implements ports.ActionDispatcher.
type Dispatcher struct {
	runner    ports.ScriptRunner
	clipboard ports.Clipboard
	opener    ports.Opener
	catalog   ports.ExtensionCatalog

	logger      *slog.Logger
	goos        string
	printOutput bool
	timeout     time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithPlatform selects which platform-specific script bodies run (a GOOS value).
func WithPlatform(goos string) Option {
	return func(d *Dispatcher) { d.goos = goos }
}

// WithScriptOutput logs the combined output of every script action at info level.
func WithScriptOutput(enabled bool) Option {
	return func(d *Dispatcher) { d.printOutput = enabled }
}

// WithScriptTimeout bounds every script action. Zero means no timeout.
func WithScriptTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

// New creates a dispatcher. catalog supplies the working directory and
// environment of the extension that owns each script.
func New(runner ports.ScriptRunner, clipboard ports.Clipboard, opener ports.Opener, catalog ports.ExtensionCatalog, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		runner:    runner,
		clipboard: clipboard,
		opener:    opener,
		catalog:   catalog,
		logger:    logging.NewNop(),
		goos:      goruntime.GOOS,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs req.Actions depth first: an action's nested actions run right
// after it. Nested actions of a script or clipboard action are not run; they are
// returned as pending continuations that wait for the script output or the
// copied text.
func (d *Dispatcher) Dispatch(ctx context.Context, req ports.DispatchRequest) (ports.DispatchResult, error) {
	a := req.Args.Clone()
	if a == nil {
		a = domain.Args{}
	}

	var next []domain.Pending
	queue := append([]domain.Action(nil), req.Actions...)

	for len(queue) > 0 {
		act := queue[0]
		queue = queue[1:]

		if !req.Modifier.Matches(act.Modifiers) {
			continue
		}
		if act.IsTrigger() || act.Type == domain.ActionResetInput {
			next = append(next, domain.Pending{Action: act})
			continue
		}

		d.logger.Debug("executing action", "type", act.Type, "bundle", req.BundleID)

		switch act.Type {
		case domain.ActionScript:
			f := d.runScript(ctx, act, a, req.BundleID)
			if len(act.Actions) == 0 {
				d.watch(req.BundleID, f)
				continue
			}
			for _, n := range act.Actions {
				next = append(next, domain.Pending{
					Action: n,
					Chain:  &domain.AsyncChain{Kind: domain.AsyncScript, Script: f},
				})
			}
			continue

		case domain.ActionCopyToClipboard:
			text := args.ApplyToScript(act.Text, a)
			f := async.Go(ctx, func(context.Context) (string, error) {
				if err := d.clipboard.WriteAll(text); err != nil {
					return "", err
				}
				return text, nil
			})
			if len(act.Actions) == 0 {
				f.OnSettled(func(_ string, err error) {
					if err != nil {
						d.logger.Error("failed to copy to clipboard", "bundle", req.BundleID, "error", err)
					}
				})
				continue
			}
			for _, n := range act.Actions {
				next = append(next, domain.Pending{
					Action: n,
					Chain:  &domain.AsyncChain{Kind: domain.AsyncClipboard, Text: f},
				})
			}
			continue

		case domain.ActionOpen:
			target := args.ApplyToScript(act.Target, a)
			if err := d.opener.Open(ctx, target); err != nil {
				return ports.DispatchResult{}, fmt.Errorf("failed to open %q: %w", target, err)
			}

		case domain.ActionArgs:
			value := args.ApplyToScript(act.Arg, a)
			a[domain.ArgQuery] = value
			a[domain.ArgFirst] = value

		default:
			return ports.DispatchResult{}, fmt.Errorf("%w: %q", ErrUnknownAction, act.Type)
		}

		queue = append(append([]domain.Action(nil), act.Actions...), queue...)
	}

	return ports.DispatchResult{Next: next, Args: a}, nil
}

func (d *Dispatcher) runScript(ctx context.Context, act domain.Action, a domain.Args, bundleID string) *async.Future[domain.ScriptOutput] {
	ext, err := d.catalog.Extension(bundleID)
	if err != nil {
		d.logger.Warn("running script without extension info", "bundle", bundleID, "error", err)
		ext = domain.Extension{BundleID: bundleID}
	}

	env := ext.Environ()
	for k, v := range args.Env(a) {
		env[k] = v
	}

	return d.runner.Run(ctx, domain.ScriptRequest{
		BundleID: bundleID,
		Dir:      ext.Dir,
		Script:   args.ApplyToScript(act.Script.ForPlatform(d.goos), a),
		Shell:    act.Script.Shell,
		Env:      env,
		Timeout:  d.timeout,
	})
}

// watch logs the outcome of a script nothing else waits for.
func (d *Dispatcher) watch(bundleID string, f *async.Future[domain.ScriptOutput]) {
	f.OnSettled(func(out domain.ScriptOutput, err error) {
		switch {
		case err == nil:
			if d.printOutput {
				d.logger.Info("script output", "bundle", bundleID, "output", out.All)
			}
		case domain.IsTimeout(err):
			d.logger.Error("script timed out", "bundle", bundleID)
		case domain.IsCanceled(err):
			d.logger.Warn("script canceled", "bundle", bundleID)
		default:
			d.logger.Error("script failed", "bundle", bundleID, "error", err)
		}
	})
}
