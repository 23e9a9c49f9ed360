package runtime

import (
	"context"
	"strings"
	"time"

	"github.com/aretw0/arvis/pkg/args"
	"github.com/aretw0/arvis/pkg/async"
	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/scriptfilter"
)

// ScriptFilterExecute runs the top frame's script filter against input.
//
// On an empty stack, fallback is pushed first and must not be nil. A run still
// in flight for the top frame is canceled; only the latest run may update the frame.
func (e *Engine) ScriptFilterExecute(ctx context.Context, input string, fallback *domain.Command) error {
	if err := e.requireHost(); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)

	if len(e.stack) == 0 {
		if fallback == nil {
			return domain.ErrMissingCommand
		}
		t := domain.NewTrigger(domain.TriggerScriptFilter, fallback.BundleID, input, fallback)
		t.Actions = fallback.Actions
		e.PushTrigger(t)
		e.setExtension(fallback.BundleID)
		e.recordHistory(ctx, fallback.BundleID, fallback.Command)
	} else if top := e.Top(); top.Type == domain.TriggerScriptFilter &&
		top.Proc != nil && top.ScriptFilter != domain.ScriptFilterCompleted {
		top.Proc.Cancel()
	}

	e.stopRerun()

	frame := e.Top()
	if frame.Type != domain.TriggerScriptFilter {
		return domain.ErrNotScriptFilter
	}
	script, err := scriptOf(frame.Origin)
	if err != nil {
		return err
	}

	tokens := strings.Fields(input)
	if e.isRootCommand(frame) && len(tokens) > 0 {
		tokens = tokens[1:]
	}

	ext := e.extensionFor(frame.BundleID)
	a := args.ApplyExtensionVars(args.FromQuery(tokens), ext.Variables)

	env := ext.Environ()
	for k, v := range args.Env(a) {
		env[k] = v
	}

	req := domain.ScriptRequest{
		BundleID: frame.BundleID,
		Dir:      ext.Dir,
		Script:   args.ApplyToScript(script.ForPlatform(e.goos), a),
		Shell:    script.Shell,
		Env:      env,
		Timeout:  e.scriptTimeout,
	}

	started := e.now()
	f := e.runner.Run(ctx, req)
	frame.Proc = f
	frame.ScriptFilter = domain.ScriptFilterRunning
	frame.Input = input

	e.logger.Debug("script filter started", "bundle", frame.BundleID, "script", req.Script)
	if e.hooks.OnScriptFilterRun != nil {
		e.hooks.OnScriptFilterRun(ctx, &domain.ScriptFilterEvent{
			EventBase: e.event(domain.EventScriptFilterRun),
			BundleID:  frame.BundleID,
			Input:     input,
		})
	}

	f.OnSettled(func(out domain.ScriptOutput, err error) {
		e.sched.Post(func() {
			e.scriptFilterSettled(ctx, run{frame: frame, proc: f, input: input, started: started}, out, err)
		})
	})
	return nil
}

// run identifies one script filter execution.
type run struct {
	frame   *domain.Trigger
	proc    *async.Future[domain.ScriptOutput]
	input   string
	started time.Time
}

// current reports whether r is still the recorded run of the frame receiving input.
func (e *Engine) current(r run) bool {
	return e.Top() == r.frame && r.frame.Proc == r.proc
}

func (e *Engine) scriptFilterSettled(ctx context.Context, r run, out domain.ScriptOutput, err error) {
	if err != nil {
		e.scriptFilterFailed(ctx, r, err)
		return
	}
	if !e.current(r) {
		e.finishRun(ctx, r, domain.StatusStale, 0)
		return
	}

	res, err := scriptfilter.Parse(out.Stdout)
	if err != nil {
		e.scriptFilterFailed(ctx, r, err)
		return
	}

	// Variables accumulated earlier in the interaction win over fresh output.
	merged := make(map[string]string, len(res.Variables)+len(e.globals))
	for k, v := range res.Variables {
		merged[k] = v
	}
	for k, v := range e.globals {
		merged[k] = v
	}
	e.globals = merged

	defaultIcon := e.extensionFor(r.frame.BundleID).DefaultIcon
	for i := range res.Items {
		res.Items[i].BundleID = r.frame.BundleID
		if res.Items[i].Icon == nil && defaultIcon != "" {
			res.Items[i].Icon = &domain.Icon{Path: defaultIcon}
		}
	}

	r.frame.ScriptFilter = domain.ScriptFilterCompleted
	r.frame.Items = res.Items
	r.frame.Rerun = res.RerunInterval()

	e.host.UpdateItems(domain.CloneItems(res.Items), true)
	e.finishRun(ctx, r, domain.StatusCompleted, len(res.Items))

	if r.frame.Rerun > 0 {
		e.rerun = e.sched.AfterFunc(r.frame.Rerun, func() {
			if !e.current(r) {
				e.logger.Debug("rerun skipped for superseded script filter", "bundle", r.frame.BundleID)
				return
			}
			if err := e.ScriptFilterExecute(ctx, r.input, nil); err != nil {
				e.logger.Error("script filter rerun failed", "bundle", r.frame.BundleID, "error", err)
			}
		})
	}
}

func (e *Engine) scriptFilterFailed(ctx context.Context, r run, err error) {
	switch {
	case domain.IsCanceled(err):
		e.finishRun(ctx, r, domain.StatusCanceled, 0)
		return

	case domain.IsTimeout(err):
		e.logger.Error("script filter timed out", "bundle", r.frame.BundleID, "error", err)
		e.finishRun(ctx, r, domain.StatusTimeout, 0)

	default:
		e.finishRun(ctx, r, domain.StatusFailed, 0)
		if len(e.stack) == 0 {
			return
		}
		e.logger.Error("script filter failed", "bundle", r.frame.BundleID, "error", err)
	}

	if !e.current(r) {
		return
	}
	if err := e.SetErrorItem(err, scriptfilter.ExtractItems(err.Error())); err != nil {
		e.logger.Error("failed to show script filter error", "error", err)
	}
}

func (e *Engine) finishRun(ctx context.Context, r run, status domain.ScriptFilterStatus, items int) {
	elapsed := e.now().Sub(r.started)
	e.logger.Debug("script filter finished", "bundle", r.frame.BundleID, "status", status, "duration", elapsed)
	if e.hooks.OnScriptFilterDone != nil {
		e.hooks.OnScriptFilterDone(ctx, &domain.ScriptFilterEvent{
			EventBase: e.event(domain.EventScriptFilterDone),
			BundleID:  r.frame.BundleID,
			Input:     r.input,
			Status:    status,
			Items:     items,
			Duration:  elapsed,
		})
	}
}

// scriptOf returns the script filter declared by a frame's origin.
func scriptOf(origin domain.Origin) (domain.Script, error) {
	var s domain.Script
	switch o := origin.(type) {
	case *domain.Command:
		s = o.ScriptFilter
	case domain.Action:
		s = o.ScriptFilter
	case *domain.Action:
		s = o.ScriptFilter
	}
	if s.IsZero() {
		return domain.Script{}, domain.ErrNotScriptFilter
	}
	return s, nil
}
