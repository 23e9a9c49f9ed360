package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	goruntime "runtime"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/arvis/internal/logging"
	"github.com/aretw0/arvis/pkg/async"
	"github.com/aretw0/arvis/pkg/domain"
)

// DefaultKillGrace is how long a canceled script gets between SIGTERM and SIGKILL.
const DefaultKillGrace = 200 * time.Millisecond

// Runner runs extension scripts through a shell.
// Each run gets its own process group so cancellation reaches every child.
type Runner struct {
	shells       map[string]Shell
	defaultShell string
	baseDir      string
	killGrace    time.Duration
	logger       *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithShells adds or replaces named shells.
func WithShells(shells map[string]Shell) RunnerOption {
	return func(r *Runner) {
		for name, sh := range shells {
			r.shells[name] = sh
		}
	}
}

// WithDefaultShell selects the shell used when a script names none.
func WithDefaultShell(name string) RunnerOption {
	return func(r *Runner) {
		if name != "" {
			r.defaultShell = name
		}
	}
}

// WithBaseDir sets the working directory for scripts whose request has no directory.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithKillGrace sets the delay between the polite and the forced kill of a canceled script.
func WithKillGrace(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.killGrace = d
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new script runner with the platform's built-in shells.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		shells:       builtinShells(),
		defaultShell: defaultShellName(),
		killGrace:    DefaultKillGrace,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Shell returns the shell registered under name. Unknown names are treated as
// an interpreter binary taking the script after the platform's "run this" flag.
func (r *Runner) Shell(name string) Shell {
	if name == "" {
		name = r.defaultShell
	}
	if sh, ok := r.shells[name]; ok {
		return sh
	}
	flag := "-c"
	if goruntime.GOOS == "windows" {
		flag = "/C"
	}
	return Shell{Name: name, Command: name, Args: []string{flag}}
}

// Run starts req.Script in the background. Canceling the returned future kills
// the script's process group.
func (r *Runner) Run(ctx context.Context, req domain.ScriptRequest) *async.Future[domain.ScriptOutput] {
	return async.Go(ctx, func(ctx context.Context) (domain.ScriptOutput, error) {
		return r.run(ctx, req)
	})
}

func (r *Runner) run(ctx context.Context, req domain.ScriptRequest) (domain.ScriptOutput, error) {
	sh := r.Shell(req.Shell)
	args := append(append([]string(nil), sh.Args...), req.Script)

	cmd := exec.Command(sh.Command, args...)
	cmd.Dir = req.Dir
	if cmd.Dir == "" {
		cmd.Dir = r.baseDir
	}
	cmd.Env = append(os.Environ(), environ(req.Env)...)
	prepareCommand(cmd)

	var stdout, stderr bytes.Buffer
	all := &lockedBuffer{}
	cmd.Stdout = io.MultiWriter(&stdout, all)
	cmd.Stderr = io.MultiWriter(&stderr, all)

	fail := func(err error) *domain.ScriptError {
		return &domain.ScriptError{
			Script: req.Script,
			Stdout: stdout.String(),
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return domain.ScriptOutput{}, fail(fmt.Errorf("failed to start script: %w", err))
	}
	r.logger.Debug("script started", "bundle", req.BundleID, "shell", sh.Name, "pid", cmd.Process.Pid)

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	var deadline <-chan time.Time
	if req.Timeout > 0 {
		timer := time.NewTimer(req.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case err := <-waitErr:
		out := domain.ScriptOutput{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			All:      all.String(),
			Duration: time.Since(started),
		}
		if err != nil {
			se := fail(err)
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				se.ExitCode = exitErr.ExitCode()
				out.ExitCode = se.ExitCode
			}
			return out, se
		}
		return out, nil

	case <-ctx.Done():
		r.terminate(cmd, waitErr)
		se := fail(ctx.Err())
		se.Canceled = true
		return domain.ScriptOutput{}, se

	case <-deadline:
		r.terminate(cmd, waitErr)
		r.logger.Debug("script timed out", "bundle", req.BundleID, "timeout", req.Timeout)
		se := fail(context.DeadlineExceeded)
		se.TimedOut = true
		return domain.ScriptOutput{}, se
	}
}

// terminate stops the process group politely, then forcefully after the grace period.
func (r *Runner) terminate(cmd *exec.Cmd, waitErr <-chan error) {
	signalGroup(cmd, false)
	select {
	case <-waitErr:
		return
	case <-time.After(r.killGrace):
	}
	signalGroup(cmd, true)
	<-waitErr
}

// environ renders env as KEY=VALUE pairs in key order.
func environ(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// lockedBuffer interleaves stdout and stderr as they are written.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
