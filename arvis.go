package arvis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/arvis/internal/logging"
	"github.com/aretw0/arvis/internal/runtime"
	"github.com/aretw0/arvis/pkg/adapters/desktop"
	"github.com/aretw0/arvis/pkg/adapters/dispatch"
	"github.com/aretw0/arvis/pkg/adapters/manifest"
	"github.com/aretw0/arvis/pkg/adapters/memory"
	"github.com/aretw0/arvis/pkg/adapters/process"
	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/observability"
	"github.com/aretw0/arvis/pkg/ports"
	"github.com/aretw0/arvis/pkg/scheduler"
	"github.com/aretw0/arvis/pkg/session"
)

// Version is the launcher version, set at build time.
var Version = "dev"

// Launcher wires the extension catalog, script runner, action dispatcher,
// history and metrics around one engine and its session.
type Launcher struct {
	catalog  *manifest.Catalog
	session  *session.Session
	history  ports.HistoryStore
	registry *prometheus.Registry
	logger   *slog.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type settings struct {
	extensionsDir string
	dataDir       string
	cacheDir      string
	variables     map[string]map[string]string

	shells        map[string]process.Shell
	defaultShell  string
	killGrace     time.Duration
	scriptTimeout time.Duration
	printOutput   bool

	runner    ports.ScriptRunner
	clipboard ports.Clipboard
	opener    ports.Opener
	history   ports.HistoryStore
	registry  *prometheus.Registry

	hooks       domain.LifecycleHooks
	sessionOpts []session.Option
	watch       bool
	logger      *slog.Logger
}

// Option configures a Launcher.
type Option func(*settings)

// WithExtensionsDir sets the directory holding one subdirectory per extension.
func WithExtensionsDir(dir string) Option {
	return func(s *settings) { s.extensionsDir = dir }
}

// WithDataDir sets the root of the per-extension data directories.
func WithDataDir(dir string) Option {
	return func(s *settings) { s.dataDir = dir }
}

// WithCacheDir sets the root of the per-extension cache directories.
func WithCacheDir(dir string) Option {
	return func(s *settings) { s.cacheDir = dir }
}

// WithVariables overrides extension variables, by bundle id then variable name.
func WithVariables(vars map[string]map[string]string) Option {
	return func(s *settings) { s.variables = vars }
}

// WithShells adds or replaces the shells scripts may select.
func WithShells(shells map[string]process.Shell) Option {
	return func(s *settings) { s.shells = shells }
}

// WithDefaultShell selects the shell for scripts that name none.
func WithDefaultShell(name string) Option {
	return func(s *settings) { s.defaultShell = name }
}

// WithKillGrace sets how long a canceled script may exit before it is killed.
func WithKillGrace(d time.Duration) Option {
	return func(s *settings) { s.killGrace = d }
}

// WithScriptTimeout bounds script filter runs and script actions. Zero means no timeout.
func WithScriptTimeout(d time.Duration) Option {
	return func(s *settings) { s.scriptTimeout = d }
}

// WithScriptOutput logs the output of script actions.
func WithScriptOutput(enabled bool) Option {
	return func(s *settings) { s.printOutput = enabled }
}

// WithRunner replaces the shell script runner.
func WithRunner(r ports.ScriptRunner) Option {
	return func(s *settings) { s.runner = r }
}

// WithClipboard replaces the system clipboard.
func WithClipboard(c ports.Clipboard) Option {
	return func(s *settings) { s.clipboard = c }
}

// WithOpener replaces the platform opener.
func WithOpener(o ports.Opener) Option {
	return func(s *settings) { s.opener = o }
}

// WithHistory sets the input history store (default: in memory).
func WithHistory(h ports.HistoryStore) Option {
	return func(s *settings) { s.history = h }
}

// WithRegistry registers the launcher metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *settings) { s.registry = reg }
}

// WithLifecycleHooks adds observability hooks next to the metrics.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) { s.hooks = s.hooks.Merge(hooks) }
}

// WithSessionOptions configures the session, e.g. session.OnChange.
func WithSessionOptions(opts ...session.Option) Option {
	return func(s *settings) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

// WithWatch reloads extensions when their manifests change on disk.
func WithWatch(enabled bool) Option {
	return func(s *settings) { s.watch = enabled }
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// New loads the installed extensions and starts the engine loop.
// Broken manifests are logged and skipped. Call Close to stop the loop.
func New(opts ...Option) (*Launcher, error) {
	s := settings{
		killGrace: process.DefaultKillGrace,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.extensionsDir == "" {
		return nil, errors.New("an extensions directory is required")
	}
	absDir, err := filepath.Abs(s.extensionsDir)
	if err != nil {
		return nil, fmt.Errorf("invalid extensions dir: %w", err)
	}

	catalog := manifest.New(absDir,
		manifest.WithDataDir(s.dataDir),
		manifest.WithCacheDir(s.cacheDir),
		manifest.WithVariables(s.variables),
		manifest.WithLogger(s.logger),
	)
	if err := catalog.Reload(); err != nil {
		s.logger.Warn("some extensions failed to load", "error", err)
	}

	if s.runner == nil {
		runnerOpts := []process.RunnerOption{
			process.WithShells(s.shells),
			process.WithKillGrace(s.killGrace),
			process.WithLogger(s.logger),
		}
		if s.defaultShell != "" {
			runnerOpts = append(runnerOpts, process.WithDefaultShell(s.defaultShell))
		}
		s.runner = process.NewRunner(runnerOpts...)
	}
	if s.clipboard == nil {
		s.clipboard = desktop.SystemClipboard{}
	}
	if s.opener == nil {
		s.opener = desktop.NewOpener()
	}
	if s.history == nil {
		s.history = memory.NewHistory(memory.DefaultCapacity)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	metrics, err := observability.NewMetrics(s.registry)
	if err != nil {
		return nil, err
	}

	disp := dispatch.New(s.runner, s.clipboard, s.opener, catalog,
		dispatch.WithLogger(s.logger),
		dispatch.WithScriptOutput(s.printOutput),
		dispatch.WithScriptTimeout(s.scriptTimeout),
	)

	loop := scheduler.NewLoop(scheduler.WithLogger(s.logger))
	engine := runtime.NewEngine(s.runner, disp, catalog, loop,
		runtime.WithLogger(s.logger),
		runtime.WithLifecycleHooks(metrics.Hooks().Merge(s.hooks)),
		runtime.WithHistory(s.history),
		runtime.WithScriptTimeout(s.scriptTimeout),
	)
	sess := session.New(engine, catalog, loop, append([]session.Option{session.WithLogger(s.logger)}, s.sessionOpts...)...)

	ctx, cancel := context.WithCancel(context.Background())
	l := &Launcher{
		catalog:  catalog,
		session:  sess,
		history:  s.history,
		registry: s.registry,
		logger:   s.logger,
		cancel:   cancel,
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		_ = loop.Run(ctx)
	}()

	if s.watch {
		if err := os.MkdirAll(absDir, 0o755); err != nil {
			l.Close()
			return nil, fmt.Errorf("failed to create extensions dir: %w", err)
		}
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			if err := sess.WatchCatalog(ctx, catalog, catalog); err != nil && !errors.Is(err, context.Canceled) {
				l.logger.Error("extension watcher stopped", "error", err)
			}
		}()
	}

	return l, nil
}

// Session returns the launcher session.
func (l *Launcher) Session() *session.Session { return l.session }

// Extensions returns the installed extensions, ordered by bundle id.
func (l *Launcher) Extensions() []domain.Extension { return l.catalog.Extensions() }

// Reload rereads every manifest.
func (l *Launcher) Reload() error { return l.catalog.Reload() }

// History returns the input history store.
func (l *Launcher) History() ports.HistoryStore { return l.history }

// Gatherer returns the registry holding the launcher metrics.
func (l *Launcher) Gatherer() prometheus.Gatherer { return l.registry }

// Close stops the engine loop and the watcher, then closes the history store
// if it holds resources.
func (l *Launcher) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.cancel()
		l.wg.Wait()
		if c, ok := l.history.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}
