package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/arvis"
	"github.com/aretw0/arvis/internal/config"
	"github.com/aretw0/arvis/internal/presentation/tui"
	"github.com/aretw0/arvis/pkg/session"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Config config.Config
	Debug  bool
	Watch  bool
	In     io.Reader
	Out    io.Writer

	// Extra is appended to the options derived from Config.
	Extra []arvis.Option
}

// Run drives a launcher from lines read on In until EOF, :quit or ctx ends.
func Run(ctx context.Context, opts RunOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	logger, err := NewLogger(opts.Config.Log, opts.Debug)
	if err != nil {
		return err
	}

	width, interactive := terminalWidth(opts.Out)
	if interactive {
		tui.PrintBanner(opts.Out)
	}
	scr := newScreen(opts.Out, interactive)

	launcherOpts, err := LauncherOptions(opts.Config, logger, opts.Debug)
	if err != nil {
		return err
	}
	launcherOpts = append(launcherOpts,
		arvis.WithWatch(opts.Watch),
		arvis.WithSessionOptions(
			session.OnChange(scr.show),
			session.OnWorkEnd(func() { scr.system("Done.") }),
		),
	)
	launcherOpts = append(launcherOpts, opts.Extra...)

	l, err := arvis.New(launcherOpts...)
	if err != nil {
		return fmt.Errorf("error initializing arvis: %w", err)
	}
	defer l.Close()

	logger.Info("Launcher started", "extensions", len(l.Extensions()), "dir", opts.Config.ExtensionsDir)
	scr.system("%d extensions loaded. Type :help for commands.", len(l.Extensions()))

	r := &repl{launcher: l, screen: scr, width: width}
	lines := readLines(ctx, opts.In)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := r.exec(ctx, line)
			if err != nil {
				scr.error(err)
			}
			if quit {
				return nil
			}
		}
	}
}

// readLines pumps lines from in until EOF or ctx ends.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, true
	}
	return width, true
}

// screen serializes output from the engine goroutine and the input loop.
type screen struct {
	mu      sync.Mutex
	out     io.Writer
	buf     bytes.Buffer
	printer *tui.ViewPrinter
	last    string
	view    session.View
}

func newScreen(out io.Writer, styled bool) *screen {
	s := &screen{out: out}
	profile := termenv.Ascii
	if styled {
		profile = termenv.NewOutput(out).EnvColorProfile()
	}
	s.printer = tui.NewViewPrinter(&s.buf, termenv.WithProfile(profile))
	return s
}

// show prints v unless it renders the same as the previous view.
func (s *screen) show(v session.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
	s.buf.Reset()
	s.printer.Print(v)
	if text := s.buf.String(); text != s.last {
		s.last = text
		io.WriteString(s.out, text)
	}
}

func (s *screen) selected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Selected
}

func (s *screen) error(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
	s.printer.Error(err)
	io.WriteString(s.out, s.buf.String())
}

func (s *screen) system(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	printSystemMessage(s.out, format, args...)
}

func (s *screen) write(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.out, text)
	// Force the next view out even if it did not change.
	s.last = ""
}

type repl struct {
	launcher *arvis.Launcher
	screen   *screen
	width    int
	render   func(string) (string, error)
}

// exec runs one line. It reports whether the loop should stop.
func (r *repl) exec(ctx context.Context, line string) (bool, error) {
	cmd, err := parseLine(line, r.screen.selected())
	if err != nil {
		return false, err
	}
	sess := r.launcher.Session()

	switch cmd.kind {
	case cmdType:
		return false, sess.Type(ctx, cmd.text)
	case cmdPress:
		return false, sess.Press(ctx, cmd.index, cmd.mods)
	case cmdPreview:
		return false, sess.Preview(ctx, cmd.index, cmd.mods)
	case cmdBack:
		return false, sess.Back(ctx)
	case cmdReset:
		return false, sess.Reset(ctx)
	case cmdLarge:
		return false, r.largeType(ctx, cmd.index)
	case cmdList:
		r.listExtensions()
	case cmdReload:
		err := r.launcher.Reload()
		r.screen.system("%d extensions loaded.", len(r.launcher.Extensions()))
		return false, err
	case cmdHistory:
		return false, r.history(ctx)
	case cmdHelp:
		r.screen.write(helpText + "\n")
	case cmdQuit:
		return true, nil
	}
	return false, nil
}

func (r *repl) largeType(ctx context.Context, index int) error {
	v, err := r.launcher.Session().Snapshot(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(v.Rows) {
		return fmt.Errorf("%w: %d", session.ErrNoRow, index)
	}
	row := v.Rows[index]
	text := row.Largetype
	if text == "" {
		text = row.Title
	}

	if r.render == nil {
		render, err := tui.NewRenderer(r.width)
		if err != nil {
			return fmt.Errorf("failed to create renderer: %w", err)
		}
		r.render = render
	}
	out, err := r.render(text)
	if err != nil {
		return err
	}
	r.screen.write(out)
	return nil
}

func (r *repl) listExtensions() {
	var b bytes.Buffer
	for _, ext := range r.launcher.Extensions() {
		state := ""
		if !ext.Enabled {
			state = " (disabled)"
		}
		fmt.Fprintf(&b, "%s  %s %s%s\n", ext.BundleID, ext.Name, ext.Version, state)
		for _, c := range ext.Commands {
			if c.Command != "" {
				fmt.Fprintf(&b, "    %-12s %s\n", c.Command, c.Title)
			}
		}
	}
	if b.Len() == 0 {
		b.WriteString("no extensions installed\n")
	}
	r.screen.write(b.String())
}

func (r *repl) history(ctx context.Context) error {
	entries, err := r.launcher.History().List(ctx, 10)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %-16s %s\n", e.Time.Format("15:04:05"), e.BundleID, e.Input)
	}
	if len(entries) == 0 {
		b.WriteString("history is empty\n")
	}
	r.screen.write(b.String())
	return nil
}

// Execute loads the configuration and runs the launcher until interrupted.
func Execute(loader *config.Loader, debug, watch bool) error {
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	out := os.Stdout
	err = Run(sigCtx, RunOptions{Config: cfg, Debug: debug, Watch: watch, In: os.Stdin, Out: out})
	if _, interactive := terminalWidth(out); interactive && (err == nil || isInterrupted(err)) {
		logCompletion(out, sigCtx.Signal())
	}
	return handleExecutionError(err)
}
