package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arvis"
	"github.com/aretw0/arvis/internal/config"
	"github.com/aretw0/arvis/pkg/adapters/desktop"
)

const notesWorkflow = `{
  "name": "notes",
  "createdby": "me",
  "version": "0.1.0",
  "commands": [
    {"type": "keyword", "command": "note", "title": "New note",
     "actions": [{"type": "open", "target": "note://{query}"}]}
  ]
}`

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	in     *io.PipeWriter
	out    *syncBuffer
	opener *desktop.RecordingOpener
	done   chan error
}

func startRun(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "notes")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arvis-workflow.json"), []byte(notesWorkflow), 0o644))

	cfg := config.Config{ExtensionsDir: root}
	cfg.Script.ShellsFile = filepath.Join(root, "missing.yaml")
	cfg.History.Backend = config.BackendMemory
	cfg.Log.Level = "error"

	pr, pw := io.Pipe()
	h := &harness{
		in:     pw,
		out:    &syncBuffer{},
		opener: &desktop.RecordingOpener{},
		done:   make(chan error, 1),
	}
	go func() {
		h.done <- Run(context.Background(), RunOptions{
			Config: cfg,
			In:     pr,
			Out:    h.out,
			Extra:  []arvis.Option{arvis.WithOpener(h.opener), arvis.WithClipboard(&desktop.MemoryClipboard{})},
		})
	}()
	return h
}

func (h *harness) send(t *testing.T, lines ...string) {
	t.Helper()
	for _, l := range lines {
		_, err := io.WriteString(h.in, l+"\n")
		require.NoError(t, err)
	}
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
		return nil
	}
}

func TestRun_TypeAndPress(t *testing.T) {
	h := startRun(t)

	h.send(t, "note buy milk")
	require.Eventually(t, func() bool {
		return strings.Contains(h.out.String(), "0  New note")
	}, 2*time.Second, 10*time.Millisecond)

	h.send(t, "")
	require.Eventually(t, func() bool {
		return len(h.opener.Opened()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "note://buy milk", h.opener.Opened()[0])

	entry := regexp.MustCompile(`\d\d:\d\d:\d\d  @me\.notes\s+note\n`)
	require.Eventually(t, func() bool {
		_, _ = io.WriteString(h.in, ":history\n")
		return entry.MatchString(h.out.String())
	}, 2*time.Second, 50*time.Millisecond)

	h.send(t, ":quit")
	require.NoError(t, h.wait(t))

	out := h.out.String()
	assert.Contains(t, out, ">>> 1 extensions loaded.")
	assert.Contains(t, out, ">>> Done.")
	assert.NotContains(t, out, "\x1b[", "output is not styled off a terminal")
}

func TestRun_CommandsAndErrors(t *testing.T) {
	h := startRun(t)

	h.send(t, ":list", ":bogus", ":press 7", ":help")
	h.in.Close()
	require.NoError(t, h.wait(t), "EOF ends the loop")

	out := h.out.String()
	assert.Contains(t, out, "@me.notes  notes 0.1.0")
	assert.Contains(t, out, "note")
	assert.Contains(t, out, `error: unknown command "bogus"`)
	assert.Contains(t, out, "error: no such row: 7")
	assert.Contains(t, out, ":press [N] [mods]")
}

func TestRun_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()
	defer pw.Close()

	cfg := config.Config{ExtensionsDir: t.TempDir()}
	cfg.Script.ShellsFile = filepath.Join(cfg.ExtensionsDir, "missing.yaml")

	done := make(chan error, 1)
	go func() { done <- Run(ctx, RunOptions{Config: cfg, In: pr, Out: &syncBuffer{}}) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.NoError(t, handleExecutionError(err))
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}
