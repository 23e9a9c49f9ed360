// Package desktop adapts the operating system's clipboard and URL opener to
// the ports the action dispatcher needs.
package desktop

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// SystemClipboard is the clipboard of the user's desktop session.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return text, nil
}

func (SystemClipboard) WriteAll(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// Available reports whether a system clipboard backend was found.
func Available() bool {
	return !clipboard.Unsupported
}

// MemoryClipboard keeps the clipboard in process, for headless hosts and tests.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (m *MemoryClipboard) ReadAll() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *MemoryClipboard) WriteAll(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}
