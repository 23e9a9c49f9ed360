package ports

import (
	"context"

	"github.com/aretw0/arvis/pkg/domain"
)

// ExtensionCatalog resolves installed extensions.
type ExtensionCatalog interface {
	// Extension returns the extension with the given bundle id.
	// Returns domain.ErrExtensionNotFound if it is not installed.
	Extension(bundleID string) (domain.Extension, error)

	// Extensions lists every installed extension, ordered by bundle id.
	Extensions() []domain.Extension
}

// Watchable defines an interface for catalogs that can notify about changes on disk.
// This is used to reload manifests while the launcher is running.
type Watchable interface {
	// Watch returns a channel that receives the path of every manifest that changes.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}

// PluginSource produces the rows plugins contribute for typed text.
// Running plugin code is up to the host; the session calls it on the engine's
// goroutine, so it must not block for long.
type PluginSource interface {
	PluginItems(ctx context.Context, input string) ([]domain.PluginItem, error)
}
