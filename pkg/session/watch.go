package session

import (
	"context"

	"github.com/aretw0/arvis/pkg/ports"
)

// Reloader rereads installed extensions.
type Reloader interface {
	Reload() error
}

// WatchCatalog reloads r on the engine's goroutine whenever w reports a changed
// manifest. It blocks until ctx is done or the watch ends.
func (s *Session) WatchCatalog(ctx context.Context, w ports.Watchable, r Reloader) error {
	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	for path := range events {
		s.logger.Info("extension manifest changed", "path", path)
		var rerr error
		if err := s.exec.Do(ctx, func() { rerr = r.Reload() }); err != nil {
			return err
		}
		if rerr != nil {
			s.logger.Warn("some extensions failed to reload", "error", rerr)
		}
	}
	return ctx.Err()
}
