package ports

import (
	"context"

	"github.com/aretw0/arvis/pkg/async"
	"github.com/aretw0/arvis/pkg/domain"
)

// ScriptRunner executes a shell command string.
// The future resolves with the script output, or rejects with a *domain.ScriptError
// tagged TimedOut or Canceled. Canceling the future must stop the process.
type ScriptRunner interface {
	Run(ctx context.Context, req domain.ScriptRequest) *async.Future[domain.ScriptOutput]
}
