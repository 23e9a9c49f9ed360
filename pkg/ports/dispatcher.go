package ports

import (
	"context"

	"github.com/aretw0/arvis/pkg/domain"
)

// DispatchRequest is a queue of actions to execute with the args they render with.
type DispatchRequest struct {
	Actions  []domain.Action
	Args     domain.Args
	Modifier domain.Modifier
	BundleID string
}

// DispatchResult is what is left after the immediate actions ran.
type DispatchResult struct {
	// Next holds trigger actions, resetInput actions and async continuations, in order.
	Next []domain.Pending
	// Args is the possibly updated argument mapping.
	Args domain.Args
}

// ActionDispatcher executes non-trigger actions (scripts, open, clipboard, args).
// Trigger-type and resetInput actions are returned untouched in Next.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error)
}

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// Opener opens a URL or file with the platform's default handler.
type Opener interface {
	Open(ctx context.Context, target string) error
}
