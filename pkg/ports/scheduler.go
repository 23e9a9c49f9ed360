package ports

import (
	"time"

	"github.com/aretw0/arvis/pkg/scheduler"
)

// Scheduler delivers functions onto the engine's goroutine.
// Implementations: scheduler.Loop in production, scheduler.Manual in tests.
type Scheduler interface {
	Post(fn func())
	AfterFunc(d time.Duration, fn func()) scheduler.Timer
}
