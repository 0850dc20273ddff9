package lingua

import (
	"context"

	"github.com/pitabwire/lingua/workerpool"
)

// WithWorkerPool Option that supplies the pool used for preloading and
// background re-activation. The engine shuts down only pools it
// created itself.
func WithWorkerPool(pool workerpool.WorkerPool) Option {
	return func(_ context.Context, e *Engine) {
		e.pool = pool
		e.ownsPool = false
	}
}
