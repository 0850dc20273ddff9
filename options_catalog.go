package lingua

import (
	"context"

	"github.com/pitabwire/lingua/catalog"
)

// WithCatalog Option that installs the consumer receiving activated
// locale resources. Defaults to a bundle backed catalog manager.
func WithCatalog(consumer catalog.Consumer) Option {
	return func(_ context.Context, e *Engine) {
		e.consumer = consumer
	}
}
