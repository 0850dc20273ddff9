package lingua

import (
	"context"

	"github.com/pitabwire/lingua/config"
)

// WithConfig Option that specifies or overrides the configuration
// object of the engine.
func WithConfig(cfg config.ConfigurationI18n) Option {
	return func(_ context.Context, e *Engine) {
		e.cfg = cfg
	}
}

// Config returns the engine's configuration.
func (e *Engine) Config() config.ConfigurationI18n {
	return e.cfg
}
