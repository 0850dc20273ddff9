package lingua

import (
	"context"

	"github.com/pitabwire/util"

	"github.com/pitabwire/lingua/config"
)

// WithLogger Option that initialises the engine's logger, honouring
// the configured level when a configuration is already set.
func WithLogger(opts ...util.Option) Option {
	return func(ctx context.Context, e *Engine) {
		if e.cfg != nil {
			cfg, ok := e.cfg.(config.ConfigurationLogLevel)
			if ok {
				logLevel, err := util.ParseLevel(cfg.LoggingLevel())
				if err == nil {
					opts = append(opts, util.WithLogLevel(logLevel))
				}
				opts = append(opts,
					util.WithLogTimeFormat(cfg.LoggingTimeFormat()),
					util.WithLogNoColor(!cfg.LoggingColored()))
			}
		}

		e.logger = util.NewLogger(ctx, opts...)
	}
}

// Log returns the engine's logger bound to the supplied context.
func (e *Engine) Log(ctx context.Context) *util.LogEntry {
	return e.logger.WithContext(ctx)
}
