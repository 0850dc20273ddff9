package lingua

import (
	"context"

	"github.com/pitabwire/lingua/config"
	"github.com/pitabwire/lingua/resource"
)

// WithLocale Option that declares one locale from its ordered sources.
func WithLocale(code string, sources ...resource.Ref) Option {
	return func(_ context.Context, e *Engine) {
		if err := e.Register(Descriptor{Code: code, Sources: sources}); err != nil {
			e.logger.WithError(err).WithField("locale", code).Warn("could not register locale")
		}
	}
}

// WithLocaleFiles Option that declares one locale from an ordered list
// of source files, resolved against the configured language directory
// when relative.
func WithLocaleFiles(code string, paths ...string) Option {
	return func(_ context.Context, e *Engine) {
		sources := make([]resource.Ref, 0, len(paths))
		for _, path := range paths {
			langDir := ""
			if e.cfg != nil {
				langDir = e.cfg.GetLangDir()
			}
			sources = append(sources, resource.NewFileRef(config.ResolveSource(langDir, path)))
		}
		if err := e.Register(Descriptor{Code: code, Sources: sources}); err != nil {
			e.logger.WithError(err).WithField("locale", code).Warn("could not register locale")
		}
	}
}

// WithDescriptors Option that declares several locales at once.
func WithDescriptors(descriptors ...Descriptor) Option {
	return func(_ context.Context, e *Engine) {
		for _, desc := range descriptors {
			if err := e.Register(desc); err != nil {
				e.logger.WithError(err).WithField("locale", desc.Code).Warn("could not register locale")
			}
		}
	}
}
