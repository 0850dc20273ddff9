// Package lingua is a lazy translation-resource loading engine. Given
// declared locales, each mapping to one or more sources, it resolves
// only the resources the activated locale needs, merges multi file
// locale definitions in declaration order and caches resolved sources
// so repeated activations never re-invoke a producer.
package lingua

import (
	"context"
)

type contextKey string

func (c contextKey) String() string {
	return "lingua/" + string(c)
}

const ctxKeyEngine = contextKey("engineKey")

// ToContext pushes the engine into the supplied context.
func ToContext(ctx context.Context, engine *Engine) context.Context {
	return context.WithValue(ctx, ctxKeyEngine, engine)
}

// FromContext obtains the engine stored in a context if any exists.
func FromContext(ctx context.Context) *Engine {
	engine, ok := ctx.Value(ctxKeyEngine).(*Engine)
	if !ok {
		return nil
	}

	return engine
}
