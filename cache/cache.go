// Package cache memoizes source resolution by reference identity.
// Producers can carry side effects such as remote fetches, so a source
// is resolved at most once for the process lifetime: repeated and
// concurrent requests for the same key observe one underlying
// invocation.
package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/pitabwire/lingua/resource"
)

// Invalidator is the subset of the resolver used by change watchers.
type Invalidator interface {
	Invalidate(key string)
}

// Resolver resolves source references through an append only store.
// Concurrent first resolutions of the same key collapse into a single
// producer invocation; later callers share the in-flight result.
type Resolver struct {
	resolved sync.Map // key string -> resource.Resource
	group    singleflight.Group
	hits     atomic.Int64
	misses   atomic.Int64
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the resource for ref, invoking its producer only if
// the key has never resolved successfully. Failed resolutions are not
// stored, so a failing source can be retried on a later activation.
// The returned resource is owned by the cache and must not be mutated.
func (r *Resolver) Resolve(ctx context.Context, ref resource.Ref, locale string) (resource.Resource, error) {
	key := ref.Key()

	if value, ok := r.resolved.Load(key); ok {
		r.hits.Add(1)
		return value.(resource.Resource), nil
	}

	value, err, _ := r.group.Do(key, func() (any, error) {
		// A sibling call may have stored the value between our load
		// and joining the flight group.
		if cached, ok := r.resolved.Load(key); ok {
			return cached, nil
		}

		res, produceErr := ref.Produce(ctx, locale)
		if produceErr != nil {
			return nil, produceErr
		}

		r.misses.Add(1)
		r.resolved.Store(key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	return value.(resource.Resource), nil
}

// Contains reports whether the key has a resolved entry.
func (r *Resolver) Contains(key string) bool {
	_, ok := r.resolved.Load(key)
	return ok
}

// Invalidate drops the entry for a key so the next resolution invokes
// the producer again. A no-op for unknown keys.
func (r *Resolver) Invalidate(key string) {
	r.resolved.Delete(key)
	r.group.Forget(key)
}

// Flush drops every resolved entry.
func (r *Resolver) Flush() {
	r.resolved.Range(func(key, _ any) bool {
		r.resolved.Delete(key)
		return true
	})
}

// Stats reports cache hits and producer invocations observed so far.
func (r *Resolver) Stats() (hits, misses int64) {
	return r.hits.Load(), r.misses.Load()
}
