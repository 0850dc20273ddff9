// Package workerpool wraps an ants pool behind the small Submit and
// Shutdown surface the engine needs for preloading locales.
package workerpool

import (
	"context"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pitabwire/util"
)

// WorkerPool runs background tasks.
type WorkerPool interface {
	Submit(ctx context.Context, task func()) error
	Shutdown()
}

// Options defines configurable options for the worker pool.
type Options struct {
	Capacity       int
	ExpiryDuration time.Duration
	Nonblocking    bool
	PreAlloc       bool
	PanicHandler   func(any)
	Logger         *util.LogEntry
	DisablePurge   bool
}

// Option defines a function that configures worker pool options.
type Option func(*Options)

// WithCapacity sets the pool capacity.
func WithCapacity(capacity int) Option {
	return func(opts *Options) {
		opts.Capacity = capacity
	}
}

// WithExpiryDuration sets the expiry duration for idle workers.
func WithExpiryDuration(duration time.Duration) Option {
	return func(opts *Options) {
		opts.ExpiryDuration = duration
	}
}

// WithNonblocking makes Submit fail rather than wait when the pool is full.
func WithNonblocking(nonblocking bool) Option {
	return func(opts *Options) {
		opts.Nonblocking = nonblocking
	}
}

// WithPreAlloc pre-allocates memory for the pool.
func WithPreAlloc(preAlloc bool) Option {
	return func(opts *Options) {
		opts.PreAlloc = preAlloc
	}
}

// WithPanicHandler sets a panic handler for the pool.
func WithPanicHandler(handler func(any)) Option {
	return func(opts *Options) {
		opts.PanicHandler = handler
	}
}

// WithLogger sets a logger for the pool.
func WithLogger(logger *util.LogEntry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithDisablePurge disables the purge mechanism in the pool.
func WithDisablePurge(disable bool) Option {
	return func(opts *Options) {
		opts.DisablePurge = disable
	}
}

func defaultOptions(ctx context.Context) *Options {
	return &Options{
		Capacity:       runtime.NumCPU() * 2,
		ExpiryDuration: time.Second,
		Nonblocking:    false,
		PreAlloc:       false,
		PanicHandler:   nil,
		Logger:         util.Log(ctx),
		DisablePurge:   false,
	}
}

// New creates a worker pool with the supplied options.
func New(ctx context.Context, opts ...Option) (WorkerPool, error) {
	wopts := defaultOptions(ctx)
	for _, opt := range opts {
		opt(wopts)
	}

	var antsOpts []ants.Option
	if wopts.ExpiryDuration > 0 {
		antsOpts = append(antsOpts, ants.WithExpiryDuration(wopts.ExpiryDuration))
	}
	antsOpts = append(antsOpts, ants.WithNonblocking(wopts.Nonblocking))
	if wopts.PreAlloc {
		antsOpts = append(antsOpts, ants.WithPreAlloc(wopts.PreAlloc))
	}
	if wopts.PanicHandler != nil {
		antsOpts = append(antsOpts, ants.WithPanicHandler(wopts.PanicHandler))
	}
	if wopts.Logger != nil {
		antsOpts = append(antsOpts, ants.WithLogger(wopts.Logger))
	}
	antsOpts = append(antsOpts, ants.WithDisablePurge(wopts.DisablePurge))

	pool, err := ants.NewPool(wopts.Capacity, antsOpts...)
	if err != nil {
		return nil, err
	}

	return &poolWrapper{pool: pool}, nil
}

// poolWrapper adapts *ants.Pool to the WorkerPool interface.
type poolWrapper struct {
	pool *ants.Pool
}

func (w *poolWrapper) Submit(ctx context.Context, task func()) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	return w.pool.Submit(task)
}

func (w *poolWrapper) Shutdown() {
	w.pool.Release()
}
