package lingua

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pitabwire/util"
	"github.com/rs/xid"

	"github.com/pitabwire/lingua/cache"
	"github.com/pitabwire/lingua/catalog"
	"github.com/pitabwire/lingua/config"
	"github.com/pitabwire/lingua/resource"
	"github.com/pitabwire/lingua/watch"
	"github.com/pitabwire/lingua/workerpool"
)

// Descriptor maps a locale code to its ordered sources. Source order
// is merge precedence: later sources override earlier ones.
type Descriptor struct {
	Code    string
	Sources []resource.Ref
}

// Activation states, observable per locale through State.
const (
	StateIdle      = "idle"
	StateResolving = "resolving"
	StateMerging   = "merging"
	StateReady     = "ready"
	StateFailed    = "failed"
)

// Engine orchestrates lazy locale activation: descriptor lookup,
// cache backed source resolution in declaration order, merge and
// delivery to the catalog consumer.
// An instance is scoped to stay for the lifetime of the application.
type Engine struct {
	cfg      config.ConfigurationI18n
	logger   *util.LogEntry
	resolver *cache.Resolver
	consumer catalog.Consumer
	pool     workerpool.WorkerPool
	ownsPool bool
	watcher  *watch.Watcher

	descriptors map[string]*Descriptor

	seq atomic.Uint64

	mu        sync.Mutex
	active    string
	delivered uint64

	states sync.Map // code string -> state string
}

// Option configures the engine during construction.
type Option func(ctx context.Context, e *Engine)

// New creates an engine with the supplied options. With no
// configuration option the environment is consulted the usual way.
// When lazy mode is off every declared locale is preloaded before New
// returns.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:      util.Log(ctx),
		resolver:    cache.NewResolver(),
		descriptors: make(map[string]*Descriptor),
	}

	for _, opt := range opts {
		opt(ctx, e)
	}

	if e.cfg == nil {
		cfg, err := config.FromEnv[config.I18nConfig]()
		if err != nil {
			return nil, fmt.Errorf("loading configuration: %w", err)
		}
		e.cfg = &cfg
	}

	if e.cfg.ScriptFormatsEnabled() {
		resource.EnableScriptFormat()
	}

	if manifestPath := e.cfg.GetLocalesFile(); manifestPath != "" {
		if err := e.registerManifest(manifestPath); err != nil {
			return nil, err
		}
	}

	if err := e.validateDescriptors(); err != nil {
		return nil, err
	}

	if e.consumer == nil {
		manager, err := catalog.NewManager(e.cfg.GetDefaultLocale())
		if err != nil {
			return nil, err
		}
		e.consumer = manager
	}

	if e.pool == nil {
		pool, err := workerpool.New(ctx,
			workerpool.WithCapacity(max(e.cfg.GetPreloadConcurrency(), 1)),
			workerpool.WithLogger(e.logger))
		if err != nil {
			return nil, fmt.Errorf("creating worker pool: %w", err)
		}
		e.pool = pool
		e.ownsPool = true
	}

	if e.cfg.IsWatchSources() {
		if err := e.Watch(ctx); err != nil {
			return nil, err
		}
	}

	if !e.cfg.IsLazyLoad() {
		if err := e.Preload(ctx); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func (e *Engine) registerManifest(path string) error {
	manifest, err := config.LoadManifest(path)
	if err != nil {
		return err
	}

	for i := range manifest.Locales {
		entry := &manifest.Locales[i]
		if err = entry.Validate(e.cfg.ScriptFormatsEnabled()); err != nil {
			return err
		}

		sources := make([]resource.Ref, 0, len(entry.SourceFiles()))
		for _, file := range entry.SourceFiles() {
			sources = append(sources, resource.NewFileRef(config.ResolveSource(e.cfg.GetLangDir(), file)))
		}

		if err = e.Register(Descriptor{Code: entry.Code, Sources: sources}); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) validateDescriptors() error {
	scriptEnabled := e.cfg.ScriptFormatsEnabled()

	for code, desc := range e.descriptors {
		if len(desc.Sources) == 0 {
			return fmt.Errorf("%w: locale %q declares no sources", ErrInvalidDescriptor, code)
		}
		for _, ref := range desc.Sources {
			fileRef, ok := ref.(*resource.FileRef)
			if !ok {
				continue
			}
			if err := config.ValidateSourcePath(fileRef.Path, scriptEnabled); err != nil {
				return fmt.Errorf("locale %q: %w", code, err)
			}
		}
	}

	return nil
}

// Register declares a locale descriptor. Registering a code again
// replaces its previous declaration.
func (e *Engine) Register(desc Descriptor) error {
	if desc.Code == "" {
		return fmt.Errorf("%w: missing locale code", ErrInvalidDescriptor)
	}
	if len(desc.Sources) == 0 {
		return fmt.Errorf("%w: locale %q declares no sources", ErrInvalidDescriptor, desc.Code)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.descriptors[desc.Code] = &desc

	return nil
}

// Locales lists the declared locale codes, sorted.
func (e *Engine) Locales() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	codes := make([]string, 0, len(e.descriptors))
	for code := range e.descriptors {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// State reports the last observed activation state for a locale.
func (e *Engine) State(code string) string {
	if state, ok := e.states.Load(code); ok {
		return state.(string)
	}
	return StateIdle
}

// ActiveLocale returns the code of the last delivered activation.
func (e *Engine) ActiveLocale() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Resolver exposes the source cache, mostly for invalidation hooks.
func (e *Engine) Resolver() *cache.Resolver {
	return e.resolver
}

// Catalog returns the catalog consumer receiving activations.
func (e *Engine) Catalog() catalog.Consumer {
	return e.consumer
}

func (e *Engine) descriptor(code string) (*Descriptor, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	desc, ok := e.descriptors[code]
	return desc, ok
}

// Activate makes the locale's merged resources the active catalog.
// Activation is all or nothing: any resolution failure leaves the
// previously active locale untouched and selectable. After a
// successful activation, activating the same code again costs only
// cache hits and a cheap re-merge.
//
// Concurrent activations race last-write-wins: a completion that is
// older than the newest delivered one is not handed to the catalog,
// though the sources it resolved stay cached.
func (e *Engine) Activate(ctx context.Context, code string) (resource.Resource, error) {
	desc, ok := e.descriptor(code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocale, code)
	}

	seq := e.seq.Add(1)
	log := e.logger.WithField("locale", code).WithField("activation", xid.New().String())

	merged, err := e.resolveAndMerge(ctx, desc, log)
	if err != nil {
		e.states.Store(code, StateFailed)
		return nil, err
	}

	e.mu.Lock()
	if seq < e.delivered {
		e.mu.Unlock()
		log.Debug("stale activation completed after a newer one, not delivered")
		e.states.Store(code, StateReady)
		return merged, nil
	}

	if deliverErr := e.consumer.Activate(ctx, code, merged); deliverErr != nil {
		e.mu.Unlock()
		e.states.Store(code, StateFailed)
		return nil, fmt.Errorf("delivering catalog for %q: %w", code, deliverErr)
	}

	e.delivered = seq
	e.active = code
	e.mu.Unlock()

	e.states.Store(code, StateReady)
	log.Debug("locale activated")

	return merged, nil
}

func (e *Engine) resolveAndMerge(
	ctx context.Context,
	desc *Descriptor,
	log *util.LogEntry,
) (resource.Resource, error) {
	e.states.Store(desc.Code, StateResolving)

	resolved := make([]resource.Resource, 0, len(desc.Sources))
	for _, ref := range desc.Sources {
		res, err := e.resolver.Resolve(ctx, ref, desc.Code)
		if err != nil {
			log.WithError(err).WithField("source", ref.Key()).Error("source resolution failed")
			return nil, err
		}
		resolved = append(resolved, res)
	}

	e.states.Store(desc.Code, StateMerging)

	return resource.Merge(resolved...), nil
}

// Preload resolves and merges the named locales, or every declared
// locale when none are named, without touching the active catalog.
// Resolution runs through the worker pool so independent sources load
// concurrently; shared sources still resolve once.
func (e *Engine) Preload(ctx context.Context, codes ...string) error {
	if len(codes) == 0 {
		codes = e.Locales()
	}

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var errs []error

	collect := func(err error) {
		errMu.Lock()
		errs = append(errs, err)
		errMu.Unlock()
	}

	for _, code := range codes {
		desc, ok := e.descriptor(code)
		if !ok {
			collect(fmt.Errorf("%w: %q", ErrUnknownLocale, code))
			continue
		}

		wg.Add(1)
		task := func() {
			defer wg.Done()
			if _, err := e.resolveAndMerge(ctx, desc, e.logger.WithField("locale", desc.Code)); err != nil {
				collect(fmt.Errorf("preloading %q: %w", desc.Code, err))
				return
			}
			e.states.Store(desc.Code, StateReady)
		}

		if submitErr := e.pool.Submit(ctx, task); submitErr != nil {
			wg.Done()
			collect(fmt.Errorf("preloading %q: %w", desc.Code, submitErr))
		}
	}

	wg.Wait()

	return errors.Join(errs...)
}

// Watch starts invalidating cached sources when their backing files
// change, and re-activates the current locale when one of its sources
// does. Idempotent.
func (e *Engine) Watch(ctx context.Context) error {
	if e.watcher != nil {
		return nil
	}

	watcher, err := watch.New(ctx, e.resolver, func(path string) {
		e.refreshActive(ctx, path)
	})
	if err != nil {
		return err
	}
	e.watcher = watcher

	if langDir := e.cfg.GetLangDir(); langDir != "" {
		if _, statErr := os.Stat(langDir); statErr == nil {
			if addErr := watcher.Add(langDir); addErr != nil {
				e.logger.WithError(addErr).WithField("path", langDir).Warn("could not watch language directory")
			}
		}
	}

	e.mu.Lock()
	descriptors := make([]*Descriptor, 0, len(e.descriptors))
	for _, desc := range e.descriptors {
		descriptors = append(descriptors, desc)
	}
	e.mu.Unlock()

	for _, desc := range descriptors {
		for _, ref := range desc.Sources {
			fileRef, ok := ref.(*resource.FileRef)
			if !ok {
				continue
			}
			if addErr := watcher.Add(fileRef.Path); addErr != nil {
				e.logger.WithError(addErr).WithField("path", fileRef.Path).Warn("could not watch source file")
			}
		}
	}

	return nil
}

func (e *Engine) refreshActive(ctx context.Context, path string) {
	active := e.ActiveLocale()
	if active == "" {
		return
	}

	desc, ok := e.descriptor(active)
	if !ok {
		return
	}

	changedKey := resource.FileKey(path)
	for _, ref := range desc.Sources {
		if ref.Key() != changedKey {
			continue
		}

		task := func() {
			if _, err := e.Activate(ctx, active); err != nil {
				e.logger.WithError(err).WithField("locale", active).Warn("re-activation after source change failed")
			}
		}
		if err := e.pool.Submit(ctx, task); err != nil {
			e.logger.WithError(err).Warn("could not schedule re-activation")
		}
		return
	}
}

// Stop releases the watcher and the worker pool when the engine owns
// them.
func (e *Engine) Stop(_ context.Context) {
	if e.watcher != nil {
		_ = e.watcher.Close()
		e.watcher = nil
	}
	if e.ownsPool && e.pool != nil {
		e.pool.Shutdown()
	}
}
