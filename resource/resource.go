// Package resource models translation sources: references that identify
// them, producers that yield their content and the merge that folds
// several partial resources into one.
package resource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMalformedResource indicates a source resolved to something other
// than a message mapping.
var ErrMalformedResource = errors.New("source did not resolve to a resource object")

// ErrUnknownFormat indicates a source file whose extension has no
// registered codec.
var ErrUnknownFormat = errors.New("no codec registered for source format")

// Resource is a mapping from message key to a translated value, either
// a string or a nested mapping.
type Resource map[string]any

// ProducerFunc is the contract for user supplied sources. It receives
// the locale being activated and returns a resource object. A producer
// that fetches remotely simply blocks until its result is available;
// no timeout is imposed here, a hung producer hangs the activation.
type ProducerFunc func(ctx context.Context, locale string) (any, error)

// Ref identifies one translation source. Key is stable for the process
// lifetime and is the cache identity: two refs with equal keys are the
// same source.
type Ref interface {
	Key() string
	Produce(ctx context.Context, locale string) (Resource, error)
}

// FileKey derives the cache key used for a file backed source.
func FileKey(path string) string {
	return "file://" + filepath.Clean(path)
}

// FileRef resolves a source from a file on disk, decoded by the codec
// registered for its extension.
type FileRef struct {
	Path string
}

// NewFileRef creates a file backed source reference.
func NewFileRef(path string) *FileRef {
	return &FileRef{Path: path}
}

func (f *FileRef) Key() string {
	return FileKey(f.Path)
}

// Format returns the lowercased extension of the backing file without
// the leading dot.
func (f *FileRef) Format() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Path), "."))
}

func (f *FileRef) Produce(_ context.Context, _ string) (Resource, error) {
	unmarshal, ok := codecFor(f.Format())
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f.Path)
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading source %q: %w", f.Path, err)
	}

	var decoded any
	if err = unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decoding source %q: %w", f.Path, err)
	}

	res, ok := AsResource(decoded)
	if !ok {
		return nil, fmt.Errorf("%w: %q decoded to %T", ErrMalformedResource, f.Path, decoded)
	}

	return res, nil
}

// StaticRef wraps an inline resource object declared in configuration.
type StaticRef struct {
	id   string
	data Resource
}

// NewStaticRef creates a source backed by a static resource object. The
// id is the cache identity and must be unique among inline sources.
func NewStaticRef(id string, data Resource) *StaticRef {
	return &StaticRef{id: id, data: data}
}

func (s *StaticRef) Key() string {
	return "static://" + s.id
}

func (s *StaticRef) Produce(_ context.Context, _ string) (Resource, error) {
	if s.data == nil {
		return nil, fmt.Errorf("%w: static source %q is nil", ErrMalformedResource, s.id)
	}
	// Detach from the declaring caller so later mutation of its map
	// cannot reach the cache.
	return s.data.Copy(), nil
}

// FuncRef wraps a producer function. Identity is the registered id, not
// the function's output.
type FuncRef struct {
	id string
	fn ProducerFunc
}

// NewFuncRef creates a source backed by a producer function.
func NewFuncRef(id string, fn ProducerFunc) *FuncRef {
	return &FuncRef{id: id, fn: fn}
}

func (f *FuncRef) Key() string {
	return "func://" + f.id
}

func (f *FuncRef) Produce(ctx context.Context, locale string) (Resource, error) {
	value, err := f.fn(ctx, locale)
	if err != nil {
		// The producer's own failure propagates unchanged, retry is
		// the producer's or caller's responsibility.
		return nil, err
	}

	res, ok := AsResource(value)
	if !ok {
		return nil, fmt.Errorf("%w: producer %q returned %T", ErrMalformedResource, f.id, value)
	}

	return res, nil
}

// AsResource coerces a decoded or producer supplied value into a
// Resource. Mappings with non string keys, as yaml can produce, are
// normalised; anything that is not a mapping is rejected.
func AsResource(value any) (Resource, bool) {
	switch v := value.(type) {
	case Resource:
		return v, v != nil
	case map[string]any:
		if v == nil {
			return nil, false
		}
		return Resource(v), true
	case map[any]any:
		out := make(Resource, len(v))
		for key, val := range v {
			out[fmt.Sprintf("%v", key)] = normaliseValue(val)
		}
		return out, true
	default:
		return nil, false
	}
}

func normaliseValue(value any) any {
	switch v := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[fmt.Sprintf("%v", key)] = normaliseValue(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = normaliseValue(val)
		}
		return out
	default:
		return v
	}
}

// Copy returns a deep copy of the resource.
func (r Resource) Copy() Resource {
	if r == nil {
		return nil
	}
	out := make(Resource, len(r))
	for k, v := range r {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(value any) any {
	switch v := value.(type) {
	case Resource:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[k] = copyValue(val)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[k] = copyValue(val)
		}
		return m
	case []any:
		s := make([]any, len(v))
		for i, val := range v {
			s[i] = copyValue(val)
		}
		return s
	default:
		return v
	}
}
