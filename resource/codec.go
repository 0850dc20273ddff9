package resource

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// UnmarshalFunc decodes raw source bytes into the supplied holder.
type UnmarshalFunc func(data []byte, v any) error

var (
	codecMu sync.RWMutex
	codecs  = map[string]UnmarshalFunc{
		"json": json.Unmarshal,
		"toml": toml.Unmarshal,
		"yaml": yaml.Unmarshal,
		"yml":  yaml.Unmarshal,
	}
)

// RegisterCodec registers an unmarshal function for a source format,
// keyed by file extension without the leading dot.
func RegisterCodec(format string, fn UnmarshalFunc) {
	codecMu.Lock()
	defer codecMu.Unlock()
	codecs[strings.ToLower(format)] = fn
}

// Formats lists the formats with a registered codec.
func Formats() []string {
	codecMu.RLock()
	defer codecMu.RUnlock()

	out := make([]string, 0, len(codecs))
	for format := range codecs {
		out = append(out, format)
	}
	return out
}

// HasCodec reports whether a codec is registered for the format.
func HasCodec(format string) bool {
	_, ok := codecFor(format)
	return ok
}

func codecFor(format string) (UnmarshalFunc, bool) {
	codecMu.RLock()
	defer codecMu.RUnlock()
	fn, ok := codecs[strings.ToLower(format)]
	return fn, ok
}
