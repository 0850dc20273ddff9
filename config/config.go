// Package config holds the configuration surface consumed by the
// engine: the lazy toggle, the language directory, declared locales
// and the experimental format gate.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/pitabwire/lingua/resource"
)

type contextKey string

func (c contextKey) String() string {
	return "lingua/config/" + string(c)
}

const ctxKeyConfiguration = contextKey("configurationKey")

// ErrScriptFormatDisabled indicates a script evaluated source was
// declared while the experimental format gate is off.
var ErrScriptFormatDisabled = errors.New("script sources require the experimental format gate")

// ErrInvalidLocaleEntry indicates a declared locale that cannot be
// turned into a descriptor.
var ErrInvalidLocaleEntry = errors.New("invalid locale entry")

// ToContext adds configuration to the current supplied context.
func ToContext(ctx context.Context, config any) context.Context {
	return context.WithValue(ctx, ctxKeyConfiguration, config)
}

// FromContext extracts configuration from the supplied context if any exist.
func FromContext[T any](ctx context.Context) T {
	if cfg, ok := ctx.Value(ctxKeyConfiguration).(T); ok {
		return cfg
	}
	var zero T
	return zero
}

// FromEnv convenience method to process configs.
func FromEnv[T any]() (T, error) {
	return env.ParseAs[T]()
}

// FillEnv convenience method to fill a config object with environment data.
func FillEnv(v any) error {
	return env.Parse(v)
}

// I18nConfig is the engine's configuration, loadable from the
// environment the way the frame services do it.
type I18nConfig struct {
	LogLevel      string `envDefault:"info"                      env:"LOG_LEVEL"       yaml:"log_level"`
	LogTimeFormat string `envDefault:"2006-01-02T15:04:05Z07:00" env:"LOG_TIME_FORMAT" yaml:"log_time_format"`
	LogColored    bool   `envDefault:"true"                      env:"LOG_COLORED"     yaml:"log_colored"`

	LazyLoad      bool   `envDefault:"true"    env:"I18N_LAZY_LOAD"      yaml:"lazy_load"`
	LangDir       string `envDefault:"locales" env:"I18N_LANG_DIR"       yaml:"lang_dir"`
	DefaultLocale string `envDefault:"en"      env:"I18N_DEFAULT_LOCALE" yaml:"default_locale"`
	LocalesFile   string `envDefault:""        env:"I18N_LOCALES_FILE"   yaml:"locales_file"`

	ExperimentalScriptFormats bool `envDefault:"false" env:"I18N_EXPERIMENTAL_SCRIPT_FORMATS" yaml:"experimental_script_formats"`

	WatchSources       bool `envDefault:"false" env:"I18N_WATCH_SOURCES"       yaml:"watch_sources"`
	PreloadConcurrency int  `envDefault:"4"     env:"I18N_PRELOAD_CONCURRENCY" yaml:"preload_concurrency"`
}

// ConfigurationI18n accessors used by the engine, in the interface per
// concern style of the frame configuration surface.
type ConfigurationI18n interface {
	IsLazyLoad() bool
	GetLangDir() string
	GetDefaultLocale() string
	GetLocalesFile() string
	ScriptFormatsEnabled() bool
	IsWatchSources() bool
	GetPreloadConcurrency() int
}

// ConfigurationLogLevel accessors for logger setup.
type ConfigurationLogLevel interface {
	LoggingLevel() string
	LoggingTimeFormat() string
	LoggingColored() bool
}

func (c *I18nConfig) IsLazyLoad() bool           { return c.LazyLoad }
func (c *I18nConfig) GetLangDir() string         { return c.LangDir }
func (c *I18nConfig) GetDefaultLocale() string   { return c.DefaultLocale }
func (c *I18nConfig) GetLocalesFile() string     { return c.LocalesFile }
func (c *I18nConfig) ScriptFormatsEnabled() bool { return c.ExperimentalScriptFormats }
func (c *I18nConfig) IsWatchSources() bool       { return c.WatchSources }
func (c *I18nConfig) GetPreloadConcurrency() int { return c.PreloadConcurrency }
func (c *I18nConfig) LoggingLevel() string       { return c.LogLevel }
func (c *I18nConfig) LoggingTimeFormat() string  { return c.LogTimeFormat }
func (c *I18nConfig) LoggingColored() bool       { return c.LogColored }

// ResolveSource resolves a relative source path against the language
// directory; absolute paths are returned as is.
func (c *I18nConfig) ResolveSource(path string) string {
	return ResolveSource(c.LangDir, path)
}

// ResolveSource resolves a relative source path against langDir.
func ResolveSource(langDir, path string) string {
	if filepath.IsAbs(path) || langDir == "" {
		return path
	}
	return filepath.Join(langDir, path)
}

// ValidateSourcePath enforces the experimental format gate: script
// evaluated sources are rejected unless the gate is on. This is a
// configuration time policy check, the runtime resolver never branches
// on the gate.
func ValidateSourcePath(path string, scriptFormatsEnabled bool) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if format == resource.ScriptFormat && !scriptFormatsEnabled {
		return fmt.Errorf("%w: %q", ErrScriptFormatDisabled, path)
	}
	return nil
}

// LocaleEntry is one declared locale: a code mapping to a single file
// or an ordered list of files. Order is merge precedence, later files
// override earlier ones.
type LocaleEntry struct {
	Code  string   `yaml:"code"            json:"code"`
	File  string   `yaml:"file,omitempty"  json:"file,omitempty"`
	Files []string `yaml:"files,omitempty" json:"files,omitempty"`
}

// SourceFiles returns the entry's ordered source list.
func (e *LocaleEntry) SourceFiles() []string {
	if len(e.Files) > 0 {
		return e.Files
	}
	if e.File != "" {
		return []string{e.File}
	}
	return nil
}

// Validate checks the entry can become a descriptor under the given
// gate setting.
func (e *LocaleEntry) Validate(scriptFormatsEnabled bool) error {
	if e.Code == "" {
		return fmt.Errorf("%w: missing locale code", ErrInvalidLocaleEntry)
	}

	files := e.SourceFiles()
	if len(files) == 0 {
		return fmt.Errorf("%w: locale %q declares no sources", ErrInvalidLocaleEntry, e.Code)
	}

	for _, file := range files {
		if err := ValidateSourcePath(file, scriptFormatsEnabled); err != nil {
			return fmt.Errorf("locale %q: %w", e.Code, err)
		}
	}

	return nil
}

// Manifest is the YAML locale declaration file referenced by
// I18N_LOCALES_FILE.
type Manifest struct {
	Locales []LocaleEntry `yaml:"locales"`
}

// LoadManifest reads and parses a locale manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading locales manifest %q: %w", path, err)
	}

	var manifest Manifest
	if err = yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing locales manifest %q: %w", path, err)
	}

	return &manifest, nil
}
