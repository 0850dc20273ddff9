package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/lingua/config"
)

// ConfigTestSuite exercises environment parsing, the locale manifest
// and the experimental format gate.
type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, &ConfigTestSuite{})
}

func (s *ConfigTestSuite) TestFromEnvDefaults() {
	cfg, err := config.FromEnv[config.I18nConfig]()
	s.Require().NoError(err)

	s.Require().True(cfg.IsLazyLoad(), "lazy mode should default on")
	s.Require().Equal("locales", cfg.GetLangDir())
	s.Require().Equal("en", cfg.GetDefaultLocale())
	s.Require().False(cfg.ScriptFormatsEnabled(), "experimental gate should default off")
	s.Require().False(cfg.IsWatchSources())
	s.Require().Equal(4, cfg.GetPreloadConcurrency())
}

func (s *ConfigTestSuite) TestFromEnvOverrides() {
	s.T().Setenv("I18N_LAZY_LOAD", "false")
	s.T().Setenv("I18N_LANG_DIR", "translations")
	s.T().Setenv("I18N_DEFAULT_LOCALE", "sw")
	s.T().Setenv("I18N_EXPERIMENTAL_SCRIPT_FORMATS", "true")

	cfg, err := config.FromEnv[config.I18nConfig]()
	s.Require().NoError(err)

	s.Require().False(cfg.IsLazyLoad())
	s.Require().Equal("translations", cfg.GetLangDir())
	s.Require().Equal("sw", cfg.GetDefaultLocale())
	s.Require().True(cfg.ScriptFormatsEnabled())
}

func (s *ConfigTestSuite) TestResolveSource() {
	testCases := []struct {
		name     string
		langDir  string
		path     string
		expected string
	}{
		{"relative against lang dir", "locales", "es.json", filepath.Join("locales", "es.json")},
		{"absolute untouched", "locales", "/etc/i18n/es.json", "/etc/i18n/es.json"},
		{"empty lang dir", "", "es.json", "es.json"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Require().Equal(tc.expected, config.ResolveSource(tc.langDir, tc.path))
		})
	}
}

func (s *ConfigTestSuite) TestValidateSourcePath() {
	testCases := []struct {
		name          string
		path          string
		scriptEnabled bool
		wantErr       bool
	}{
		{"json always allowed", "es.json", false, false},
		{"toml always allowed", "messages.en.toml", false, false},
		{"script rejected when gate off", "es.js", false, true},
		{"script allowed when gate on", "es.js", true, false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := config.ValidateSourcePath(tc.path, tc.scriptEnabled)
			if tc.wantErr {
				s.Require().ErrorIs(err, config.ErrScriptFormatDisabled)
				return
			}
			s.Require().NoError(err)
		})
	}
}

func (s *ConfigTestSuite) TestLocaleEntryValidate() {
	testCases := []struct {
		name    string
		entry   config.LocaleEntry
		wantErr error
	}{
		{
			name:  "single file",
			entry: config.LocaleEntry{Code: "es", File: "es.json"},
		},
		{
			name:  "ordered file list",
			entry: config.LocaleEntry{Code: "es-AR", Files: []string{"es.json", "es-AR.json"}},
		},
		{
			name:    "missing code",
			entry:   config.LocaleEntry{File: "es.json"},
			wantErr: config.ErrInvalidLocaleEntry,
		},
		{
			name:    "no sources",
			entry:   config.LocaleEntry{Code: "es"},
			wantErr: config.ErrInvalidLocaleEntry,
		},
		{
			name:    "script file behind gate",
			entry:   config.LocaleEntry{Code: "es", File: "es.js"},
			wantErr: config.ErrScriptFormatDisabled,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := tc.entry.Validate(false)
			if tc.wantErr != nil {
				s.Require().ErrorIs(err, tc.wantErr)
				return
			}
			s.Require().NoError(err)
		})
	}
}

func (s *ConfigTestSuite) TestLoadManifest() {
	content := `locales:
  - code: en
    file: en.json
  - code: es
    file: es.json
  - code: es-AR
    files:
      - es.json
      - es-AR.json
`
	path := filepath.Join(s.T().TempDir(), "locales.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	manifest, err := config.LoadManifest(path)
	s.Require().NoError(err)
	s.Require().Len(manifest.Locales, 3)

	s.Require().Equal([]string{"en.json"}, manifest.Locales[0].SourceFiles())
	s.Require().Equal([]string{"es.json", "es-AR.json"}, manifest.Locales[2].SourceFiles(),
		"declared source order must be preserved exactly")
}

func (s *ConfigTestSuite) TestLoadManifestMissing() {
	_, err := config.LoadManifest(filepath.Join(s.T().TempDir(), "absent.yaml"))
	s.Require().Error(err)
}
