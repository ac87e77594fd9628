package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/text/language"

	"github.com/pitabwire/resources/source"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) TestContextHelpersAndKeyString() {
	ctx := context.Background()
	cfg := ConfigurationDefault{ServiceName: "svc"}

	s.Equal("resources/config/configurationKey", ctxKeyConfiguration.String())

	ctx = ToContext(ctx, cfg)
	fromCtx := FromContext[ConfigurationDefault](ctx)
	s.Equal("svc", fromCtx.ServiceName)

	missing := FromContext[*ConfigurationDefault](context.Background())
	s.Nil(missing)
}

func (s *ConfigSuite) TestFromEnvDefaults() {
	cfg, err := FromEnv[ConfigurationDefault]()
	s.Require().NoError(err)
	s.Equal("info", cfg.LoggingLevel())
	s.Equal(DefaultBundleCacheTTL, cfg.BundleCacheTTL())
	s.Equal("auto", cfg.BundleEncoding())

	tag, err := cfg.Locale()
	s.Require().NoError(err)
	s.Equal(language.Und, tag)
}

func (s *ConfigSuite) TestFromEnvAndFillEnv() {
	s.T().Setenv("LOG_LEVEL", "debug")
	s.T().Setenv("RESOURCES_LOCALE", "de_CH")
	s.T().Setenv("RESOURCES_BUNDLE_CACHE_TTL", "30s")
	s.T().Setenv("RESOURCES_MANIFEST", " testdata/manifest.toml ")

	cfg, err := FromEnv[ConfigurationDefault]()
	s.Require().NoError(err)
	s.True(cfg.LoggingLevelIsDebug())
	s.Equal(30*time.Second, cfg.BundleCacheTTL())
	s.Equal("testdata/manifest.toml", cfg.ManifestPath())

	tag, err := cfg.Locale()
	s.Require().NoError(err)
	s.Equal(language.MustParse("de-CH"), tag)

	var target ConfigurationDefault
	s.Require().NoError(FillEnv(&target))
	s.Equal("debug", target.LogLevel)
}

func (s *ConfigSuite) TestParseLocale() {
	testCases := []struct {
		name    string
		input   string
		want    language.Tag
		wantErr bool
	}{
		{name: "empty", input: "", want: language.Und},
		{name: "root", input: "root", want: language.Und},
		{name: "bcp47", input: "en-GB", want: language.BritishEnglish},
		{name: "java style", input: "en_GB", want: language.BritishEnglish},
		{name: "invalid", input: "not a locale", wantErr: true},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			tag, err := ParseLocale(tc.input)
			if tc.wantErr {
				s.Require().Error(err)
				return
			}
			s.Require().NoError(err)
			s.Equal(tc.want, tag)
		})
	}
}

func (s *ConfigSuite) TestLoadTOMLManifest() {
	ctx := context.Background()
	m, err := LoadManifest(filepath.Join("testdata", "manifest.toml"))
	s.Require().NoError(err)
	s.Equal(language.German, m.Locale())
	s.Len(m.Modules, 2)

	reg, err := m.OpenRegistry(ctx)
	s.Require().NoError(err)
	defer func() { s.Require().NoError(reg.Close()) }()

	s.Equal("app", reg.Default().Name())
	app, ok := reg.Lookup("app")
	s.Require().True(ok)
	data, err := source.ReadAll(ctx, app, "app/strings/string.properties")
	s.Require().NoError(err)
	s.Equal("labelValid1=String resource 1\n", string(data))

	_, ok = reg.Lookup("memory")
	s.True(ok)
}

func (s *ConfigSuite) TestLoadYAMLManifest() {
	m, err := LoadManifest(filepath.Join("testdata", "manifest.yaml"))
	s.Require().NoError(err)
	s.Equal(language.BritishEnglish, m.Locale())
	s.Equal("res", m.Modules[0].Dir)
}

func (s *ConfigSuite) TestInvalidManifests() {
	testCases := []struct {
		name   string
		format string
		data   string
	}{
		{name: "unknown format", format: "ini", data: ""},
		{name: "no source", format: "toml", data: "[[modules]]\nname = \"a\"\n"},
		{name: "both sources", format: "toml", data: "[[modules]]\nname = \"a\"\ndir = \"x\"\nurl = \"mem://\"\n"},
		{name: "duplicate", format: "yaml", data: "modules:\n  - {name: a, dir: x}\n  - {name: a, dir: y}\n"},
		{name: "unknown default", format: "toml", data: "default_module = \"zz\"\n"},
		{name: "bad locale", format: "toml", data: "default_locale = \"12 34\"\n"},
		{name: "unknown yaml field", format: "yml", data: "modulez: []\n"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := ParseManifest([]byte(tc.data), tc.format)
			s.Require().Error(err)
		})
	}
}

func (s *ConfigSuite) TestOpenRegistryMissingDir() {
	dir := s.T().TempDir()
	path := filepath.Join(dir, "m.toml")
	s.Require().NoError(os.WriteFile(path, []byte("[[modules]]\nname = \"a\"\ndir = \"nope\"\n"), 0o600))

	m, err := LoadManifest(path)
	s.Require().NoError(err)
	_, err = m.OpenRegistry(context.Background())
	s.Require().Error(err)
}

func (s *ConfigSuite) TestOpenRegistryHTTPModule() {
	ctx := s.T().Context()
	server := httptest.NewServer(http.FileServer(http.Dir(filepath.Join("testdata", "res"))))
	s.T().Cleanup(server.Close)

	m, err := ParseManifest([]byte("[[modules]]\nname = \"remote\"\nroot = \"example.com/remote\"\nurl = \""+server.URL+"/app\"\n"), "toml")
	s.Require().NoError(err)

	reg, err := m.OpenRegistry(ctx)
	s.Require().NoError(err)
	defer func() { s.Require().NoError(reg.Close()) }()

	remote, ok := reg.Lookup("remote")
	s.Require().True(ok)
	s.IsType(&source.HTTPModule{}, remote)

	data, err := source.ReadAll(ctx, remote, "strings/string.properties")
	s.Require().NoError(err)
	s.Equal("labelValid1=String resource 1\n", string(data))

	_, err = source.ReadAll(ctx, remote, "strings/string_de.properties")
	s.True(source.IsNotExist(err))
}
