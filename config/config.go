package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

type contextKey string

func (c contextKey) String() string {
	return "resources/config/" + string(c)
}

const (
	ctxKeyConfiguration = contextKey("configurationKey")

	DefaultBundleCacheTTL = 5 * time.Minute
)

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

type ConfigurationDefault struct {
	LogLevel      string `envDefault:"info"                      env:"LOG_LEVEL"       yaml:"log_level"`
	LogTimeFormat string `envDefault:"2006-01-02T15:04:05Z07:00" env:"LOG_TIME_FORMAT" yaml:"log_time_format"`
	LogColored    bool   `envDefault:"true"                      env:"LOG_COLORED"     yaml:"log_colored"`

	LogShowStackTrace bool `envDefault:"false" env:"LOG_SHOW_STACK_TRACE" yaml:"log_show_stack_trace"`

	OpenTelemetryDisable    bool    `envDefault:"false" env:"OPENTELEMETRY_DISABLE"        yaml:"opentelemetry_disable"`
	OpenTelemetryTraceRatio float64 `envDefault:"0.1"   env:"OPENTELEMETRY_TRACE_ID_RATIO" yaml:"opentelemetry_trace_id_ratio"`

	ServiceName string `envDefault:"" env:"SERVICE_NAME" yaml:"service_name"`

	ResourcesLocale         string        `envDefault:""     env:"RESOURCES_LOCALE"           yaml:"resources_locale"`
	ResourcesManifest       string        `envDefault:""     env:"RESOURCES_MANIFEST"         yaml:"resources_manifest"`
	ResourcesBundleCacheTTL time.Duration `envDefault:"5m"   env:"RESOURCES_BUNDLE_CACHE_TTL" yaml:"resources_bundle_cache_ttl"`
	ResourcesBundleEncoding string        `envDefault:"auto" env:"RESOURCES_BUNDLE_ENCODING"  yaml:"resources_bundle_encoding"`
	ResourcesLocaleTopic    string        `envDefault:""     env:"RESOURCES_LOCALE_TOPIC"     yaml:"resources_locale_topic"`
}

type ConfigurationLogLevel interface {
	LoggingLevel() string
	LoggingTimeFormat() string
	LoggingShowStackTrace() bool
	LoggingColored() bool
	LoggingLevelIsDebug() bool
}

var _ ConfigurationLogLevel = new(ConfigurationDefault)

func (c *ConfigurationDefault) LoggingLevel() string {
	return c.LogLevel
}

func (c *ConfigurationDefault) LoggingTimeFormat() string {
	return c.LogTimeFormat
}

func (c *ConfigurationDefault) LoggingColored() bool {
	return c.LogColored
}

func (c *ConfigurationDefault) LoggingShowStackTrace() bool {
	return c.LogShowStackTrace
}

func (c *ConfigurationDefault) LoggingLevelIsDebug() bool {
	return c.LoggingLevel() == "debug" || c.LoggingLevel() == "trace"
}

type ConfigurationTelemetry interface {
	DisableOpenTelemetry() bool
	SamplingRatio() float64
	Name() string
}

var _ ConfigurationTelemetry = new(ConfigurationDefault)

func (c *ConfigurationDefault) DisableOpenTelemetry() bool {
	return c.OpenTelemetryDisable
}

func (c *ConfigurationDefault) SamplingRatio() float64 {
	return c.OpenTelemetryTraceRatio
}

func (c *ConfigurationDefault) Name() string {
	return c.ServiceName
}

// ConfigurationResources configures the resource loader.
type ConfigurationResources interface {
	// Locale is the initial locale; root when unset.
	Locale() (language.Tag, error)
	ManifestPath() string
	BundleCacheTTL() time.Duration
	BundleEncoding() string
	LocaleTopic() string
}

var _ ConfigurationResources = new(ConfigurationDefault)

func (c *ConfigurationDefault) Locale() (language.Tag, error) {
	return ParseLocale(c.ResourcesLocale)
}

func (c *ConfigurationDefault) ManifestPath() string {
	return strings.TrimSpace(c.ResourcesManifest)
}

func (c *ConfigurationDefault) BundleCacheTTL() time.Duration {
	if c.ResourcesBundleCacheTTL < 0 {
		return 0
	}
	return c.ResourcesBundleCacheTTL
}

func (c *ConfigurationDefault) BundleEncoding() string {
	return c.ResourcesBundleEncoding
}

func (c *ConfigurationDefault) LocaleTopic() string {
	return strings.TrimSpace(c.ResourcesLocaleTopic)
}

// ParseLocale parses a BCP 47 tag. Java style underscores are accepted and
// the empty string, "root" and "und" mean the root locale.
func ParseLocale(s string) (language.Tag, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "root", "und":
		return language.Und, nil
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return language.Und, fmt.Errorf("config: invalid locale %q: %w", s, err)
	}
	return tag, nil
}
