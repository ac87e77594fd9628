package resources_test

import (
	"bytes"
	"context"
	"reflect"
	"testing"
	"testing/fstest"
	"time"

	"github.com/pitabwire/util"
	"github.com/stretchr/testify/suite"
	"gocloud.dev/pubsub"
	"golang.org/x/text/language"

	"github.com/pitabwire/resources"
	"github.com/pitabwire/resources/cache"
	"github.com/pitabwire/resources/config"
	"github.com/pitabwire/resources/errorcode"
	"github.com/pitabwire/resources/holder"
	"github.com/pitabwire/resources/inject"
	"github.com/pitabwire/resources/source"
)

type mainWindow struct {
	holder.Base `strings:"package=.strings,basename=string"`

	TitleMainWindow string
	ButtonOk        string
}

type aboutDialog struct {
	holder.Base `strings:"package=.strings,basename=string"`

	TitleAbout string
}

// notAStruct satisfies holder.Holder but cannot be injected.
type notAStruct int

func (notAStruct) Locale() language.Tag { return language.Und }

func (*notAStruct) SetLocale(language.Tag) {}

type sliceCallback []int

func (sliceCallback) OnResources(context.Context, *mainWindow) {}

func testPackage() string {
	return reflect.TypeFor[mainWindow]().PkgPath()
}

func fixtureFS() fstest.MapFS {
	return fstest.MapFS{
		"strings/string.properties":    {Data: []byte("titleMainWindow=Main window\nbuttonOk=OK\n")},
		"strings/string_de.properties": {Data: []byte("titleMainWindow=Hauptfenster\n")},
		"strings/string_fr.properties": {Data: []byte("titleMainWindow=Fen\\u00eatre principale\n")},
	}
}

type delivery struct {
	name   string
	title  string
	locale language.Tag
}

type LoaderTestSuite struct {
	suite.Suite

	fsys       fstest.MapFS
	deliveries []delivery
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderTestSuite))
}

func (s *LoaderTestSuite) SetupTest() {
	s.fsys = fixtureFS()
	s.deliveries = nil
}

func (s *LoaderTestSuite) newLoader(opts ...resources.Option) (context.Context, *resources.Loader) {
	opts = append([]resources.Option{
		resources.WithModule(source.NewFS("app", testPackage(), s.fsys)),
	}, opts...)

	ctx, loader, err := resources.NewLoader(s.T().Context(), opts...)
	s.Require().NoError(err)
	s.T().Cleanup(func() {
		s.NoError(loader.Close(context.Background()))
	})
	return ctx, loader
}

func (s *LoaderTestSuite) recorder(name string) resources.Callback[mainWindow] {
	return resources.Func(func(_ context.Context, w *mainWindow) {
		s.deliveries = append(s.deliveries, delivery{name: name, title: w.TitleMainWindow, locale: w.Locale()})
	})
}

func (s *LoaderTestSuite) names() []string {
	names := make([]string, 0, len(s.deliveries))
	for _, d := range s.deliveries {
		names = append(names, d.name)
	}
	return names
}

func (s *LoaderTestSuite) TestRegisterDeliversImmediately() {
	ctx, loader := s.newLoader()

	replaced := resources.Register[mainWindow](ctx, loader, s.recorder("a"))

	s.False(replaced)
	s.Equal(1, loader.Len())
	s.Require().Len(s.deliveries, 1)
	s.Equal(delivery{name: "a", title: "Main window", locale: language.Und}, s.deliveries[0])
}

func (s *LoaderTestSuite) TestSetLocaleOrder() {
	ctx, loader := s.newLoader()

	for _, name := range []string{"a", "b", "c"} {
		resources.Register[mainWindow](ctx, loader, s.recorder(name))
	}
	s.deliveries = nil

	s.True(loader.SetLocale(ctx, language.German))
	s.Equal(language.German, loader.Locale())
	s.Equal([]string{"a", "b", "c"}, s.names())
	for _, d := range s.deliveries {
		s.Equal("Hauptfenster", d.title)
		s.Equal(language.German, d.locale)
	}

	s.deliveries = nil
	s.True(loader.SetLocale(ctx, language.French))
	s.Equal([]string{"a", "b", "c"}, s.names())
	s.Equal("Fenêtre principale", s.deliveries[0].title)
}

func (s *LoaderTestSuite) TestSetLocaleUnchanged() {
	ctx, loader := s.newLoader(resources.WithLocale(language.German))
	resources.Register[mainWindow](ctx, loader, s.recorder("a"))
	s.deliveries = nil

	s.False(loader.SetLocale(ctx, language.German))
	s.Empty(s.deliveries)

	s.True(loader.SetLocale(ctx, language.Und))
	s.Require().Len(s.deliveries, 1)
	s.Equal("Main window", s.deliveries[0].title)
}

func (s *LoaderTestSuite) TestRegisterReplacesEqualCallback() {
	ctx, loader := s.newLoader()

	a := s.recorder("a")
	b := s.recorder("b")
	s.False(resources.Register[mainWindow](ctx, loader, a))
	s.False(resources.Register[mainWindow](ctx, loader, b))
	s.True(resources.Register[mainWindow](ctx, loader, a))
	s.Equal(2, loader.Len())

	s.deliveries = nil
	loader.SetLocale(ctx, language.German)
	s.Equal([]string{"b", "a"}, s.names())
}

func (s *LoaderTestSuite) TestUnregister() {
	ctx, loader := s.newLoader()

	a := s.recorder("a")
	resources.Register[mainWindow](ctx, loader, a)
	resources.Register[mainWindow](ctx, loader, s.recorder("b"))

	s.True(loader.Unregister(ctx, a))
	s.False(loader.Unregister(ctx, a))
	s.False(loader.Unregister(ctx, nil))
	s.Equal(1, loader.Len())

	s.deliveries = nil
	loader.SetLocale(ctx, language.German)
	s.Equal([]string{"b"}, s.names())
}

func (s *LoaderTestSuite) TestIncomparableCallbacks() {
	ctx, loader := s.newLoader()

	cb := sliceCallback{1}
	s.False(resources.Register[mainWindow](ctx, loader, cb))
	s.False(resources.Register[mainWindow](ctx, loader, cb))
	s.Equal(2, loader.Len())
	s.False(loader.Unregister(ctx, cb))
}

func (s *LoaderTestSuite) TestRegisterDuringSweep() {
	ctx, loader := s.newLoader()

	late := s.recorder("late")
	registered := false
	resources.Register[mainWindow](ctx, loader, resources.Func(func(ctx context.Context, w *mainWindow) {
		s.deliveries = append(s.deliveries, delivery{name: "a", title: w.TitleMainWindow, locale: w.Locale()})
		if w.Locale() == language.German && !registered {
			registered = true
			resources.Register[mainWindow](ctx, loader, late)
		}
	}))
	resources.Register[mainWindow](ctx, loader, s.recorder("b"))
	s.deliveries = nil

	loader.SetLocale(ctx, language.German)

	s.Equal([]string{"a", "late", "b"}, s.names())
	s.Equal(language.German, s.deliveries[1].locale)
	s.Equal(3, loader.Len())

	s.deliveries = nil
	loader.SetLocale(ctx, language.French)
	s.Equal([]string{"a", "b", "late"}, s.names())
}

func (s *LoaderTestSuite) TestUnregisterDuringSweep() {
	ctx, loader := s.newLoader()

	b := s.recorder("b")
	resources.Register[mainWindow](ctx, loader, resources.Func(func(ctx context.Context, w *mainWindow) {
		s.deliveries = append(s.deliveries, delivery{name: "a", locale: w.Locale()})
		if w.Locale() == language.German {
			loader.Unregister(ctx, b)
		}
	}))
	resources.Register[mainWindow](ctx, loader, b)
	s.deliveries = nil

	loader.SetLocale(ctx, language.German)
	s.Equal([]string{"a"}, s.names())
}

func (s *LoaderTestSuite) TestNestedSetLocaleSupersedesSweep() {
	ctx, loader := s.newLoader()

	resources.Register[mainWindow](ctx, loader, resources.Func(func(ctx context.Context, w *mainWindow) {
		s.deliveries = append(s.deliveries, delivery{name: "a", locale: w.Locale()})
		if w.Locale() == language.German {
			loader.SetLocale(ctx, language.French)
		}
	}))
	resources.Register[mainWindow](ctx, loader, s.recorder("b"))
	s.deliveries = nil

	loader.SetLocale(ctx, language.German)

	s.Equal(language.French, loader.Locale())
	s.Equal([]string{"a", "a", "b"}, s.names())
	s.Equal(language.German, s.deliveries[0].locale)
	s.Equal(language.French, s.deliveries[1].locale)
	s.Equal(language.French, s.deliveries[2].locale)
}

func (s *LoaderTestSuite) TestFailedInstantiationIsSkipped() {
	var buf bytes.Buffer
	ctx, loader := s.newLoader(resources.WithLogger(
		util.WithLogOutput(&buf),
		util.WithLogNoColor(true),
	))

	called := false
	resources.Register[notAStruct](ctx, loader, resources.Func(func(context.Context, *notAStruct) {
		called = true
	}))
	resources.Register[mainWindow](ctx, loader, s.recorder("a"))
	s.deliveries = nil

	loader.SetLocale(ctx, language.German)

	s.False(called)
	s.Equal([]string{"a"}, s.names())
	s.Contains(buf.String(), "could not deliver holder")
}

func (s *LoaderTestSuite) TestWarningHandler() {
	var warnings inject.Warnings
	ctx, loader := s.newLoader(resources.WithWarningHandler(func(_ context.Context, w *inject.Warning) {
		warnings = append(warnings, w)
	}))

	var got *aboutDialog
	resources.Register[aboutDialog](ctx, loader, resources.Func(func(_ context.Context, d *aboutDialog) {
		got = d
	}))

	s.Require().NotNil(got)
	s.Equal("About", got.TitleAbout)
	s.Equal([]errorcode.Code{errorcode.StringResourceNotFound}, warnings.Codes())
}

func (s *LoaderTestSuite) TestInjectWithoutRegistering() {
	ctx, loader := s.newLoader(resources.WithLocale(language.German))

	var w mainWindow
	warnings := loader.Inject(ctx, &w)
	s.Empty(warnings)
	s.Equal("Hauptfenster", w.TitleMainWindow)
	s.Equal("OK", w.ButtonOk)
	s.Equal(0, loader.Len())
}

func (s *LoaderTestSuite) TestRefreshRereadsBundles() {
	shared := cache.NewInMemoryCache()
	ctx, loader := s.newLoader(
		resources.WithBundleCache(shared, time.Hour),
		resources.WithBinaryCache(shared, time.Hour),
	)
	resources.Register[mainWindow](ctx, loader, s.recorder("a"))

	s.fsys["strings/string.properties"] = &fstest.MapFile{Data: []byte("titleMainWindow=Changed\n")}
	s.deliveries = nil

	var w mainWindow
	loader.Inject(ctx, &w)
	s.Equal("Main window", w.TitleMainWindow)

	s.Require().NoError(loader.Refresh(ctx))
	s.Require().Len(s.deliveries, 1)
	s.Equal("Changed", s.deliveries[0].title)
}

func (s *LoaderTestSuite) TestContext() {
	ctx, loader := s.newLoader()

	s.Same(loader, resources.FromContext(ctx))
	s.Nil(resources.FromContext(context.Background()))

	cfg, ok := loader.Config().(*config.ConfigurationDefault)
	s.Require().True(ok)
	s.Same(cfg, config.FromContext[*config.ConfigurationDefault](ctx))
}

func (s *LoaderTestSuite) TestOptionErrors() {
	testCases := []struct {
		name string
		opts []resources.Option
	}{
		{name: "nil registry", opts: []resources.Option{resources.WithRegistry(nil)}},
		{name: "unknown default module", opts: []resources.Option{resources.WithDefaultModule("nope")}},
		{name: "missing manifest", opts: []resources.Option{resources.WithManifest("testdata/none.toml")}},
		{name: "bad topic", opts: []resources.Option{resources.WithLocaleTopic("nope://topic")}},
		{name: "nil module", opts: []resources.Option{resources.WithModule(nil)}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, loader, err := resources.NewLoader(s.T().Context(), tc.opts...)
			s.Error(err)
			s.Require().NotNil(loader)
			s.NoError(loader.Close(context.Background()))
		})
	}
}

func (s *LoaderTestSuite) TestManifest() {
	ctx, loader, err := resources.NewLoader(s.T().Context(), resources.WithManifest("config/testdata/manifest.toml"))
	s.Require().NoError(err)
	defer func() { s.NoError(loader.Close(ctx)) }()

	s.Equal(language.German, loader.Locale())
	_, ok := loader.Registry().Lookup("memory")
	s.True(ok)
	s.Equal("app", loader.Registry().Default().Name())
}

func (s *LoaderTestSuite) TestEnvConfiguration() {
	s.T().Setenv("RESOURCES_LOCALE", "de_CH")
	s.T().Setenv("RESOURCES_BUNDLE_ENCODING", "nope")

	_, loader, err := resources.NewLoader(s.T().Context())
	s.Error(err)
	s.Equal(language.MustParse("de-CH"), loader.Locale())
	s.NoError(loader.Close(context.Background()))
}

func (s *LoaderTestSuite) TestLocaleEvents() {
	topic := "mem://resources_loader_locale_events"
	ctx, loader := s.newLoader(resources.WithLocaleTopic(topic))

	sub, err := pubsub.OpenSubscription(ctx, topic)
	s.Require().NoError(err)
	defer func() { _ = sub.Shutdown(context.Background()) }()

	_, follower, err := resources.NewLoader(s.T().Context(), resources.WithFollowLocaleChanges())
	s.Require().NoError(err)
	defer func() { s.NoError(follower.Close(context.Background())) }()

	s.True(loader.SetLocale(ctx, language.German))
	s.Require().NoError(follower.Events().Receive(ctx, sub))

	s.Equal(language.German, follower.Locale())
}
