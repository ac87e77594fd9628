package source_test

import (
	"net/http"
	"net/http/httptest"

	"golang.org/x/text/language"

	"github.com/pitabwire/resources/bundle"
	"github.com/pitabwire/resources/source"
)

func (s *SourceTestSuite) TestHTTPModule() {
	ctx := s.T().Context()
	mux := http.NewServeMux()
	mux.HandleFunc("/res/strings/string.properties", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("titleMainWindow=Main\n"))
	})
	mux.HandleFunc("/res/broken.properties", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/res/private.properties", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	server := httptest.NewServer(mux)
	s.T().Cleanup(server.Close)

	m, err := source.NewHTTP("remote", "example.com/remote/", server.URL+"/res", server.Client())
	s.Require().NoError(err)
	s.Equal("remote", m.Name())
	s.Equal("example.com/remote", m.Root())
	s.Contains(m.String(), server.URL)

	data, err := source.ReadAll(ctx, m, "/strings/string.properties")
	s.Require().NoError(err)
	s.Equal("titleMainWindow=Main\n", string(data))

	_, err = source.ReadAll(ctx, m, "strings/string_de.properties")
	s.True(source.IsNotExist(err))

	_, err = source.ReadAll(ctx, m, "private.properties")
	s.True(source.IsNotExist(err))

	_, err = source.ReadAll(ctx, m, "broken.properties")
	s.Require().Error(err)
	s.False(source.IsNotExist(err))

	s.NoError(m.Close())
}

func (s *SourceTestSuite) TestHTTPModuleForbiddenLocaleFile() {
	ctx := s.T().Context()
	mux := http.NewServeMux()
	mux.HandleFunc("/res/strings/string.properties", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("titleMainWindow=Main\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	server := httptest.NewServer(mux)
	s.T().Cleanup(server.Close)

	m, err := source.NewHTTP("remote", "", server.URL+"/res", nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { s.NoError(m.Close()) })

	b, err := bundle.NewLoader().Load(ctx, m, "strings", "string", language.MustParse("de-CH"))
	s.Require().NoError(err)
	s.Equal(language.Und, b.Locale())
	value, ok := b.Get("titleMainWindow")
	s.True(ok)
	s.Equal("Main", value)
}

func (s *SourceTestSuite) TestHTTPModuleOwnClient() {
	m, err := source.NewHTTP("remote", "", "http://localhost/res", nil)
	s.Require().NoError(err)
	s.NotNil(m.Client())
	s.NotSame(http.DefaultClient, m.Client())

	custom := &http.Client{}
	m, err = source.NewHTTP("remote", "", "http://localhost/res", custom)
	s.Require().NoError(err)
	s.Same(custom, m.Client())
}

func (s *SourceTestSuite) TestHTTPModuleURLs() {
	testCases := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "http", url: "http://localhost/res"},
		{name: "https with slash", url: "https://cdn.example.com/res/"},
		{name: "other scheme", url: "ftp://example.com", wantErr: true},
		{name: "unparsable", url: "http://[::1", wantErr: true},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			m, err := source.NewHTTP("remote", "", tc.url, nil)
			if tc.wantErr {
				s.Require().Error(err)
				return
			}
			s.Require().NoError(err)
			s.NotNil(m)
		})
	}
}
