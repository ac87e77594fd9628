package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/resources/errorcode"
)

type CommandTestSuite struct {
	suite.Suite

	dir string
}

func TestCommandSuite(t *testing.T) {
	suite.Run(t, new(CommandTestSuite))
}

func (s *CommandTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.writeFile("strings/string.properties", "titleMainWindow=Main\ntitleAbout=About us\n")
	s.writeFile("strings/string_de.properties", "titleMainWindow=Hauptfenster\n")
}

func (s *CommandTestSuite) writeFile(name, content string) {
	path := filepath.Join(s.dir, filepath.FromSlash(name))
	s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
}

func (s *CommandTestSuite) run(args ...string) (string, error) {
	var out bytes.Buffer
	err := run(newContext(s.T().Context()), args, &out)
	return out.String(), err
}

func (s *CommandTestSuite) TestFallback() {
	testCases := []struct {
		name     string
		args     []string
		expected string
		wantErr  bool
	}{
		{name: "camel case key", args: []string{"fallback", "titleMainWindow"}, expected: "Main Window\n"},
		{name: "enum key", args: []string{"fallback", "--enum", "mapColors.RED"}, expected: "Red\n"},
		{name: "several keys", args: []string{"fallback", "titleAbout", "menu.labelOk"}, expected: "About\nOk\n"},
		{name: "no key", args: []string{"fallback"}, wantErr: true},
		{name: "bad locale", args: []string{"fallback", "--locale", "not a locale", "x"}, wantErr: true},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			out, err := s.run(tc.args...)
			if tc.wantErr {
				s.Require().Error(err)
				return
			}
			s.Require().NoError(err)
			s.Equal(tc.expected, out)
		})
	}
}

func (s *CommandTestSuite) TestExplain() {
	out, err := s.run("explain", "1101")
	s.Require().NoError(err)
	s.Equal("[ResProcErrID#1101] ERR_STRING_RESOURCE_NOT_FOUND: "+errorcode.StringResourceNotFound.Template()+"\n", out)

	out, err = s.run("explain", "error: [ResProcErrID#1102] : Resource »icons/info.png« not found (ui.About.IconInfo)")
	s.Require().NoError(err)
	s.True(strings.HasPrefix(out, "[ResProcErrID#1102] ERR_BINARY_RESOURCE_NOT_FOUND: "), out)

	out, err = s.run("explain", "list")
	s.Require().NoError(err)
	s.Equal(len(errorcode.All()), strings.Count(out, "\n"))

	_, err = s.run("explain", "nothing to see", "99999")
	s.Require().Error(err)
}

func (s *CommandTestSuite) TestLookup() {
	testCases := []struct {
		name     string
		args     []string
		expected string
		wantErr  bool
	}{
		{
			name:     "root bundle",
			args:     []string{"lookup", "--dir", s.dir, "strings", "string", "titleMainWindow"},
			expected: "titleMainWindow=Main\n",
		},
		{
			name:     "localized bundle falls back to root",
			args:     []string{"lookup", "--dir", s.dir, "--locale", "de_CH", "strings", "string", "titleMainWindow", "titleAbout"},
			expected: "titleMainWindow=Hauptfenster\ntitleAbout=About us\n",
		},
		{
			name:     "all entries",
			args:     []string{"lookup", "--dir", s.dir, "--locale", "de", "--all", ".strings", "string"},
			expected: "titleAbout=About us\ntitleMainWindow=Hauptfenster\n",
		},
		{
			name:     "missing key",
			args:     []string{"lookup", "--dir", s.dir, "strings", "string", "titleHelp"},
			expected: errorcode.StringResourceNotFound.Format("titleHelp") + " (fallback: Help)\n",
			wantErr:  true,
		},
		{name: "missing bundle", args: []string{"lookup", "--dir", s.dir, "strings", "other", "x"}, wantErr: true},
		{name: "no module flags", args: []string{"lookup", "strings", "string", "x"}, wantErr: true},
		{
			name:    "exclusive module flags",
			args:    []string{"lookup", "--dir", s.dir, "--manifest", "m.toml", "strings", "string", "x"},
			wantErr: true,
		},
		{name: "no keys", args: []string{"lookup", "--dir", s.dir, "strings", "string"}, wantErr: true},
		{name: "unknown module", args: []string{"lookup", "--dir", s.dir, "--module", "x", "strings", "string", "a"}, wantErr: true},
		{name: "bad encoding", args: []string{"lookup", "--dir", s.dir, "--encoding", "ebcdic", "strings", "string", "a"}, wantErr: true},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			out, err := s.run(tc.args...)
			if tc.wantErr {
				s.Require().Error(err)
			} else {
				s.Require().NoError(err)
			}
			if tc.expected != "" {
				s.Equal(tc.expected, out)
			}
		})
	}
}

func (s *CommandTestSuite) TestCheck() {
	out, err := s.run("check", "--dir", s.dir)
	s.Require().NoError(err)
	s.Equal("1 modules checked: 0 errors, 0 warnings\n", out)

	s.writeFile("strings/string_fr.properties", "titleMainWindow=Fenêtre\ntitleHelp=Aide\n")
	out, err = s.run("check", "--dir", s.dir)
	s.Require().NoError(err)
	s.Contains(out, "warning: [ResProcErrID#1101] : ")
	s.Contains(out, "»titleHelp«")
	s.True(strings.HasSuffix(out, "1 modules checked: 0 errors, 1 warnings\n"), out)

	s.writeFile("broken.properties", "key=\\uZZZZ\n")
	out, err = s.run("check", "--dir", s.dir)
	s.Require().Error(err)
	s.Contains(out, "error: [ResProcErrID#1001] : ")

	_, err = s.run("check", "--dir", s.dir, "--warn-only")
	s.Require().NoError(err)
}

func (s *CommandTestSuite) TestCheckManifest() {
	out, err := s.run("check", "--manifest", filepath.Join("..", "..", "config", "testdata", "manifest.toml"), "--module", "app")
	s.Require().NoError(err)
	s.Equal("1 modules checked: 0 errors, 0 warnings\n", out)

	_, err = s.run("check", "--manifest", filepath.Join("..", "..", "config", "testdata", "manifest.toml"), "--module", "nope")
	s.Require().Error(err)
}

func (s *CommandTestSuite) TestUnknownCommand() {
	_, err := s.run("frobnicate")
	s.Require().Error(err)

	var out bytes.Buffer
	usage(&out)
	s.Contains(out.String(), "resources <command> [args]")
}
