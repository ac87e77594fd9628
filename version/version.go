// Package version carries the build information of the resources command,
// set with -ldflags "-X github.com/pitabwire/resources/version.Version=...".
package version //nolint:revive // package name intentionally matches build-info convention

import (
	"fmt"
	"runtime/debug"
)

//nolint:gochecknoglobals //version information is set at build time
var (
	Repository string
	Version    string
	Commit     string
	Date       string
)

// String describes the build. Values not set at link time are taken from the
// module build information when available.
func String() string {
	repository, version, commit, date := Repository, Version, Commit, Date
	if info, ok := debug.ReadBuildInfo(); ok {
		if repository == "" {
			repository = info.Main.Path
		}
		if version == "" {
			version = info.Main.Version
		}
		for _, setting := range info.Settings {
			switch {
			case setting.Key == "vcs.revision" && commit == "":
				commit = setting.Value
			case setting.Key == "vcs.time" && date == "":
				date = setting.Value
			}
		}
	}
	return fmt.Sprintf("%s %s (commit %s, built %s)",
		orUnknown(repository), orUnknown(version), orUnknown(commit), orUnknown(date))
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
