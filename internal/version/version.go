// Package version reports what the binary was built from
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags "-X github.com/noot-app/fct-api/internal/version.tag=..."
var (
	tag       = "dev"
	commit    = "123abc"
	buildTime = "now"
)

const releaseURL = "https://github.com/noot-app/fct-api/releases/tag/%s"

// buildInfoReader is swapped in tests
var buildInfoReader = debug.ReadBuildInfo

// Info describes a build
type Info struct {
	Tag       string `json:"tag"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the build info. ldflags values win; VCS settings embedded by
// the Go toolchain fill in whatever ldflags left at its default.
func Get() Info {
	info := Info{
		Tag:       tag,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}

	if bi, ok := buildInfoReader(); ok {
		for _, setting := range bi.Settings {
			switch {
			case setting.Key == "vcs.revision" && commit == "123abc":
				info.Commit = setting.Value
			case setting.Key == "vcs.time" && buildTime == "now":
				info.BuildTime = setting.Value
			}
		}
	}

	return info
}

// String formats the build info for the version command
func String() string {
	info := Get()
	return fmt.Sprintf("%s (%s) built at %s with %s\n"+releaseURL,
		info.Tag, info.Commit, info.BuildTime, info.GoVersion, info.Tag)
}

// Tag returns the release tag the binary was built from
func Tag() string {
	return tag
}
