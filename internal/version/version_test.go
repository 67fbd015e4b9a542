package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuild(t *testing.T, newTag, newCommit, newBuildTime string, settings []debug.BuildSetting, ok bool) {
	t.Helper()
	origTag, origCommit, origBuildTime, origReader := tag, commit, buildTime, buildInfoReader
	t.Cleanup(func() {
		tag, commit, buildTime, buildInfoReader = origTag, origCommit, origBuildTime, origReader
	})

	tag, commit, buildTime = newTag, newCommit, newBuildTime
	buildInfoReader = func() (*debug.BuildInfo, bool) {
		if !ok {
			return nil, false
		}
		return &debug.BuildInfo{Settings: settings}, true
	}
}

func TestGet(t *testing.T) {
	vcs := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "vcs-commit"},
		{Key: "vcs.time", Value: "vcs-time"},
		{Key: "other.key", Value: "ignored"},
	}

	tests := []struct {
		name      string
		tag       string
		commit    string
		buildTime string
		settings  []debug.BuildSetting
		ok        bool
		expected  Info
	}{
		{
			name:      "ldflags without build info",
			tag:       "v1.0.0",
			commit:    "abc123",
			buildTime: "2025-04-15",
			expected:  Info{Tag: "v1.0.0", Commit: "abc123", BuildTime: "2025-04-15"},
		},
		{
			name:      "vcs fills defaults",
			tag:       "dev",
			commit:    "123abc",
			buildTime: "now",
			settings:  vcs,
			ok:        true,
			expected:  Info{Tag: "dev", Commit: "vcs-commit", BuildTime: "vcs-time"},
		},
		{
			name:      "ldflags win over vcs",
			tag:       "v2.0.0",
			commit:    "ldflags-commit",
			buildTime: "ldflags-time",
			settings:  vcs,
			ok:        true,
			expected:  Info{Tag: "v2.0.0", Commit: "ldflags-commit", BuildTime: "ldflags-time"},
		},
		{
			name:      "empty build settings",
			tag:       "dev",
			commit:    "unchanged-commit",
			buildTime: "unchanged-date",
			ok:        true,
			expected:  Info{Tag: "dev", Commit: "unchanged-commit", BuildTime: "unchanged-date"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuild(t, tt.tag, tt.commit, tt.buildTime, tt.settings, tt.ok)

			tt.expected.GoVersion = runtime.Version()
			assert.Equal(t, tt.expected, Get())
		})
	}
}

func TestString(t *testing.T) {
	withBuild(t, "v1.0.0", "abc123", "2025-04-15", nil, false)

	expected := "v1.0.0 (abc123) built at 2025-04-15 with " + runtime.Version() +
		"\nhttps://github.com/noot-app/fct-api/releases/tag/v1.0.0"
	assert.Equal(t, expected, String())
}

func TestTag(t *testing.T) {
	withBuild(t, "v0.3.1", "c", "t", nil, false)
	assert.Equal(t, "v0.3.1", Tag())
}
