package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestResolvePrefersLdflags(t *testing.T) {
	t.Parallel()

	read := func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main:     debug.Module{Version: "v0.9.0"},
			Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffffffffff"}},
		}, true
	}
	got := resolve(Info{Version: "v1.2.0", Commit: "0123456789abcdef"}, read)
	if got.Version != "v1.2.0" || got.Commit != "0123456789abcdef" {
		t.Fatalf("ldflags values were replaced: %+v", got)
	}
	if s := got.String(); s != "v1.2.0 (0123456789ab)" {
		t.Fatalf("String() = %q", s)
	}
}

func TestResolveFromBuildInfo(t *testing.T) {
	t.Parallel()

	read := func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main: debug.Module{Version: "(devel)"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			},
		}, true
	}
	got := resolve(Info{}, read)
	if got.Commit != "abc123" || got.BuildTime != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected info: %+v", got)
	}
	if got.Version != got.BuildTime {
		t.Fatalf("version should fall back to the build time, got %q", got.Version)
	}
}

func TestResolveWithoutBuildInfo(t *testing.T) {
	t.Parallel()

	got := resolve(Info{}, func() (*debug.BuildInfo, bool) { return nil, false })
	if !strings.HasPrefix(got.Version, "dev-") {
		t.Fatalf("expected dev version, got %q", got.Version)
	}
	if got.String() != got.Version {
		t.Fatalf("no commit means no suffix, got %q", got.String())
	}
}
