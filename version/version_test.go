package version

import (
	"strings"
	"testing"
)

func restore(t *testing.T) {
	t.Helper()
	v, c, b, g := Version, GitCommit, BuildTime, GoVersion
	t.Cleanup(func() { Version, GitCommit, BuildTime, GoVersion = v, c, b, g })
}

func TestGetVersionInfoDev(t *testing.T) {
	restore(t)
	Version, GitCommit, BuildTime, GoVersion = "dev", "", "", ""

	info := GetVersionInfo()
	if info.Version != "dev" || info.IsRelease {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestGetVersionInfoLinkTimeValues(t *testing.T) {
	restore(t)
	Version, GitCommit, BuildTime, GoVersion = "1.2.0", "abc1234", "2026-03-01T10:30:00Z", "go1.25.0"

	info := GetVersionInfo()
	if !info.IsRelease || info.GitCommit != "abc1234" || info.GoVersion != "go1.25.0" {
		t.Errorf("unexpected info %+v", info)
	}
	if info.BuildDate.Year() != 2026 {
		t.Errorf("expected build year 2026, got %d", info.BuildDate.Year())
	}
	if s := info.String(); !strings.HasPrefix(s, "audioreport 1.2.0 (abc1234) built 2026-03-01T10:30:00Z") {
		t.Errorf("unexpected String %q", s)
	}
}

func TestDirtyVersionIsNotRelease(t *testing.T) {
	restore(t)
	Version = "1.2.0-dirty"
	if GetVersionInfo().IsRelease {
		t.Error("dirty version should not be a release")
	}
}

func TestShortVersionAndUserAgent(t *testing.T) {
	restore(t)
	Version, GitCommit = "1.2.0", "abc1234"

	if sv := GetShortVersion(); !strings.HasPrefix(sv, "1.2.0-abc1234") {
		t.Errorf("unexpected short version %q", sv)
	}
	if ua := UserAgent(); !strings.HasPrefix(ua, "audioreport/1.2.0-abc1234") {
		t.Errorf("unexpected user agent %q", ua)
	}
}

func TestShortCommit(t *testing.T) {
	if got := shortCommit("0123456789abcdef"); got != "0123456" {
		t.Errorf("got %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Errorf("got %q", got)
	}
}
