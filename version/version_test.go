package version

import (
	"strings"
	"testing"
)

func saveAndRestore() func() {
	origVersion, origCommit, origBuildTime := Version, GitCommit, BuildTime
	return func() {
		Version = origVersion
		GitCommit = origCommit
		BuildTime = origBuildTime
	}
}

func TestGetUsesLinkerValues(t *testing.T) {
	defer saveAndRestore()()
	Version = "v1.4.0"
	GitCommit = "abc1234"
	BuildTime = "2026-01-02T03:04:05Z"

	info := Get()
	if info.Version != "v1.4.0" {
		t.Errorf("expected v1.4.0, got %q", info.Version)
	}
	if info.GitCommit != "abc1234" {
		t.Errorf("expected linker commit to win, got %q", info.GitCommit)
	}
	if info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("expected linker build time, got %q", info.BuildTime)
	}
}

func TestInfoShortAndString(t *testing.T) {
	info := Info{Version: "v1.0.0", GitCommit: "deadbee", Dirty: true, BuildTime: "2026-01-01T00:00:00Z", GoVersion: "go1.26.0"}
	if got := info.Short(); got != "v1.0.0-deadbee-dirty" {
		t.Errorf("unexpected short version %q", got)
	}
	s := info.String()
	for _, want := range []string{"v1.0.0-deadbee-dirty", "built 2026-01-01T00:00:00Z", "go1.26.0"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in %q", want, s)
		}
	}
}

func TestIsRelease(t *testing.T) {
	tests := []struct {
		info Info
		want bool
	}{
		{Info{Version: "dev"}, false},
		{Info{Version: "v1.0.0"}, true},
		{Info{Version: "v1.0.0", Dirty: true}, false},
		{Info{Version: "v1.0.0-dirty"}, false},
	}
	for _, tc := range tests {
		if got := tc.info.IsRelease(); got != tc.want {
			t.Errorf("%+v: IsRelease() = %v, want %v", tc.info, got, tc.want)
		}
	}
}

func TestShortCommit(t *testing.T) {
	if got := shortCommit("0123456789abcdef"); got != "0123456" {
		t.Errorf("unexpected %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Errorf("unexpected %q", got)
	}
}
