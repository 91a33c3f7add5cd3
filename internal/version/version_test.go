package version

import (
	"runtime/debug"
	"strings"
	"testing"
	"time"
)

func TestCurrentPrefersBuildVersion(t *testing.T) {
	old := buildVersion
	buildVersion = "v1.2.3+dirty"
	t.Cleanup(func() { buildVersion = old })

	if got := Current(); got != "v1.2.3" {
		t.Fatalf("expected build version without dirty suffix, got %q", got)
	}
	if got := CurrentWithDirty(); got != "v1.2.3+dirty" {
		t.Fatalf("expected build version with dirty suffix, got %q", got)
	}
}

func TestPseudoFromBuildInfo(t *testing.T) {
	ts := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)
	info := &debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "1234567890abcdef"},
			{Key: "vcs.time", Value: ts.Format(time.RFC3339)},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	got := pseudoFromBuildInfo(info, true)
	if want := "v0.0.0-20250102030405-1234567890ab+dirty"; got != want {
		t.Fatalf("pseudo version = %q, want %q", got, want)
	}
	if got := pseudoFromBuildInfo(info, false); strings.HasSuffix(got, "+dirty") {
		t.Fatalf("expected no dirty suffix, got %q", got)
	}
	if pseudoFromBuildInfo(nil, true) != "" {
		t.Fatalf("expected empty version for nil build info")
	}
}

func TestCurrentFallsBackToUnknown(t *testing.T) {
	old := buildVersion
	buildVersion = ""
	t.Cleanup(func() { buildVersion = old })

	read := func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true
	}
	if got := current(read, false); got != "v0.0.0-unknown" {
		t.Fatalf("expected unknown version, got %q", got)
	}
}
