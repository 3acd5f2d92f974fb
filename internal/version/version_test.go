package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Name != Name {
		t.Errorf("Expected name %q, got %q", Name, info.Name)
	}

	if info.Version != Version {
		t.Errorf("Expected version %q, got %q", Version, info.Version)
	}

	if info.GitCommit == "" {
		t.Error("GitCommit should not be empty")
	}

	if info.GoVersion == "" {
		t.Error("GoVersion should not be empty")
	}
}

func TestFillFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		GoVersion: "go1.24.3",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2024-05-01T10:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	info := Info{Name: Name, Version: "v1.2.3", GitCommit: unknown, BuildDate: unknown}
	fillFromBuildInfo(&info, bi)

	if info.GitCommit != "0123456789ab" {
		t.Errorf("Expected short revision, got %q", info.GitCommit)
	}
	if info.BuildDate != "2024-05-01T10:00:00Z" {
		t.Errorf("Expected vcs time as build date, got %q", info.BuildDate)
	}
	if !info.Modified {
		t.Error("Expected modified flag to be set")
	}

	want := "vizstream v1.2.3 (commit 0123456789ab-dirty, built 2024-05-01T10:00:00Z, go1.24.3)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	stamped := Info{GitCommit: "release", BuildDate: "today"}
	fillFromBuildInfo(&stamped, bi)
	if stamped.GitCommit != "release" || stamped.BuildDate != "today" {
		t.Errorf("Stamped values must win over build info, got %+v", stamped)
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()

	if !strings.HasPrefix(ua, "vizstream/"+Version) {
		t.Errorf("Unexpected user agent %q", ua)
	}
}
