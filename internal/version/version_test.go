package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	origVersion, origCommit := Version, Commit
	defer func() {
		Version, Commit = origVersion, origCommit
	}()

	tests := []struct {
		commit string
		want   string
	}{
		{"unknown", "0.9.0"},
		{"abc", "0.9.0"},
		{"1234567", "0.9.0"},
		{"12345678", "0.9.0 (1234567)"},
		{"abc1234567890", "0.9.0 (abc1234)"},
	}

	for _, tt := range tests {
		t.Run(tt.commit, func(t *testing.T) {
			Version = "0.9.0"
			Commit = tt.commit
			if got := Info(); got != tt.want {
				t.Errorf("Info() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
	defer func() {
		Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
	}()

	Version = "1.2.3"
	Commit = "abcdef123456"
	BuildDate = "2026-01-15"

	got := Full()
	for _, part := range []string{"algoscope version 1.2.3", "Commit: abcdef123456", "Built: 2026-01-15"} {
		if !strings.Contains(got, part) {
			t.Errorf("Full() = %q, want to contain %q", got, part)
		}
	}
}

func TestVersionIsSemver(t *testing.T) {
	if parts := strings.Split(Version, "."); len(parts) != 3 {
		t.Errorf("Version %q doesn't appear to be semver", Version)
	}
}
