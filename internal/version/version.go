// Package version reports build information for the revops binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/revops/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/revops/internal/version.Commit=abc123
//	  -X github.com/soyeahso/revops/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Build is the structured form of the build information.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns the build information. When Commit was not set at link time
// the VCS revision recorded by the Go toolchain is used, if any.
func Get() Build {
	b := Build{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if b.Commit == "unknown" {
		if rev, ok := vcsRevision(); ok {
			b.Commit = rev
		}
	}
	return b
}

// Info returns a formatted version string.
func Info() string {
	b := Get()
	return fmt.Sprintf("revops %s (commit: %s, built: %s, %s)",
		b.Version, short(b.Commit), b.Date, b.Platform)
}

func vcsRevision() (string, bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return s.Value, true
		}
	}
	return "", false
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
