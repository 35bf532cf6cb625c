// Package version holds build metadata injected with -ldflags, for example
// -X github.com/jmylchreest/kpalette/internal/version.Version=1.2.3.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version of the build.
	Version = "dev"

	// Commit is the git commit the binary was built from.
	Commit = "unknown"

	// Date is the build time in RFC3339 format.
	Date = "unknown"

	// GoVersion is the toolchain used for the build.
	GoVersion = runtime.Version()
)

// Info is the JSON form of the build metadata.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns the build metadata of the running binary.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns the one-line version banner printed by "kpalette version".
func String() string {
	info := GetInfo()
	if Commit == "unknown" || Date == "unknown" {
		return fmt.Sprintf("kpalette %s (%s, %s)", info.Version, info.GoVersion, info.Platform)
	}
	return fmt.Sprintf("kpalette %s (commit %s, built %s, %s, %s)",
		info.Version, shortCommit(info.Commit), info.Date, info.GoVersion, info.Platform)
}

// Short returns only the version number.
func Short() string {
	return Version
}

func shortCommit(c string) string {
	if len(c) > 8 {
		return c[:8]
	}
	return c
}
