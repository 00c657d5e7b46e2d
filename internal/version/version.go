// Package version holds build metadata set with -ldflags, e.g.
//
//	go build -ldflags "-X taskplan/internal/version.Version=v1.2.0"
package version

import "runtime"

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// GoVersion returns the Go runtime version string.
func GoVersion() string { return runtime.Version() }
