// Package version holds build metadata stamped in at link time via
// -ldflags "-X gigdex/internal/version.Version=...".
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Full returns the version with commit hash and build date.
func Full() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}

// Short returns the bare version string.
func Short() string {
	return Version
}
