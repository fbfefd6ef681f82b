// Package buildinfo holds version metadata stamped at build time.
package buildinfo

// Set via -ldflags by the release build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
